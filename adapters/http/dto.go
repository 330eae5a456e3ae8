package http

import (
	"errors"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	profileUC "github.com/khoahotran/devprofile/internal/application/usecase/profile"
	"github.com/khoahotran/devprofile/internal/validation"
	"github.com/khoahotran/devprofile/pkg/apperror"
)

// bindBody decodes the JSON object of a request. An empty body decodes to an
// empty Body so that required-field rules report what is missing.
func bindBody(c *gin.Context) (validation.Body, error) {
	body := validation.Body{}
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		return nil, apperror.NewInvalidInput("request body is not a JSON object", err)
	}
	return body, nil
}

// bindValidated decodes the body and runs rules against it.
func bindValidated(c *gin.Context, rules []validation.Rule) (validation.Body, error) {
	body, err := bindBody(c)
	if err != nil {
		return nil, err
	}
	if fieldErrs := validation.Validate(body, rules); len(fieldErrs) > 0 {
		return nil, apperror.NewValidation(fieldErrs)
	}
	return body, nil
}

// optString returns the field when the client sent it as a string, "" included.
func optString(b validation.Body, field string) *string {
	s, ok := b.String(field)
	if !ok {
		return nil
	}
	return &s
}

func str(b validation.Body, field string) string {
	s, _ := b.String(field)
	return s
}

func boolField(b validation.Body, field string) bool {
	v, _ := b[field].(bool)
	return v
}

// dates reads from and the optional to. Both already passed validation.
func dates(b validation.Body) (time.Time, *time.Time) {
	from, _ := validation.ParseDate(str(b, "from"))
	if !b.Present("to") {
		return from, nil
	}
	to, err := validation.ParseDate(str(b, "to"))
	if err != nil {
		return from, nil
	}
	return from, &to
}

func toUpsertInput(userID uuid.UUID, b validation.Body) profileUC.UpsertProfileInput {
	return profileUC.UpsertProfileInput{
		UserID:         userID,
		Company:        optString(b, "company"),
		Website:        optString(b, "website"),
		Location:       optString(b, "location"),
		Bio:            optString(b, "bio"),
		Status:         str(b, "status"),
		Skills:         profileUC.ParseSkills(b["skills"]),
		GithubUsername: optString(b, "githubusername"),
		Youtube:        optString(b, "youtube"),
		Twitter:        optString(b, "twitter"),
		Facebook:       optString(b, "facebook"),
		Linkedin:       optString(b, "linkedin"),
		Instagram:      optString(b, "instagram"),
	}
}

func toExperienceInput(userID uuid.UUID, b validation.Body) profileUC.AddExperienceInput {
	from, to := dates(b)
	return profileUC.AddExperienceInput{
		UserID:      userID,
		Title:       str(b, "title"),
		Company:     str(b, "company"),
		Location:    optString(b, "location"),
		From:        from,
		To:          to,
		Current:     boolField(b, "current"),
		Description: optString(b, "description"),
	}
}

func toEducationInput(userID uuid.UUID, b validation.Body) profileUC.AddEducationInput {
	from, to := dates(b)
	return profileUC.AddEducationInput{
		UserID:       userID,
		School:       str(b, "school"),
		Degree:       str(b, "degree"),
		FieldOfStudy: str(b, "fieldofstudy"),
		From:         from,
		To:           to,
		Current:      boolField(b, "current"),
		Description:  optString(b, "description"),
	}
}
