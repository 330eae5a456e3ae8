package profile

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/khoahotran/devprofile/internal/application/service"
	"github.com/khoahotran/devprofile/internal/domain/profile"
	"github.com/khoahotran/devprofile/internal/domain/user"
	"github.com/khoahotran/devprofile/pkg/apperror"
	"github.com/khoahotran/devprofile/pkg/logger"
	"github.com/khoahotran/devprofile/pkg/urlnorm"
)

const (
	MsgNoProfile       = "There is no profile for this user"
	MsgProfileNotFound = "Profile Not Found"
	MsgUserDeleted     = "User deleted"
)

var tracer = otel.Tracer("profile_usecase")

type ProfileUseCase struct {
	profileRepo profile.Repository
	userRepo    user.Repository
	publisher   service.EventPublisher
	revoker     service.TokenRevoker
	repoLister  service.RepoLister
	tokenTTL    time.Duration
	logger      logger.Logger
}

func NewProfileUseCase(
	profileRepo profile.Repository,
	userRepo user.Repository,
	publisher service.EventPublisher,
	revoker service.TokenRevoker,
	repoLister service.RepoLister,
	tokenTTL time.Duration,
	log logger.Logger,
) *ProfileUseCase {
	return &ProfileUseCase{
		profileRepo: profileRepo,
		userRepo:    userRepo,
		publisher:   publisher,
		revoker:     revoker,
		repoLister:  repoLister,
		tokenTTL:    tokenTTL,
		logger:      log,
	}
}

type GetProfileInput struct {
	UserID uuid.UUID
}

type GetProfileOutput struct {
	Profile *profile.Profile
}

func (uc *ProfileUseCase) ExecuteGetOwn(ctx context.Context, input GetProfileInput) (*GetProfileOutput, error) {
	ctx, span := tracer.Start(ctx, "GetOwn")
	defer span.End()

	p, err := uc.profileRepo.GetByUserID(ctx, input.UserID)
	if err != nil {
		span.RecordError(err)
		return nil, notFoundAs(err, MsgNoProfile, input.UserID)
	}
	return &GetProfileOutput{Profile: p}, nil
}

func (uc *ProfileUseCase) ExecuteGetByUser(ctx context.Context, input GetProfileInput) (*GetProfileOutput, error) {
	ctx, span := tracer.Start(ctx, "GetByUser")
	defer span.End()

	p, err := uc.profileRepo.GetByUserID(ctx, input.UserID)
	if err != nil {
		span.RecordError(err)
		return nil, notFoundAs(err, MsgProfileNotFound, input.UserID)
	}
	return &GetProfileOutput{Profile: p}, nil
}

func (uc *ProfileUseCase) ExecuteList(ctx context.Context) ([]*profile.Profile, error) {
	ctx, span := tracer.Start(ctx, "List")
	defer span.End()

	profiles, err := uc.profileRepo.List(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return profiles, nil
}

type UpsertProfileInput struct {
	UserID         uuid.UUID
	Company        *string
	Website        *string
	Location       *string
	Bio            *string
	Status         string
	Skills         []string
	GithubUsername *string
	Youtube        *string
	Twitter        *string
	Facebook       *string
	Linkedin       *string
	Instagram      *string
}

type UpsertProfileOutput struct {
	Profile *profile.Profile
}

func (uc *ProfileUseCase) ExecuteUpsert(ctx context.Context, input UpsertProfileInput) (*UpsertProfileOutput, error) {
	ctx, span := tracer.Start(ctx, "Upsert")
	defer span.End()
	span.SetAttributes(attribute.String("user_id", input.UserID.String()))

	fields, err := buildUpsertFields(input)
	if err != nil {
		return nil, err
	}

	p, err := uc.profileRepo.Upsert(ctx, input.UserID, fields)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	uc.publish(input.UserID, service.EventProfileUpserted, nil)
	return &UpsertProfileOutput{Profile: p}, nil
}

// buildUpsertFields normalizes every URL-valued field. Social links that
// were not sent stay absent.
func buildUpsertFields(input UpsertProfileInput) (profile.UpsertFields, error) {
	var fieldErrs []apperror.FieldError
	norm := func(param string, v *string) *string {
		n, err := urlnorm.NormalizePtr(v)
		if err != nil {
			fieldErrs = append(fieldErrs, apperror.FieldError{
				Msg: "Please include a valid URL", Param: param, Location: "body", Value: *v,
			})
			return nil
		}
		return n
	}

	skills := input.Skills
	if skills == nil {
		skills = []string{}
	}

	f := profile.UpsertFields{
		Company:        input.Company,
		Website:        norm("website", input.Website),
		Location:       input.Location,
		Status:         input.Status,
		Skills:         skills,
		Bio:            input.Bio,
		GithubUsername: input.GithubUsername,
		Social: profile.Social{
			Youtube:   norm("youtube", nonEmpty(input.Youtube)),
			Twitter:   norm("twitter", nonEmpty(input.Twitter)),
			Facebook:  norm("facebook", nonEmpty(input.Facebook)),
			Linkedin:  norm("linkedin", nonEmpty(input.Linkedin)),
			Instagram: norm("instagram", nonEmpty(input.Instagram)),
		},
	}
	if len(fieldErrs) > 0 {
		return profile.UpsertFields{}, apperror.NewValidation(fieldErrs)
	}
	return f, nil
}

// nonEmpty treats an empty social link like an omitted one.
func nonEmpty(v *string) *string {
	if v == nil || *v == "" {
		return nil
	}
	return v
}

// ParseSkills turns the skills payload into the stored list. A JSON array of
// strings is kept verbatim; a comma separated string is split, each item
// trimmed, and every item after the first is prefixed with a single space.
// Any other shape, including an array holding a non-string, yields nil.
func ParseSkills(raw any) []string {
	switch v := raw.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil
			}
			out[i] = s
		}
		return out
	case string:
		parts := strings.Split(v, ",")
		out := make([]string, len(parts))
		for i, p := range parts {
			p = strings.TrimSpace(p)
			if i > 0 {
				p = " " + p
			}
			out[i] = p
		}
		return out
	}
	return nil
}

type DeleteOwnInput struct {
	UserID uuid.UUID
}

// ExecuteDeleteOwn removes the caller's profile and then the caller's user
// record. Posts or other user-owned resources are not touched.
func (uc *ProfileUseCase) ExecuteDeleteOwn(ctx context.Context, input DeleteOwnInput) error {
	ctx, span := tracer.Start(ctx, "DeleteOwn")
	defer span.End()

	if err := uc.profileRepo.DeleteByUserID(ctx, input.UserID); err != nil {
		span.RecordError(err)
		return err
	}
	if err := uc.userRepo.Delete(ctx, input.UserID); err != nil {
		span.RecordError(err)
		return err
	}

	if err := uc.revoker.RevokeUser(ctx, input.UserID, uc.tokenTTL); err != nil {
		uc.logger.Warn("Failed to revoke tokens of deleted user", zap.String("user_id", input.UserID.String()), zap.Error(err))
	}

	uc.publish(input.UserID, service.EventUserDeleted, nil)
	return nil
}

func (uc *ProfileUseCase) publish(userID uuid.UUID, evtType service.AccountEventType, data map[string]string) {
	service.PublishAsync(uc.publisher, uc.logger, service.AccountEvent{
		EventType: evtType,
		UserID:    userID,
		Data:      data,
	})
}

func notFoundAs(err error, msg string, userID uuid.UUID) error {
	if errors.Is(err, profile.ErrProfileNotFound) {
		return apperror.NewNotFound(msg, "no profile for user "+userID.String())
	}
	return err
}
