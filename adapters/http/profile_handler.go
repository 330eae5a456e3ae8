package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	profileUC "github.com/khoahotran/devprofile/internal/application/usecase/profile"
	"github.com/khoahotran/devprofile/pkg/apperror"
	"github.com/khoahotran/devprofile/pkg/logger"
)

type ProfileHandler struct {
	profileUseCase *profileUC.ProfileUseCase
	logger         logger.Logger
}

func NewProfileHandler(uc *profileUC.ProfileUseCase, log logger.Logger) *ProfileHandler {
	return &ProfileHandler{
		profileUseCase: uc,
		logger:         log,
	}
}

func (h *ProfileHandler) GetMyProfile(c *gin.Context) {
	userID, ok := GetUserIDFromGinContext(c)
	if !ok {
		c.Error(apperror.NewUnauthorized(MsgInvalidToken, nil))
		return
	}

	output, err := h.profileUseCase.ExecuteGetOwn(c.Request.Context(), profileUC.GetProfileInput{UserID: userID})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, output.Profile)
}

func (h *ProfileHandler) UpsertProfile(c *gin.Context) {
	userID, ok := GetUserIDFromGinContext(c)
	if !ok {
		c.Error(apperror.NewUnauthorized(MsgInvalidToken, nil))
		return
	}

	body, err := bindValidated(c, UpsertProfileRules)
	if err != nil {
		c.Error(err)
		return
	}

	output, err := h.profileUseCase.ExecuteUpsert(c.Request.Context(), toUpsertInput(userID, body))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, output.Profile)
}

func (h *ProfileHandler) ListProfiles(c *gin.Context) {
	profiles, err := h.profileUseCase.ExecuteList(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, profiles)
}

// GetProfileByUser answers a malformed id exactly like an unknown one.
func (h *ProfileHandler) GetProfileByUser(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		c.Error(apperror.NewNotFound(profileUC.MsgProfileNotFound, "malformed user id "+c.Param("user_id")))
		return
	}

	output, err := h.profileUseCase.ExecuteGetByUser(c.Request.Context(), profileUC.GetProfileInput{UserID: userID})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, output.Profile)
}

func (h *ProfileHandler) DeleteMyAccount(c *gin.Context) {
	userID, ok := GetUserIDFromGinContext(c)
	if !ok {
		c.Error(apperror.NewUnauthorized(MsgInvalidToken, nil))
		return
	}

	if err := h.profileUseCase.ExecuteDeleteOwn(c.Request.Context(), profileUC.DeleteOwnInput{UserID: userID}); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": profileUC.MsgUserDeleted})
}

func (h *ProfileHandler) AddExperience(c *gin.Context) {
	userID, ok := GetUserIDFromGinContext(c)
	if !ok {
		c.Error(apperror.NewUnauthorized(MsgInvalidToken, nil))
		return
	}

	body, err := bindValidated(c, ExperienceRules)
	if err != nil {
		c.Error(err)
		return
	}

	p, err := h.profileUseCase.ExecuteAddExperience(c.Request.Context(), toExperienceInput(userID, body))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *ProfileHandler) RemoveExperience(c *gin.Context) {
	userID, ok := GetUserIDFromGinContext(c)
	if !ok {
		c.Error(apperror.NewUnauthorized(MsgInvalidToken, nil))
		return
	}

	// an id that cannot exist removes nothing
	entryID, err := uuid.Parse(c.Param("exp_id"))
	if err != nil {
		entryID = uuid.Nil
	}

	p, err := h.profileUseCase.ExecuteRemoveExperience(c.Request.Context(), profileUC.RemoveEntryInput{UserID: userID, EntryID: entryID})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *ProfileHandler) AddEducation(c *gin.Context) {
	userID, ok := GetUserIDFromGinContext(c)
	if !ok {
		c.Error(apperror.NewUnauthorized(MsgInvalidToken, nil))
		return
	}

	body, err := bindValidated(c, EducationRules)
	if err != nil {
		c.Error(err)
		return
	}

	p, err := h.profileUseCase.ExecuteAddEducation(c.Request.Context(), toEducationInput(userID, body))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *ProfileHandler) RemoveEducation(c *gin.Context) {
	userID, ok := GetUserIDFromGinContext(c)
	if !ok {
		c.Error(apperror.NewUnauthorized(MsgInvalidToken, nil))
		return
	}

	entryID, err := uuid.Parse(c.Param("edu_id"))
	if err != nil {
		c.Error(apperror.NewInternal("malformed education id "+c.Param("edu_id"), err))
		return
	}

	p, err := h.profileUseCase.ExecuteRemoveEducation(c.Request.Context(), profileUC.RemoveEntryInput{UserID: userID, EntryID: entryID})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *ProfileHandler) GithubRepos(c *gin.Context) {
	body, err := h.profileUseCase.ExecuteGithubRepos(c.Request.Context(), profileUC.GithubReposInput{Username: c.Param("username")})
	if err != nil {
		c.Error(err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}
