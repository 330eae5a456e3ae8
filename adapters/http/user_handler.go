package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	userUC "github.com/khoahotran/devprofile/internal/application/usecase/user"
	"github.com/khoahotran/devprofile/pkg/apperror"
	"github.com/khoahotran/devprofile/pkg/logger"
)

const (
	avatarFormField = "avatar"
	maxAvatarBytes  = 5 << 20
)

type UserHandler struct {
	uploadAvatarUseCase *userUC.UploadAvatarUseCase
	logger              logger.Logger
}

func NewUserHandler(uploadUC *userUC.UploadAvatarUseCase, log logger.Logger) *UserHandler {
	return &UserHandler{uploadAvatarUseCase: uploadUC, logger: log}
}

func (h *UserHandler) UploadAvatar(c *gin.Context) {
	userID, ok := GetUserIDFromGinContext(c)
	if !ok {
		c.Error(apperror.NewUnauthorized(MsgInvalidToken, nil))
		return
	}

	fileHeader, err := c.FormFile(avatarFormField)
	if err != nil {
		c.Error(apperror.NewAppError(apperror.ErrInvalidInput, "No file uploaded", "missing avatar form field", err))
		return
	}
	if fileHeader.Size > maxAvatarBytes {
		c.Error(apperror.NewAppError(apperror.ErrInvalidInput, "File too large", fileHeader.Filename, nil))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.Error(apperror.NewInternal("cannot open uploaded avatar", err))
		return
	}
	defer file.Close()

	u, err := h.uploadAvatarUseCase.Execute(c.Request.Context(), userUC.UploadAvatarInput{UserID: userID, File: file})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, u)
}
