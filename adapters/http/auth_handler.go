package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/khoahotran/devprofile/internal/application/usecase/auth"
	"github.com/khoahotran/devprofile/pkg/apperror"
	"github.com/khoahotran/devprofile/pkg/logger"
)

type AuthHandler struct {
	registerUseCase    *auth.RegisterUseCase
	loginUseCase       *auth.LoginUseCase
	currentUserUseCase *auth.CurrentUserUseCase
	logger             logger.Logger
}

func NewAuthHandler(registerUC *auth.RegisterUseCase, loginUC *auth.LoginUseCase, currentUC *auth.CurrentUserUseCase, log logger.Logger) *AuthHandler {
	return &AuthHandler{
		registerUseCase:    registerUC,
		loginUseCase:       loginUC,
		currentUserUseCase: currentUC,
		logger:             log,
	}
}

func (h *AuthHandler) Register(c *gin.Context) {
	body, err := bindValidated(c, RegisterRules)
	if err != nil {
		c.Error(err)
		return
	}

	output, err := h.registerUseCase.Execute(c.Request.Context(), auth.RegisterInput{
		Name:     str(body, "name"),
		Email:    str(body, "email"),
		Password: str(body, "password"),
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": output.AccessToken})
}

func (h *AuthHandler) Login(c *gin.Context) {
	body, err := bindValidated(c, LoginRules)
	if err != nil {
		c.Error(err)
		return
	}

	output, err := h.loginUseCase.Execute(c.Request.Context(), auth.LoginInput{
		Email:    str(body, "email"),
		Password: str(body, "password"),
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": output.AccessToken})
}

func (h *AuthHandler) CurrentUser(c *gin.Context) {
	userID, ok := GetUserIDFromGinContext(c)
	if !ok {
		c.Error(apperror.NewUnauthorized(MsgInvalidToken, nil))
		return
	}

	u, err := h.currentUserUseCase.Execute(c.Request.Context(), userID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, u)
}
