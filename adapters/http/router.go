package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/khoahotran/devprofile/internal/application/service"
	"github.com/khoahotran/devprofile/pkg/auth"
	"github.com/khoahotran/devprofile/pkg/logger"
)

type RouterDeps struct {
	ProfileHandler *ProfileHandler
	AuthHandler    *AuthHandler
	UserHandler    *UserHandler
	FeedHandler    *FeedHandler
	JWTService     *auth.JWTService
	Revoker        service.TokenRevoker
	GithubLimiter  *IPRateLimiter
	Logger         logger.Logger
}

func NewRouter(d RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(AccessLogMiddleware(d.Logger))
	router.Use(ErrorMiddleware(d.Logger))

	authMiddleware := AuthMiddleware(d.JWTService, d.Revoker, d.Logger)

	api := router.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "UP"})
		})

		users := api.Group("/users")
		{
			users.POST("", d.AuthHandler.Register)
			users.PUT("/avatar", authMiddleware, d.UserHandler.UploadAvatar)
		}

		authGroup := api.Group("/auth")
		{
			authGroup.POST("", d.AuthHandler.Login)
			authGroup.GET("", authMiddleware, d.AuthHandler.CurrentUser)
		}

		profile := api.Group("/profile")
		{
			profile.GET("", d.ProfileHandler.ListProfiles)
			profile.GET("/user/:user_id", d.ProfileHandler.GetProfileByUser)
			profile.GET("/feed.rss", d.FeedHandler.ProfilesRSS)
			profile.GET("/feed.atom", d.FeedHandler.ProfilesAtom)
			profile.GET("/github/:username", RateLimitMiddleware(d.GithubLimiter), d.ProfileHandler.GithubRepos)

			private := profile.Group("")
			private.Use(authMiddleware)
			{
				private.GET("/me", d.ProfileHandler.GetMyProfile)
				private.POST("", d.ProfileHandler.UpsertProfile)
				private.DELETE("", d.ProfileHandler.DeleteMyAccount)
				private.PUT("/experience", d.ProfileHandler.AddExperience)
				private.DELETE("/experience/:exp_id", d.ProfileHandler.RemoveExperience)
				private.PUT("/education", d.ProfileHandler.AddEducation)
				private.DELETE("/education/:edu_id", d.ProfileHandler.RemoveEducation)
			}
		}
	}

	return router
}
