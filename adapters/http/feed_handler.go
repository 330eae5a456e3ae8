package http

import (
	"github.com/gin-gonic/gin"

	profileUC "github.com/khoahotran/devprofile/internal/application/usecase/profile"
	"github.com/khoahotran/devprofile/pkg/apperror"
	"github.com/khoahotran/devprofile/pkg/logger"
)

type FeedHandler struct {
	feedUseCase *profileUC.FeedUseCase
	logger      logger.Logger
}

func NewFeedHandler(uc *profileUC.FeedUseCase, log logger.Logger) *FeedHandler {
	return &FeedHandler{
		feedUseCase: uc,
		logger:      log,
	}
}

func (h *FeedHandler) ProfilesRSS(c *gin.Context) {
	feed, err := h.feedUseCase.Execute(c.Request.Context())
	if err != nil {
		c.Error(apperror.NewInternal("failed to generate profile feed", err))
		return
	}

	c.Header("Content-Type", "application/rss+xml; charset=utf-8")
	if err := feed.WriteRss(c.Writer); err != nil {
		h.logger.Error("Failed to write profile feed to response", err)
	}
}

func (h *FeedHandler) ProfilesAtom(c *gin.Context) {
	feed, err := h.feedUseCase.Execute(c.Request.Context())
	if err != nil {
		c.Error(apperror.NewInternal("failed to generate profile feed", err))
		return
	}

	c.Header("Content-Type", "application/atom+xml; charset=utf-8")
	if err := feed.WriteAtom(c.Writer); err != nil {
		h.logger.Error("Failed to write profile feed to response", err)
	}
}
