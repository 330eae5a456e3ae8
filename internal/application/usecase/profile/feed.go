package profile

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gorilla/feeds"
	"go.uber.org/zap"

	"github.com/khoahotran/devprofile/internal/domain/profile"
	"github.com/khoahotran/devprofile/pkg/logger"
)

const feedSize = 20

// FeedUseCase renders the developer directory as a syndication feed, newest
// profiles first.
type FeedUseCase struct {
	profileRepo profile.Repository
	publicURL   string
	logger      logger.Logger
}

func NewFeedUseCase(repo profile.Repository, publicURL string, log logger.Logger) *FeedUseCase {
	return &FeedUseCase{
		profileRepo: repo,
		publicURL:   strings.TrimRight(publicURL, "/"),
		logger:      log,
	}
}

func (uc *FeedUseCase) Execute(ctx context.Context) (*feeds.Feed, error) {
	ctx, span := tracer.Start(ctx, "Feed")
	defer span.End()

	profiles, err := uc.profileRepo.List(ctx)
	if err != nil {
		span.RecordError(err)
		uc.logger.Error("Failed to list profiles for feed", err)
		return nil, err
	}

	feed := &feeds.Feed{
		Title:       "Developer profiles",
		Link:        &feeds.Link{Href: uc.publicURL + "/profiles"},
		Description: "Newest developer profiles.",
		Created:     time.Now().UTC(),
	}

	// List is oldest first
	for i := len(profiles) - 1; i >= 0 && len(feed.Items) < feedSize; i-- {
		feed.Add(uc.item(profiles[i]))
	}

	uc.logger.Debug("Profile feed generated", zap.Int("item_count", len(feed.Items)))
	return feed, nil
}

func (uc *FeedUseCase) item(p *profile.Profile) *feeds.Item {
	title := p.User.Name
	if p.Status != "" {
		title = fmt.Sprintf("%s, %s", p.User.Name, p.Status)
	}

	desc := strings.Join(trimmed(p.Skills), ", ")
	if p.Bio != nil && *p.Bio != "" {
		desc = *p.Bio + "\n" + desc
	}

	return &feeds.Item{
		Id:          p.User.ID.String(),
		Title:       title,
		Link:        &feeds.Link{Href: fmt.Sprintf("%s/profile/%s", uc.publicURL, p.User.ID)},
		Description: desc,
		Created:     p.Date,
	}
}

func trimmed(skills []string) []string {
	out := make([]string, 0, len(skills))
	for _, s := range skills {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
