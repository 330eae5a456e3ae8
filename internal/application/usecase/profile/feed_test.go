package profile

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/devprofile/adapters/persistence/memory"
	"github.com/khoahotran/devprofile/internal/domain/profile"
	"github.com/khoahotran/devprofile/internal/domain/user"
	"github.com/khoahotran/devprofile/pkg/logger"
)

func TestFeedUseCase_NewestFirst(t *testing.T) {
	ctx := context.Background()
	users := memory.NewUserRepository()
	profiles := memory.NewProfileRepository(users)

	var ids []uuid.UUID
	for _, name := range []string{"Ada", "Linus", "Grace"} {
		u := &user.User{ID: uuid.New(), Name: name, Email: name + "@example.com", Date: time.Now().UTC()}
		require.NoError(t, users.Create(ctx, u))
		_, err := profiles.Upsert(ctx, u.ID, profile.UpsertFields{Status: "Developer", Skills: []string{"go", " sql"}})
		require.NoError(t, err)
		ids = append(ids, u.ID)
	}

	uc := NewFeedUseCase(profiles, "https://devprofile.example/", logger.NewNop())
	feed, err := uc.Execute(ctx)
	require.NoError(t, err)

	require.Len(t, feed.Items, 3)
	assert.Equal(t, "Grace, Developer", feed.Items[0].Title)
	assert.Equal(t, ids[2].String(), feed.Items[0].Id)
	assert.Equal(t, "https://devprofile.example/profile/"+ids[2].String(), feed.Items[0].Link.Href)
	assert.Equal(t, "go, sql", feed.Items[0].Description)
	assert.Equal(t, "Ada, Developer", feed.Items[2].Title)
}

func TestFeedUseCase_Empty(t *testing.T) {
	users := memory.NewUserRepository()
	uc := NewFeedUseCase(memory.NewProfileRepository(users), "http://localhost:3000", logger.NewNop())

	feed, err := uc.Execute(context.Background())
	require.NoError(t, err)
	assert.Empty(t, feed.Items)

	rss, err := feed.ToRss()
	require.NoError(t, err)
	assert.Contains(t, rss, "<title>Developer profiles</title>")
}
