package profile

import (
	"context"
	"encoding/json"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/khoahotran/devprofile/pkg/apperror"
)

const MsgNoGithubProfile = "No Github profile found"

type GithubReposInput struct {
	Username string
}

func (uc *ProfileUseCase) ExecuteGithubRepos(ctx context.Context, input GithubReposInput) (json.RawMessage, error) {
	ctx, span := tracer.Start(ctx, "GithubRepos")
	defer span.End()
	span.SetAttributes(attribute.String("github.username", input.Username))

	username := strings.TrimSpace(input.Username)
	if username == "" {
		return nil, apperror.NewUpstreamNotFound(MsgNoGithubProfile, "empty username", nil)
	}

	body, err := uc.repoLister.ListRepos(ctx, username)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return body, nil
}
