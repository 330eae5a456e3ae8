package service

import (
	"context"
	"encoding/json"
)

type RepoLister interface {
	// ListRepos returns the upstream JSON array untouched.
	ListRepos(ctx context.Context, username string) (json.RawMessage, error)
}
