// Package github lists a user's public repositories through the GitHub REST
// API and hands the response body back untouched.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/khoahotran/devprofile/internal/application/service"
	"github.com/khoahotran/devprofile/internal/config"
	"github.com/khoahotran/devprofile/pkg/apperror"
	"github.com/khoahotran/devprofile/pkg/logger"
)

const (
	repoLimit  = 5
	repoSort   = "created:asc"
	userAgent  = "devprofile-api"
	maxBodyLen = 1 << 20
)

const msgNoGithubProfile = "No Github profile found"

type httpRepoLister struct {
	baseURL string
	token   string
	client  *http.Client
	logger  logger.Logger
}

func NewRepoLister(cfg config.Config, log logger.Logger) service.RepoLister {
	timeout := cfg.Github.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &httpRepoLister{
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.Github.BaseURL), "/"),
		token:   strings.TrimSpace(cfg.Github.Token),
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: log.Named("github"),
	}
}

// ListRepos fetches the five oldest-created public repositories. Any failure,
// including a non-2xx answer or a body that is not JSON, is reported as the
// profile being absent upstream.
func (c *httpRepoLister) ListRepos(ctx context.Context, username string) (json.RawMessage, error) {
	endpoint := fmt.Sprintf("%s/users/%s/repos?per_page=%d&sort=%s",
		c.baseURL, url.PathEscape(username), repoLimit, repoSort)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, notFound(username, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.token != "" {
		req.Header.Set("Authorization", "token "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("GitHub request failed", zap.String("username", username), zap.Error(err))
		return nil, notFound(username, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyLen))
	if err != nil {
		return nil, notFound(username, err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Info("GitHub answered non-OK",
			zap.String("username", username),
			zap.Int("status", resp.StatusCode),
			zap.String("body", truncate(string(body), 256)))
		return nil, notFound(username, fmt.Errorf("github status %d", resp.StatusCode))
	}
	if !json.Valid(body) {
		return nil, notFound(username, fmt.Errorf("github returned invalid json"))
	}
	return json.RawMessage(body), nil
}

func notFound(username string, err error) error {
	return apperror.NewUpstreamNotFound(msgNoGithubProfile, "github user "+username, err)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
