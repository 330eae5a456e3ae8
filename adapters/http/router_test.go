package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/khoahotran/devprofile/adapters/event"
	"github.com/khoahotran/devprofile/adapters/persistence/memory"
	"github.com/khoahotran/devprofile/internal/application/service"
	authUC "github.com/khoahotran/devprofile/internal/application/usecase/auth"
	profileUC "github.com/khoahotran/devprofile/internal/application/usecase/profile"
	userUC "github.com/khoahotran/devprofile/internal/application/usecase/user"
	"github.com/khoahotran/devprofile/pkg/apperror"
	"github.com/khoahotran/devprofile/pkg/auth"
	"github.com/khoahotran/devprofile/pkg/logger"
)

type stubRepoLister struct{}

func (stubRepoLister) ListRepos(_ context.Context, username string) (json.RawMessage, error) {
	if username == "octocat" {
		return json.RawMessage(`[{"name":"hello-world"}]`), nil
	}
	return nil, apperror.NewUpstreamNotFound(profileUC.MsgNoGithubProfile, username, nil)
}

type stubUploader struct{}

func (stubUploader) Upload(_ context.Context, file io.Reader, folder, publicID string) (string, error) {
	_, _ = io.Copy(io.Discard, file)
	return "https://cdn.example.com/" + folder + "/" + publicID, nil
}

func (stubUploader) Delete(context.Context, string) error { return nil }

type RouterTestSuite struct {
	suite.Suite
	router  *gin.Engine
	jwtSvc  *auth.JWTService
	revoker service.TokenRevoker
}

func TestRouter(t *testing.T) {
	suite.Run(t, new(RouterTestSuite))
}

func (s *RouterTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	log := logger.NewNop()

	users := memory.NewUserRepository()
	profiles := memory.NewProfileRepository(users)
	s.revoker = memory.NewTokenRevoker()
	s.jwtSvc = auth.NewJWTService("router-test-secret", time.Hour)
	pub := event.NopPublisher{}

	profileUseCase := profileUC.NewProfileUseCase(profiles, users, pub, s.revoker, stubRepoLister{}, time.Hour, log)
	s.router = NewRouter(RouterDeps{
		ProfileHandler: NewProfileHandler(profileUseCase, log),
		AuthHandler: NewAuthHandler(
			authUC.NewRegisterUseCase(users, s.jwtSvc, pub, log),
			authUC.NewLoginUseCase(users, s.jwtSvc, log),
			authUC.NewCurrentUserUseCase(users),
			log,
		),
		UserHandler:   NewUserHandler(userUC.NewUploadAvatarUseCase(users, stubUploader{}, pub, log), log),
		FeedHandler:   NewFeedHandler(profileUC.NewFeedUseCase(profiles, "http://localhost:3000", log), log),
		JWTService:    s.jwtSvc,
		Revoker:       s.revoker,
		GithubLimiter: NewIPRateLimiter(0.01, 3),
		Logger:        log,
	})
}

func (s *RouterTestSuite) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var reader io.Reader = http.NoBody
	if body != nil {
		b, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(HeaderAuthToken, token)
	}
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func (s *RouterTestSuite) decode(rr *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}

func (s *RouterTestSuite) register(email string) string {
	rr := s.do(http.MethodPost, "/api/users", "", gin.H{"name": "Jane Doe", "email": email, "password": "secret1"})
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())
	token, _ := s.decode(rr)["token"].(string)
	s.Require().NotEmpty(token)
	return token
}

func (s *RouterTestSuite) createProfile(token string) map[string]any {
	rr := s.do(http.MethodPost, "/api/profile", token, gin.H{"status": "Developer", "skills": "html,css"})
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())
	return s.decode(rr)
}

func (s *RouterTestSuite) userID(token string) string {
	claims, err := s.jwtSvc.ValidateToken(token)
	s.Require().NoError(err)
	return claims.UserID.String()
}

func (s *RouterTestSuite) errorParams(rr *httptest.ResponseRecorder) []string {
	var body struct {
		Errors []apperror.FieldError `json:"errors"`
	}
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &body))
	params := make([]string, 0, len(body.Errors))
	for _, e := range body.Errors {
		params = append(params, e.Param)
	}
	return params
}

func (s *RouterTestSuite) TestHealth() {
	rr := s.do(http.MethodGet, "/api/health", "", nil)
	s.Equal(http.StatusOK, rr.Code)
	s.JSONEq(`{"status":"UP"}`, rr.Body.String())
}

func (s *RouterTestSuite) TestGate() {
	rr := s.do(http.MethodGet, "/api/profile/me", "", nil)
	s.Equal(http.StatusUnauthorized, rr.Code)
	s.JSONEq(`{"msg":"No token, authorization denied"}`, rr.Body.String())

	rr = s.do(http.MethodGet, "/api/profile/me", "garbage", nil)
	s.Equal(http.StatusUnauthorized, rr.Code)
	s.JSONEq(`{"msg":"Token is not valid"}`, rr.Body.String())

	token := s.register("jane@example.com")
	req := httptest.NewRequest(http.MethodGet, "/api/auth", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.Equal(http.StatusOK, rec.Code)
	me := s.decode(rec)
	s.Equal("jane@example.com", me["email"])
	s.NotContains(me, "password")
	s.NotContains(me, "PasswordHash")
}

func (s *RouterTestSuite) TestRegisterAndLogin() {
	s.register("jane@example.com")

	rr := s.do(http.MethodPost, "/api/users", "", gin.H{"name": "Jane", "email": "jane@example.com", "password": "secret1"})
	s.Equal(http.StatusBadRequest, rr.Code)
	s.JSONEq(`{"errors":[{"msg":"User already exists"}]}`, rr.Body.String())

	rr = s.do(http.MethodPost, "/api/users", "", gin.H{"email": "bad", "password": "123"})
	s.Equal(http.StatusBadRequest, rr.Code)
	s.Equal([]string{"name", "email", "password"}, s.errorParams(rr))

	rr = s.do(http.MethodPost, "/api/auth", "", gin.H{"email": "jane@example.com", "password": "wrong!"})
	s.Equal(http.StatusBadRequest, rr.Code)
	s.JSONEq(`{"errors":[{"msg":"Invalid Credentials"}]}`, rr.Body.String())

	rr = s.do(http.MethodPost, "/api/auth", "", gin.H{"email": "jane@example.com", "password": "secret1"})
	s.Equal(http.StatusOK, rr.Code)
	s.NotEmpty(s.decode(rr)["token"])
}

func (s *RouterTestSuite) TestUpsertProfile() {
	token := s.register("jane@example.com")

	rr := s.do(http.MethodGet, "/api/profile/me", token, nil)
	s.Equal(http.StatusBadRequest, rr.Code)
	s.JSONEq(`{"msg":"There is no profile for this user"}`, rr.Body.String())

	rr = s.do(http.MethodPost, "/api/profile", token, gin.H{"company": "Acme"})
	s.Equal(http.StatusBadRequest, rr.Code)
	s.Equal([]string{"status", "skills"}, s.errorParams(rr))

	rr = s.do(http.MethodGet, "/api/profile/me", token, nil)
	s.Equal(http.StatusBadRequest, rr.Code, "failed validation must not create a profile")

	p := s.createProfile(token)
	s.Equal([]any{"html", " css"}, p["skills"])
	owner, _ := p["user"].(map[string]any)
	s.Equal("Jane Doe", owner["name"])

	rr = s.do(http.MethodPost, "/api/profile", token, gin.H{
		"status": "Developer", "skills": []string{"go", "sql"},
		"website": "http://example.com", "youtube": "youtube.com/c/jane", "twitter": "",
	})
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())
	p = s.decode(rr)
	s.Equal([]any{"go", "sql"}, p["skills"])
	s.Equal("https://example.com", p["website"])
	social, _ := p["social"].(map[string]any)
	s.Equal("https://youtube.com/c/jane", social["youtube"])
	s.NotContains(social, "twitter")

	rr = s.do(http.MethodPost, "/api/profile", token, gin.H{"status": "Developer", "skills": "go", "website": ""})
	s.Require().Equal(http.StatusOK, rr.Code)
	s.Equal("", s.decode(rr)["website"])
}

func (s *RouterTestSuite) TestNonStringFieldsRejected() {
	token := s.register("jane@example.com")

	rr := s.do(http.MethodPost, "/api/profile", token, gin.H{"status": 123, "skills": 7})
	s.Equal(http.StatusBadRequest, rr.Code)
	s.Equal([]string{"status", "skills"}, s.errorParams(rr))

	rr = s.do(http.MethodPost, "/api/profile", token, gin.H{"status": "Developer", "skills": []any{"go", 1}})
	s.Equal(http.StatusBadRequest, rr.Code)
	s.Equal([]string{"skills"}, s.errorParams(rr))

	rr = s.do(http.MethodGet, "/api/profile/me", token, nil)
	s.Equal(http.StatusBadRequest, rr.Code)

	s.createProfile(token)

	rr = s.do(http.MethodPut, "/api/profile/experience", token, gin.H{"title": true, "company": 5, "from": "2020-01-01"})
	s.Equal(http.StatusBadRequest, rr.Code)
	s.Equal([]string{"title", "company"}, s.errorParams(rr))

	rr = s.do(http.MethodPut, "/api/profile/education", token, gin.H{
		"school": "MIT", "degree": false, "fieldofstudy": 1, "from": "2010-09-01",
	})
	s.Equal(http.StatusBadRequest, rr.Code)
	s.Equal([]string{"degree", "fieldofstudy"}, s.errorParams(rr))

	rr = s.do(http.MethodGet, "/api/profile/me", token, nil)
	s.Require().Equal(http.StatusOK, rr.Code)
	p := s.decode(rr)
	s.Empty(p["experience"])
	s.Empty(p["education"])
}

func (s *RouterTestSuite) TestUpsertIsIdempotent() {
	token := s.register("jane@example.com")
	payload := gin.H{"status": "Developer", "skills": "go,sql", "location": "Berlin", "bio": "hi"}

	first := s.do(http.MethodPost, "/api/profile", token, payload)
	second := s.do(http.MethodPost, "/api/profile", token, payload)
	s.Require().Equal(http.StatusOK, first.Code)
	s.JSONEq(first.Body.String(), second.Body.String())
}

func (s *RouterTestSuite) TestPublicProfiles() {
	token := s.register("jane@example.com")
	s.createProfile(token)

	rr := s.do(http.MethodGet, "/api/profile", "", nil)
	s.Equal(http.StatusOK, rr.Code)
	var list []map[string]any
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &list))
	s.Len(list, 1)

	rr = s.do(http.MethodGet, "/api/profile/user/"+s.userID(token), "", nil)
	s.Equal(http.StatusOK, rr.Code)

	for _, id := range []string{uuid.NewString(), "not-an-id"} {
		rr = s.do(http.MethodGet, "/api/profile/user/"+id, "", nil)
		s.Equal(http.StatusBadRequest, rr.Code)
		s.JSONEq(`{"msg":"Profile Not Found"}`, rr.Body.String())
	}
}

func (s *RouterTestSuite) TestProfileFeed() {
	token := s.register("jane@example.com")
	s.createProfile(token)

	rr := s.do(http.MethodGet, "/api/profile/feed.rss", "", nil)
	s.Equal(http.StatusOK, rr.Code)
	s.Contains(rr.Header().Get("Content-Type"), "application/rss+xml")
	s.Contains(rr.Body.String(), "<title>Jane Doe, Developer</title>")
	s.Contains(rr.Body.String(), "http://localhost:3000/profile/"+s.userID(token))

	rr = s.do(http.MethodGet, "/api/profile/feed.atom", "", nil)
	s.Equal(http.StatusOK, rr.Code)
	s.Contains(rr.Body.String(), "<feed")
}

func (s *RouterTestSuite) TestExperience() {
	token := s.register("jane@example.com")

	rr := s.do(http.MethodPut, "/api/profile/experience", token, gin.H{"title": "Dev", "company": "Acme", "from": "2020-01-01"})
	s.Equal(http.StatusBadRequest, rr.Code)
	s.JSONEq(`{"msg":"There is no profile for this user"}`, rr.Body.String())

	s.createProfile(token)

	rr = s.do(http.MethodPut, "/api/profile/experience", token, gin.H{"title": "Dev", "company": "Acme", "from": "2021-01-01", "to": "2020-01-01"})
	s.Equal(http.StatusBadRequest, rr.Code)
	s.Equal([]string{"from"}, s.errorParams(rr))

	rr = s.do(http.MethodPut, "/api/profile/experience", token, gin.H{"title": "Dev"})
	s.Equal(http.StatusBadRequest, rr.Code)
	s.Equal([]string{"company", "from"}, s.errorParams(rr))

	rr = s.do(http.MethodPut, "/api/profile/experience", token, gin.H{"title": "Junior", "company": "Acme", "from": "2099-01-01"})
	s.Require().Equal(http.StatusOK, rr.Code, "future from without to is accepted")

	rr = s.do(http.MethodPut, "/api/profile/experience", token, gin.H{
		"title": "Senior", "company": "Acme", "from": "2020-01-01", "to": "2021-06-01", "current": false,
	})
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())
	exps, _ := s.decode(rr)["experience"].([]any)
	s.Require().Len(exps, 2)
	newest, _ := exps[0].(map[string]any)
	s.Equal("Senior", newest["title"])
	oldest, _ := exps[1].(map[string]any)

	rr = s.do(http.MethodDelete, "/api/profile/experience/"+uuid.NewString(), token, nil)
	s.Equal(http.StatusOK, rr.Code)
	exps, _ = s.decode(rr)["experience"].([]any)
	s.Len(exps, 2)

	rr = s.do(http.MethodDelete, "/api/profile/experience/"+oldest["id"].(string), token, nil)
	s.Equal(http.StatusOK, rr.Code)
	exps, _ = s.decode(rr)["experience"].([]any)
	s.Len(exps, 1)
}

func (s *RouterTestSuite) TestEducation() {
	token := s.register("jane@example.com")
	s.createProfile(token)

	rr := s.do(http.MethodPut, "/api/profile/education", token, gin.H{"school": "MIT"})
	s.Equal(http.StatusBadRequest, rr.Code)
	s.Equal([]string{"degree", "fieldofstudy", "from"}, s.errorParams(rr))

	rr = s.do(http.MethodPut, "/api/profile/education", token, gin.H{
		"school": "MIT", "degree": "BSc", "fieldofstudy": "CS", "from": "2010-09-01",
	})
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())
	edus, _ := s.decode(rr)["education"].([]any)
	s.Require().Len(edus, 1)
	entry, _ := edus[0].(map[string]any)

	rr = s.do(http.MethodDelete, "/api/profile/education/"+uuid.NewString(), token, nil)
	s.Equal(http.StatusInternalServerError, rr.Code)
	s.JSONEq(`{"msg":"Server error"}`, rr.Body.String())

	rr = s.do(http.MethodDelete, "/api/profile/education/"+entry["id"].(string), token, nil)
	s.Equal(http.StatusOK, rr.Code)
	edus, _ = s.decode(rr)["education"].([]any)
	s.Empty(edus)
}

func (s *RouterTestSuite) TestConcurrentExperienceAdds() {
	token := s.register("jane@example.com")
	s.createProfile(token)

	const n = 25
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.do(http.MethodPut, "/api/profile/experience", token, gin.H{"title": "Dev", "company": "Acme", "from": "2020-01-01"})
		}()
	}
	wg.Wait()

	rr := s.do(http.MethodGet, "/api/profile/me", token, nil)
	exps, _ := s.decode(rr)["experience"].([]any)
	s.Len(exps, n)
}

func (s *RouterTestSuite) TestDeleteAccount() {
	token := s.register("jane@example.com")
	s.createProfile(token)
	id := s.userID(token)

	rr := s.do(http.MethodDelete, "/api/profile", token, nil)
	s.Equal(http.StatusOK, rr.Code)
	s.JSONEq(`{"msg":"User deleted"}`, rr.Body.String())

	rr = s.do(http.MethodGet, "/api/profile/user/"+id, "", nil)
	s.Equal(http.StatusBadRequest, rr.Code)

	rr = s.do(http.MethodGet, "/api/auth", token, nil)
	s.Equal(http.StatusUnauthorized, rr.Code)
	s.JSONEq(`{"msg":"Token is not valid"}`, rr.Body.String())
}

func (s *RouterTestSuite) TestGithubRepos() {
	rr := s.do(http.MethodGet, "/api/profile/github/octocat", "", nil)
	s.Equal(http.StatusOK, rr.Code)
	s.JSONEq(`[{"name":"hello-world"}]`, rr.Body.String())

	rr = s.do(http.MethodGet, "/api/profile/github/ghost", "", nil)
	s.Equal(http.StatusNotFound, rr.Code)
	s.JSONEq(`{"msg":"No Github profile found"}`, rr.Body.String())

	rr = s.do(http.MethodGet, "/api/profile/github/octocat", "", nil)
	s.Equal(http.StatusOK, rr.Code)

	rr = s.do(http.MethodGet, "/api/profile/github/octocat", "", nil)
	s.Equal(http.StatusTooManyRequests, rr.Code)
	s.JSONEq(`{"msg":"Too many requests"}`, rr.Body.String())
}

func (s *RouterTestSuite) TestUploadAvatar() {
	token := s.register("jane@example.com")

	rr := s.do(http.MethodPut, "/api/users/avatar", token, nil)
	s.Equal(http.StatusBadRequest, rr.Code)
	s.JSONEq(`{"msg":"No file uploaded"}`, rr.Body.String())

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("avatar", "me.png")
	s.Require().NoError(err)
	_, _ = part.Write([]byte("png-bytes"))
	s.Require().NoError(mw.Close())

	req := httptest.NewRequest(http.MethodPut, "/api/users/avatar", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set(HeaderAuthToken, token)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.Equal("https://cdn.example.com/users/"+s.userID(token)+"/avatar", s.decode(rec)["avatar"])
}

func (s *RouterTestSuite) TestMalformedJSON() {
	token := s.register("jane@example.com")
	req := httptest.NewRequest(http.MethodPost, "/api/profile", bytes.NewBufferString(`[1,2`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderAuthToken, token)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.Equal(http.StatusBadRequest, rec.Code)
}
