package profile

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/khoahotran/devprofile/adapters/persistence/memory"
	"github.com/khoahotran/devprofile/internal/application/service"
	"github.com/khoahotran/devprofile/internal/domain/user"
	"github.com/khoahotran/devprofile/pkg/apperror"
	"github.com/khoahotran/devprofile/pkg/logger"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []service.AccountEvent
}

func (p *recordingPublisher) PublishAccountEvent(_ context.Context, evt service.AccountEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return nil
}

func (p *recordingPublisher) has(t service.AccountEventType) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, e := range p.events {
		if e.EventType == t {
			return true
		}
	}
	return false
}

type stubRepoLister struct {
	body json.RawMessage
	err  error
	got  string
}

func (s *stubRepoLister) ListRepos(_ context.Context, username string) (json.RawMessage, error) {
	s.got = username
	return s.body, s.err
}

type ProfileUseCaseTestSuite struct {
	suite.Suite
	ctx       context.Context
	users     *memory.UserRepository
	revoker   *memory.TokenRevoker
	publisher *recordingPublisher
	lister    *stubRepoLister
	uc        *ProfileUseCase
	owner     *user.User
}

func TestProfileUseCase(t *testing.T) {
	suite.Run(t, new(ProfileUseCaseTestSuite))
}

func (s *ProfileUseCaseTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.users = memory.NewUserRepository()
	s.revoker = memory.NewTokenRevoker()
	s.publisher = &recordingPublisher{}
	s.lister = &stubRepoLister{}
	s.uc = NewProfileUseCase(memory.NewProfileRepository(s.users), s.users, s.publisher, s.revoker, s.lister, time.Hour, logger.NewNop())

	s.owner = &user.User{ID: uuid.New(), Name: "Jane Doe", Email: "jane@example.com", Avatar: "//avatar", Date: time.Now().UTC()}
	s.Require().NoError(s.users.Create(s.ctx, s.owner))
}

func (s *ProfileUseCaseTestSuite) upsert(in UpsertProfileInput) *UpsertProfileOutput {
	in.UserID = s.owner.ID
	out, err := s.uc.ExecuteUpsert(s.ctx, in)
	s.Require().NoError(err)
	return out
}

func strPtr(v string) *string { return &v }

func (s *ProfileUseCaseTestSuite) TestGetOwn_NoProfile() {
	_, err := s.uc.ExecuteGetOwn(s.ctx, GetProfileInput{UserID: s.owner.ID})
	s.Require().Error(err)

	var appErr *apperror.AppError
	s.Require().True(errors.As(err, &appErr))
	s.Equal(MsgNoProfile, appErr.Message)
	s.Equal(400, apperror.ToHTTPStatus(err))
}

func (s *ProfileUseCaseTestSuite) TestGetByUser_Unknown() {
	_, err := s.uc.ExecuteGetByUser(s.ctx, GetProfileInput{UserID: uuid.New()})
	var appErr *apperror.AppError
	s.Require().True(errors.As(err, &appErr))
	s.Equal(MsgProfileNotFound, appErr.Message)
}

func (s *ProfileUseCaseTestSuite) TestUpsert_CreatesPopulatedProfile() {
	out := s.upsert(UpsertProfileInput{
		Status:  "Developer",
		Skills:  ParseSkills("html,css"),
		Website: strPtr("WWW.Example.com/me/"),
		Twitter: strPtr("twitter.com/jane"),
	})

	p := out.Profile
	s.Equal("Jane Doe", p.User.Name)
	s.Equal("//avatar", p.User.Avatar)
	s.Equal([]string{"html", " css"}, p.Skills)
	s.Require().NotNil(p.Website)
	s.Equal("https://example.com/me", *p.Website)
	s.Require().NotNil(p.Social.Twitter)
	s.Equal("https://twitter.com/jane", *p.Social.Twitter)
	s.Nil(p.Social.Youtube)
	s.Empty(p.Experience)

	s.Eventually(func() bool { return s.publisher.has(service.EventProfileUpserted) }, time.Second, 10*time.Millisecond)
}

func (s *ProfileUseCaseTestSuite) TestUpsert_PartialUpdateKeepsOmittedFields() {
	s.upsert(UpsertProfileInput{Status: "Developer", Skills: []string{"go"}, Company: strPtr("Acme"), Bio: strPtr("hi")})
	out := s.upsert(UpsertProfileInput{Status: "Manager", Skills: []string{"people"}})

	s.Equal("Manager", out.Profile.Status)
	s.Equal([]string{"people"}, out.Profile.Skills)
	s.Require().NotNil(out.Profile.Company)
	s.Equal("Acme", *out.Profile.Company)
	s.Equal("hi", *out.Profile.Bio)

	list, err := s.uc.ExecuteList(s.ctx)
	s.Require().NoError(err)
	s.Len(list, 1)
}

func (s *ProfileUseCaseTestSuite) TestUpsert_NilSkillsStoredAsEmptyList() {
	out := s.upsert(UpsertProfileInput{Status: "Developer", Skills: ParseSkills(7.0)})
	s.NotNil(out.Profile.Skills)
	s.Empty(out.Profile.Skills)

	got, err := s.uc.ExecuteGetOwn(s.ctx, GetProfileInput{UserID: s.owner.ID})
	s.Require().NoError(err)
	s.NotNil(got.Profile.Skills)
}

func (s *ProfileUseCaseTestSuite) TestUpsert_IsIdempotent() {
	in := UpsertProfileInput{Status: "Developer", Skills: []string{"go"}, Location: strPtr("Berlin")}
	first := s.upsert(in)
	second := s.upsert(in)

	s.Equal(first.Profile.ID, second.Profile.ID)
	s.Equal(first.Profile.Date, second.Profile.Date)
	s.Equal(first.Profile.Location, second.Profile.Location)
}

func (s *ProfileUseCaseTestSuite) TestUpsert_EmptySocialIsAbsentAndBadURLRejected() {
	out := s.upsert(UpsertProfileInput{Status: "Developer", Skills: []string{"go"}, Youtube: strPtr("")})
	s.Nil(out.Profile.Social.Youtube)

	_, err := s.uc.ExecuteUpsert(s.ctx, UpsertProfileInput{
		UserID: s.owner.ID, Status: "Developer", Skills: []string{"go"}, Website: strPtr("http://"),
	})
	var appErr *apperror.AppError
	s.Require().True(errors.As(err, &appErr))
	s.Require().Len(appErr.Fields, 1)
	s.Equal("website", appErr.Fields[0].Param)
}

func (s *ProfileUseCaseTestSuite) TestExperience_NewestFirstAndRemove() {
	s.upsert(UpsertProfileInput{Status: "Developer", Skills: []string{"go"}})
	from := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	first, err := s.uc.ExecuteAddExperience(s.ctx, AddExperienceInput{UserID: s.owner.ID, Title: "Junior", Company: "Acme", From: from})
	s.Require().NoError(err)
	second, err := s.uc.ExecuteAddExperience(s.ctx, AddExperienceInput{UserID: s.owner.ID, Title: "Senior", Company: "Acme", From: from})
	s.Require().NoError(err)
	s.Require().Len(second.Experience, 2)
	s.Equal("Senior", second.Experience[0].Title)
	s.Equal("Jane Doe", second.User.Name)

	oldID := first.Experience[0].ID
	after, err := s.uc.ExecuteRemoveExperience(s.ctx, RemoveEntryInput{UserID: s.owner.ID, EntryID: oldID})
	s.Require().NoError(err)
	s.Require().Len(after.Experience, 1)
	s.Equal("Senior", after.Experience[0].Title)

	same, err := s.uc.ExecuteRemoveExperience(s.ctx, RemoveEntryInput{UserID: s.owner.ID, EntryID: uuid.New()})
	s.Require().NoError(err)
	s.Len(same.Experience, 1)
}

func (s *ProfileUseCaseTestSuite) TestEntries_WithoutProfile() {
	_, err := s.uc.ExecuteAddExperience(s.ctx, AddExperienceInput{UserID: s.owner.ID, Title: "Dev", Company: "Acme", From: time.Now()})
	var appErr *apperror.AppError
	s.Require().True(errors.As(err, &appErr))
	s.Equal(MsgNoProfile, appErr.Message)

	_, err = s.uc.ExecuteAddEducation(s.ctx, AddEducationInput{UserID: s.owner.ID, School: "MIT", Degree: "BSc", FieldOfStudy: "CS", From: time.Now()})
	s.Require().True(errors.As(err, &appErr))
	s.Equal(MsgNoProfile, appErr.Message)
}

func (s *ProfileUseCaseTestSuite) TestEducation_RemoveUnknownIsServerError() {
	s.upsert(UpsertProfileInput{Status: "Developer", Skills: []string{"go"}})
	p, err := s.uc.ExecuteAddEducation(s.ctx, AddEducationInput{
		UserID: s.owner.ID, School: "MIT", Degree: "BSc", FieldOfStudy: "CS", From: time.Now().UTC(),
	})
	s.Require().NoError(err)
	s.Require().Len(p.Education, 1)

	_, err = s.uc.ExecuteRemoveEducation(s.ctx, RemoveEntryInput{UserID: s.owner.ID, EntryID: uuid.New()})
	s.Require().Error(err)
	s.Equal(500, apperror.ToHTTPStatus(err))

	p, err = s.uc.ExecuteRemoveEducation(s.ctx, RemoveEntryInput{UserID: s.owner.ID, EntryID: p.Education[0].ID})
	s.Require().NoError(err)
	s.Empty(p.Education)
}

func (s *ProfileUseCaseTestSuite) TestDeleteOwn_RemovesProfileUserAndRevokes() {
	s.upsert(UpsertProfileInput{Status: "Developer", Skills: []string{"go"}})

	s.Require().NoError(s.uc.ExecuteDeleteOwn(s.ctx, DeleteOwnInput{UserID: s.owner.ID}))

	_, err := s.uc.ExecuteGetByUser(s.ctx, GetProfileInput{UserID: s.owner.ID})
	s.Error(err)
	_, err = s.users.FindByID(s.ctx, s.owner.ID)
	s.ErrorIs(err, user.ErrUserNotFound)

	revoked, err := s.revoker.IsRevoked(s.ctx, s.owner.ID)
	s.Require().NoError(err)
	s.True(revoked)
	s.Eventually(func() bool { return s.publisher.has(service.EventUserDeleted) }, time.Second, 10*time.Millisecond)
}

func (s *ProfileUseCaseTestSuite) TestGithubRepos() {
	s.lister.body = json.RawMessage(`[{"name":"repo"}]`)
	body, err := s.uc.ExecuteGithubRepos(s.ctx, GithubReposInput{Username: " octocat "})
	s.Require().NoError(err)
	s.JSONEq(`[{"name":"repo"}]`, string(body))
	s.Equal("octocat", s.lister.got)

	_, err = s.uc.ExecuteGithubRepos(s.ctx, GithubReposInput{Username: "  "})
	s.Equal(404, apperror.ToHTTPStatus(err))
}

func TestParseSkills(t *testing.T) {
	suite.Run(t, new(parseSkillsSuite))
}

type parseSkillsSuite struct{ suite.Suite }

func (s *parseSkillsSuite) TestForms() {
	s.Equal([]string{"html", " css"}, ParseSkills("html,css"))
	s.Equal([]string{"go", " sql", " k8s"}, ParseSkills(" go , sql,k8s "))
	s.Equal([]string{"a", "b"}, ParseSkills([]any{"a", "b"}))
	s.Equal([]string{"x"}, ParseSkills([]string{"x"}))
	s.Nil(ParseSkills(42.0))
	s.Nil(ParseSkills([]any{"a", 1.0}))
}
