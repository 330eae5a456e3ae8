package profile

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/khoahotran/devprofile/internal/domain/user"
)

var (
	ErrProfileNotFound   = errors.New("profile not found")
	ErrEducationNotFound = errors.New("education entry not found")
)

type Social struct {
	Youtube   *string `json:"youtube,omitempty"`
	Twitter   *string `json:"twitter,omitempty"`
	Facebook  *string `json:"facebook,omitempty"`
	Linkedin  *string `json:"linkedin,omitempty"`
	Instagram *string `json:"instagram,omitempty"`
}

type Experience struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Company     string     `json:"company"`
	Location    *string    `json:"location,omitempty"`
	From        time.Time  `json:"from"`
	To          *time.Time `json:"to,omitempty"`
	Current     bool       `json:"current"`
	Description *string    `json:"description,omitempty"`
}

type Education struct {
	ID           uuid.UUID  `json:"id"`
	School       string     `json:"school"`
	Degree       string     `json:"degree"`
	FieldOfStudy string     `json:"fieldofstudy"`
	From         time.Time  `json:"from"`
	To           *time.Time `json:"to,omitempty"`
	Current      bool       `json:"current"`
	Description  *string    `json:"description,omitempty"`
}

type Profile struct {
	ID             uuid.UUID    `json:"id"`
	User           user.Summary `json:"user"`
	Company        *string      `json:"company,omitempty"`
	Website        *string      `json:"website,omitempty"`
	Location       *string      `json:"location,omitempty"`
	Status         string       `json:"status"`
	Skills         []string     `json:"skills"`
	Bio            *string      `json:"bio,omitempty"`
	GithubUsername *string      `json:"githubusername,omitempty"`
	Social         Social       `json:"social"`
	Experience     []Experience `json:"experience"`
	Education      []Education  `json:"education"`
	Date           time.Time    `json:"date"`
}

// UpsertFields is a create-or-update request. Nil pointers leave the stored
// value alone; Status, Skills and Social always overwrite.
type UpsertFields struct {
	Company        *string
	Website        *string
	Location       *string
	Status         string
	Skills         []string
	Bio            *string
	GithubUsername *string
	Social         Social
}

// New builds the document created by the first upsert for a user.
func New(owner user.Summary, f UpsertFields, now time.Time) *Profile {
	p := &Profile{
		ID:         uuid.New(),
		User:       owner,
		Experience: []Experience{},
		Education:  []Education{},
		Date:       now,
	}
	p.Apply(f)
	return p
}

func (p *Profile) Apply(f UpsertFields) {
	setIfPresent(&p.Company, f.Company)
	setIfPresent(&p.Website, f.Website)
	setIfPresent(&p.Location, f.Location)
	setIfPresent(&p.Bio, f.Bio)
	setIfPresent(&p.GithubUsername, f.GithubUsername)
	p.Status = f.Status
	p.Skills = slices.Clone(f.Skills)
	p.Social = f.Social
}

func setIfPresent(dst **string, v *string) {
	if v != nil {
		s := *v
		*dst = &s
	}
}

func (p *Profile) PrependExperience(e Experience) {
	p.Experience = append([]Experience{e}, p.Experience...)
}

// RemoveExperience drops the entry with the given id. An unknown id is not
// an error.
func (p *Profile) RemoveExperience(id uuid.UUID) {
	p.Experience = slices.DeleteFunc(p.Experience, func(e Experience) bool { return e.ID == id })
}

func (p *Profile) PrependEducation(e Education) {
	p.Education = append([]Education{e}, p.Education...)
}

// RemoveEducation drops the entry with the given id and reports
// ErrEducationNotFound when there is none.
func (p *Profile) RemoveEducation(id uuid.UUID) error {
	idx := slices.IndexFunc(p.Education, func(e Education) bool { return e.ID == id })
	if idx == -1 {
		return ErrEducationNotFound
	}
	p.Education = slices.Delete(p.Education, idx, idx+1)
	return nil
}

// Clone returns a copy that shares no slices with p.
func (p *Profile) Clone() *Profile {
	c := *p
	c.Skills = slices.Clone(p.Skills)
	c.Experience = slices.Clone(p.Experience)
	c.Education = slices.Clone(p.Education)
	if c.Experience == nil {
		c.Experience = []Experience{}
	}
	if c.Education == nil {
		c.Education = []Education{}
	}
	return &c
}

type Repository interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*Profile, error)
	List(ctx context.Context) ([]*Profile, error)
	Upsert(ctx context.Context, userID uuid.UUID, fields UpsertFields) (*Profile, error)
	DeleteByUserID(ctx context.Context, userID uuid.UUID) error
	AddExperience(ctx context.Context, userID uuid.UUID, e Experience) (*Profile, error)
	RemoveExperience(ctx context.Context, userID uuid.UUID, entryID uuid.UUID) (*Profile, error)
	AddEducation(ctx context.Context, userID uuid.UUID, e Education) (*Profile, error)
	RemoveEducation(ctx context.Context, userID uuid.UUID, entryID uuid.UUID) (*Profile, error)
}
