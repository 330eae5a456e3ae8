package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/khoahotran/devprofile/internal/domain/profile"
)

// ProfileRepository holds at most one profile per user. Every mutation runs
// under a single lock, so concurrent entry changes never overwrite each other.
type ProfileRepository struct {
	mu    sync.RWMutex
	users *UserRepository
	items map[uuid.UUID]*profile.Profile
	order []uuid.UUID
	now   func() time.Time
}

func NewProfileRepository(users *UserRepository) *ProfileRepository {
	return &ProfileRepository{
		users: users,
		items: make(map[uuid.UUID]*profile.Profile),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (r *ProfileRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*profile.Profile, error) {
	r.mu.RLock()
	p, ok := r.items[userID]
	if !ok {
		r.mu.RUnlock()
		return nil, profile.ErrProfileNotFound
	}
	out := p.Clone()
	r.mu.RUnlock()

	return r.populate(ctx, out), nil
}

func (r *ProfileRepository) List(ctx context.Context) ([]*profile.Profile, error) {
	r.mu.RLock()
	out := make([]*profile.Profile, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.items[id].Clone())
	}
	r.mu.RUnlock()

	for _, p := range out {
		r.populate(ctx, p)
	}
	return out, nil
}

func (r *ProfileRepository) Upsert(ctx context.Context, userID uuid.UUID, fields profile.UpsertFields) (*profile.Profile, error) {
	owner, err := r.users.summary(ctx, userID)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	p, ok := r.items[userID]
	if ok {
		p.Apply(fields)
	} else {
		p = profile.New(owner, fields, r.now())
		r.items[userID] = p
		r.order = append(r.order, userID)
	}
	out := p.Clone()
	r.mu.Unlock()

	return r.populate(ctx, out), nil
}

// DeleteByUserID is idempotent.
func (r *ProfileRepository) DeleteByUserID(_ context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[userID]; !ok {
		return nil
	}
	delete(r.items, userID)
	for i, id := range r.order {
		if id == userID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *ProfileRepository) AddExperience(ctx context.Context, userID uuid.UUID, e profile.Experience) (*profile.Profile, error) {
	return r.mutate(ctx, userID, func(p *profile.Profile) error {
		p.PrependExperience(e)
		return nil
	})
}

func (r *ProfileRepository) RemoveExperience(ctx context.Context, userID uuid.UUID, entryID uuid.UUID) (*profile.Profile, error) {
	return r.mutate(ctx, userID, func(p *profile.Profile) error {
		p.RemoveExperience(entryID)
		return nil
	})
}

func (r *ProfileRepository) AddEducation(ctx context.Context, userID uuid.UUID, e profile.Education) (*profile.Profile, error) {
	return r.mutate(ctx, userID, func(p *profile.Profile) error {
		p.PrependEducation(e)
		return nil
	})
}

func (r *ProfileRepository) RemoveEducation(ctx context.Context, userID uuid.UUID, entryID uuid.UUID) (*profile.Profile, error) {
	return r.mutate(ctx, userID, func(p *profile.Profile) error {
		return p.RemoveEducation(entryID)
	})
}

func (r *ProfileRepository) mutate(ctx context.Context, userID uuid.UUID, fn func(p *profile.Profile) error) (*profile.Profile, error) {
	r.mu.Lock()
	p, ok := r.items[userID]
	if !ok {
		r.mu.Unlock()
		return nil, profile.ErrProfileNotFound
	}
	if err := fn(p); err != nil {
		r.mu.Unlock()
		return nil, err
	}
	out := p.Clone()
	r.mu.Unlock()

	return r.populate(ctx, out), nil
}

// populate refreshes the joined user summary. A vanished owner keeps the
// summary stored at creation.
func (r *ProfileRepository) populate(ctx context.Context, p *profile.Profile) *profile.Profile {
	if owner, err := r.users.summary(ctx, p.User.ID); err == nil {
		p.User = owner
	}
	return p
}
