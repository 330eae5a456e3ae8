package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/khoahotran/devprofile/internal/domain/user"
)

// UserRepository keeps accounts in process memory. Emails are unique
// case-insensitively, the same as the unique index of the other drivers.
type UserRepository struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]user.User
	byEmail map[string]uuid.UUID
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:    make(map[uuid.UUID]user.User),
		byEmail: make(map[string]uuid.UUID),
	}
}

func (r *UserRepository) Create(_ context.Context, u *user.User) error {
	key := strings.ToLower(u.Email)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.byEmail[key]; taken {
		return user.ErrEmailTaken
	}
	r.byID[u.ID] = *u
	r.byEmail[key] = u.ID
	return nil
}

func (r *UserRepository) FindByEmail(_ context.Context, email string) (*user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	u := r.byID[id]
	return &u, nil
}

func (r *UserRepository) FindByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return &u, nil
}

func (r *UserRepository) UpdateAvatar(_ context.Context, id uuid.UUID, avatar string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return user.ErrUserNotFound
	}
	u.Avatar = avatar
	r.byID[id] = u
	return nil
}

// Delete is idempotent.
func (r *UserRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil
	}
	delete(r.byEmail, strings.ToLower(u.Email))
	delete(r.byID, id)
	return nil
}

func (r *UserRepository) summary(ctx context.Context, id uuid.UUID) (user.Summary, error) {
	u, err := r.FindByID(ctx, id)
	if err != nil {
		return user.Summary{}, err
	}
	return u.Summary(), nil
}
