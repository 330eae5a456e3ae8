package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/khoahotran/devprofile/internal/domain/user"
	"github.com/khoahotran/devprofile/pkg/apperror"
	"github.com/khoahotran/devprofile/pkg/logger"
)

type postgresUserRepo struct {
	db     *pgxpool.Pool
	logger logger.Logger
}

func NewPostgresUserRepo(db *pgxpool.Pool, log logger.Logger) user.Repository {
	return &postgresUserRepo{db: db, logger: log}
}

const userColumns = "id, name, email, password_hash, avatar, created_at"

func scanUser(row pgx.Row) (*user.User, error) {
	u := &user.User{}
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Avatar, &u.Date)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrUserNotFound
		}
		return nil, apperror.NewInternal("failed to scan user row", err)
	}
	return u, nil
}

func (r *postgresUserRepo) Create(ctx context.Context, u *user.User) error {
	query, args, err := psql.Insert("users").
		Columns("id", "name", "email", "password_hash", "avatar", "created_at").
		Values(u.ID, u.Name, u.Email, u.PasswordHash, u.Avatar, u.Date).
		ToSql()
	if err != nil {
		return apperror.NewInternal("failed to build user insert", err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		if pgErrCode(err) == pgUniqueViolation {
			return user.ErrEmailTaken
		}
		r.logger.Error("Failed to insert user", err, zap.String("user_id", u.ID.String()))
		return apperror.NewInternal("failed to insert user", err)
	}
	return nil
}

func (r *postgresUserRepo) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRow(ctx, query, email))
}

func (r *postgresUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRow(ctx, query, id))
}

func (r *postgresUserRepo) UpdateAvatar(ctx context.Context, id uuid.UUID, avatar string) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET avatar = $2 WHERE id = $1`, id, avatar)
	if err != nil {
		return apperror.NewInternal("failed to update avatar", err)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrUserNotFound
	}
	return nil
}

func (r *postgresUserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id); err != nil {
		r.logger.Error("Failed to delete user", err, zap.String("user_id", id.String()))
		return apperror.NewInternal("failed to delete user", err)
	}
	return nil
}
