package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/khoahotran/devprofile/internal/domain/profile"
	"github.com/khoahotran/devprofile/internal/domain/user"
	"github.com/khoahotran/devprofile/pkg/apperror"
	"github.com/khoahotran/devprofile/pkg/logger"
)

// Every entry mutation is a single UPDATE on the JSONB column, so concurrent
// requests for the same profile serialize on the row lock instead of
// overwriting each other.
type postgresProfileRepo struct {
	db     *pgxpool.Pool
	logger logger.Logger
}

func NewPostgresProfileRepo(db *pgxpool.Pool, log logger.Logger) profile.Repository {
	return &postgresProfileRepo{db: db, logger: log}
}

var profileColumns = []string{
	"p.id", "u.id", "u.name", "u.avatar",
	"p.company", "p.website", "p.location", "p.status", "p.skills", "p.bio",
	"p.githubusername", "p.social", "p.experience", "p.education", "p.created_at",
}

// populated wraps a data-modifying statement that RETURNING * into a query
// joining the owner, so mutations answer with the same shape as reads.
func populated(stmt string) string {
	return fmt.Sprintf(`WITH p AS (%s) SELECT %s FROM p JOIN users u ON u.id = p.user_id`,
		stmt, strings.Join(profileColumns, ", "))
}

func scanProfile(row pgx.Row) (*profile.Profile, error) {
	p := &profile.Profile{}
	var skills, social, experience, education []byte

	err := row.Scan(
		&p.ID,
		&p.User.ID,
		&p.User.Name,
		&p.User.Avatar,
		&p.Company,
		&p.Website,
		&p.Location,
		&p.Status,
		&skills,
		&p.Bio,
		&p.GithubUsername,
		&social,
		&experience,
		&education,
		&p.Date,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, profile.ErrProfileNotFound
		}
		return nil, apperror.NewInternal("failed to scan profile row", err)
	}

	if err := json.Unmarshal(skills, &p.Skills); err != nil {
		return nil, apperror.NewInternal("failed to decode skills", err)
	}
	if err := json.Unmarshal(social, &p.Social); err != nil {
		return nil, apperror.NewInternal("failed to decode social", err)
	}
	if err := json.Unmarshal(experience, &p.Experience); err != nil {
		return nil, apperror.NewInternal("failed to decode experience", err)
	}
	if err := json.Unmarshal(education, &p.Education); err != nil {
		return nil, apperror.NewInternal("failed to decode education", err)
	}
	if p.Experience == nil {
		p.Experience = []profile.Experience{}
	}
	if p.Education == nil {
		p.Education = []profile.Education{}
	}
	return p, nil
}

func (r *postgresProfileRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*profile.Profile, error) {
	query, args, err := psql.Select(profileColumns...).
		From("profiles p").
		Join("users u ON u.id = p.user_id").
		Where("p.user_id = ?", userID).
		ToSql()
	if err != nil {
		return nil, apperror.NewInternal("failed to build profile query", err)
	}
	return scanProfile(r.db.QueryRow(ctx, query, args...))
}

func (r *postgresProfileRepo) List(ctx context.Context) ([]*profile.Profile, error) {
	query, args, err := psql.Select(profileColumns...).
		From("profiles p").
		Join("users u ON u.id = p.user_id").
		OrderBy("p.created_at ASC").
		ToSql()
	if err != nil {
		return nil, apperror.NewInternal("failed to build profile list query", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, apperror.NewInternal("failed to list profiles", err)
	}
	defer rows.Close()

	profiles := make([]*profile.Profile, 0)
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewInternal("failed iterating profile rows", err)
	}
	return profiles, nil
}

func (r *postgresProfileRepo) Upsert(ctx context.Context, userID uuid.UUID, f profile.UpsertFields) (*profile.Profile, error) {
	skills, err := json.Marshal(nonNilSkills(f.Skills))
	if err != nil {
		return nil, apperror.NewInternal("failed to encode skills", err)
	}
	social, err := json.Marshal(f.Social)
	if err != nil {
		return nil, apperror.NewInternal("failed to encode social", err)
	}

	insert, args, err := psql.Insert("profiles").
		Columns("id", "user_id", "company", "website", "location", "status", "skills", "bio", "githubusername", "social").
		Values(uuid.New(), userID, f.Company, f.Website, f.Location, f.Status, string(skills), f.Bio, f.GithubUsername, string(social)).
		Suffix(`ON CONFLICT (user_id) DO UPDATE SET
			company = COALESCE(EXCLUDED.company, profiles.company),
			website = COALESCE(EXCLUDED.website, profiles.website),
			location = COALESCE(EXCLUDED.location, profiles.location),
			bio = COALESCE(EXCLUDED.bio, profiles.bio),
			githubusername = COALESCE(EXCLUDED.githubusername, profiles.githubusername),
			status = EXCLUDED.status,
			skills = EXCLUDED.skills,
			social = EXCLUDED.social
			RETURNING *`).
		ToSql()
	if err != nil {
		return nil, apperror.NewInternal("failed to build profile upsert", err)
	}

	p, err := scanProfile(r.db.QueryRow(ctx, populated(insert), args...))
	if err != nil {
		if pgErrCode(err) == pgForeignKeyViolation {
			return nil, user.ErrUserNotFound
		}
		r.logger.Error("Failed to upsert profile", err, zap.String("user_id", userID.String()))
		return nil, err
	}
	return p, nil
}

func (r *postgresProfileRepo) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM profiles WHERE user_id = $1`, userID); err != nil {
		r.logger.Error("Failed to delete profile", err, zap.String("user_id", userID.String()))
		return apperror.NewInternal("failed to delete profile", err)
	}
	return nil
}

func (r *postgresProfileRepo) AddExperience(ctx context.Context, userID uuid.UUID, e profile.Experience) (*profile.Profile, error) {
	return r.prepend(ctx, "experience", userID, e)
}

func (r *postgresProfileRepo) AddEducation(ctx context.Context, userID uuid.UUID, e profile.Education) (*profile.Profile, error) {
	return r.prepend(ctx, "education", userID, e)
}

func (r *postgresProfileRepo) prepend(ctx context.Context, column string, userID uuid.UUID, entry any) (*profile.Profile, error) {
	b, err := json.Marshal(entry)
	if err != nil {
		return nil, apperror.NewInternal("failed to encode "+column+" entry", err)
	}

	stmt := fmt.Sprintf(`UPDATE profiles SET %[1]s = jsonb_build_array($2::jsonb) || %[1]s WHERE user_id = $1 RETURNING *`, column)
	return scanProfile(r.db.QueryRow(ctx, populated(stmt), userID, string(b)))
}

// filterEntries rebuilds a JSONB array without the element whose id matches
// $2, keeping the original order.
const filterEntries = `COALESCE((
	SELECT jsonb_agg(t.e ORDER BY t.i)
	FROM jsonb_array_elements(%[1]s) WITH ORDINALITY AS t(e, i)
	WHERE t.e->>'id' <> $2
), '[]'::jsonb)`

func (r *postgresProfileRepo) RemoveExperience(ctx context.Context, userID uuid.UUID, entryID uuid.UUID) (*profile.Profile, error) {
	stmt := fmt.Sprintf(`UPDATE profiles SET experience = `+filterEntries+` WHERE user_id = $1 RETURNING *`, "experience")
	return scanProfile(r.db.QueryRow(ctx, populated(stmt), userID, entryID.String()))
}

func (r *postgresProfileRepo) RemoveEducation(ctx context.Context, userID uuid.UUID, entryID uuid.UUID) (*profile.Profile, error) {
	stmt := fmt.Sprintf(`UPDATE profiles SET education = `+filterEntries+`
		WHERE user_id = $1 AND education @> jsonb_build_array(jsonb_build_object('id', $2::text))
		RETURNING *`, "education")

	p, err := scanProfile(r.db.QueryRow(ctx, populated(stmt), userID, entryID.String()))
	if !errors.Is(err, profile.ErrProfileNotFound) {
		return p, err
	}

	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM profiles WHERE user_id = $1)`, userID).Scan(&exists); err != nil {
		return nil, apperror.NewInternal("failed to check profile", err)
	}
	if exists {
		return nil, profile.ErrEducationNotFound
	}
	return nil, profile.ErrProfileNotFound
}

func nonNilSkills(skills []string) []string {
	if skills == nil {
		return []string{}
	}
	return skills
}
