package auth

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/khoahotran/devprofile/internal/application/service"
	"github.com/khoahotran/devprofile/internal/domain/user"
	"github.com/khoahotran/devprofile/pkg/apperror"
	"github.com/khoahotran/devprofile/pkg/auth"
	"github.com/khoahotran/devprofile/pkg/logger"
)

const MsgUserExists = "User already exists"

type RegisterUseCase struct {
	userRepo  user.Repository
	jwtSvc    *auth.JWTService
	publisher service.EventPublisher
	logger    logger.Logger
}

func NewRegisterUseCase(repo user.Repository, jwtSvc *auth.JWTService, pub service.EventPublisher, log logger.Logger) *RegisterUseCase {
	return &RegisterUseCase{
		userRepo:  repo,
		jwtSvc:    jwtSvc,
		publisher: pub,
		logger:    log,
	}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

type RegisterOutput struct {
	UserID      uuid.UUID
	AccessToken string
}

func (uc *RegisterUseCase) Execute(ctx context.Context, input RegisterInput) (*RegisterOutput, error) {
	ctx, span := tracer.Start(ctx, "Register")
	defer span.End()

	email := normalizeEmail(input.Email)

	_, err := uc.userRepo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, apperror.NewConflict(MsgUserExists, email)
	case !errors.Is(err, user.ErrUserNotFound):
		span.RecordError(err)
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, apperror.NewInternal("failed to hash password", err)
	}

	u := &user.User{
		ID:           uuid.New(),
		Name:         input.Name,
		Email:        email,
		PasswordHash: hash,
		Avatar:       GravatarURL(email),
		Date:         time.Now().UTC(),
	}
	if err := uc.userRepo.Create(ctx, u); err != nil {
		span.RecordError(err)
		if errors.Is(err, user.ErrEmailTaken) {
			return nil, apperror.NewConflict(MsgUserExists, email)
		}
		return nil, err
	}
	span.SetAttributes(attribute.String("user_id", u.ID.String()))

	token, err := uc.jwtSvc.GenerateToken(u.ID)
	if err != nil {
		return nil, apperror.NewInternal("failed to generate token", err)
	}

	service.PublishAsync(uc.publisher, uc.logger, service.AccountEvent{
		EventType: service.EventUserRegistered,
		UserID:    u.ID,
	})
	return &RegisterOutput{UserID: u.ID, AccessToken: token}, nil
}

// GravatarURL is the default avatar: 200px, pg rated, mystery-man fallback.
func GravatarURL(email string) string {
	sum := md5.Sum([]byte(email))
	return fmt.Sprintf("//www.gravatar.com/avatar/%s?s=200&r=pg&d=mm", hex.EncodeToString(sum[:]))
}
