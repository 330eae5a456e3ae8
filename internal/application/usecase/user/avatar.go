package user

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/khoahotran/devprofile/internal/application/service"
	"github.com/khoahotran/devprofile/internal/domain/user"
	"github.com/khoahotran/devprofile/pkg/apperror"
	"github.com/khoahotran/devprofile/pkg/logger"
)

const avatarName = "avatar"

var tracer = otel.Tracer("user_usecase")

// AvatarFolder is where a user's avatar lives in media storage.
func AvatarFolder(userID uuid.UUID) string {
	return fmt.Sprintf("users/%s", userID.String())
}

// AvatarPublicID is the full media storage id of a user's avatar.
func AvatarPublicID(userID uuid.UUID) string {
	return AvatarFolder(userID) + "/" + avatarName
}

type UploadAvatarUseCase struct {
	userRepo  user.Repository
	uploader  service.Uploader
	publisher service.EventPublisher
	logger    logger.Logger
}

func NewUploadAvatarUseCase(repo user.Repository, uploader service.Uploader, pub service.EventPublisher, log logger.Logger) *UploadAvatarUseCase {
	return &UploadAvatarUseCase{
		userRepo:  repo,
		uploader:  uploader,
		publisher: pub,
		logger:    log,
	}
}

type UploadAvatarInput struct {
	UserID uuid.UUID
	File   io.Reader
}

func (uc *UploadAvatarUseCase) Execute(ctx context.Context, input UploadAvatarInput) (*user.User, error) {
	ctx, span := tracer.Start(ctx, "UploadAvatar")
	defer span.End()

	u, err := uc.userRepo.FindByID(ctx, input.UserID)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, apperror.NewUnauthorized("Token is not valid", err)
		}
		return nil, err
	}

	url, err := uc.uploader.Upload(ctx, input.File, AvatarFolder(u.ID), avatarName)
	if err != nil {
		span.RecordError(err)
		return nil, apperror.NewInternal("failed to upload avatar", err)
	}

	if err := uc.userRepo.UpdateAvatar(ctx, u.ID, url); err != nil {
		span.RecordError(err)
		uc.logger.Warn("Avatar uploaded but user not updated", zap.String("user_id", u.ID.String()), zap.Error(err))
		return nil, err
	}
	u.Avatar = url

	service.PublishAsync(uc.publisher, uc.logger, service.AccountEvent{
		EventType: service.EventAvatarUpdated,
		UserID:    u.ID,
		Data:      map[string]string{"avatar": url},
	})
	return u, nil
}
