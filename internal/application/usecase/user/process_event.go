package user

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/khoahotran/devprofile/internal/application/service"
	"github.com/khoahotran/devprofile/pkg/logger"
)

// ProcessAccountEventUseCase runs in the worker and cleans up media that
// outlives its owner.
type ProcessAccountEventUseCase struct {
	uploader service.Uploader
	logger   logger.Logger
}

func NewProcessAccountEventUseCase(uploader service.Uploader, log logger.Logger) *ProcessAccountEventUseCase {
	return &ProcessAccountEventUseCase{uploader: uploader, logger: log}
}

func (uc *ProcessAccountEventUseCase) Execute(ctx context.Context, evt service.AccountEvent) error {
	log := uc.logger.With(zap.String("event_type", string(evt.EventType)), zap.String("user_id", evt.UserID.String()))

	switch evt.EventType {
	case service.EventUserDeleted:
		publicID := AvatarPublicID(evt.UserID)
		if err := uc.uploader.Delete(ctx, publicID); err != nil {
			return fmt.Errorf("delete avatar %s: %w", publicID, err)
		}
		log.Info("Deleted avatar of removed user", zap.String("public_id", publicID))
	default:
		log.Info("Account event received", zap.Time("occurred_at", evt.OccurredAt), zap.Any("data", evt.Data))
	}
	return nil
}
