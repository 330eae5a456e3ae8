package profile

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/khoahotran/devprofile/internal/application/service"
	"github.com/khoahotran/devprofile/internal/domain/profile"
	"github.com/khoahotran/devprofile/pkg/apperror"
)

type AddExperienceInput struct {
	UserID      uuid.UUID
	Title       string
	Company     string
	Location    *string
	From        time.Time
	To          *time.Time
	Current     bool
	Description *string
}

func (uc *ProfileUseCase) ExecuteAddExperience(ctx context.Context, input AddExperienceInput) (*profile.Profile, error) {
	ctx, span := tracer.Start(ctx, "AddExperience")
	defer span.End()

	entry := profile.Experience{
		ID:          uuid.New(),
		Title:       input.Title,
		Company:     input.Company,
		Location:    input.Location,
		From:        input.From,
		To:          input.To,
		Current:     input.Current,
		Description: input.Description,
	}
	span.SetAttributes(attribute.String("entry_id", entry.ID.String()))

	p, err := uc.profileRepo.AddExperience(ctx, input.UserID, entry)
	if err != nil {
		span.RecordError(err)
		return nil, notFoundAs(err, MsgNoProfile, input.UserID)
	}

	uc.publish(input.UserID, service.EventExperienceAdded, map[string]string{"entry_id": entry.ID.String()})
	return p, nil
}

type RemoveEntryInput struct {
	UserID  uuid.UUID
	EntryID uuid.UUID
}

// ExecuteRemoveExperience succeeds with the list unchanged when the entry
// does not exist.
func (uc *ProfileUseCase) ExecuteRemoveExperience(ctx context.Context, input RemoveEntryInput) (*profile.Profile, error) {
	ctx, span := tracer.Start(ctx, "RemoveExperience")
	defer span.End()

	p, err := uc.profileRepo.RemoveExperience(ctx, input.UserID, input.EntryID)
	if err != nil {
		span.RecordError(err)
		return nil, notFoundAs(err, MsgNoProfile, input.UserID)
	}

	uc.publish(input.UserID, service.EventExperienceRemoved, map[string]string{"entry_id": input.EntryID.String()})
	return p, nil
}

type AddEducationInput struct {
	UserID       uuid.UUID
	School       string
	Degree       string
	FieldOfStudy string
	From         time.Time
	To           *time.Time
	Current      bool
	Description  *string
}

func (uc *ProfileUseCase) ExecuteAddEducation(ctx context.Context, input AddEducationInput) (*profile.Profile, error) {
	ctx, span := tracer.Start(ctx, "AddEducation")
	defer span.End()

	entry := profile.Education{
		ID:           uuid.New(),
		School:       input.School,
		Degree:       input.Degree,
		FieldOfStudy: input.FieldOfStudy,
		From:         input.From,
		To:           input.To,
		Current:      input.Current,
		Description:  input.Description,
	}
	span.SetAttributes(attribute.String("entry_id", entry.ID.String()))

	p, err := uc.profileRepo.AddEducation(ctx, input.UserID, entry)
	if err != nil {
		span.RecordError(err)
		return nil, notFoundAs(err, MsgNoProfile, input.UserID)
	}

	uc.publish(input.UserID, service.EventEducationAdded, map[string]string{"entry_id": entry.ID.String()})
	return p, nil
}

// ExecuteRemoveEducation reports a server fault when the entry does not
// exist, unlike ExecuteRemoveExperience.
func (uc *ProfileUseCase) ExecuteRemoveEducation(ctx context.Context, input RemoveEntryInput) (*profile.Profile, error) {
	ctx, span := tracer.Start(ctx, "RemoveEducation")
	defer span.End()

	p, err := uc.profileRepo.RemoveEducation(ctx, input.UserID, input.EntryID)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, profile.ErrEducationNotFound) {
			return nil, apperror.NewInternal("education entry "+input.EntryID.String()+" not found", err)
		}
		return nil, notFoundAs(err, MsgNoProfile, input.UserID)
	}

	uc.publish(input.UserID, service.EventEducationRemoved, map[string]string{"entry_id": input.EntryID.String()})
	return p, nil
}
