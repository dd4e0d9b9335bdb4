package activity

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/narissarah/wishcraft/pkg/db/models"
	"github.com/narissarah/wishcraft/pkg/enums"
	apperrors "github.com/narissarah/wishcraft/pkg/errors"
	"github.com/narissarah/wishcraft/pkg/logger"
)

const savepointName = "activity_append"

// Service defines operations over the registry audit trail.
type Service interface {
	Record(ctx context.Context, input RecordInput) (*models.ActivityRecord, error)
	RecordTx(ctx context.Context, tx *gorm.DB, input RecordInput) error
	List(ctx context.Context, registryID uuid.UUID, cursor string, limit int) (ActivityPageDTO, error)
}

type service struct {
	repo Repository
	logg *logger.Logger
}

// RecordInput captures the immutable data an audit entry requires.
type RecordInput struct {
	RegistryID  uuid.UUID
	ActorName   *string
	ActorEmail  *string
	IsSystem    bool
	Action      enums.ActivityAction
	Description string
	Metadata    json.RawMessage
}

// NewService wires an activity service with the provided repository.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("activity repository required")
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) Record(ctx context.Context, input RecordInput) (*models.ActivityRecord, error) {
	record, err := buildRecord(input)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "recording activity")
	}
	return record, nil
}

// RecordTx appends the entry inside the caller's transaction under a
// savepoint. A failed append rolls back to the savepoint and is swallowed so
// the surrounding domain write still commits.
func (s *service) RecordTx(ctx context.Context, tx *gorm.DB, input RecordInput) error {
	if tx == nil {
		return fmt.Errorf("transaction required")
	}
	record, err := buildRecord(input)
	if err != nil {
		s.warn(ctx, input, err)
		return nil
	}

	tx.SavePoint(savepointName)
	if err := s.repo.WithTx(tx).Create(ctx, record); err != nil {
		tx.RollbackTo(savepointName)
		s.warn(ctx, input, err)
	}
	return nil
}

func (s *service) warn(ctx context.Context, input RecordInput, err error) {
	if s.logg == nil {
		return
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"registry_id": input.RegistryID.String(),
		"action":      input.Action,
		"error":       err.Error(),
	})
	s.logg.Warn(logCtx, "activity append skipped")
}

func (s *service) List(ctx context.Context, registryID uuid.UUID, cursor string, limit int) (ActivityPageDTO, error) {
	if registryID == uuid.Nil {
		return ActivityPageDTO{}, apperrors.New(apperrors.CodeValidation, "registry id is required")
	}
	page, err := s.repo.ListByRegistry(ctx, registryID, cursor, limit)
	if err != nil {
		return ActivityPageDTO{}, apperrors.Wrap(apperrors.CodeInternal, err, "listing activities")
	}
	return page, nil
}

func buildRecord(input RecordInput) (*models.ActivityRecord, error) {
	if input.RegistryID == uuid.Nil {
		return nil, fmt.Errorf("registry id is required")
	}
	if !input.Action.IsValid() {
		return nil, fmt.Errorf("invalid activity action %q", input.Action)
	}
	if input.Description == "" {
		return nil, fmt.Errorf("description is required")
	}
	return &models.ActivityRecord{
		RegistryID:  input.RegistryID,
		ActorName:   input.ActorName,
		ActorEmail:  input.ActorEmail,
		IsSystem:    input.IsSystem,
		Action:      input.Action,
		Description: input.Description,
		Metadata:    input.Metadata,
	}, nil
}
