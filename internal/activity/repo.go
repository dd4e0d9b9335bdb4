package activity

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/narissarah/wishcraft/pkg/db/models"
	"github.com/narissarah/wishcraft/pkg/pagination"
)

// Repository manages persistence for registry activity records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, record *models.ActivityRecord) error
	ListByRegistry(ctx context.Context, registryID uuid.UUID, cursor string, limit int) (ActivityPageDTO, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an activity repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, record *models.ActivityRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *repository) ListByRegistry(ctx context.Context, registryID uuid.UUID, cursor string, limit int) (ActivityPageDTO, error) {
	normalizedLimit := pagination.NormalizeLimit(limit)
	limitWithBuffer := pagination.LimitWithBuffer(limit)
	decodedCursor, err := pagination.ParseCursor(strings.TrimSpace(cursor))
	if err != nil {
		return ActivityPageDTO{}, err
	}

	query := r.db.WithContext(ctx).
		Where("registry_id = ?", registryID)

	if decodedCursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", decodedCursor.CreatedAt, decodedCursor.CreatedAt, decodedCursor.ID)
	}

	var records []models.ActivityRecord
	if err := query.Order("created_at DESC").Order("id DESC").Limit(limitWithBuffer).Find(&records).Error; err != nil {
		return ActivityPageDTO{}, err
	}

	resultRows := records
	nextCursor := ""
	if len(records) > normalizedLimit {
		resultRows = records[:normalizedLimit]
		last := resultRows[len(resultRows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}

	items := make([]ActivityDTO, 0, len(resultRows))
	for _, record := range resultRows {
		items = append(items, toDTO(record))
	}

	return ActivityPageDTO{
		Items:      items,
		NextCursor: nextCursor,
	}, nil
}
