package purchases

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/narissarah/wishcraft/pkg/db/models"
	"github.com/narissarah/wishcraft/pkg/pagination"
)

// Repository manages persistence for reconciled purchases.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, purchase *models.Purchase) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Purchase, error)
	FindByOrderLineItem(ctx context.Context, orderID, lineItemID int64) (*models.Purchase, error)
	ListByItem(ctx context.Context, itemID uuid.UUID) ([]models.Purchase, error)
	ListByRegistry(ctx context.Context, registryID uuid.UUID, cursor string, limit int) ([]models.Purchase, string, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a purchase repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, purchase *models.Purchase) error {
	return r.db.WithContext(ctx).Create(purchase).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Purchase, error) {
	var purchase models.Purchase
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&purchase).Error
	if err != nil {
		return nil, err
	}
	return &purchase, nil
}

func (r *repository) FindByOrderLineItem(ctx context.Context, orderID, lineItemID int64) (*models.Purchase, error) {
	var purchase models.Purchase
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND line_item_id = ?", orderID, lineItemID).
		First(&purchase).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &purchase, nil
}

func (r *repository) ListByItem(ctx context.Context, itemID uuid.UUID) ([]models.Purchase, error) {
	var purchases []models.Purchase
	err := r.db.WithContext(ctx).
		Where("registry_item_id = ?", itemID).
		Order("created_at DESC").
		Find(&purchases).Error
	return purchases, err
}

func (r *repository) ListByRegistry(ctx context.Context, registryID uuid.UUID, cursor string, limit int) ([]models.Purchase, string, error) {
	normalizedLimit := pagination.NormalizeLimit(limit)
	limitWithBuffer := pagination.LimitWithBuffer(limit)
	decodedCursor, err := pagination.ParseCursor(strings.TrimSpace(cursor))
	if err != nil {
		return nil, "", err
	}

	query := r.db.WithContext(ctx).
		Table("registry_purchases rp").
		Select("rp.*").
		Joins("JOIN registry_items ri ON ri.id = rp.registry_item_id").
		Where("ri.registry_id = ?", registryID)

	if decodedCursor != nil {
		query = query.Where("(rp.created_at < ?) OR (rp.created_at = ? AND rp.id < ?)", decodedCursor.CreatedAt, decodedCursor.CreatedAt, decodedCursor.ID)
	}

	var purchases []models.Purchase
	if err := query.Order("rp.created_at DESC").Order("rp.id DESC").Limit(limitWithBuffer).Scan(&purchases).Error; err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(purchases) > normalizedLimit {
		purchases = purchases[:normalizedLimit]
		last := purchases[len(purchases)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return purchases, nextCursor, nil
}
