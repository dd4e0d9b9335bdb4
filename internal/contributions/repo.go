package contributions

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/narissarah/wishcraft/pkg/db/models"
	"github.com/narissarah/wishcraft/pkg/enums"
)

// Repository manages persistence for group gift contributions.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, contribution *models.GroupGiftContribution) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.GroupGiftContribution, error)
	ListByPurchase(ctx context.Context, purchaseID uuid.UUID) ([]models.GroupGiftContribution, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.ContributionStatus) error
	SumCompletedByItem(ctx context.Context, itemID uuid.UUID) (decimal.Decimal, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a contribution repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, contribution *models.GroupGiftContribution) error {
	return r.db.WithContext(ctx).Create(contribution).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.GroupGiftContribution, error) {
	var contribution models.GroupGiftContribution
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&contribution).Error
	if err != nil {
		return nil, err
	}
	return &contribution, nil
}

func (r *repository) ListByPurchase(ctx context.Context, purchaseID uuid.UUID) ([]models.GroupGiftContribution, error) {
	var contributions []models.GroupGiftContribution
	err := r.db.WithContext(ctx).
		Where("purchase_id = ?", purchaseID).
		Order("created_at ASC").
		Find(&contributions).Error
	return contributions, err
}

// UpdateStatus is a compare-and-set on payment_status. Racing transitions on
// the same row see zero affected rows and surface gorm.ErrRecordNotFound, so
// only one writer wins a pending contribution.
func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.ContributionStatus) error {
	result := r.db.WithContext(ctx).
		Model(&models.GroupGiftContribution{}).
		Where("id = ? AND payment_status = ?", id, from).
		Update("payment_status", to)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SumCompletedByItem totals completed contributions across every group gift
// purchase of the item. Pending, failed and refunded rows never count.
func (r *repository) SumCompletedByItem(ctx context.Context, itemID uuid.UUID) (decimal.Decimal, error) {
	var raw *string
	err := r.db.WithContext(ctx).
		Table("group_gift_contributions c").
		Select("SUM(c.amount)").
		Joins("JOIN registry_purchases p ON p.id = c.purchase_id").
		Where("p.registry_item_id = ?", itemID).
		Where("c.payment_status = ?", enums.ContributionStatusCompleted).
		Scan(&raw).Error
	if err != nil {
		return decimal.Zero, err
	}
	if raw == nil {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(*raw)
}
