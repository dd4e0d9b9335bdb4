package registry

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/narissarah/wishcraft/pkg/db/models"
	"github.com/narissarah/wishcraft/pkg/enums"
)

// Repository manages persistence for registries.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, registry *models.Registry) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Registry, error)
	FindBySlug(ctx context.Context, shopID, slug string) (*models.Registry, error)
	ListByCustomer(ctx context.Context, shopID, customerID string) ([]models.Registry, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.RegistryStatus) error
}

// ItemRepository manages persistence for registry items.
type ItemRepository interface {
	WithTx(tx *gorm.DB) ItemRepository
	Create(ctx context.Context, item *models.RegistryItem) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.RegistryItemStatus) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.RegistryItem, error)
	ListByRegistry(ctx context.Context, registryID uuid.UUID) ([]models.RegistryItem, error)
	IncrementPurchased(ctx context.Context, id uuid.UUID, quantity int) (*models.RegistryItem, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a registry repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, registry *models.Registry) error {
	return r.db.WithContext(ctx).Create(registry).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Registry, error) {
	var registry models.Registry
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&registry).Error
	if err != nil {
		return nil, err
	}
	return &registry, nil
}

func (r *repository) FindBySlug(ctx context.Context, shopID, slug string) (*models.Registry, error) {
	var registry models.Registry
	err := r.db.WithContext(ctx).
		Where("shop_id = ? AND slug = ?", shopID, slug).
		First(&registry).Error
	if err != nil {
		return nil, err
	}
	return &registry, nil
}

func (r *repository) ListByCustomer(ctx context.Context, shopID, customerID string) ([]models.Registry, error) {
	var registries []models.Registry
	err := r.db.WithContext(ctx).
		Where("shop_id = ? AND customer_id = ?", shopID, customerID).
		Order("created_at DESC").
		Find(&registries).Error
	return registries, err
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.RegistryStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Registry{}).
		Where("id = ?", id).
		Update("status", status).Error
}

type itemRepository struct {
	db *gorm.DB
}

// NewItemRepository returns an item repository bound to the provided database.
func NewItemRepository(db *gorm.DB) ItemRepository {
	return &itemRepository{db: db}
}

func (r *itemRepository) WithTx(tx *gorm.DB) ItemRepository {
	if tx == nil {
		return r
	}
	return &itemRepository{db: tx}
}

func (r *itemRepository) Create(ctx context.Context, item *models.RegistryItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// UpdateStatus flips an item's status in place. Items are never hard-deleted
// because purchases and contributions keep foreign keys into this table.
func (r *itemRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.RegistryItemStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.RegistryItem{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *itemRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.RegistryItem, error) {
	var item models.RegistryItem
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *itemRepository) ListByRegistry(ctx context.Context, registryID uuid.UUID) ([]models.RegistryItem, error) {
	var items []models.RegistryItem
	err := r.db.WithContext(ctx).
		Where("registry_id = ?", registryID).
		Order("created_at ASC").
		Find(&items).Error
	return items, err
}

// IncrementPurchased bumps quantity_purchased atomically in SQL. There is no
// read-modify-write window, so concurrent order webhooks cannot lose updates.
func (r *itemRepository) IncrementPurchased(ctx context.Context, id uuid.UUID, quantity int) (*models.RegistryItem, error) {
	var item models.RegistryItem
	result := r.db.WithContext(ctx).
		Model(&item).
		Clauses(clause.Returning{}).
		Where("id = ?", id).
		Update("quantity_purchased", gorm.Expr("quantity_purchased + ?", quantity))
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &item, nil
}
