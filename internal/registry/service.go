package registry

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/narissarah/wishcraft/internal/activity"
	dbpkg "github.com/narissarah/wishcraft/pkg/db"
	"github.com/narissarah/wishcraft/pkg/db/models"
	"github.com/narissarah/wishcraft/pkg/enums"
	apperrors "github.com/narissarah/wishcraft/pkg/errors"
	"github.com/narissarah/wishcraft/pkg/outbox"
	"github.com/narissarah/wishcraft/pkg/outbox/payloads"
)

var slugSanitizeRe = regexp.MustCompile(`[^a-z0-9-]+`)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service defines registry and registry item operations.
type Service interface {
	CreateRegistry(ctx context.Context, input CreateRegistryInput) (RegistryDTO, error)
	GetRegistry(ctx context.Context, id uuid.UUID) (RegistryDTO, error)
	GetRegistryBySlug(ctx context.Context, shopID, slug string) (RegistryDTO, error)
	ListByCustomer(ctx context.Context, shopID, customerID string) ([]RegistryDTO, error)
	AddItem(ctx context.Context, input AddItemInput) (ItemDTO, error)
	RemoveItem(ctx context.Context, registryID, itemID uuid.UUID) error
	ListItems(ctx context.Context, registryID uuid.UUID) ([]ItemDTO, error)
}

type service struct {
	repo     Repository
	items    ItemRepository
	tx       txRunner
	events   outboxEmitter
	activity activity.Service
}

// CreateRegistryInput captures the fields required to open a registry.
type CreateRegistryInput struct {
	ShopID     string
	CustomerID string
	Title      string
	Slug       string
	EventDate  *time.Time
	Visibility enums.RegistryVisibility
}

// AddItemInput captures the fields required to add an item.
type AddItemInput struct {
	RegistryID      uuid.UUID
	ProductID       int64
	VariantID       *int64
	Title           string
	Quantity        int
	UnitPrice       decimal.Decimal
	CurrencyCode    enums.Currency
	IsGroupGift     bool
	GroupGiftTarget *decimal.Decimal
}

// NewService wires a registry service with its dependencies.
func NewService(repo Repository, items ItemRepository, tx txRunner, events outboxEmitter, act activity.Service) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("registry repository required")
	}
	if items == nil {
		return nil, fmt.Errorf("item repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if events == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if act == nil {
		return nil, fmt.Errorf("activity service required")
	}
	return &service{
		repo:     repo,
		items:    items,
		tx:       tx,
		events:   events,
		activity: act,
	}, nil
}

func (s *service) CreateRegistry(ctx context.Context, input CreateRegistryInput) (RegistryDTO, error) {
	if strings.TrimSpace(input.ShopID) == "" {
		return RegistryDTO{}, apperrors.New(apperrors.CodeValidation, "shop id is required")
	}
	if strings.TrimSpace(input.CustomerID) == "" {
		return RegistryDTO{}, apperrors.New(apperrors.CodeValidation, "customer id is required")
	}
	if strings.TrimSpace(input.Title) == "" {
		return RegistryDTO{}, apperrors.New(apperrors.CodeValidation, "title is required")
	}

	slug := strings.TrimSpace(input.Slug)
	if slug == "" {
		slug = Slugify(input.Title)
	}
	if slug == "" {
		return RegistryDTO{}, apperrors.New(apperrors.CodeValidation, "slug could not be derived from title")
	}

	visibility := input.Visibility
	if visibility == "" {
		visibility = enums.RegistryVisibilityPublic
	}
	if !visibility.IsValid() {
		return RegistryDTO{}, apperrors.New(apperrors.CodeValidation, fmt.Sprintf("invalid visibility %q", visibility))
	}

	registry := &models.Registry{
		ShopID:     input.ShopID,
		CustomerID: input.CustomerID,
		Title:      strings.TrimSpace(input.Title),
		Slug:       slug,
		EventDate:  input.EventDate,
		Status:     enums.RegistryStatusActive,
		Visibility: visibility,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, registry); err != nil {
			return err
		}
		return s.activity.RecordTx(ctx, tx, activity.RecordInput{
			RegistryID:  registry.ID,
			IsSystem:    true,
			Action:      enums.ActivityRegistryCreated,
			Description: fmt.Sprintf("Registry %q created", registry.Title),
		})
	})
	if err != nil {
		if dbpkg.IsUniqueViolation(err, "registries_shop_slug_key") {
			return RegistryDTO{}, apperrors.New(apperrors.CodeConflict, "a registry with this slug already exists")
		}
		return RegistryDTO{}, apperrors.Wrap(apperrors.CodeInternal, err, "creating registry")
	}
	return toRegistryDTO(*registry), nil
}

func (s *service) GetRegistry(ctx context.Context, id uuid.UUID) (RegistryDTO, error) {
	if id == uuid.Nil {
		return RegistryDTO{}, apperrors.New(apperrors.CodeValidation, "registry id is required")
	}
	registry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return RegistryDTO{}, apperrors.New(apperrors.CodeNotFound, "registry not found")
		}
		return RegistryDTO{}, apperrors.Wrap(apperrors.CodeInternal, err, "loading registry")
	}
	return toRegistryDTO(*registry), nil
}

func (s *service) GetRegistryBySlug(ctx context.Context, shopID, slug string) (RegistryDTO, error) {
	if strings.TrimSpace(shopID) == "" || strings.TrimSpace(slug) == "" {
		return RegistryDTO{}, apperrors.New(apperrors.CodeValidation, "shop id and slug are required")
	}
	registry, err := s.repo.FindBySlug(ctx, shopID, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return RegistryDTO{}, apperrors.New(apperrors.CodeNotFound, "registry not found")
		}
		return RegistryDTO{}, apperrors.Wrap(apperrors.CodeInternal, err, "loading registry")
	}
	return toRegistryDTO(*registry), nil
}

func (s *service) ListByCustomer(ctx context.Context, shopID, customerID string) ([]RegistryDTO, error) {
	if strings.TrimSpace(shopID) == "" || strings.TrimSpace(customerID) == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "shop id and customer id are required")
	}
	registries, err := s.repo.ListByCustomer(ctx, shopID, customerID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "listing registries")
	}
	dtos := make([]RegistryDTO, 0, len(registries))
	for _, registry := range registries {
		dtos = append(dtos, toRegistryDTO(registry))
	}
	return dtos, nil
}

func (s *service) AddItem(ctx context.Context, input AddItemInput) (ItemDTO, error) {
	if input.RegistryID == uuid.Nil {
		return ItemDTO{}, apperrors.New(apperrors.CodeValidation, "registry id is required")
	}
	if input.ProductID <= 0 {
		return ItemDTO{}, apperrors.New(apperrors.CodeValidation, "product id is required")
	}
	if strings.TrimSpace(input.Title) == "" {
		return ItemDTO{}, apperrors.New(apperrors.CodeValidation, "title is required")
	}
	if input.Quantity < 1 {
		return ItemDTO{}, apperrors.New(apperrors.CodeValidation, "quantity must be at least 1")
	}
	if input.UnitPrice.IsNegative() {
		return ItemDTO{}, apperrors.New(apperrors.CodeValidation, "unit price must not be negative")
	}
	currency := input.CurrencyCode
	if currency == "" {
		currency = enums.CurrencyUSD
	}
	if !currency.IsValid() {
		return ItemDTO{}, apperrors.New(apperrors.CodeValidation, fmt.Sprintf("invalid currency %q", currency))
	}
	if input.GroupGiftTarget != nil && !input.GroupGiftTarget.IsPositive() {
		return ItemDTO{}, apperrors.New(apperrors.CodeValidation, "group gift target must be positive")
	}

	registry, err := s.repo.FindByID(ctx, input.RegistryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ItemDTO{}, apperrors.New(apperrors.CodeNotFound, "registry not found")
		}
		return ItemDTO{}, apperrors.Wrap(apperrors.CodeInternal, err, "loading registry")
	}

	item := &models.RegistryItem{
		RegistryID:      registry.ID,
		ProductID:       input.ProductID,
		VariantID:       input.VariantID,
		Title:           strings.TrimSpace(input.Title),
		Quantity:        input.Quantity,
		UnitPrice:       input.UnitPrice,
		CurrencyCode:    currency,
		Status:          enums.RegistryItemStatusActive,
		IsGroupGift:     input.IsGroupGift,
		GroupGiftTarget: input.GroupGiftTarget,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.items.WithTx(tx).Create(ctx, item); err != nil {
			return err
		}
		if err := s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventItemAdded,
			AggregateType: enums.AggregateRegistryItem,
			AggregateID:   item.ID,
			Version:       1,
			Data: payloads.ItemAddedEvent{
				RegistryID: registry.ID,
				ItemID:     item.ID,
				ShopID:     registry.ShopID,
				Title:      item.Title,
				Quantity:   item.Quantity,
				UnitPrice:  item.UnitPrice,
			},
		}); err != nil {
			return err
		}
		return s.activity.RecordTx(ctx, tx, activity.RecordInput{
			RegistryID:  registry.ID,
			IsSystem:    true,
			Action:      enums.ActivityItemAdded,
			Description: fmt.Sprintf("%q added to the registry", item.Title),
		})
	})
	if err != nil {
		return ItemDTO{}, apperrors.Wrap(apperrors.CodeInternal, err, "adding registry item")
	}
	return toItemDTO(*item), nil
}

func (s *service) RemoveItem(ctx context.Context, registryID, itemID uuid.UUID) error {
	if registryID == uuid.Nil || itemID == uuid.Nil {
		return apperrors.New(apperrors.CodeValidation, "registry id and item id are required")
	}

	item, err := s.items.FindByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.New(apperrors.CodeNotFound, "registry item not found")
		}
		return apperrors.Wrap(apperrors.CodeInternal, err, "loading registry item")
	}
	if item.RegistryID != registryID {
		return apperrors.New(apperrors.CodeNotFound, "registry item not found")
	}
	if item.Status == enums.RegistryItemStatusInactive {
		return nil
	}

	registry, err := s.repo.FindByID(ctx, registryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.New(apperrors.CodeNotFound, "registry not found")
		}
		return apperrors.Wrap(apperrors.CodeInternal, err, "loading registry")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		// Purchase rows reference the item, so removal deactivates rather
		// than deletes. The ledger stays intact for already-recorded orders.
		if err := s.items.WithTx(tx).UpdateStatus(ctx, item.ID, enums.RegistryItemStatusInactive); err != nil {
			return err
		}
		if err := s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventItemRemoved,
			AggregateType: enums.AggregateRegistryItem,
			AggregateID:   item.ID,
			Version:       1,
			Data: payloads.ItemRemovedEvent{
				RegistryID: registry.ID,
				ItemID:     item.ID,
				ShopID:     registry.ShopID,
				Title:      item.Title,
			},
		}); err != nil {
			return err
		}
		return s.activity.RecordTx(ctx, tx, activity.RecordInput{
			RegistryID:  registry.ID,
			IsSystem:    true,
			Action:      enums.ActivityItemRemoved,
			Description: fmt.Sprintf("%q removed from the registry", item.Title),
		})
	})
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, err, "removing registry item")
	}
	return nil
}

func (s *service) ListItems(ctx context.Context, registryID uuid.UUID) ([]ItemDTO, error) {
	if registryID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "registry id is required")
	}
	items, err := s.items.ListByRegistry(ctx, registryID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "listing registry items")
	}
	dtos := make([]ItemDTO, 0, len(items))
	for _, item := range items {
		dtos = append(dtos, toItemDTO(item))
	}
	return dtos, nil
}

// Slugify lowercases the input and collapses runs of non url-safe characters
// to single hyphens.
func Slugify(value string) string {
	slug := strings.ToLower(strings.TrimSpace(value))
	slug = strings.ReplaceAll(slug, " ", "-")
	slug = slugSanitizeRe.ReplaceAllString(slug, "-")
	for strings.Contains(slug, "--") {
		slug = strings.ReplaceAll(slug, "--", "-")
	}
	return strings.Trim(slug, "-")
}
