package purchases

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/narissarah/wishcraft/internal/activity"
	"github.com/narissarah/wishcraft/internal/registry"
	dbpkg "github.com/narissarah/wishcraft/pkg/db"
	"github.com/narissarah/wishcraft/pkg/db/models"
	"github.com/narissarah/wishcraft/pkg/enums"
	apperrors "github.com/narissarah/wishcraft/pkg/errors"
	"github.com/narissarah/wishcraft/pkg/outbox"
	"github.com/narissarah/wishcraft/pkg/outbox/payloads"
)

// orderLineItemKey is the unique constraint guarding webhook redelivery.
const orderLineItemKey = "registry_purchases_order_line_item_key"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service defines the purchase ledger operations.
type Service interface {
	Record(ctx context.Context, input RecordInput) (RecordResult, error)
	GetByOrderLineItem(ctx context.Context, orderID, lineItemID int64) (*PurchaseDTO, error)
	ListByRegistry(ctx context.Context, registryID uuid.UUID, cursor string, limit int) (PurchasePageDTO, error)
}

type service struct {
	repo     Repository
	items    registry.ItemRepository
	tx       txRunner
	events   outboxEmitter
	activity activity.Service
}

// RecordInput captures one order line item targeting a registry item.
type RecordInput struct {
	RegistryItemID uuid.UUID
	OrderID        int64
	LineItemID     int64
	OrderName      *string
	Quantity       int
	UnitPrice      decimal.Decimal
	CurrencyCode   enums.Currency
	PurchaserName  *string
	PurchaserEmail *string
	GiftMessage    *string
}

// NewService wires a purchase ledger with its dependencies.
func NewService(repo Repository, items registry.ItemRepository, tx txRunner, events outboxEmitter, act activity.Service) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("purchase repository required")
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

// Record reconciles one order line item into the ledger. Replayed deliveries
// surface as a unique violation on (order_id, line_item_id); the existing row
// is returned unchanged and no counters move.
func (s *service) Record(ctx context.Context, input RecordInput) (RecordResult, error) {
	if err := validateRecordInput(input); err != nil {
		return RecordResult{}, err
	}

	item, err := s.items.FindByID(ctx, input.RegistryItemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return RecordResult{}, apperrors.New(apperrors.CodeNotFound, "registry item not found")
		}
		return RecordResult{}, apperrors.Wrap(apperrors.CodeInternal, err, "loading registry item")
	}

	currency := input.CurrencyCode
	if currency == "" {
		currency = item.CurrencyCode
	}

	purchase := &models.Purchase{
		RegistryItemID: item.ID,
		OrderID:        input.OrderID,
		LineItemID:     input.LineItemID,
		OrderName:      input.OrderName,
		Quantity:       input.Quantity,
		UnitPrice:      input.UnitPrice,
		TotalAmount:    input.UnitPrice.Mul(decimal.NewFromInt(int64(input.Quantity))),
		CurrencyCode:   currency,
		PurchaserName:  input.PurchaserName,
		PurchaserEmail: input.PurchaserEmail,
		GiftMessage:    input.GiftMessage,
		PaymentStatus:  enums.PaymentStatusPaid,
		Fulfillment:    enums.FulfillmentStatusUnfulfilled,
		IsGroupGift:    item.IsGroupGift,
	}

	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, purchase); err != nil {
			return err
		}
		if _, err := s.items.WithTx(tx).IncrementPurchased(ctx, item.ID, purchase.Quantity); err != nil {
			return err
		}
		if err := s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPurchaseRecorded,
			AggregateType: enums.AggregatePurchase,
			AggregateID:   purchase.ID,
			Version:       1,
			Data: payloads.PurchaseRecordedEvent{
				PurchaseID:  purchase.ID,
				RegistryID:  item.RegistryID,
				ItemID:      item.ID,
				OrderID:     purchase.OrderID,
				LineItemID:  purchase.LineItemID,
				Quantity:    purchase.Quantity,
				TotalAmount: purchase.TotalAmount,
				Currency:    string(purchase.CurrencyCode),
				IsGroupGift: purchase.IsGroupGift,
				PurchasedAt: purchase.CreatedAt,
			},
		}); err != nil {
			return err
		}
		return s.activity.RecordTx(ctx, tx, activity.RecordInput{
			RegistryID:  item.RegistryID,
			ActorName:   purchase.PurchaserName,
			ActorEmail:  purchase.PurchaserEmail,
			IsSystem:    purchase.PurchaserName == nil,
			Action:      enums.ActivityItemPurchased,
			Description: purchaseDescription(purchase, item),
		})
	})
	if txErr != nil {
		if dbpkg.IsUniqueViolation(txErr, orderLineItemKey) {
			existing, findErr := s.repo.FindByOrderLineItem(ctx, input.OrderID, input.LineItemID)
			if findErr != nil {
				return RecordResult{}, apperrors.Wrap(apperrors.CodeInternal, findErr, "loading existing purchase")
			}
			if existing == nil {
				return RecordResult{}, apperrors.New(apperrors.CodeConflict, "purchase already recorded")
			}
			return RecordResult{
				Purchase:        toDTO(*existing, item.RegistryID),
				AlreadyRecorded: true,
			}, nil
		}
		return RecordResult{}, apperrors.Wrap(apperrors.CodeInternal, txErr, "recording purchase")
	}

	return RecordResult{Purchase: toDTO(*purchase, item.RegistryID)}, nil
}

func (s *service) GetByOrderLineItem(ctx context.Context, orderID, lineItemID int64) (*PurchaseDTO, error) {
	if orderID <= 0 || lineItemID <= 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "order id and line item id are required")
	}
	purchase, err := s.repo.FindByOrderLineItem(ctx, orderID, lineItemID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "loading purchase")
	}
	if purchase == nil {
		return nil, nil
	}
	item, err := s.items.FindByID(ctx, purchase.RegistryItemID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "loading registry item")
	}
	dto := toDTO(*purchase, item.RegistryID)
	return &dto, nil
}

func (s *service) ListByRegistry(ctx context.Context, registryID uuid.UUID, cursor string, limit int) (PurchasePageDTO, error) {
	if registryID == uuid.Nil {
		return PurchasePageDTO{}, apperrors.New(apperrors.CodeValidation, "registry id is required")
	}
	rows, nextCursor, err := s.repo.ListByRegistry(ctx, registryID, cursor, limit)
	if err != nil {
		return PurchasePageDTO{}, apperrors.Wrap(apperrors.CodeInternal, err, "listing purchases")
	}
	items := make([]PurchaseDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, toDTO(row, registryID))
	}
	return PurchasePageDTO{Items: items, NextCursor: nextCursor}, nil
}

func validateRecordInput(input RecordInput) error {
	if input.RegistryItemID == uuid.Nil {
		return apperrors.New(apperrors.CodeValidation, "registry item id is required")
	}
	if input.OrderID <= 0 {
		return apperrors.New(apperrors.CodeValidation, "order id is required")
	}
	if input.LineItemID <= 0 {
		return apperrors.New(apperrors.CodeValidation, "line item id is required")
	}
	if input.Quantity < 1 {
		return apperrors.New(apperrors.CodeValidation, "quantity must be at least 1")
	}
	if input.UnitPrice.IsNegative() {
		return apperrors.New(apperrors.CodeValidation, "unit price must not be negative")
	}
	if input.CurrencyCode != "" && !input.CurrencyCode.IsValid() {
		return apperrors.New(apperrors.CodeValidation, fmt.Sprintf("invalid currency %q", input.CurrencyCode))
	}
	return nil
}

func purchaseDescription(purchase *models.Purchase, item *models.RegistryItem) string {
	who := "Someone"
	if purchase.PurchaserName != nil && *purchase.PurchaserName != "" {
		who = *purchase.PurchaserName
	}
	return fmt.Sprintf("%s purchased %dx %s", who, purchase.Quantity, item.Title)
}
