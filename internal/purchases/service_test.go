package purchases

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/narissarah/wishcraft/internal/activity"
	"github.com/narissarah/wishcraft/internal/registry"
	"github.com/narissarah/wishcraft/pkg/db/models"
	"github.com/narissarah/wishcraft/pkg/enums"
	apperrors "github.com/narissarah/wishcraft/pkg/errors"
	"github.com/narissarah/wishcraft/pkg/outbox"
)

type fakeRepo struct {
	createFn      func(ctx context.Context, purchase *models.Purchase) error
	findByOrderFn func(ctx context.Context, orderID, lineItemID int64) (*models.Purchase, error)
}

func (f *fakeRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepo) Create(ctx context.Context, purchase *models.Purchase) error {
	if f.createFn != nil {
		return f.createFn(ctx, purchase)
	}
	purchase.ID = uuid.New()
	return nil
}

func (f *fakeRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Purchase, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) FindByOrderLineItem(ctx context.Context, orderID, lineItemID int64) (*models.Purchase, error) {
	if f.findByOrderFn != nil {
		return f.findByOrderFn(ctx, orderID, lineItemID)
	}
	return nil, nil
}

func (f *fakeRepo) ListByItem(ctx context.Context, itemID uuid.UUID) ([]models.Purchase, error) {
	return nil, nil
}

func (f *fakeRepo) ListByRegistry(ctx context.Context, registryID uuid.UUID, cursor string, limit int) ([]models.Purchase, string, error) {
	return nil, "", nil
}

type fakeItems struct {
	item        *models.RegistryItem
	incremented []int
	incrementFn func(ctx context.Context, id uuid.UUID, quantity int) (*models.RegistryItem, error)
}

func (f *fakeItems) WithTx(tx *gorm.DB) registry.ItemRepository { return f }

func (f *fakeItems) Create(ctx context.Context, item *models.RegistryItem) error { return nil }

func (f *fakeItems) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.RegistryItemStatus) error {
	return nil
}

func (f *fakeItems) FindByID(ctx context.Context, id uuid.UUID) (*models.RegistryItem, error) {
	if f.item == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return f.item, nil
}

func (f *fakeItems) ListByRegistry(ctx context.Context, registryID uuid.UUID) ([]models.RegistryItem, error) {
	return nil, nil
}

func (f *fakeItems) IncrementPurchased(ctx context.Context, id uuid.UUID, quantity int) (*models.RegistryItem, error) {
	if f.incrementFn != nil {
		return f.incrementFn(ctx, id, quantity)
	}
	f.incremented = append(f.incremented, quantity)
	return f.item, nil
}

type fakeTx struct{}

func (fakeTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type fakeEmitter struct {
	events []outbox.DomainEvent
}

func (f *fakeEmitter) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	f.events = append(f.events, event)
	return nil
}

type fakeActivity struct {
	recorded []activity.RecordInput
}

func (f *fakeActivity) Record(ctx context.Context, input activity.RecordInput) (*models.ActivityRecord, error) {
	f.recorded = append(f.recorded, input)
	return &models.ActivityRecord{}, nil
}

func (f *fakeActivity) RecordTx(ctx context.Context, tx *gorm.DB, input activity.RecordInput) error {
	f.recorded = append(f.recorded, input)
	return nil
}

func (f *fakeActivity) List(ctx context.Context, registryID uuid.UUID, cursor string, limit int) (activity.ActivityPageDTO, error) {
	return activity.ActivityPageDTO{}, nil
}

func testItem() *models.RegistryItem {
	return &models.RegistryItem{
		ID:           uuid.New(),
		RegistryID:   uuid.New(),
		Title:        "Cast Iron Skillet",
		Quantity:     3,
		UnitPrice:    decimal.RequireFromString("29.99"),
		CurrencyCode: enums.CurrencyUSD,
		Status:       enums.RegistryItemStatusActive,
	}
}

func validInput(item *models.RegistryItem) RecordInput {
	name := "Jordan Vega"
	return RecordInput{
		RegistryItemID: item.ID,
		OrderID:        5479810301234,
		LineItemID:     13731828154662,
		Quantity:       2,
		UnitPrice:      decimal.RequireFromString("29.99"),
		CurrencyCode:   enums.CurrencyUSD,
		PurchaserName:  &name,
	}
}

func TestRecordPurchase(t *testing.T) {
	item := testItem()
	repo := &fakeRepo{}
	items := &fakeItems{item: item}
	emitter := &fakeEmitter{}
	act := &fakeActivity{}

	svc, err := NewService(repo, items, fakeTx{}, emitter, act)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	result, err := svc.Record(context.Background(), validInput(item))
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if result.AlreadyRecorded {
		t.Fatalf("expected fresh record")
	}
	if got := result.Purchase.TotalAmount; !got.Equal(decimal.RequireFromString("59.98")) {
		t.Fatalf("unexpected total %s", got)
	}
	if result.Purchase.RegistryID != item.RegistryID {
		t.Fatalf("unexpected registry id")
	}
	if result.Purchase.PaymentStatus != enums.PaymentStatusPaid {
		t.Fatalf("unexpected payment status %s", result.Purchase.PaymentStatus)
	}
	if len(items.incremented) != 1 || items.incremented[0] != 2 {
		t.Fatalf("expected increment by 2, got %v", items.incremented)
	}
	if len(emitter.events) != 1 || emitter.events[0].EventType != enums.EventPurchaseRecorded {
		t.Fatalf("expected purchase_recorded event, got %+v", emitter.events)
	}
	if len(act.recorded) != 1 || act.recorded[0].Action != enums.ActivityItemPurchased {
		t.Fatalf("expected item_purchased activity, got %+v", act.recorded)
	}
	if act.recorded[0].Description != "Jordan Vega purchased 2x Cast Iron Skillet" {
		t.Fatalf("unexpected description %q", act.recorded[0].Description)
	}
}

func TestRecordPurchaseReplayIsNoOp(t *testing.T) {
	item := testItem()
	existing := &models.Purchase{
		ID:             uuid.New(),
		RegistryItemID: item.ID,
		OrderID:        5479810301234,
		LineItemID:     13731828154662,
		Quantity:       2,
		UnitPrice:      decimal.RequireFromString("29.99"),
		TotalAmount:    decimal.RequireFromString("59.98"),
		CurrencyCode:   enums.CurrencyUSD,
	}

	repo := &fakeRepo{
		createFn: func(ctx context.Context, purchase *models.Purchase) error {
			return errors.New(`duplicate key value violates unique constraint "registry_purchases_order_line_item_key"`)
		},
		findByOrderFn: func(ctx context.Context, orderID, lineItemID int64) (*models.Purchase, error) {
			return existing, nil
		},
	}
	items := &fakeItems{item: item}
	emitter := &fakeEmitter{}

	svc, err := NewService(repo, items, fakeTx{}, emitter, &fakeActivity{})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	result, err := svc.Record(context.Background(), validInput(item))
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if !result.AlreadyRecorded {
		t.Fatalf("expected replay to be flagged")
	}
	if result.Purchase.ID != existing.ID {
		t.Fatalf("expected existing purchase returned")
	}
}

func TestRecordPurchaseOverRegistration(t *testing.T) {
	// Over-purchase is recorded, not rejected.
	item := testItem()
	item.QuantityPurchased = 3

	items := &fakeItems{item: item}
	svc, err := NewService(&fakeRepo{}, items, fakeTx{}, &fakeEmitter{}, &fakeActivity{})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	result, err := svc.Record(context.Background(), validInput(item))
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if result.AlreadyRecorded {
		t.Fatalf("expected fresh record")
	}
	if len(items.incremented) != 1 {
		t.Fatalf("expected increment to run")
	}
}

func TestRecordPurchaseUnknownItem(t *testing.T) {
	svc, err := NewService(&fakeRepo{}, &fakeItems{}, fakeTx{}, &fakeEmitter{}, &fakeActivity{})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	input := validInput(testItem())
	_, err = svc.Record(context.Background(), input)
	if !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRecordPurchaseValidation(t *testing.T) {
	item := testItem()
	svc, err := NewService(&fakeRepo{}, &fakeItems{item: item}, fakeTx{}, &fakeEmitter{}, &fakeActivity{})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*RecordInput)
	}{
		{"missing item", func(in *RecordInput) { in.RegistryItemID = uuid.Nil }},
		{"missing order", func(in *RecordInput) { in.OrderID = 0 }},
		{"missing line item", func(in *RecordInput) { in.LineItemID = 0 }},
		{"zero quantity", func(in *RecordInput) { in.Quantity = 0 }},
		{"negative price", func(in *RecordInput) { in.UnitPrice = decimal.RequireFromString("-1") }},
		{"bad currency", func(in *RecordInput) { in.CurrencyCode = enums.Currency("DOUBLOONS") }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := validInput(item)
			tc.mutate(&input)
			if _, err := svc.Record(context.Background(), input); !apperrors.HasCode(err, apperrors.CodeValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestRecordPurchaseIncrementFailureAborts(t *testing.T) {
	item := testItem()
	items := &fakeItems{
		item: item,
		incrementFn: func(ctx context.Context, id uuid.UUID, quantity int) (*models.RegistryItem, error) {
			return nil, errors.New("increment failed")
		},
	}
	svc, err := NewService(&fakeRepo{}, items, fakeTx{}, &fakeEmitter{}, &fakeActivity{})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	_, err = svc.Record(context.Background(), validInput(item))
	if !apperrors.HasCode(err, apperrors.CodeInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
}
