package shopifywebhook

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/narissarah/wishcraft/internal/activity"
	"github.com/narissarah/wishcraft/internal/contributions"
	"github.com/narissarah/wishcraft/internal/purchases"
	"github.com/narissarah/wishcraft/pkg/config"
	"github.com/narissarah/wishcraft/pkg/db/models"
	"github.com/narissarah/wishcraft/pkg/enums"
	apperrors "github.com/narissarah/wishcraft/pkg/errors"
	"github.com/narissarah/wishcraft/pkg/logger"
	"github.com/narissarah/wishcraft/pkg/outbox"
)

type fakeLedger struct {
	recordFn func(ctx context.Context, input purchases.RecordInput) (purchases.RecordResult, error)
	inputs   []purchases.RecordInput
}

func (f *fakeLedger) Record(ctx context.Context, input purchases.RecordInput) (purchases.RecordResult, error) {
	f.inputs = append(f.inputs, input)
	return f.recordFn(ctx, input)
}

type fakeContribs struct {
	added  []contributions.AddInput
	marked []enums.ContributionStatus
	addErr error
}

func (f *fakeContribs) Add(ctx context.Context, input contributions.AddInput) (contributions.ContributionDTO, error) {
	if f.addErr != nil {
		return contributions.ContributionDTO{}, f.addErr
	}
	f.added = append(f.added, input)
	return contributions.ContributionDTO{ID: uuid.New(), PurchaseID: input.PurchaseID}, nil
}

func (f *fakeContribs) MarkStatus(ctx context.Context, contributionID uuid.UUID, next enums.ContributionStatus) (contributions.ContributionDTO, error) {
	f.marked = append(f.marked, next)
	return contributions.ContributionDTO{ID: contributionID, PaymentStatus: next}, nil
}

type fakeRegistries struct {
	shopID string
}

func (f *fakeRegistries) FindByID(ctx context.Context, id uuid.UUID) (*models.Registry, error) {
	return &models.Registry{ID: id, ShopID: f.shopID}, nil
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

func (f *fakeActivity) RecordTx(ctx context.Context, tx *gorm.DB, input activity.RecordInput) error {
	f.recorded = append(f.recorded, input)
	return nil
}

func testConfig() config.ShopifyConfig {
	return config.ShopifyConfig{
		RegistryItemKey:    "_registry_item_id",
		RegistryKey:        "_registry_id",
		GiftMessageKey:     "_gift_message",
		GiftMessageMaxLen:  1000,
		LegacyPropertyScan: true,
	}
}

func newTestService(t *testing.T, ledger *fakeLedger, contribs *fakeContribs, emitter *fakeEmitter, act *fakeActivity) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Purchases:         ledger,
		Contributions:     contribs,
		Registries:        &fakeRegistries{shopID: "demo.myshopify.com"},
		TransactionRunner: fakeTx{},
		Events:            emitter,
		Activity:          act,
		Logger:            logger.New(logger.Options{ServiceName: "webhook-test", Output: io.Discard}),
		Config:            testConfig(),
	})
	if err != nil {
		t.Fatalf("setup service: %v", err)
	}
	return svc
}

func taggedLine(id int64, itemID uuid.UUID) LineItemPayload {
	return LineItemPayload{
		ID:       id,
		Title:    "Cast Iron Skillet",
		Quantity: 2,
		Price:    "15.00",
		Properties: []LineItemProperty{
			{Name: "_registry_item_id", Value: itemID.String()},
		},
	}
}

func freshResult(registryID uuid.UUID, groupGift bool) purchases.RecordResult {
	return purchases.RecordResult{
		Purchase: purchases.PurchaseDTO{
			ID:           uuid.New(),
			RegistryID:   registryID,
			Quantity:     2,
			TotalAmount:  decimal.RequireFromString("30.00"),
			CurrencyCode: enums.CurrencyUSD,
			IsGroupGift:  groupGift,
		},
	}
}

func TestService_ReconcileRecordsTaggedLineItems(t *testing.T) {
	registryID := uuid.New()
	itemID := uuid.New()
	ledger := &fakeLedger{recordFn: func(ctx context.Context, input purchases.RecordInput) (purchases.RecordResult, error) {
		return freshResult(registryID, false), nil
	}}
	emitter := &fakeEmitter{}
	act := &fakeActivity{}
	svc := newTestService(t, ledger, &fakeContribs{}, emitter, act)

	order := &OrderPayload{
		ID:       9001,
		Name:     "#1042",
		Currency: "USD",
		Customer: &CustomerPayload{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"},
		LineItems: []LineItemPayload{
			taggedLine(11, itemID),
			{ID: 12, Quantity: 1, Price: "5.00"},
		},
	}

	result, err := svc.Reconcile(context.Background(), order)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if result.Recorded != 1 || result.Duplicates != 0 || result.Skipped != 0 {
		t.Fatalf("unexpected result %+v", result)
	}
	if len(ledger.inputs) != 1 {
		t.Fatalf("expected one ledger call, got %d", len(ledger.inputs))
	}
	input := ledger.inputs[0]
	if input.RegistryItemID != itemID || input.OrderID != 9001 || input.LineItemID != 11 {
		t.Fatalf("unexpected record input %+v", input)
	}
	if input.PurchaserName == nil || *input.PurchaserName != "Ada Lovelace" {
		t.Fatalf("unexpected purchaser name %v", input.PurchaserName)
	}
	if len(emitter.events) != 1 || emitter.events[0].EventType != enums.EventOrderReconciled {
		t.Fatalf("expected order_reconciled event, got %+v", emitter.events)
	}
	if len(act.recorded) != 1 || act.recorded[0].Action != enums.ActivityOrderReconciled {
		t.Fatalf("expected order_reconciled activity, got %+v", act.recorded)
	}
}

func TestService_ReconcileDuplicateDelivery(t *testing.T) {
	registryID := uuid.New()
	contribs := &fakeContribs{}
	ledger := &fakeLedger{recordFn: func(ctx context.Context, input purchases.RecordInput) (purchases.RecordResult, error) {
		result := freshResult(registryID, true)
		result.AlreadyRecorded = true
		return result, nil
	}}
	svc := newTestService(t, ledger, contribs, &fakeEmitter{}, &fakeActivity{})

	order := &OrderPayload{ID: 9001, LineItems: []LineItemPayload{taggedLine(11, uuid.New())}}
	result, err := svc.Reconcile(context.Background(), order)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if result.Duplicates != 1 || result.Recorded != 0 {
		t.Fatalf("unexpected result %+v", result)
	}
	if len(contribs.added) != 0 {
		t.Fatalf("duplicate delivery must not add contributions")
	}
}

func TestService_ReconcileSkipsUnresolvableItem(t *testing.T) {
	registryID := uuid.New()
	goodItem := uuid.New()
	ledger := &fakeLedger{recordFn: func(ctx context.Context, input purchases.RecordInput) (purchases.RecordResult, error) {
		if input.RegistryItemID != goodItem {
			return purchases.RecordResult{}, apperrors.New(apperrors.CodeNotFound, "registry item not found")
		}
		return freshResult(registryID, false), nil
	}}
	svc := newTestService(t, ledger, &fakeContribs{}, &fakeEmitter{}, &fakeActivity{})

	order := &OrderPayload{ID: 9001, LineItems: []LineItemPayload{
		taggedLine(11, uuid.New()),
		taggedLine(12, goodItem),
	}}
	result, err := svc.Reconcile(context.Background(), order)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if result.Recorded != 1 || result.Skipped != 1 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestService_ReconcileAbortsOnInfrastructureError(t *testing.T) {
	ledger := &fakeLedger{recordFn: func(ctx context.Context, input purchases.RecordInput) (purchases.RecordResult, error) {
		return purchases.RecordResult{}, apperrors.New(apperrors.CodeInternal, "database unavailable")
	}}
	svc := newTestService(t, ledger, &fakeContribs{}, &fakeEmitter{}, &fakeActivity{})

	order := &OrderPayload{ID: 9001, LineItems: []LineItemPayload{taggedLine(11, uuid.New())}}
	if _, err := svc.Reconcile(context.Background(), order); !apperrors.HasCode(err, apperrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestService_ReconcileGroupGiftContribution(t *testing.T) {
	registryID := uuid.New()
	contribs := &fakeContribs{}
	ledger := &fakeLedger{recordFn: func(ctx context.Context, input purchases.RecordInput) (purchases.RecordResult, error) {
		return freshResult(registryID, true), nil
	}}
	svc := newTestService(t, ledger, contribs, &fakeEmitter{}, &fakeActivity{})

	order := &OrderPayload{
		ID:        9001,
		Customer:  &CustomerPayload{FirstName: "Grace", Email: "grace@example.com"},
		LineItems: []LineItemPayload{taggedLine(11, uuid.New())},
	}
	if _, err := svc.Reconcile(context.Background(), order); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if len(contribs.added) != 1 {
		t.Fatalf("expected one contribution, got %d", len(contribs.added))
	}
	added := contribs.added[0]
	if !added.Amount.Equal(decimal.RequireFromString("30.00")) {
		t.Fatalf("unexpected contribution amount %s", added.Amount)
	}
	if len(contribs.marked) != 1 || contribs.marked[0] != enums.ContributionStatusCompleted {
		t.Fatalf("expected contribution completed, got %v", contribs.marked)
	}
}

func TestService_ReconcileRejectsMissingOrderID(t *testing.T) {
	svc := newTestService(t, &fakeLedger{}, &fakeContribs{}, &fakeEmitter{}, &fakeActivity{})
	if _, err := svc.Reconcile(context.Background(), &OrderPayload{}); !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
