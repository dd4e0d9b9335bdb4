package shopifywebhook

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/narissarah/wishcraft/internal/activity"
	"github.com/narissarah/wishcraft/internal/contributions"
	"github.com/narissarah/wishcraft/internal/purchases"
	"github.com/narissarah/wishcraft/pkg/config"
	"github.com/narissarah/wishcraft/pkg/db/models"
	"github.com/narissarah/wishcraft/pkg/enums"
	apperrors "github.com/narissarah/wishcraft/pkg/errors"
	"github.com/narissarah/wishcraft/pkg/logger"
	"github.com/narissarah/wishcraft/pkg/metrics"
	"github.com/narissarah/wishcraft/pkg/outbox"
	"github.com/narissarah/wishcraft/pkg/outbox/payloads"
)

const webhookTopicOrdersCreate = "orders-create"

type purchaseLedger interface {
	Record(ctx context.Context, input purchases.RecordInput) (purchases.RecordResult, error)
}

type contributionLedger interface {
	Add(ctx context.Context, input contributions.AddInput) (contributions.ContributionDTO, error)
	MarkStatus(ctx context.Context, contributionID uuid.UUID, next enums.ContributionStatus) (contributions.ContributionDTO, error)
}

type registryResolver interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Registry, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type activityRecorder interface {
	RecordTx(ctx context.Context, tx *gorm.DB, input activity.RecordInput) error
}

// ReconcileResult accounts for every tagged line item in one delivery.
// Untagged line items are not registry traffic and do not count.
type ReconcileResult struct {
	OrderID    int64 `json:"orderId"`
	Recorded   int   `json:"recorded"`
	Duplicates int   `json:"duplicates"`
	Skipped    int   `json:"skipped"`
}

type ServiceParams struct {
	Purchases         purchaseLedger
	Contributions     contributionLedger
	Registries        registryResolver
	TransactionRunner txRunner
	Events            outboxEmitter
	Activity          activityRecorder
	Metrics           *metrics.ReconciliationMetrics
	Logger            *logger.Logger
	Config            config.ShopifyConfig
}

// Service reconciles orders/create deliveries against registry state. Each
// tagged line item is processed independently; one bad line item never blocks
// its siblings. Only infrastructure failures escape to the caller so the
// platform's retry mechanism redelivers.
type Service struct {
	purchases     purchaseLedger
	contributions contributionLedger
	registries    registryResolver
	txRunner      txRunner
	events        outboxEmitter
	activity      activityRecorder
	metrics       *metrics.ReconciliationMetrics
	logg          *logger.Logger
	cfg           config.ShopifyConfig
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Purchases == nil {
		return nil, apperrors.New(apperrors.CodeInternal, "purchase ledger required")
	}
	if params.Contributions == nil {
		return nil, apperrors.New(apperrors.CodeInternal, "contribution ledger required")
	}
	if params.Registries == nil {
		return nil, apperrors.New(apperrors.CodeInternal, "registry repo required")
	}
	if params.TransactionRunner == nil {
		return nil, apperrors.New(apperrors.CodeInternal, "transaction runner required")
	}
	if params.Events == nil {
		return nil, apperrors.New(apperrors.CodeInternal, "outbox emitter required")
	}
	if params.Activity == nil {
		return nil, apperrors.New(apperrors.CodeInternal, "activity recorder required")
	}
	if params.Logger == nil {
		return nil, apperrors.New(apperrors.CodeInternal, "logger required")
	}
	return &Service{
		purchases:     params.Purchases,
		contributions: params.Contributions,
		registries:    params.Registries,
		txRunner:      params.TransactionRunner,
		events:        params.Events,
		activity:      params.Activity,
		metrics:       params.Metrics,
		logg:          params.Logger,
		cfg:           params.Config,
	}, nil
}

// registryTally tracks per-registry outcomes for the summary event.
type registryTally struct {
	recorded   int
	duplicates int
}

// Reconcile walks every line item of one orders/create payload, records
// tagged ones in the purchase ledger, and emits a per-registry summary.
// The returned error is non-nil only for whole-payload or infrastructure
// failures; per-line-item problems are contained as skips.
func (s *Service) Reconcile(ctx context.Context, order *OrderPayload) (ReconcileResult, error) {
	if err := order.Validate(); err != nil {
		s.metrics.IncWebhook("rejected")
		return ReconcileResult{}, err
	}

	ctx = s.logg.WithOrderID(ctx, order.ID)
	start := time.Now()

	result := ReconcileResult{OrderID: order.ID}
	tallies := map[uuid.UUID]*registryTally{}

	for _, line := range order.LineItems {
		itemID, tagged := line.RegistryItemID(s.cfg.RegistryItemKey, s.cfg.LegacyPropertyScan)
		if !tagged {
			continue
		}

		lineCtx := s.logg.WithFields(ctx, map[string]any{
			"line_item_id":     line.ID,
			"registry_item_id": itemID.String(),
		})

		outcome, registryID, err := s.reconcileLineItem(lineCtx, order, line, itemID)
		if err != nil {
			s.metrics.IncLineItem("failed")
			s.metrics.IncWebhook("failed")
			return ReconcileResult{}, err
		}

		s.metrics.IncLineItem(outcome)
		switch outcome {
		case "recorded":
			result.Recorded++
			s.tally(tallies, registryID).recorded++
		case "duplicate":
			result.Duplicates++
			s.tally(tallies, registryID).duplicates++
		default:
			result.Skipped++
		}
	}

	s.emitSummaries(ctx, order.ID, result, tallies)

	s.metrics.ObserveDuration(webhookTopicOrdersCreate, time.Since(start))
	s.metrics.IncWebhook("processed")
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"recorded":   result.Recorded,
		"duplicates": result.Duplicates,
		"skipped":    result.Skipped,
	}), "order reconciled")

	return result, nil
}

func (s *Service) tally(tallies map[uuid.UUID]*registryTally, registryID uuid.UUID) *registryTally {
	t, ok := tallies[registryID]
	if !ok {
		t = &registryTally{}
		tallies[registryID] = t
	}
	return t
}

// reconcileLineItem records one tagged line item. The outcome is one of
// "recorded", "duplicate", or "skipped"; a returned error aborts the whole
// delivery and must be reserved for infrastructure failures.
func (s *Service) reconcileLineItem(ctx context.Context, order *OrderPayload, line LineItemPayload, itemID uuid.UUID) (string, uuid.UUID, error) {
	if line.ID <= 0 || line.Quantity < 1 {
		s.logg.Warn(ctx, "line item malformed, skipping")
		return "skipped", uuid.Nil, nil
	}

	unitPrice, err := line.UnitPrice()
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "line item price unparseable, skipping")
		return "skipped", uuid.Nil, nil
	}

	var giftMessage *string
	if raw, ok := line.GiftMessage(s.cfg.GiftMessageKey, s.cfg.LegacyPropertyScan); ok {
		giftMessage = SanitizeGiftMessage(raw, s.cfg.GiftMessageMaxLen)
	}

	var orderName *string
	if order.Name != "" {
		orderName = &order.Name
	}

	recorded, err := s.purchases.Record(ctx, purchases.RecordInput{
		RegistryItemID: itemID,
		OrderID:        order.ID,
		LineItemID:     line.ID,
		OrderName:      orderName,
		Quantity:       line.Quantity,
		UnitPrice:      unitPrice,
		CurrencyCode:   enums.Currency(order.Currency),
		PurchaserName:  order.PurchaserName(),
		PurchaserEmail: order.PurchaserEmail(),
		GiftMessage:    giftMessage,
	})
	if err != nil {
		if isContainedError(err) {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "line item not reconcilable, skipping")
			return "skipped", uuid.Nil, nil
		}
		return "", uuid.Nil, apperrors.Wrap(apperrors.CodeDependency, err, "recording purchase")
	}

	if recorded.AlreadyRecorded {
		s.logg.Info(ctx, "line item already reconciled")
		return "duplicate", recorded.Purchase.RegistryID, nil
	}

	if recorded.Purchase.IsGroupGift {
		s.applyGroupGiftContribution(ctx, order, recorded.Purchase)
	}

	return "recorded", recorded.Purchase.RegistryID, nil
}

// applyGroupGiftContribution books the checkout amount of a group-gift line
// item as a completed contribution. The purchase row itself is already
// committed, so failures here are logged and left for reconciliation rather
// than failing the delivery.
func (s *Service) applyGroupGiftContribution(ctx context.Context, order *OrderPayload, purchase purchases.PurchaseDTO) {
	contribution, err := s.contributions.Add(ctx, contributions.AddInput{
		PurchaseID:       purchase.ID,
		ContributorName:  order.PurchaserName(),
		ContributorEmail: order.PurchaserEmail(),
		Amount:           purchase.TotalAmount,
		CurrencyCode:     purchase.CurrencyCode,
	})
	if err != nil {
		s.logg.Error(ctx, "group gift contribution not created", err)
		return
	}
	if _, err := s.contributions.MarkStatus(ctx, contribution.ID, enums.ContributionStatusCompleted); err != nil {
		s.logg.Error(ctx, "group gift contribution not completed", err)
	}
}

// emitSummaries writes one order_reconciled event and activity entry per
// registry the delivery touched. Purchases are already committed, so the
// summary is best effort: a failure here is logged, never surfaced, and
// a redelivery would reconcile as all-duplicates anyway.
func (s *Service) emitSummaries(ctx context.Context, orderID int64, result ReconcileResult, tallies map[uuid.UUID]*registryTally) {
	for registryID, t := range tallies {
		reg, err := s.registries.FindByID(ctx, registryID)
		if err != nil {
			s.logg.Error(ctx, "registry lookup for summary failed", err)
			continue
		}

		event := payloads.OrderReconciledEvent{
			RegistryID: registryID,
			ShopID:     reg.ShopID,
			OrderID:    orderID,
			Recorded:   t.recorded,
			Duplicates: t.duplicates,
			Skipped:    result.Skipped,
		}
		metadata, _ := json.Marshal(event)

		err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
			if err := s.events.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventOrderReconciled,
				AggregateType: enums.AggregateRegistry,
				AggregateID:   registryID,
				Version:       1,
				Data:          event,
			}); err != nil {
				return err
			}
			return s.activity.RecordTx(ctx, tx, activity.RecordInput{
				RegistryID:  registryID,
				IsSystem:    true,
				Action:      enums.ActivityOrderReconciled,
				Description: fmt.Sprintf("Order %d reconciled: %d recorded, %d duplicate", orderID, t.recorded, t.duplicates),
				Metadata:    metadata,
			})
		})
		if err != nil {
			s.logg.Error(s.logg.WithRegistryID(ctx, registryID.String()), "order summary not emitted", err)
		}
	}
}

// isContainedError reports whether a per-line-item failure should be skipped
// rather than aborting the delivery. Validation and resolution problems do
// not improve on redelivery; everything else is assumed transient.
func isContainedError(err error) bool {
	return apperrors.HasCode(err, apperrors.CodeValidation) ||
		apperrors.HasCode(err, apperrors.CodeNotFound) ||
		apperrors.HasCode(err, apperrors.CodeConflict) ||
		apperrors.HasCode(err, apperrors.CodeStateConflict)
}
