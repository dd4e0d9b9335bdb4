package contributions

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/narissarah/wishcraft/internal/activity"
	"github.com/narissarah/wishcraft/internal/purchases"
	"github.com/narissarah/wishcraft/internal/registry"
	"github.com/narissarah/wishcraft/pkg/db/models"
	"github.com/narissarah/wishcraft/pkg/enums"
	apperrors "github.com/narissarah/wishcraft/pkg/errors"
	"github.com/narissarah/wishcraft/pkg/outbox"
	"github.com/narissarah/wishcraft/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service defines group gift contribution operations.
type Service interface {
	Add(ctx context.Context, input AddInput) (ContributionDTO, error)
	MarkStatus(ctx context.Context, contributionID uuid.UUID, next enums.ContributionStatus) (ContributionDTO, error)
	ListByPurchase(ctx context.Context, purchaseID uuid.UUID, maskPrivate bool) ([]ContributionDTO, error)
	CompletionState(ctx context.Context, itemID uuid.UUID) (CompletionStateDTO, error)
	CompletionStateByPurchase(ctx context.Context, purchaseID uuid.UUID) (CompletionStateDTO, error)
}

type service struct {
	repo      Repository
	purchases purchases.Repository
	items     registry.ItemRepository
	tx        txRunner
	events    outboxEmitter
	activity  activity.Service
}

// AddInput captures one partial payment toward a group gift purchase.
type AddInput struct {
	PurchaseID       uuid.UUID
	ContributorName  *string
	ContributorEmail *string
	IsAnonymous      bool
	Amount           decimal.Decimal
	CurrencyCode     enums.Currency
	ShowAmount       *bool
}

// NewService wires a contribution service with its dependencies.
func NewService(repo Repository, purchaseRepo purchases.Repository, items registry.ItemRepository, tx txRunner, events outboxEmitter, act activity.Service) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("contribution repository required")
	}
	if purchaseRepo == nil {
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
		repo:      repo,
		purchases: purchaseRepo,
		items:     items,
		tx:        tx,
		events:    events,
		activity:  act,
	}, nil
}

// Add records a pending contribution against a group gift purchase.
// Overfunding is allowed; the completion state simply reports above 100%.
func (s *service) Add(ctx context.Context, input AddInput) (ContributionDTO, error) {
	if input.PurchaseID == uuid.Nil {
		return ContributionDTO{}, apperrors.New(apperrors.CodeValidation, "purchase id is required")
	}
	if !input.Amount.IsPositive() {
		return ContributionDTO{}, apperrors.New(apperrors.CodeValidation, "amount must be positive")
	}
	if input.CurrencyCode != "" && !input.CurrencyCode.IsValid() {
		return ContributionDTO{}, apperrors.New(apperrors.CodeValidation, fmt.Sprintf("invalid currency %q", input.CurrencyCode))
	}

	purchase, err := s.purchases.FindByID(ctx, input.PurchaseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ContributionDTO{}, apperrors.New(apperrors.CodeNotFound, "purchase not found")
		}
		return ContributionDTO{}, apperrors.Wrap(apperrors.CodeInternal, err, "loading purchase")
	}
	if !purchase.IsGroupGift {
		return ContributionDTO{}, apperrors.New(apperrors.CodeStateConflict, "purchase does not accept contributions")
	}

	item, err := s.items.FindByID(ctx, purchase.RegistryItemID)
	if err != nil {
		return ContributionDTO{}, apperrors.Wrap(apperrors.CodeInternal, err, "loading registry item")
	}

	currency := input.CurrencyCode
	if currency == "" {
		currency = purchase.CurrencyCode
	}
	showAmount := true
	if input.ShowAmount != nil {
		showAmount = *input.ShowAmount
	}

	contribution := &models.GroupGiftContribution{
		PurchaseID:       purchase.ID,
		ContributorName:  input.ContributorName,
		ContributorEmail: input.ContributorEmail,
		IsAnonymous:      input.IsAnonymous,
		Amount:           input.Amount,
		CurrencyCode:     currency,
		PaymentStatus:    enums.ContributionStatusPending,
		ShowAmount:       showAmount,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, contribution); err != nil {
			return err
		}
		if err := s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventContributionReceived,
			AggregateType: enums.AggregateContribution,
			AggregateID:   contribution.ID,
			Version:       1,
			Data: payloads.ContributionReceivedEvent{
				ContributionID: contribution.ID,
				PurchaseID:     purchase.ID,
				RegistryID:     item.RegistryID,
				ItemID:         item.ID,
				Amount:         contribution.Amount,
				Currency:       string(contribution.CurrencyCode),
				IsAnonymous:    contribution.IsAnonymous,
			},
		}); err != nil {
			return err
		}
		return s.activity.RecordTx(ctx, tx, activity.RecordInput{
			RegistryID:  item.RegistryID,
			ActorName:   actorName(contribution),
			ActorEmail:  contribution.ContributorEmail,
			IsSystem:    false,
			Action:      enums.ActivityContributionReceived,
			Description: fmt.Sprintf("%s contributed toward %s", displayName(contribution), item.Title),
		})
	})
	if err != nil {
		return ContributionDTO{}, apperrors.Wrap(apperrors.CodeInternal, err, "adding contribution")
	}
	return toDTO(*contribution, false), nil
}

// MarkStatus applies a payment status transition. Illegal transitions are
// rejected with a state conflict so payment webhooks can distinguish replays
// from real races.
func (s *service) MarkStatus(ctx context.Context, contributionID uuid.UUID, next enums.ContributionStatus) (ContributionDTO, error) {
	if contributionID == uuid.Nil {
		return ContributionDTO{}, apperrors.New(apperrors.CodeValidation, "contribution id is required")
	}
	if !next.IsValid() {
		return ContributionDTO{}, apperrors.New(apperrors.CodeValidation, fmt.Sprintf("invalid status %q", next))
	}

	contribution, err := s.repo.FindByID(ctx, contributionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ContributionDTO{}, apperrors.New(apperrors.CodeNotFound, "contribution not found")
		}
		return ContributionDTO{}, apperrors.Wrap(apperrors.CodeInternal, err, "loading contribution")
	}
	if contribution.PaymentStatus == next {
		return toDTO(*contribution, false), nil
	}
	if !contribution.PaymentStatus.CanTransitionTo(next) {
		return ContributionDTO{}, apperrors.New(apperrors.CodeStateConflict,
			fmt.Sprintf("cannot transition contribution from %s to %s", contribution.PaymentStatus, next))
	}

	purchase, err := s.purchases.FindByID(ctx, contribution.PurchaseID)
	if err != nil {
		return ContributionDTO{}, apperrors.Wrap(apperrors.CodeInternal, err, "loading purchase")
	}
	item, err := s.items.FindByID(ctx, purchase.RegistryItemID)
	if err != nil {
		return ContributionDTO{}, apperrors.Wrap(apperrors.CodeInternal, err, "loading registry item")
	}

	from := contribution.PaymentStatus
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).UpdateStatus(ctx, contribution.ID, from, next); err != nil {
			return err
		}
		if err := s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventContributionStatusChanged,
			AggregateType: enums.AggregateContribution,
			AggregateID:   contribution.ID,
			Version:       1,
			Data: payloads.ContributionStatusChangedEvent{
				ContributionID: contribution.ID,
				PurchaseID:     purchase.ID,
				RegistryID:     item.RegistryID,
				ItemID:         item.ID,
				FromStatus:     string(from),
				ToStatus:       string(next),
				Amount:         contribution.Amount,
				Currency:       string(contribution.CurrencyCode),
			},
		}); err != nil {
			return err
		}
		action, description := transitionActivity(next, contribution, item)
		if action == "" {
			return nil
		}
		return s.activity.RecordTx(ctx, tx, activity.RecordInput{
			RegistryID:  item.RegistryID,
			ActorName:   actorName(contribution),
			ActorEmail:  contribution.ContributorEmail,
			IsSystem:    false,
			Action:      action,
			Description: description,
		})
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Another transition won the row between our read and the update.
			return ContributionDTO{}, apperrors.New(apperrors.CodeStateConflict,
				fmt.Sprintf("contribution left %s concurrently", from))
		}
		return ContributionDTO{}, apperrors.Wrap(apperrors.CodeInternal, err, "updating contribution status")
	}

	contribution.PaymentStatus = next
	return toDTO(*contribution, false), nil
}

func (s *service) ListByPurchase(ctx context.Context, purchaseID uuid.UUID, maskPrivate bool) ([]ContributionDTO, error) {
	if purchaseID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "purchase id is required")
	}
	rows, err := s.repo.ListByPurchase(ctx, purchaseID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "listing contributions")
	}
	dtos := make([]ContributionDTO, 0, len(rows))
	for _, row := range rows {
		dtos = append(dtos, toDTO(row, maskPrivate))
	}
	return dtos, nil
}

// CompletionState derives the funding picture from completed contributions.
// Nothing is stored, so refunds and late completions are always reflected.
func (s *service) CompletionState(ctx context.Context, itemID uuid.UUID) (CompletionStateDTO, error) {
	if itemID == uuid.Nil {
		return CompletionStateDTO{}, apperrors.New(apperrors.CodeValidation, "item id is required")
	}

	item, err := s.items.FindByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return CompletionStateDTO{}, apperrors.New(apperrors.CodeNotFound, "registry item not found")
		}
		return CompletionStateDTO{}, apperrors.Wrap(apperrors.CodeInternal, err, "loading registry item")
	}
	if !item.IsGroupGift {
		return CompletionStateDTO{}, apperrors.New(apperrors.CodeStateConflict, "item is not a group gift")
	}

	contributed, err := s.repo.SumCompletedByItem(ctx, item.ID)
	if err != nil {
		return CompletionStateDTO{}, apperrors.Wrap(apperrors.CodeInternal, err, "summing contributions")
	}

	target := GroupGiftTarget(item)
	remaining := target.Sub(contributed)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	percent := decimal.Zero
	if target.IsPositive() {
		percent = contributed.Div(target).Mul(decimal.NewFromInt(100)).Round(2)
	}

	return CompletionStateDTO{
		ItemID:      item.ID,
		Target:      target,
		Contributed: contributed,
		Remaining:   remaining,
		Percent:     percent,
		Funded:      contributed.GreaterThanOrEqual(target) && target.IsPositive(),
	}, nil
}

// CompletionStateByPurchase resolves a purchase to its registry item and
// returns the item's funding picture.
func (s *service) CompletionStateByPurchase(ctx context.Context, purchaseID uuid.UUID) (CompletionStateDTO, error) {
	if purchaseID == uuid.Nil {
		return CompletionStateDTO{}, apperrors.New(apperrors.CodeValidation, "purchase id is required")
	}

	purchase, err := s.purchases.FindByID(ctx, purchaseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return CompletionStateDTO{}, apperrors.New(apperrors.CodeNotFound, "purchase not found")
		}
		return CompletionStateDTO{}, apperrors.Wrap(apperrors.CodeInternal, err, "loading purchase")
	}

	return s.CompletionState(ctx, purchase.RegistryItemID)
}

// GroupGiftTarget is the explicit target when set, otherwise the item's full
// price (unit price times requested quantity).
func GroupGiftTarget(item *models.RegistryItem) decimal.Decimal {
	if item.GroupGiftTarget != nil && item.GroupGiftTarget.IsPositive() {
		return *item.GroupGiftTarget
	}
	return item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
}

func transitionActivity(next enums.ContributionStatus, contribution *models.GroupGiftContribution, item *models.RegistryItem) (enums.ActivityAction, string) {
	switch next {
	case enums.ContributionStatusCompleted:
		return enums.ActivityContributionCompleted,
			fmt.Sprintf("%s's contribution toward %s completed", displayName(contribution), item.Title)
	case enums.ContributionStatusRefunded:
		return enums.ActivityContributionRefunded,
			fmt.Sprintf("%s's contribution toward %s was refunded", displayName(contribution), item.Title)
	default:
		return "", ""
	}
}

func actorName(contribution *models.GroupGiftContribution) *string {
	if contribution.IsAnonymous {
		return nil
	}
	return contribution.ContributorName
}

func displayName(contribution *models.GroupGiftContribution) string {
	if contribution.IsAnonymous || contribution.ContributorName == nil || *contribution.ContributorName == "" {
		return "An anonymous gifter"
	}
	return *contribution.ContributorName
}
