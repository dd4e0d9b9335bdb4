package contributions

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/narissarah/wishcraft/pkg/db/models"
	"github.com/narissarah/wishcraft/pkg/enums"
)

// ContributionDTO is the API shape of one contribution. Anonymous
// contributors and hidden amounts are masked before the row leaves the
// service.
type ContributionDTO struct {
	ID               uuid.UUID                `json:"id"`
	PurchaseID       uuid.UUID                `json:"purchaseId"`
	ContributorName  *string                  `json:"contributorName,omitempty"`
	ContributorEmail *string                  `json:"contributorEmail,omitempty"`
	IsAnonymous      bool                     `json:"isAnonymous"`
	Amount           *decimal.Decimal         `json:"amount,omitempty"`
	CurrencyCode     enums.Currency           `json:"currencyCode"`
	PaymentStatus    enums.ContributionStatus `json:"paymentStatus"`
	ShowAmount       bool                     `json:"showAmount"`
	CreatedAt        time.Time                `json:"createdAt"`
}

// CompletionStateDTO is the funding picture of a group gift item, derived on
// demand from completed contributions.
type CompletionStateDTO struct {
	ItemID      uuid.UUID       `json:"itemId"`
	Target      decimal.Decimal `json:"target"`
	Contributed decimal.Decimal `json:"contributed"`
	Remaining   decimal.Decimal `json:"remaining"`
	Percent     decimal.Decimal `json:"percent"`
	Funded      bool            `json:"funded"`
}

func toDTO(contribution models.GroupGiftContribution, maskPrivate bool) ContributionDTO {
	dto := ContributionDTO{
		ID:               contribution.ID,
		PurchaseID:       contribution.PurchaseID,
		ContributorName:  contribution.ContributorName,
		ContributorEmail: contribution.ContributorEmail,
		IsAnonymous:      contribution.IsAnonymous,
		CurrencyCode:     contribution.CurrencyCode,
		PaymentStatus:    contribution.PaymentStatus,
		ShowAmount:       contribution.ShowAmount,
		CreatedAt:        contribution.CreatedAt,
	}
	amount := contribution.Amount
	dto.Amount = &amount

	if maskPrivate {
		dto.ContributorEmail = nil
		if contribution.IsAnonymous {
			dto.ContributorName = nil
		}
		if !contribution.ShowAmount {
			dto.Amount = nil
		}
	}
	return dto
}
