package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/narissarah/wishcraft/api/responses"
	"github.com/narissarah/wishcraft/api/validators"
	"github.com/narissarah/wishcraft/internal/contributions"
	"github.com/narissarah/wishcraft/pkg/enums"
	pkgerrors "github.com/narissarah/wishcraft/pkg/errors"
	"github.com/narissarah/wishcraft/pkg/logger"
)

type addContributionRequest struct {
	ContributorName  *string `json:"contributor_name,omitempty" validate:"omitempty,max=255"`
	ContributorEmail *string `json:"contributor_email,omitempty" validate:"omitempty,email"`
	IsAnonymous      bool    `json:"is_anonymous,omitempty"`
	Amount           string  `json:"amount" validate:"required"`
	CurrencyCode     string  `json:"currency_code,omitempty" validate:"omitempty,len=3"`
	ShowAmount       *bool   `json:"show_amount,omitempty"`
}

// ContributionAdd records a pending contribution toward a group gift.
func ContributionAdd(svc contributions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "contribution service unavailable"))
			return
		}

		purchaseID, err := uuid.Parse(chi.URLParam(r, "purchaseId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid purchase id"))
			return
		}

		var req addContributionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		amount, err := decimal.NewFromString(req.Amount)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "amount must be a decimal string"))
			return
		}

		created, err := svc.Add(r.Context(), contributions.AddInput{
			PurchaseID:       purchaseID,
			ContributorName:  req.ContributorName,
			ContributorEmail: req.ContributorEmail,
			IsAnonymous:      req.IsAnonymous,
			Amount:           amount,
			CurrencyCode:     enums.Currency(req.CurrencyCode),
			ShowAmount:       req.ShowAmount,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

type contributionStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending completed failed refunded"`
}

// ContributionMarkStatus applies a payment collaborator's status callback.
func ContributionMarkStatus(svc contributions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "contribution service unavailable"))
			return
		}

		contributionID, err := uuid.Parse(chi.URLParam(r, "contributionId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid contribution id"))
			return
		}

		var req contributionStatusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.MarkStatus(r.Context(), contributionID, enums.ContributionStatus(req.Status))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, updated)
	}
}

// ContributionList returns a purchase's contributions with private fields
// masked for public consumption.
func ContributionList(svc contributions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "contribution service unavailable"))
			return
		}

		purchaseID, err := uuid.Parse(chi.URLParam(r, "purchaseId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid purchase id"))
			return
		}

		listed, err := svc.ListByPurchase(r.Context(), purchaseID, true)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, listed)
	}
}

// ContributionCompletion reports the funding state of a purchase's group gift.
func ContributionCompletion(svc contributions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "contribution service unavailable"))
			return
		}

		purchaseID, err := uuid.Parse(chi.URLParam(r, "purchaseId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid purchase id"))
			return
		}

		state, err := svc.CompletionStateByPurchase(r.Context(), purchaseID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, state)
	}
}
