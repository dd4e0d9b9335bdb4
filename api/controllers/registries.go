package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/narissarah/wishcraft/api/responses"
	"github.com/narissarah/wishcraft/api/validators"
	"github.com/narissarah/wishcraft/internal/registry"
	"github.com/narissarah/wishcraft/pkg/enums"
	pkgerrors "github.com/narissarah/wishcraft/pkg/errors"
	"github.com/narissarah/wishcraft/pkg/logger"
)

type createRegistryRequest struct {
	ShopID     string  `json:"shop_id" validate:"required"`
	CustomerID string  `json:"customer_id" validate:"required"`
	Title      string  `json:"title" validate:"required,min=1,max=255"`
	Slug       string  `json:"slug,omitempty" validate:"omitempty,max=255"`
	EventDate  *string `json:"event_date,omitempty"`
	Visibility string  `json:"visibility,omitempty" validate:"omitempty,oneof=public private password_protected"`
}

// RegistryCreate creates a registry for a shop customer.
func RegistryCreate(svc registry.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "registry service unavailable"))
			return
		}

		var req createRegistryRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := registry.CreateRegistryInput{
			ShopID:     validators.SanitizeString(req.ShopID, 255),
			CustomerID: validators.SanitizeString(req.CustomerID, 255),
			Title:      validators.SanitizeString(req.Title, 255),
			Slug:       validators.SanitizeString(req.Slug, 255),
			Visibility: enums.RegistryVisibility(req.Visibility),
		}
		if req.EventDate != nil {
			parsed, err := time.Parse("2006-01-02", *req.EventDate)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "event_date must be YYYY-MM-DD"))
				return
			}
			input.EventDate = &parsed
		}

		created, err := svc.CreateRegistry(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// RegistryDetail fetches a registry by id.
func RegistryDetail(svc registry.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "registry service unavailable"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "registryId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid registry id"))
			return
		}

		found, err := svc.GetRegistry(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, found)
	}
}

// RegistryBySlug resolves the shareable registry link.
func RegistryBySlug(svc registry.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "registry service unavailable"))
			return
		}

		shopID := validators.SanitizeString(r.URL.Query().Get("shop_id"), 255)
		if shopID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "shop_id is required"))
			return
		}

		found, err := svc.GetRegistryBySlug(r.Context(), shopID, chi.URLParam(r, "slug"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, found)
	}
}

// RegistryList lists a customer's registries within a shop.
func RegistryList(svc registry.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "registry service unavailable"))
			return
		}

		shopID := validators.SanitizeString(r.URL.Query().Get("shop_id"), 255)
		customerID := validators.SanitizeString(r.URL.Query().Get("customer_id"), 255)
		if shopID == "" || customerID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "shop_id and customer_id are required"))
			return
		}

		registries, err := svc.ListByCustomer(r.Context(), shopID, customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, registries)
	}
}

type addItemRequest struct {
	ProductID       int64   `json:"product_id" validate:"required,min=1"`
	VariantID       *int64  `json:"variant_id,omitempty"`
	Title           string  `json:"title" validate:"required,min=1,max=255"`
	Quantity        int     `json:"quantity" validate:"required,min=1"`
	UnitPrice       string  `json:"unit_price" validate:"required"`
	CurrencyCode    string  `json:"currency_code,omitempty" validate:"omitempty,len=3"`
	IsGroupGift     bool    `json:"is_group_gift,omitempty"`
	GroupGiftTarget *string `json:"group_gift_target,omitempty"`
}

// RegistryAddItem adds a product to a registry.
func RegistryAddItem(svc registry.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "registry service unavailable"))
			return
		}

		registryID, err := uuid.Parse(chi.URLParam(r, "registryId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid registry id"))
			return
		}

		var req addItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		price, err := decimal.NewFromString(req.UnitPrice)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unit_price must be a decimal string"))
			return
		}

		input := registry.AddItemInput{
			RegistryID:   registryID,
			ProductID:    req.ProductID,
			VariantID:    req.VariantID,
			Title:        validators.SanitizeString(req.Title, 255),
			Quantity:     req.Quantity,
			UnitPrice:    price,
			CurrencyCode: enums.Currency(req.CurrencyCode),
			IsGroupGift:  req.IsGroupGift,
		}
		if req.GroupGiftTarget != nil {
			target, err := decimal.NewFromString(*req.GroupGiftTarget)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "group_gift_target must be a decimal string"))
				return
			}
			input.GroupGiftTarget = &target
		}

		item, err := svc.AddItem(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, item)
	}
}

// RegistryRemoveItem soft-removes an item from a registry.
func RegistryRemoveItem(svc registry.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "registry service unavailable"))
			return
		}

		registryID, err := uuid.Parse(chi.URLParam(r, "registryId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid registry id"))
			return
		}
		itemID, err := uuid.Parse(chi.URLParam(r, "itemId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item id"))
			return
		}

		if err := svc.RemoveItem(r.Context(), registryID, itemID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, nil)
	}
}

// RegistryListItems lists a registry's items with purchase progress.
func RegistryListItems(svc registry.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "registry service unavailable"))
			return
		}

		registryID, err := uuid.Parse(chi.URLParam(r, "registryId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid registry id"))
			return
		}

		items, err := svc.ListItems(r.Context(), registryID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, items)
	}
}
