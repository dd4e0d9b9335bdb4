package webhooks

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/narissarah/wishcraft/api/responses"
	shopifywebhook "github.com/narissarah/wishcraft/internal/webhooks/shopify"
	pkgerrors "github.com/narissarah/wishcraft/pkg/errors"
	"github.com/narissarah/wishcraft/pkg/logger"
)

const (
	hmacHeader       = "X-Shopify-Hmac-Sha256"
	webhookIDHeader  = "X-Shopify-Webhook-Id"
	shopDomainHeader = "X-Shopify-Shop-Domain"
)

type OrderReconciler interface {
	Reconcile(ctx context.Context, order *shopifywebhook.OrderPayload) (shopifywebhook.ReconcileResult, error)
}

type webhookGuard interface {
	CheckAndMark(ctx context.Context, deliveryID string) (bool, error)
	Delete(ctx context.Context, deliveryID string) error
}

// ShopifyOrdersCreate receives orders/create deliveries. The HMAC gate runs
// against the raw body before any decoding; the redis guard short-circuits
// replays cheaply, and the ledger's unique constraint backs it up.
func ShopifyOrdersCreate(svc OrderReconciler, secret string, guard webhookGuard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}
		if guard == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "idempotency guard unavailable"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		if !validateShopifySignature(payload, secret, r.Header.Get(hmacHeader)) {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid webhook signature"))
			return
		}

		if shop := r.Header.Get(shopDomainHeader); shop != "" && logg != nil {
			ctx = logg.WithShopID(ctx, shop)
		}

		var order shopifywebhook.OrderPayload
		if err := json.Unmarshal(payload, &order); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode order payload"))
			return
		}

		deliveryID := strings.TrimSpace(r.Header.Get(webhookIDHeader))
		if deliveryID != "" {
			alreadyProcessed, err := guard.CheckAndMark(ctx, deliveryID)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
				return
			}
			if alreadyProcessed {
				responses.WriteSuccess(w, shopifywebhook.ReconcileResult{OrderID: order.ID})
				return
			}
		}

		result, err := svc.Reconcile(ctx, &order)
		if err != nil {
			if deliveryID != "" {
				_ = guard.Delete(ctx, deliveryID)
			}
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

func validateShopifySignature(payload []byte, secret, header string) bool {
	if header == "" || secret == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(header))
}
