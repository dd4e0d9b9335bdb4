package webhooks

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	shopifywebhook "github.com/narissarah/wishcraft/internal/webhooks/shopify"
	pkgerrors "github.com/narissarah/wishcraft/pkg/errors"
)

type fakeReconciler struct {
	calls int
	err   error
}

func (f *fakeReconciler) Reconcile(ctx context.Context, order *shopifywebhook.OrderPayload) (shopifywebhook.ReconcileResult, error) {
	f.calls++
	if f.err != nil {
		return shopifywebhook.ReconcileResult{}, f.err
	}
	return shopifywebhook.ReconcileResult{OrderID: order.ID, Recorded: 1}, nil
}

type inMemoryStore struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

func newInMemoryStore() *inMemoryStore {
	return &inMemoryStore{keys: map[string]struct{}{}}
}

func (s *inMemoryStore) Get(ctx context.Context, key string) (string, error) { return "", nil }

func (s *inMemoryStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.keys[key]; ok {
		return false, nil
	}
	s.keys[key] = struct{}{}
	return true, nil
}

func (s *inMemoryStore) IdempotencyKey(scope, id string) string {
	return "wc:idempotency:" + scope + ":" + id
}

func (s *inMemoryStore) Del(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.keys, key)
	}
	return nil
}

func signPayload(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func newGuard(t *testing.T) *shopifywebhook.IdempotencyGuard {
	t.Helper()
	guard, err := shopifywebhook.NewIdempotencyGuard(newInMemoryStore(), time.Minute, "shopify:orders-create")
	if err != nil {
		t.Fatalf("guard setup: %v", err)
	}
	return guard
}

func postOrder(handler http.HandlerFunc, payload []byte, signature, webhookID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/shopify/orders-create", bytes.NewReader(payload))
	if signature != "" {
		req.Header.Set("X-Shopify-Hmac-Sha256", signature)
	}
	if webhookID != "" {
		req.Header.Set("X-Shopify-Webhook-Id", webhookID)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestShopifyOrdersCreate_SuccessAndIdempotent(t *testing.T) {
	payload := []byte(`{"id":9001,"line_items":[]}`)
	service := &fakeReconciler{}
	handler := ShopifyOrdersCreate(service, "secret", newGuard(t), nil)

	rec := postOrder(handler, payload, signPayload(payload, "secret"), "delivery-1")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if service.calls != 1 {
		t.Fatalf("expected service called once, got %d", service.calls)
	}

	rec = postOrder(handler, payload, signPayload(payload, "secret"), "delivery-1")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on duplicate, got %d", rec.Code)
	}
	if service.calls != 1 {
		t.Fatalf("duplicate delivery should not reach the service, got %d calls", service.calls)
	}
}

func TestShopifyOrdersCreate_InvalidSignature(t *testing.T) {
	payload := []byte(`{"id":9001}`)
	service := &fakeReconciler{}
	handler := ShopifyOrdersCreate(service, "secret", newGuard(t), nil)

	rec := postOrder(handler, payload, "bogus", "delivery-2")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for invalid signature, got %d", rec.Code)
	}
	if service.calls != 0 {
		t.Fatalf("service should not be invoked on invalid signature")
	}
}

func TestShopifyOrdersCreate_MalformedBody(t *testing.T) {
	payload := []byte(`{"id":`)
	handler := ShopifyOrdersCreate(&fakeReconciler{}, "secret", newGuard(t), nil)

	rec := postOrder(handler, payload, signPayload(payload, "secret"), "delivery-3")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", rec.Code)
	}
}

func TestShopifyOrdersCreate_DependencyFailureAllowsRetry(t *testing.T) {
	payload := []byte(`{"id":9001,"line_items":[]}`)
	service := &fakeReconciler{err: pkgerrors.New(pkgerrors.CodeDependency, "database unavailable")}
	handler := ShopifyOrdersCreate(service, "secret", newGuard(t), nil)

	rec := postOrder(handler, payload, signPayload(payload, "secret"), "delivery-4")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 for dependency failure, got %d", rec.Code)
	}

	// The guard mark must be cleared so the platform's redelivery is not
	// swallowed as a duplicate.
	service.err = nil
	rec = postOrder(handler, payload, signPayload(payload, "secret"), "delivery-4")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on redelivery, got %d", rec.Code)
	}
	if service.calls != 2 {
		t.Fatalf("expected redelivery to reach the service, got %d calls", service.calls)
	}
}
