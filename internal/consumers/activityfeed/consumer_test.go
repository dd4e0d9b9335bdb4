package activityfeed

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/narissarah/wishcraft/pkg/enums"
	"github.com/narissarah/wishcraft/pkg/logger"
	"github.com/narissarah/wishcraft/pkg/outbox"
	"github.com/narissarah/wishcraft/pkg/outbox/payloads"
)

func TestFeedConsumerCountsPurchaseRecorded(t *testing.T) {
	counters := &fakeCounters{}
	manager := fakeIdempotency{
		check: func(_ context.Context, _ string, _ uuid.UUID) (bool, error) {
			return false, nil
		},
		deleteFn: func(_ context.Context, _ string, _ uuid.UUID) error {
			return nil
		},
	}
	consumer := mustConsumer(t, counters, manager)

	registryID := uuid.New()
	envelope := buildEnvelope(t, uuid.New(), payloads.PurchaseRecordedEvent{
		PurchaseID: uuid.New(),
		RegistryID: registryID,
		ItemID:     uuid.New(),
		OrderID:    5000001,
		Quantity:   1,
	})

	if err := consumer.Process(context.Background(), enums.EventPurchaseRecorded, envelope); err != nil {
		t.Fatalf("Process() error: %v", err)
	}

	wantKey := counters.CounterKey(activityCounterScope, registryID.String())
	if counters.counts[wantKey] != 1 {
		t.Fatalf("expected counter %s to be 1, got %d", wantKey, counters.counts[wantKey])
	}
	if counters.ttls[wantKey] != counterTTL {
		t.Fatalf("expected counter ttl refresh")
	}
}

func TestFeedConsumerSkipsUnhandledEvent(t *testing.T) {
	counters := &fakeCounters{}
	manager := fakeIdempotency{
		check: func(_ context.Context, _ string, _ uuid.UUID) (bool, error) {
			t.Fatalf("idempotency should not be consulted for unhandled events")
			return false, nil
		},
	}
	consumer := mustConsumer(t, counters, manager)

	envelope := buildEnvelope(t, uuid.New(), payloads.ContributionStatusChangedEvent{})
	if err := consumer.Process(context.Background(), enums.EventContributionStatusChanged, envelope); err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if len(counters.counts) != 0 {
		t.Fatalf("expected no counters touched")
	}
}

func TestFeedConsumerIsIdempotent(t *testing.T) {
	counters := &fakeCounters{}
	manager := fakeIdempotency{
		check: func(_ context.Context, _ string, _ uuid.UUID) (bool, error) {
			return true, nil
		},
	}
	consumer := mustConsumer(t, counters, manager)

	envelope := buildEnvelope(t, uuid.New(), payloads.ItemAddedEvent{RegistryID: uuid.New()})
	if err := consumer.Process(context.Background(), enums.EventItemAdded, envelope); err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if len(counters.counts) != 0 {
		t.Fatalf("expected no counters touched when idempotent")
	}
}

func TestFeedConsumerDeletesOnCounterFailure(t *testing.T) {
	counters := &fakeCounters{incrErr: errors.New("redis down")}
	deleted := false
	manager := fakeIdempotency{
		check: func(_ context.Context, _ string, _ uuid.UUID) (bool, error) {
			return false, nil
		},
		deleteFn: func(_ context.Context, _ string, _ uuid.UUID) error {
			deleted = true
			return nil
		},
	}
	consumer := mustConsumer(t, counters, manager)

	envelope := buildEnvelope(t, uuid.New(), payloads.OrderReconciledEvent{RegistryID: uuid.New()})
	if err := consumer.Process(context.Background(), enums.EventOrderReconciled, envelope); err == nil {
		t.Fatalf("expected error when counter increment fails")
	}
	if !deleted {
		t.Fatalf("expected idempotency key deletion on failure")
	}
}

func TestFeedConsumerDeletesOnDecodeFailure(t *testing.T) {
	counters := &fakeCounters{}
	deleted := false
	manager := fakeIdempotency{
		check: func(_ context.Context, _ string, _ uuid.UUID) (bool, error) {
			return false, nil
		},
		deleteFn: func(_ context.Context, _ string, _ uuid.UUID) error {
			deleted = true
			return nil
		},
	}
	consumer := mustConsumer(t, counters, manager)

	envelope := outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now(),
		Data:       json.RawMessage(`{"registryId":"not-a-uuid"}`),
	}
	if err := consumer.Process(context.Background(), enums.EventItemRemoved, envelope); err == nil {
		t.Fatalf("expected error for undecodable payload")
	}
	if !deleted {
		t.Fatalf("expected idempotency key deletion on failure")
	}
}

func mustConsumer(t *testing.T, counters *fakeCounters, manager fakeIdempotency) *Consumer {
	t.Helper()
	logg := logger.New(logger.Options{
		ServiceName: "activity-feed-test",
		Output:      io.Discard,
	})
	consumer, err := NewConsumer(counters, NewDecoders(), manager, logg)
	if err != nil {
		t.Fatalf("NewConsumer() error: %v", err)
	}
	return consumer
}

func buildEnvelope(t *testing.T, eventID uuid.UUID, payload any) outbox.PayloadEnvelope {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return outbox.PayloadEnvelope{
		Version:    1,
		EventID:    eventID.String(),
		OccurredAt: time.Now(),
		Data:       data,
	}
}

type fakeCounters struct {
	counts  map[string]int64
	ttls    map[string]time.Duration
	incrErr error
}

func (f *fakeCounters) Incr(_ context.Context, key string) (int64, error) {
	if f.incrErr != nil {
		return 0, f.incrErr
	}
	if f.counts == nil {
		f.counts = make(map[string]int64)
	}
	f.counts[key]++
	return f.counts[key], nil
}

func (f *fakeCounters) Expire(_ context.Context, key string, ttl time.Duration) error {
	if f.ttls == nil {
		f.ttls = make(map[string]time.Duration)
	}
	f.ttls[key] = ttl
	return nil
}

func (f *fakeCounters) CounterKey(scope, id string) string {
	return "wc:counter:" + scope + ":" + id
}

type fakeIdempotency struct {
	check    func(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	deleteFn func(ctx context.Context, consumer string, eventID uuid.UUID) error
}

func (f fakeIdempotency) CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error) {
	if f.check == nil {
		return false, nil
	}
	return f.check(ctx, consumer, eventID)
}

func (f fakeIdempotency) Delete(ctx context.Context, consumer string, eventID uuid.UUID) error {
	if f.deleteFn == nil {
		return nil
	}
	return f.deleteFn(ctx, consumer, eventID)
}
