package activityfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/narissarah/wishcraft/pkg/enums"
	"github.com/narissarah/wishcraft/pkg/logger"
	"github.com/narissarah/wishcraft/pkg/outbox"
	"github.com/narissarah/wishcraft/pkg/outbox/payloads"
	"github.com/narissarah/wishcraft/pkg/outbox/registry"
)

const (
	feedConsumerName     = "activity-feed"
	activityCounterScope = "registry:activity"
	counterTTL           = 30 * 24 * time.Hour
)

type counterStore interface {
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	CounterKey(scope, id string) string
}

type idempotencyChecker interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

type payloadDecoder interface {
	Decode(eventType enums.OutboxEventType, version int, payload json.RawMessage) (interface{}, error)
}

// Consumer maintains per-registry activity counters in Redis from the
// activity event stream, honoring Redis idempotency per event.
type Consumer struct {
	counters    counterStore
	decoder     payloadDecoder
	manager     idempotencyChecker
	logg        *logger.Logger
	eventFilter map[enums.OutboxEventType]struct{}
}

// NewConsumer builds a new activity feed consumer.
func NewConsumer(counters counterStore, decoder payloadDecoder, manager idempotencyChecker, logg *logger.Logger) (*Consumer, error) {
	if counters == nil {
		return nil, fmt.Errorf("counter store required")
	}
	if decoder == nil {
		return nil, fmt.Errorf("payload decoder required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		counters: counters,
		decoder:  decoder,
		manager:  manager,
		logg:     logg,
		eventFilter: map[enums.OutboxEventType]struct{}{
			enums.EventPurchaseRecorded:     {},
			enums.EventItemAdded:            {},
			enums.EventItemRemoved:          {},
			enums.EventContributionReceived: {},
			enums.EventOrderReconciled:      {},
		},
	}, nil
}

// NewDecoders registers the activity stream payload decoders.
func NewDecoders() *registry.DecoderRegistry {
	decoders := registry.NewDecoderRegistry()
	decoders.Register(enums.EventPurchaseRecorded, 1, func(payload json.RawMessage) (interface{}, error) {
		return decodeInto(payload, &payloads.PurchaseRecordedEvent{})
	})
	decoders.Register(enums.EventItemAdded, 1, func(payload json.RawMessage) (interface{}, error) {
		return decodeInto(payload, &payloads.ItemAddedEvent{})
	})
	decoders.Register(enums.EventItemRemoved, 1, func(payload json.RawMessage) (interface{}, error) {
		return decodeInto(payload, &payloads.ItemRemovedEvent{})
	})
	decoders.Register(enums.EventContributionReceived, 1, func(payload json.RawMessage) (interface{}, error) {
		return decodeInto(payload, &payloads.ContributionReceivedEvent{})
	})
	decoders.Register(enums.EventOrderReconciled, 1, func(payload json.RawMessage) (interface{}, error) {
		return decodeInto(payload, &payloads.OrderReconciledEvent{})
	})
	return decoders
}

func decodeInto(payload json.RawMessage, target interface{}) (interface{}, error) {
	if err := json.Unmarshal(payload, target); err != nil {
		return nil, err
	}
	return target, nil
}

// Process counts the event against its registry if the event is supported.
func (c *Consumer) Process(ctx context.Context, eventType enums.OutboxEventType, envelope outbox.PayloadEnvelope) error {
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"event_id":   envelope.EventID,
		"event_type": eventType,
	})

	if _, ok := c.eventFilter[eventType]; !ok {
		c.logg.Info(logCtx, "event not handled by activity feed consumer")
		return nil
	}

	if envelope.EventID == "" {
		return fmt.Errorf("event id missing")
	}
	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		return fmt.Errorf("parse event id: %w", err)
	}

	already, err := c.manager.CheckAndMarkProcessed(ctx, feedConsumerName, eventID)
	if err != nil {
		return fmt.Errorf("idempotency check: %w", err)
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return nil
	}

	version := envelope.Version
	if version == 0 {
		version = 1
	}
	decoded, err := c.decoder.Decode(eventType, version, envelope.Data)
	if err != nil {
		c.logg.Error(logCtx, "failed to decode activity payload", err)
		_ = c.manager.Delete(ctx, feedConsumerName, eventID)
		return err
	}

	registryID := registryIDFor(decoded)
	if registryID == uuid.Nil {
		err := fmt.Errorf("payload missing registry id")
		c.logg.Error(logCtx, "failed to attribute activity event", err)
		_ = c.manager.Delete(ctx, feedConsumerName, eventID)
		return err
	}

	key := c.counters.CounterKey(activityCounterScope, registryID.String())
	count, err := c.counters.Incr(ctx, key)
	if err != nil {
		c.logg.Error(logCtx, "failed to increment activity counter", err)
		_ = c.manager.Delete(ctx, feedConsumerName, eventID)
		return err
	}
	if err := c.counters.Expire(ctx, key, counterTTL); err != nil {
		c.logg.Warn(c.logg.WithField(logCtx, "error", err.Error()), "failed to refresh counter ttl")
	}

	logCtx = c.logg.WithFields(logCtx, map[string]any{
		"registry_id":    registryID.String(),
		"activity_count": count,
	})
	c.logg.Info(logCtx, "registry activity counted")
	return nil
}

func registryIDFor(decoded interface{}) uuid.UUID {
	switch payload := decoded.(type) {
	case *payloads.PurchaseRecordedEvent:
		return payload.RegistryID
	case *payloads.ItemAddedEvent:
		return payload.RegistryID
	case *payloads.ItemRemovedEvent:
		return payload.RegistryID
	case *payloads.ContributionReceivedEvent:
		return payload.RegistryID
	case *payloads.OrderReconciledEvent:
		return payload.RegistryID
	default:
		return uuid.Nil
	}
}
