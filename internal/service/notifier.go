package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/domain/record"
	ierr "github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/errors"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/idempotency"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/types"
	"github.com/ThreeDotsLabs/watermill/message"
)

// ChangeEventType names the record lifecycle events fanned out to
// subscribers
type ChangeEventType string

const (
	EventRecordCreated      ChangeEventType = "record.created"
	EventRecordUpdated      ChangeEventType = "record.updated"
	EventRecordDeleted      ChangeEventType = "record.deleted"
	EventRecordRestored     ChangeEventType = "record.restored"
	EventRecordTransitioned ChangeEventType = "record.transitioned"
	EventVersionConflict    ChangeEventType = "record.version_conflict"
)

// ChangeEvent is the payload delivered to room subscribers. Delivery is
// at most once: there is no replay, late subscribers fetch current
// state through the read API instead.
type ChangeEvent struct {
	ID        string               `json:"id"`
	Type      ChangeEventType      `json:"type"`
	Module    types.Module         `json:"module"`
	EntityKey string               `json:"entity"`
	RecordID  string               `json:"record_id"`
	Version   int                  `json:"version"`
	Status    types.RecordStatus   `json:"status,omitempty"`
	ActorID   string               `json:"actor_id"`
	// Data is the committed record snapshot, so subscribers can render
	// the change without a follow-up read
	Data      map[string]any       `json:"data,omitempty"`
	Changes   []record.FieldChange `json:"changes,omitempty"`
	Timestamp time.Time            `json:"timestamp"`
}

// NotifierService fans out record change events to per-entity rooms.
// Publishing is best effort: a transport failure is logged and never
// fails the primary mutation.
type NotifierService interface {
	PublishChange(ctx context.Context, event *ChangeEvent)
	// Subscribe attaches to one entity room. The channel closes when the
	// context is cancelled.
	Subscribe(ctx context.Context, module types.Module, entityKey string) (<-chan *ChangeEvent, error)
	// Topic returns the room topic for one entity
	Topic(module types.Module, entityKey string) string
}

type notifierService struct {
	ServiceParams
	idgen *idempotency.Generator
}

func NewNotifierService(params ServiceParams) NotifierService {
	return &notifierService{ServiceParams: params, idgen: idempotency.NewGenerator()}
}

func (s *notifierService) Topic(module types.Module, entityKey string) string {
	return fmt.Sprintf("%s.%s.%s", s.Config.Notifier.TopicPrefix, module, entityKey)
}

func (s *notifierService) PublishChange(ctx context.Context, event *ChangeEvent) {
	if event.ID == "" {
		event.ID = types.GenerateUUIDWithPrefix(types.UUID_PREFIX_NOTIFIER_EVENT)
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		s.Logger.Errorw("failed to serialize change event",
			"event_type", event.Type, "record_id", event.RecordID, "error", err)
		return
	}

	msg := message.NewMessage(event.ID, payload)
	msg.Metadata.Set("event_type", string(event.Type))
	msg.Metadata.Set("module", string(event.Module))
	msg.Metadata.Set("entity", event.EntityKey)
	// deterministic key so durable transports can drop replayed fan-outs
	msg.Metadata.Set("dedupe_key", s.idgen.GenerateKey(idempotency.ScopeNotification, map[string]interface{}{
		"type":      event.Type,
		"record_id": event.RecordID,
		"version":   event.Version,
	}))

	topic := s.Topic(event.Module, event.EntityKey)
	if err := s.PubSub.Publish(ctx, topic, msg); err != nil {
		s.Logger.Errorw("failed to publish change event",
			"topic", topic, "event_type", event.Type, "record_id", event.RecordID, "error", err)
		return
	}

	s.Logger.Debugw("change event published",
		"topic", topic, "event_type", event.Type, "record_id", event.RecordID, "version", event.Version)
}

func (s *notifierService) Subscribe(ctx context.Context, module types.Module, entityKey string) (<-chan *ChangeEvent, error) {
	if err := module.Validate(); err != nil {
		return nil, err
	}

	topic := s.Topic(module, entityKey)
	messages, err := s.PubSub.Subscribe(ctx, topic)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHintf("Failed to subscribe to %s", topic).
			Mark(ierr.ErrSystem)
	}

	events := make(chan *ChangeEvent)
	go func() {
		defer close(events)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				var event ChangeEvent
				if err := json.Unmarshal(msg.Payload, &event); err != nil {
					s.Logger.Errorw("dropping malformed change event",
						"topic", topic, "message_id", msg.UUID, "error", err)
					msg.Ack()
					continue
				}
				msg.Ack()
				select {
				case events <- &event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return events, nil
}
