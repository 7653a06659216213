package processor

import (
	"context"
	"fmt"
	"time"

	"github.com/asaidimu/go-events"
	"github.com/google/uuid"
)

// SelectionEventType identifies a stage of a Select call.
type SelectionEventType string

const (
	SelectStart   SelectionEventType = "select:start"
	SelectSuccess SelectionEventType = "select:success"
	SelectFailed  SelectionEventType = "select:failed"
)

// SelectionEvent is published on the selector's event bus.
type SelectionEvent struct {
	ID           string             `json:"id"`                  // Unique per event.
	Type         SelectionEventType `json:"type"`                // The stage that produced the event.
	Timestamp    int64              `json:"timestamp"`           // Unix milliseconds.
	Operation    string             `json:"operation"`           // Always "select".
	Processor    string             `json:"processor,omitempty"` // Processor that handled the query, once dispatched.
	InstanceType string             `json:"instanceType"`        // Dynamic type of the instance.
	Query        string             `json:"query"`               // Textual form of the query.
	Count        *int               `json:"count,omitempty"`     // Number of selected properties on success.
	Error        *string            `json:"error,omitempty"`     // Error message on failure.
	Duration     *int64             `json:"duration,omitempty"`  // Milliseconds since the call started.
}

// EventCallbackFunction receives selection events.
type EventCallbackFunction func(ctx context.Context, event SelectionEvent) error

// SubscriptionInfo describes an active subscription.
type SubscriptionInfo struct {
	ID          string             `json:"id"`
	Event       SelectionEventType `json:"event"`
	Unsubscribe func()             `json:"-"`
}

func newEventBus() (*events.TypedEventBus[SelectionEvent], error) {
	bus, err := events.NewTypedEventBus[SelectionEvent](events.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("could not initialize event bus: %w", err)
	}
	return bus, nil
}

func createEvent(
	eventType SelectionEventType,
	processor string,
	instance any,
	queryText string,
	count *int,
	err *string,
	startTime time.Time,
) SelectionEvent {
	var duration *int64
	if !startTime.IsZero() {
		d := time.Since(startTime).Milliseconds()
		duration = &d
	}

	return SelectionEvent{
		ID:           uuid.New().String(),
		Type:         eventType,
		Timestamp:    time.Now().UnixMilli(),
		Operation:    "select",
		Processor:    processor,
		InstanceType: fmt.Sprintf("%T", instance),
		Query:        queryText,
		Count:        count,
		Error:        err,
		Duration:     duration,
	}
}

// emitEvent is a helper method to emit events
func (s *Selector) emitEvent(event SelectionEvent) {
	if s.bus != nil {
		s.bus.Emit(string(event.Type), event)
	}
}

// withEventEmission wraps a selection with start, success, and failure events.
// fn returns the name of the processor it dispatched to alongside its result.
func (s *Selector) withEventEmission(
	instance any,
	queryText string,
	fn func() (string, []Property, error),
) ([]Property, error) {
	startTime := time.Now()

	s.emitEvent(createEvent(SelectStart, "", instance, queryText, nil, nil, startTime))

	processor, result, err := fn()
	if err != nil {
		errStr := err.Error()
		s.emitEvent(createEvent(SelectFailed, processor, instance, queryText, nil, &errStr, startTime))
		return nil, err
	}

	count := len(result)
	s.emitEvent(createEvent(SelectSuccess, processor, instance, queryText, &count, nil, startTime))
	return result, nil
}

// Subscribe registers a callback for a selection event type. It returns an id
// that can be passed to Unsubscribe.
func (s *Selector) Subscribe(event SelectionEventType, callback EventCallbackFunction) string {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	unsubscribe := s.bus.Subscribe(string(event), callback)
	id := uuid.New().String()

	s.subscriptions[id] = &SubscriptionInfo{
		ID:          id,
		Event:       event,
		Unsubscribe: unsubscribe,
	}
	return id
}

// Unsubscribe removes a subscription by its id. Unknown ids are ignored.
func (s *Selector) Unsubscribe(id string) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	if info, ok := s.subscriptions[id]; ok {
		info.Unsubscribe()
		delete(s.subscriptions, id)
	}
}

// Subscriptions returns all currently active subscriptions.
func (s *Selector) Subscriptions() []SubscriptionInfo {
	s.subMu.RLock()
	defer s.subMu.RUnlock()

	subs := make([]SubscriptionInfo, 0, len(s.subscriptions))
	for _, sub := range s.subscriptions {
		subs = append(subs, *sub)
	}
	return subs
}
