package service

import (
	"log/slog"
	"sync"
	"time"
)

// EventType defines the type of event
type EventType string

const (
	EventRunStarted      EventType = "run_started"
	EventSwitchSkipped   EventType = "switch_skipped"
	EventSwitchConnected EventType = "switch_connected"
	EventSwitchFailed    EventType = "switch_failed"
	EventCommandFailed   EventType = "command_failed"
	EventParseMismatch   EventType = "parse_mismatch"
	EventMACLocated      EventType = "mac_located"
	EventSwitchDone      EventType = "switch_done"
	EventRunFinished     EventType = "run_finished"
)

// Event is a diagnostic record of something that happened during a run.
// Events never change a MatchResult; they exist for logs and subscribers.
type Event struct {
	Type    EventType `json:"type"`
	RunID   string    `json:"run_id,omitempty"`
	Switch  string    `json:"switch,omitempty"`
	MAC     string    `json:"mac,omitempty"`
	Message string    `json:"message,omitempty"`
	Err     string    `json:"error,omitempty"`
	Time    time.Time `json:"time"`
}

// EventBus allows publishing and subscribing to events.
// Publish is safe to call from concurrent probers.
type EventBus struct {
	mu          sync.RWMutex
	subscribers []chan<- Event
	logger      *slog.Logger
}

// NewEventBus creates a new event bus; a non-nil logger receives every event
func NewEventBus(logger *slog.Logger) *EventBus {
	return &EventBus{
		subscribers: make([]chan<- Event, 0),
		logger:      logger,
	}
}

// Subscribe adds a subscriber to receive events
func (eb *EventBus) Subscribe(ch chan<- Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.subscribers = append(eb.subscribers, ch)
}

// Publish sends an event to all subscribers
func (eb *EventBus) Publish(event Event) {
	if eb == nil {
		return
	}
	if event.Time.IsZero() {
		event.Time = time.Now()
	}

	eb.log(event)

	eb.mu.RLock()
	defer eb.mu.RUnlock()
	for _, ch := range eb.subscribers {
		select {
		case ch <- event:
		default:
			// Subscriber is slow, skip
		}
	}
}

func (eb *EventBus) log(event Event) {
	if eb.logger == nil {
		return
	}

	attrs := []any{"event", string(event.Type)}
	if event.RunID != "" {
		attrs = append(attrs, "run", event.RunID)
	}
	if event.Switch != "" {
		attrs = append(attrs, "switch", event.Switch)
	}
	if event.MAC != "" {
		attrs = append(attrs, "mac", event.MAC)
	}
	if event.Err != "" {
		attrs = append(attrs, "error", event.Err)
	}

	msg := event.Message
	if msg == "" {
		msg = string(event.Type)
	}

	switch event.Type {
	case EventSwitchFailed, EventCommandFailed, EventParseMismatch:
		eb.logger.Warn(msg, attrs...)
	case EventRunStarted, EventRunFinished, EventSwitchConnected, EventMACLocated:
		eb.logger.Info(msg, attrs...)
	default:
		eb.logger.Debug(msg, attrs...)
	}
}
