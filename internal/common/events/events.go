// Package events publishes analytics events (session_start, intent_detected,
// api_error, session_end) to NATS, SNS or the log.
package events

import (
	"context"
	"sync"
	"time"
)

const (
	SessionStart   = "session_start"
	IntentDetected = "intent_detected"
	APIError       = "api_error"
	SessionEnd     = "session_end"
)

// Event is one analytics record.
type Event struct {
	Name       string                 `json:"event"`
	SessionID  string                 `json:"sessionId,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
	Properties map[string]interface{} `json:"properties,omitempty"`
}

// New stamps an event with the current time.
func New(name, sessionID string, props map[string]interface{}) Event {
	return Event{Name: name, SessionID: sessionID, Timestamp: time.Now().UTC(), Properties: props}
}

// Publisher delivers events. Publishing is best effort: callers log and drop errors.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
}

// LogPublisher writes events to the structured log.
type LogPublisher struct {
	logger Logger
}

func NewLogPublisher(logger Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, ev Event) error {
	fields := map[string]interface{}{
		"event":     ev.Name,
		"sessionId": ev.SessionID,
		"timestamp": ev.Timestamp,
	}
	for k, v := range ev.Properties {
		fields[k] = v
	}
	p.logger.Info("analytics event", fields)
	return nil
}

func (p *LogPublisher) Close() error { return nil }

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() error                         { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *Recorder) Close() error { return nil }

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Names returns the recorded event names in order.
func (r *Recorder) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Name
	}
	return out
}
