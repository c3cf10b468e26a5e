package analysis

import (
	"sync"
	"time"
)

// EventType classifies progress events
type EventType string

const (
	EventStarted   EventType = "started"
	EventStage     EventType = "stage"
	EventEntity    EventType = "entity"
	EventCompleted EventType = "completed"
	EventFailed    EventType = "failed"
)

// Event is one progress notification for a running analysis
type Event struct {
	Type      EventType `json:"type"`
	RunID     string    `json:"run_id"`
	Target    string    `json:"target"`
	Stage     string    `json:"stage,omitempty"`
	Symbol    string    `json:"symbol,omitempty"`    // EventEntity
	Available bool      `json:"available,omitempty"` // EventEntity
	Done      int       `json:"done,omitempty"`
	Total     int       `json:"total,omitempty"`
	ReportID  string    `json:"report_id,omitempty"`
	Message   string    `json:"message,omitempty"`
	Time      time.Time `json:"time"`
}

// Observer receives progress events
// Notify is called synchronously from the analysis goroutines and must not block.
type Observer interface {
	Notify(Event)
}

// ObserverFunc adapts a function to Observer
type ObserverFunc func(Event)

// Notify calls f(e)
func (f ObserverFunc) Notify(e Event) {
	f(e)
}

// Observers fans out to several observers
type Observers []Observer

// Notify calls every observer in order
func (o Observers) Notify(e Event) {
	for _, obs := range o {
		if obs != nil {
			obs.Notify(e)
		}
	}
}

// Recorder keeps every event, for tests and CLI summaries
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Notify appends the event
func (r *Recorder) Notify(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded events
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

type nopObserver struct{}

func (nopObserver) Notify(Event) {}
