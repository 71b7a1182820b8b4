package syncer

import "time"

// EventKind names what happened during a cycle.
type EventKind string

// Event kinds.
const (
	EventHealthFailed EventKind = "health_failed"
	EventSyncFailed   EventKind = "sync_failed"
	EventFetchFailed  EventKind = "fetch_failed"
	EventDropped      EventKind = "dropped"
	EventDrained      EventKind = "drained"
	EventRefreshed    EventKind = "refreshed"
	EventCycle        EventKind = "cycle"
)

// Event reports one step of a cycle. Err is set for failures; Count carries
// the number of items sent for EventDrained.
type Event struct {
	Kind  EventKind
	Err   error
	Count int
	At    time.Time
}

// Observer is notified from the loop goroutine.
type Observer interface {
	// OnConnectionChange is called every cycle with the probe result.
	OnConnectionChange(connected bool)
	// OnQueueDrained is called after a batch was accepted and removed.
	OnQueueDrained(remaining int)
	// OnDataRefresh is called after the cache took a server snapshot.
	OnDataRefresh()
}

// ObserverFuncs adapts optional functions to Observer.
type ObserverFuncs struct {
	ConnectionChange func(connected bool)
	QueueDrained     func(remaining int)
	DataRefresh      func()
}

func (o ObserverFuncs) OnConnectionChange(connected bool) {
	if o.ConnectionChange != nil {
		o.ConnectionChange(connected)
	}
}

func (o ObserverFuncs) OnQueueDrained(remaining int) {
	if o.QueueDrained != nil {
		o.QueueDrained(remaining)
	}
}

func (o ObserverFuncs) OnDataRefresh() {
	if o.DataRefresh != nil {
		o.DataRefresh()
	}
}
