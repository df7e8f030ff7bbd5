package transport

import "sync"

// EventType names a transport event.
type EventType string

const (
	EventReadyStateChange EventType = "readystatechange"
	EventLoad             EventType = "load"
	EventTimeout          EventType = "timeout"
	EventError            EventType = "error"
	EventAbort            EventType = "abort"
)

// Event is delivered to listeners.
type Event struct {
	Type       EventType
	ReadyState ReadyState
	Err        error
}

// Listener receives events.
type Listener func(Event)

type registration struct {
	id uint64
	fn Listener
}

// EventTarget keeps per-type listener lists. The zero value is ready to use.
type EventTarget struct {
	mu        sync.Mutex
	nextID    uint64
	listeners map[EventType][]registration
}

// AddEventListener registers fn for typ and returns a function removing it.
func (t *EventTarget) AddEventListener(typ EventType, fn Listener) (remove func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.listeners == nil {
		t.listeners = make(map[EventType][]registration)
	}
	t.nextID++
	id := t.nextID
	t.listeners[typ] = append(t.listeners[typ], registration{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() { t.removeListener(typ, id) })
	}
}

func (t *EventTarget) removeListener(typ EventType, id uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	regs := t.listeners[typ]
	for i, r := range regs {
		if r.id == id {
			t.listeners[typ] = append(regs[:i:i], regs[i+1:]...)
			return
		}
	}
}

// DispatchEvent calls every listener registered for ev.Type, in registration
// order. Listeners run without the lock held and may add or remove listeners.
func (t *EventTarget) DispatchEvent(ev Event) {
	t.mu.Lock()
	regs := make([]registration, len(t.listeners[ev.Type]))
	copy(regs, t.listeners[ev.Type])
	t.mu.Unlock()

	for _, r := range regs {
		r.fn(ev)
	}
}
