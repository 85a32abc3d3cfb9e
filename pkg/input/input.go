// Package input turns physical key edges into logical key events.
//
// The window layer reports which physical keys went down or up during a frame;
// the Tracker maps them through the project's key bindings and produces the
// four event kinds consumed by scenes: pressed, released, pressed-repeat
// (every frame while held) and pressed-and-repeat (debounced, for menus).
package input

import (
	"sort"
	"time"

	"github.com/zurustar/paperrpg/pkg/system"
)

// Debounce timings of pressed-and-repeat events.
const (
	DefaultRepeatDelay    = 400 * time.Millisecond
	DefaultRepeatInterval = 100 * time.Millisecond
)

// EventKind is the kind of a logical key event.
type EventKind int

const (
	Pressed EventKind = iota
	Released
	PressedRepeat
	PressedAndRepeat
)

func (k EventKind) String() string {
	switch k {
	case Pressed:
		return "pressed"
	case Released:
		return "released"
	case PressedRepeat:
		return "pressed repeat"
	case PressedAndRepeat:
		return "pressed and repeat"
	}
	return "unknown"
}

// Event is a logical key event.
type Event struct {
	Kind EventKind
	Key  int
}

// Bindings maps physical key names to logical key ids.
type Bindings struct {
	byPhysical map[string][]int
}

// NewBindings indexes key bindings. A physical key may trigger several
// logical keys.
func NewBindings(bindings []system.KeyBinding) *Bindings {
	b := &Bindings{byPhysical: make(map[string][]int)}
	for _, kb := range bindings {
		for _, k := range kb.Keys {
			b.byPhysical[k] = append(b.byPhysical[k], kb.ID)
		}
	}
	return b
}

// Logical returns the logical keys bound to a physical key.
func (b *Bindings) Logical(physical string) []int {
	return b.byPhysical[physical]
}

// Physical returns every bound physical key name, sorted.
func (b *Bindings) Physical() []string {
	names := make([]string, 0, len(b.byPhysical))
	for name := range b.byPhysical {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type held struct {
	count    int
	since    time.Time
	nextFire time.Time
}

// Tracker keeps the held state of logical keys across frames.
// It implements value.KeyState.
type Tracker struct {
	bindings *Bindings
	delay    time.Duration
	interval time.Duration
	held     map[int]*held
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithRepeat sets the pressed-and-repeat debounce timings.
func WithRepeat(delay, interval time.Duration) Option {
	return func(t *Tracker) {
		t.delay = delay
		t.interval = interval
	}
}

// NewTracker creates a Tracker over the given bindings.
func NewTracker(bindings *Bindings, opts ...Option) *Tracker {
	t := &Tracker{
		bindings: bindings,
		delay:    DefaultRepeatDelay,
		interval: DefaultRepeatInterval,
		held:     make(map[int]*held),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// IsPressed reports whether a logical key is held.
func (t *Tracker) IsPressed(key int) bool {
	h, ok := t.held[key]
	return ok && h.count > 0
}

// Update consumes the physical edges of one frame and returns the logical
// events in delivery order: presses, releases, then repeats in key order.
// A key pressed and released within the same frame yields both edges.
func (t *Tracker) Update(now time.Time, justPressed, justReleased []string) []Event {
	var events []Event

	fresh := make(map[int]bool)
	for _, name := range justPressed {
		for _, key := range t.bindings.Logical(name) {
			if h, ok := t.held[key]; ok {
				h.count++
				continue
			}
			t.held[key] = &held{count: 1, since: now, nextFire: now.Add(t.delay)}
			fresh[key] = true
			events = append(events, Event{Kind: Pressed, Key: key})
		}
	}

	for _, name := range justReleased {
		for _, key := range t.bindings.Logical(name) {
			h, ok := t.held[key]
			if !ok {
				continue
			}
			h.count--
			if h.count <= 0 {
				delete(t.held, key)
				events = append(events, Event{Kind: Released, Key: key})
			}
		}
	}

	keys := make([]int, 0, len(t.held))
	for key := range t.held {
		keys = append(keys, key)
	}
	sort.Ints(keys)
	for _, key := range keys {
		h := t.held[key]
		events = append(events, Event{Kind: PressedRepeat, Key: key})
		if fresh[key] {
			events = append(events, Event{Kind: PressedAndRepeat, Key: key})
			continue
		}
		if !now.Before(h.nextFire) {
			events = append(events, Event{Kind: PressedAndRepeat, Key: key})
			h.nextFire = h.nextFire.Add(t.interval)
			if h.nextFire.Before(now) {
				h.nextFire = now.Add(t.interval)
			}
		}
	}
	return events
}

// Reset releases every key without emitting events.
func (t *Tracker) Reset() {
	t.held = make(map[int]*held)
}
