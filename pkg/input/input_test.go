package input

import (
	"reflect"
	"testing"
	"time"

	"github.com/zurustar/paperrpg/pkg/system"
)

func newTestTracker() *Tracker {
	b := NewBindings([]system.KeyBinding{
		{ID: system.KeyAction, Keys: []string{"Enter", "Space"}},
		{ID: system.KeyCancel, Keys: []string{"Escape"}},
		{ID: system.KeyMenu, Keys: []string{"Escape"}},
	})
	return NewTracker(b, WithRepeat(300*time.Millisecond, 100*time.Millisecond))
}

func TestTrackerPressAndRelease(t *testing.T) {
	tr := newTestTracker()
	t0 := time.Unix(0, 0)

	got := tr.Update(t0, []string{"Escape"}, nil)
	want := []Event{
		{Pressed, system.KeyCancel},
		{Pressed, system.KeyMenu},
		{PressedRepeat, system.KeyCancel},
		{PressedAndRepeat, system.KeyCancel},
		{PressedRepeat, system.KeyMenu},
		{PressedAndRepeat, system.KeyMenu},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("first frame = %v, want %v", got, want)
	}
	if !tr.IsPressed(system.KeyCancel) {
		t.Error("cancel should be held")
	}

	got = tr.Update(t0.Add(16*time.Millisecond), nil, []string{"Escape"})
	want = []Event{{Released, system.KeyCancel}, {Released, system.KeyMenu}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("release frame = %v, want %v", got, want)
	}
	if tr.IsPressed(system.KeyCancel) {
		t.Error("cancel should be released")
	}
}

func TestTrackerTwoPhysicalKeys(t *testing.T) {
	tr := newTestTracker()
	t0 := time.Unix(0, 0)
	tr.Update(t0, []string{"Enter"}, nil)
	got := tr.Update(t0, []string{"Space"}, []string{"Enter"})
	for _, e := range got {
		if e.Kind == Released || e.Kind == Pressed {
			t.Errorf("unexpected edge %v while another binding is held", e)
		}
	}
	if !tr.IsPressed(system.KeyAction) {
		t.Error("action should still be held through Space")
	}
}

func TestTrackerDebouncedRepeat(t *testing.T) {
	tr := newTestTracker()
	t0 := time.Unix(0, 0)
	count := func(events []Event) int {
		n := 0
		for _, e := range events {
			if e.Kind == PressedAndRepeat {
				n++
			}
		}
		return n
	}

	tests := []struct {
		at   time.Duration
		want int
	}{
		{0, 1},
		{100 * time.Millisecond, 0},
		{299 * time.Millisecond, 0},
		{300 * time.Millisecond, 1},
		{350 * time.Millisecond, 0},
		{400 * time.Millisecond, 1},
		{1000 * time.Millisecond, 1},
		{1050 * time.Millisecond, 0},
		{1100 * time.Millisecond, 1},
	}
	for i, tt := range tests {
		var pressed []string
		if i == 0 {
			pressed = []string{"Enter"}
		}
		if got := count(tr.Update(t0.Add(tt.at), pressed, nil)); got != tt.want {
			t.Errorf("at %v: %d pressed-and-repeat events, want %d", tt.at, got, tt.want)
		}
	}
}

func TestBindingsPhysical(t *testing.T) {
	b := NewBindings(system.DefaultKeyBindings())
	names := b.Physical()
	if len(names) == 0 || names[0] != "A" {
		t.Errorf("Physical() = %v", names)
	}
	if got := b.Logical("Escape"); len(got) != 2 {
		t.Errorf("Logical(Escape) = %v, want cancel and menu", got)
	}
}
