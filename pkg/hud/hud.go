// Package hud defines the drawable descriptors produced by commands and
// battles during DrawHUD. The renderer consumes them; nothing flows back.
package hud

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Logical screen size used for HUD layout.
const (
	ScreenWidth  = 640
	ScreenHeight = 480
	LineHeight   = 16
)

// Drawable is a renderer-facing descriptor.
type Drawable interface {
	isDrawable()
}

// Text is a line of text. Highlighted text is drawn in the selection color.
type Text struct {
	X, Y        int
	Content     string
	Highlighted bool
}

// Window is a framed box.
type Window struct {
	X, Y, Width, Height int
}

// Cursor marks the selected entry of a menu.
type Cursor struct {
	X, Y int
}

// Damage is a damage number shown over a battler.
type Damage struct {
	Target   int // battler index
	Hero     bool
	Amount   float64
	Critical bool
	Miss     bool
}

func (Text) isDrawable()   {}
func (Window) isDrawable() {}
func (Cursor) isDrawable() {}
func (Damage) isDrawable() {}

// Canvas receives drawables.
type Canvas interface {
	Draw(d Drawable)
}

// List is a Canvas that records drawables in submission order.
type List struct {
	Items []Drawable
}

// Draw implements Canvas.
func (l *List) Draw(d Drawable) {
	l.Items = append(l.Items, d)
}

// Reset empties the list, keeping its storage.
func (l *List) Reset() {
	l.Items = l.Items[:0]
}

// Texts returns the content of every Text, in order.
func (l *List) Texts() []string {
	var out []string
	for _, d := range l.Items {
		if t, ok := d.(Text); ok {
			out = append(out, t.Content)
		}
	}
	return out
}

// Discard is a Canvas that drops everything.
var Discard Canvas = discard{}

type discard struct{}

func (discard) Draw(Drawable) {}

// Formatter formats numbers for display in a given language.
type Formatter struct {
	printer *message.Printer
}

// NewFormatter creates a Formatter for a BCP 47 language tag.
// An invalid tag falls back to English.
func NewFormatter(tag string) *Formatter {
	t, err := language.Parse(tag)
	if err != nil {
		t = language.English
	}
	return &Formatter{printer: message.NewPrinter(t)}
}

// Number formats n with grouping separators and at most two decimals.
func (f *Formatter) Number(n float64) string {
	return f.printer.Sprint(number.Decimal(n, number.MaxFractionDigits(2)))
}

// DamageText returns the text of a damage descriptor.
func (f *Formatter) DamageText(d Damage) string {
	if d.Miss {
		return "Miss"
	}
	s := f.Number(d.Amount)
	if d.Amount < 0 {
		s = "+" + f.Number(-d.Amount)
	}
	if d.Critical {
		s += "!"
	}
	return s
}
