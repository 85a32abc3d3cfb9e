package reaction

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/zurustar/paperrpg/pkg/hud"
	"github.com/zurustar/paperrpg/pkg/system"
	"github.com/zurustar/paperrpg/pkg/value"
)

// Message box layout.
const (
	messageX      = 8
	messageHeight = 5 * hud.LineHeight
	messageY      = hud.ScreenHeight - messageHeight - 8
	messageWidth  = hud.ScreenWidth - 2*messageX
	choiceWidth   = 200
)

var variablePattern = regexp.MustCompile(`\\v\[(\d+)\]`)

// interpolate replaces \v[n] with the value of variable n.
func interpolate(c *Cursor, s string) string {
	env := c.Env()
	return variablePattern.ReplaceAllStringFunc(s, func(m string) string {
		id, err := strconv.Atoi(variablePattern.FindStringSubmatch(m)[1])
		if err != nil {
			return m
		}
		switch v := value.VariableOf(id).Evaluate(env).(type) {
		case float64:
			return c.Context().Formatter.Number(v)
		case string:
			return v
		case bool:
			return strconv.FormatBool(v)
		}
		return ""
	})
}

type showTextParams struct {
	interlocutor value.Value
	message      value.Value
}

// decodeShowText reads [interlocutor, message].
func decodeShowText(r *value.Reader) (any, error) {
	return &showTextParams{interlocutor: r.Value(), message: r.Value()}, nil
}

type showTextState struct {
	done bool
}

func initShowText(*Cursor, *Command) State { return &showTextState{} }

func updateShowText(_ *Cursor, _ *Command, st State) Signal {
	if st.(*showTextState).done {
		return AdvanceOne
	}
	return Continue
}

func keyPressedShowText(_ *Cursor, _ *Command, st State, key int) {
	if key == system.KeyAction {
		st.(*showTextState).done = true
	}
}

func drawShowText(c *Cursor, cmd *Command, _ State, canvas hud.Canvas) {
	p := cmd.Params.(*showTextParams)
	env := c.Env()
	canvas.Draw(hud.Window{X: messageX, Y: messageY, Width: messageWidth, Height: messageHeight})
	y := messageY + 4
	if name := p.interlocutor.Text(env); p.interlocutor.Kind() > value.Default && name != "" {
		canvas.Draw(hud.Text{X: messageX + 8, Y: y, Content: interpolate(c, name), Highlighted: true})
		y += hud.LineHeight
	}
	for _, line := range strings.Split(interpolate(c, p.message.Text(env)), "\n") {
		canvas.Draw(hud.Text{X: messageX + 8, Y: y, Content: line})
		y += hud.LineHeight
	}
}

// DisplayChoice shows the texts of its Choice children and runs the body of
// the selected one.

type displayChoiceParams struct {
	// cancelIndex is the 1-based choice picked by the cancel key, 0 when the
	// menu cannot be cancelled.
	cancelIndex int
}

func decodeDisplayChoice(r *value.Reader) (any, error) {
	return &displayChoiceParams{cancelIndex: r.Int()}, nil
}

type choiceParams struct {
	text value.Value
}

func decodeChoice(r *value.Reader) (any, error) {
	return &choiceParams{text: r.Value()}, nil
}

type displayChoiceState struct {
	choices  []int
	selected int
	chosen   int
	done     bool
}

func initDisplayChoice(c *Cursor, _ *Command) State {
	return &displayChoiceState{choices: c.Children(), chosen: -1}
}

func updateDisplayChoice(c *Cursor, _ *Command, st State) Signal {
	s := st.(*displayChoiceState)
	if s.done {
		return c.JumpTo(c.End())
	}
	if s.chosen < 0 {
		return Continue
	}
	s.done = true
	if s.chosen >= len(s.choices) {
		return c.JumpTo(c.End())
	}
	return c.JumpTo(s.choices[s.chosen])
}

func keyPressedDisplayChoice(_ *Cursor, cmd *Command, st State, key int) {
	s := st.(*displayChoiceState)
	if s.chosen >= 0 {
		return
	}
	switch key {
	case system.KeyAction:
		s.chosen = s.selected
	case system.KeyCancel:
		if n := cmd.Params.(*displayChoiceParams).cancelIndex; n > 0 && n <= len(s.choices) {
			s.chosen = n - 1
		}
	}
}

func keyPressedAndRepeatDisplayChoice(_ *Cursor, _ *Command, st State, key int) bool {
	s := st.(*displayChoiceState)
	n := len(s.choices)
	if n == 0 || s.chosen >= 0 {
		return true
	}
	switch key {
	case system.KeyUp:
		s.selected = (s.selected + n - 1) % n
	case system.KeyDown:
		s.selected = (s.selected + 1) % n
	}
	return true
}

func drawDisplayChoice(c *Cursor, _ *Command, st State, canvas hud.Canvas) {
	s := st.(*displayChoiceState)
	env := c.Env()
	r := c.Reaction()
	h := len(s.choices)*hud.LineHeight + 8
	x, y := hud.ScreenWidth-choiceWidth-messageX, messageY-h-4
	canvas.Draw(hud.Window{X: x, Y: y, Width: choiceWidth, Height: h})
	for i, idx := range s.choices {
		text := r.Node(idx).Command.Params.(*choiceParams).text.Text(env)
		ly := y + 4 + i*hud.LineHeight
		if i == s.selected {
			canvas.Draw(hud.Cursor{X: x + 4, Y: ly})
		}
		canvas.Draw(hud.Text{X: x + 16, Y: ly, Content: interpolate(c, text), Highlighted: i == s.selected})
	}
}

// InputNumber lets the player enter a number digit by digit and stores it in
// a variable.

type inputNumberParams struct {
	variableID int
	digits     int
}

// decodeInputNumber reads [variable id, digits].
func decodeInputNumber(r *value.Reader) (any, error) {
	p := &inputNumberParams{variableID: r.Int(), digits: r.Int()}
	if p.digits <= 0 {
		p.digits = 1
	}
	return p, nil
}

type inputNumberState struct {
	digits []int
	pos    int
	done   bool
}

func (s *inputNumberState) number() float64 {
	n := 0
	for _, d := range s.digits {
		n = n*10 + d
	}
	return float64(n)
}

func initInputNumber(_ *Cursor, cmd *Command) State {
	p := cmd.Params.(*inputNumberParams)
	return &inputNumberState{digits: make([]int, p.digits)}
}

func updateInputNumber(_ *Cursor, _ *Command, st State) Signal {
	if st.(*inputNumberState).done {
		return AdvanceOne
	}
	return Continue
}

func keyPressedInputNumber(c *Cursor, cmd *Command, st State, key int) {
	s := st.(*inputNumberState)
	if s.done || key != system.KeyAction {
		return
	}
	s.done = true
	if state := c.Context().State; state != nil {
		state.Variables.Set(cmd.Params.(*inputNumberParams).variableID, s.number())
	}
}

func keyPressedAndRepeatInputNumber(_ *Cursor, _ *Command, st State, key int) bool {
	s := st.(*inputNumberState)
	if s.done {
		return true
	}
	n := len(s.digits)
	switch key {
	case system.KeyLeft:
		s.pos = (s.pos + n - 1) % n
	case system.KeyRight:
		s.pos = (s.pos + 1) % n
	case system.KeyUp:
		s.digits[s.pos] = (s.digits[s.pos] + 1) % 10
	case system.KeyDown:
		s.digits[s.pos] = (s.digits[s.pos] + 9) % 10
	}
	return true
}

func drawInputNumber(_ *Cursor, _ *Command, st State, canvas hud.Canvas) {
	s := st.(*inputNumberState)
	w := len(s.digits)*hud.LineHeight + 16
	x := (hud.ScreenWidth - w) / 2
	canvas.Draw(hud.Window{X: x, Y: messageY, Width: w, Height: hud.LineHeight + 8})
	for i, d := range s.digits {
		canvas.Draw(hud.Text{X: x + 8 + i*hud.LineHeight, Y: messageY + 4, Content: strconv.Itoa(d), Highlighted: i == s.pos})
	}
}
