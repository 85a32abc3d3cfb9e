package battle

import (
	"fmt"

	"github.com/zurustar/paperrpg/pkg/hud"
	"github.com/zurustar/paperrpg/pkg/reaction"
	"github.com/zurustar/paperrpg/pkg/system"
)

// HUD layout.
const (
	infoX, infoY          = 120, 8
	infoWidth, infoHeight = 400, 32
	menuX, menuY          = 8, 320
	menuWidth             = 180
	statusX, statusY      = 200, 320
	statusWidth           = 432
	padding               = 8
)

// OnKeyPressed handles a key press.
func (b *Battle) OnKeyPressed(key int) {
	if b.finished {
		return
	}
	switch b.step {
	case StepIntro:
		if key == system.KeyAction {
			b.startHeroTurn()
		}
	case StepHeroSelection:
		b.onKeyPressedStep1(key)
	case StepEffects:
		if b.running != nil {
			b.running.OnKeyPressed(key)
		}
	case StepVictory:
		if key == system.KeyAction {
			b.finish(reaction.OutcomeWin)
		}
	}
}

// OnKeyReleased handles a key release.
func (b *Battle) OnKeyReleased(key int) {
	if b.running != nil {
		b.running.OnKeyReleased(key)
	}
}

// OnKeyPressedRepeat handles a held key.
func (b *Battle) OnKeyPressedRepeat(key int) bool {
	if b.running != nil {
		return b.running.OnKeyPressedRepeat(key)
	}
	return true
}

// OnKeyPressedAndRepeat handles a debounced repeat.
func (b *Battle) OnKeyPressedAndRepeat(key int) bool {
	if b.running != nil {
		return b.running.OnKeyPressedAndRepeat(key)
	}
	if b.step == StepHeroSelection {
		b.onKeyPressedAndRepeatStep1(key)
	}
	return true
}

// DrawHUD submits the drawables of the battle.
func (b *Battle) DrawHUD(canvas hud.Canvas) {
	b.drawStatus(canvas)
	switch b.step {
	case StepIntro:
		b.drawInformation(canvas, "Monsters appear!")
	case StepHeroSelection:
		if b.information != "" {
			b.drawInformation(canvas, b.information)
		}
		b.drawMenu(canvas)
	case StepEffects:
		b.drawInformation(canvas, b.information)
		if b.running != nil {
			b.running.DrawHUD(canvas)
			return
		}
		if !b.user.attacking {
			for _, d := range b.damages {
				canvas.Draw(d)
			}
		}
	case StepVictory:
		b.drawInformation(canvas, fmt.Sprintf("Victory! %s experience", b.ctx.Formatter.Number(float64(b.experience))))
	}
}

func (b *Battle) drawInformation(canvas hud.Canvas, text string) {
	canvas.Draw(hud.Window{X: infoX, Y: infoY, Width: infoWidth, Height: infoHeight})
	canvas.Draw(hud.Text{X: infoX + padding, Y: infoY + padding, Content: text})
}

func (b *Battle) drawStatus(canvas hud.Canvas) {
	canvas.Draw(hud.Window{X: statusX, Y: statusY, Width: statusWidth, Height: len(b.heroes)*hud.LineHeight + 2*padding})
	for i, h := range b.heroes {
		line := h.Player.Name
		for _, s := range b.bs.Statistics {
			if s.IsFix {
				continue
			}
			line += fmt.Sprintf("  %s %s/%s", s.Abbreviation,
				b.ctx.Formatter.Number(h.Player.StatOrZero(s.Abbreviation)),
				b.ctx.Formatter.Number(h.Player.StatOrZero(s.MaxAbbreviation())))
		}
		canvas.Draw(hud.Text{
			X:           statusX + padding,
			Y:           statusY + padding + i*hud.LineHeight,
			Content:     line,
			Highlighted: h.selected,
		})
	}
}

func (b *Battle) drawMenu(canvas hud.Canvas) {
	var entries []string
	switch b.subStep {
	case SelectUser, SelectTarget:
		for _, bt := range b.candidates() {
			entries = append(entries, bt.Player.Name)
		}
	case SelectCommand:
		for _, c := range b.commands {
			entries = append(entries, c.Name)
		}
	case SelectChoice:
		for _, c := range b.choices() {
			entries = append(entries, c.name)
		}
	}
	if len(entries) == 0 {
		return
	}
	canvas.Draw(hud.Window{X: menuX, Y: menuY, Width: menuWidth, Height: len(entries)*hud.LineHeight + 2*padding})
	canvas.Draw(hud.Cursor{X: menuX + padding, Y: menuY + padding + b.menu.index*hud.LineHeight})
	for i, e := range entries {
		canvas.Draw(hud.Text{X: menuX + 2*padding, Y: menuY + padding + i*hud.LineHeight, Content: e})
	}
}
