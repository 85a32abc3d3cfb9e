package window

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/zurustar/paperrpg/pkg/hud"
	"golang.org/x/image/font/basicfont"
)

var (
	// テキスト色（白）
	textColor = color.White
	// 選択中のテキスト色（黄色）
	selectedTextColor = color.RGBA{0xFF, 0xFF, 0x00, 0xFF}
	// ウィンドウの背景色と枠の色
	windowColor      = color.RGBA{0x10, 0x20, 0x60, 0xE0}
	windowFrameColor = color.RGBA{0xC0, 0xC0, 0xC0, 0xFF}
	// ダメージの色（回復は緑、クリティカルは赤）
	damageColor   = color.White
	healColor     = color.RGBA{0x40, 0xFF, 0x40, 0xFF}
	criticalColor = color.RGBA{0xFF, 0x40, 0x40, 0xFF}
	// デフォルトフォント
	defaultFace = text.NewGoXFace(basicfont.Face7x13)
)

// ダメージ表示の配置
const (
	monsterDamageX, monsterDamageY = 80, 120
	monsterSpacing                 = 120
	heroDamageX, heroDamageY       = 560, 328
)

// Renderer は HUD の描画記述子を画面に描く
type Renderer struct {
	formatter *hud.Formatter
}

// NewRenderer は Renderer を作成する
func NewRenderer(f *hud.Formatter) *Renderer {
	if f == nil {
		f = hud.NewFormatter("en")
	}
	return &Renderer{formatter: f}
}

// Render は記述子を提出順に描く
func (r *Renderer) Render(screen *ebiten.Image, items []hud.Drawable) {
	for _, d := range items {
		switch d := d.(type) {
		case hud.Window:
			x, y, w, h := float32(d.X), float32(d.Y), float32(d.Width), float32(d.Height)
			vector.DrawFilledRect(screen, x, y, w, h, windowColor, false)
			vector.StrokeRect(screen, x, y, w, h, 1, windowFrameColor, false)
		case hud.Text:
			drawText(screen, d.Content, d.X, d.Y, textColorOf(d))
		case hud.Cursor:
			drawText(screen, ">", d.X, d.Y, selectedTextColor)
		case hud.Damage:
			x, y := DamagePosition(d)
			drawText(screen, r.formatter.DamageText(d), x, y, damageColorOf(d))
		}
	}
}

func drawText(screen *ebiten.Image, s string, x, y int, clr color.Color) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(float64(x), float64(y))
	op.ColorScale.ScaleWithColor(clr)
	op.LineSpacing = hud.LineHeight
	text.Draw(screen, s, defaultFace, op)
}

func textColorOf(t hud.Text) color.Color {
	if t.Highlighted {
		return selectedTextColor
	}
	return textColor
}

func damageColorOf(d hud.Damage) color.Color {
	switch {
	case d.Miss:
		return textColor
	case d.Critical:
		return criticalColor
	case d.Amount < 0:
		return healColor
	}
	return damageColor
}

// DamagePosition はダメージを表示する位置を返す
// モンスターは画面上部に横並び、ヒーローはステータス欄の各行に表示する
func DamagePosition(d hud.Damage) (int, int) {
	if d.Hero {
		return heroDamageX, heroDamageY + d.Target*hud.LineHeight
	}
	return monsterDamageX + d.Target*monsterSpacing, monsterDamageY
}
