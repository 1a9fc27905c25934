package ui

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

const (
	titleHeight   = 30.0
	sectionHeight = 25.0
	labelHeight   = 15.0
	margin        = 10.0
)

// Panel stacks widgets under section headers and scrolls them with the wheel.
type Panel struct {
	X, Y          float64
	Width, Height float64
	Title         string
	Visible       bool
	ScrollOffset  float64

	BGColor     color.RGBA
	BorderColor color.RGBA

	rows []row
}

// a row is either a section header or a widget
type row struct {
	section string
	widget  Widget
	y       float64 // top of the row, scroll applied
}

func NewPanel(x, y, width, height float64) *Panel {
	return &Panel{
		X:           x,
		Y:           y,
		Width:       width,
		Height:      height,
		Title:       "Configuration",
		Visible:     true,
		BGColor:     color.RGBA{R: 40, G: 40, B: 45, A: 230},
		BorderColor: color.RGBA{R: 100, G: 100, B: 110, A: 255},
	}
}

// AddSection starts a new titled group.
func (p *Panel) AddSection(title string) {
	p.rows = append(p.rows, row{section: title})
	p.layout()
}

func (p *Panel) AddSlider(label string, min, max, value float64) *Slider {
	s := NewSlider(0, 0, 0, label, min, max, value)
	p.add(s)
	return s
}

func (p *Panel) AddCheckbox(label string, value bool) *Checkbox {
	c := NewCheckbox(0, 0, label, value)
	p.add(c)
	return c
}

func (p *Panel) AddButton(label string, onClick func()) *Button {
	b := NewButton(0, 0, 0, label, onClick)
	p.add(b)
	return b
}

func (p *Panel) add(w Widget) {
	p.rows = append(p.rows, row{widget: w})
	p.layout()
}

// layout places every row from the current scroll offset.
func (p *Panel) layout() {
	y := p.Y + titleHeight - p.ScrollOffset
	for i := range p.rows {
		r := &p.rows[i]
		r.y = y
		if r.widget == nil {
			y += sectionHeight
			continue
		}
		top := y
		if r.widget.Caption() != "" {
			top += labelHeight
		}
		r.widget.Place(p.X+margin, top, p.Width-2*margin)
		y += r.widget.Height()
	}
}

func (p *Panel) contentHeight() float64 {
	h := titleHeight
	for _, r := range p.rows {
		if r.widget == nil {
			h += sectionHeight
		} else {
			h += r.widget.Height()
		}
	}
	return h
}

// Contains reports whether the point is over the visible panel.
func (p *Panel) Contains(x, y float64) bool {
	return p.Visible && x >= p.X && x <= p.X+p.Width && y >= p.Y && y <= p.Y+p.Height
}

// Scroll moves the content by dy wheel notches.
func (p *Panel) Scroll(dy float64) {
	if dy == 0 {
		return
	}
	p.ScrollOffset -= dy * 20
	maxScroll := max(0, p.contentHeight()-p.Height+40)
	p.ScrollOffset = max(0, min(maxScroll, p.ScrollOffset))
	p.layout()
}

// Update feeds the cursor to the visible widgets and reports whether any
// value changed.
func (p *Panel) Update(c Cursor) bool {
	if !p.Visible {
		return false
	}
	changed := false
	for _, r := range p.rows {
		if r.widget == nil || !p.rowVisible(r) {
			continue
		}
		if r.widget.Update(c) {
			changed = true
		}
	}
	return changed
}

func (p *Panel) rowVisible(r row) bool {
	return r.y >= p.Y && r.y <= p.Y+p.Height-sectionHeight
}

func (p *Panel) Draw(screen *ebiten.Image) {
	if !p.Visible {
		return
	}
	vector.FillRect(screen, float32(p.X), float32(p.Y), float32(p.Width), float32(p.Height), p.BGColor, true)
	vector.StrokeRect(screen, float32(p.X), float32(p.Y), float32(p.Width), float32(p.Height), 2, p.BorderColor, true)
	ebitenutil.DebugPrintAt(screen, p.Title, int(p.X+margin), int(p.Y+5))

	for _, r := range p.rows {
		if !p.rowVisible(r) {
			continue
		}
		if r.widget == nil {
			vector.FillRect(screen, float32(p.X+5), float32(r.y), float32(p.Width-10), 20,
				color.RGBA{R: 60, G: 60, B: 70, A: 255}, true)
			ebitenutil.DebugPrintAt(screen, r.section, int(p.X+margin), int(r.y+3))
			continue
		}
		if caption := r.widget.Caption(); caption != "" {
			ebitenutil.DebugPrintAt(screen, caption, int(p.X+margin), int(r.y))
		}
		r.widget.Draw(screen)
	}
}
