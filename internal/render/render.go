// Package render draws round snapshots to images for spectators and debugging.
package render

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"strings"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"

	"cell-arena/internal/game"
)

const (
	gridSpacing     = 50
	invisibleAlpha  = 77 // ~30% opacity
	maxOutputPixels = 4096
)

var (
	backgroundColor = color.RGBA{12, 12, 28, 255}
	gridColor       = color.RGBA{30, 30, 45, 255}
	hudColor        = color.RGBA{240, 240, 240, 255}
	bannerShade     = color.RGBA{0, 0, 0, 160}
)

// Options controls output size
type Options struct {
	Scale float64 // 1 = one pixel per arena unit
}

// Frame draws the snapshot into a new image
func Frame(snap *game.RoundSnapshot, opts Options) (image.Image, error) {
	dc, err := draw(snap, opts)
	if err != nil {
		return nil, err
	}
	return dc.Image(), nil
}

// PNG draws the snapshot and writes it as PNG
func PNG(w io.Writer, snap *game.RoundSnapshot, opts Options) error {
	dc, err := draw(snap, opts)
	if err != nil {
		return err
	}
	return dc.EncodePNG(w)
}

func draw(snap *game.RoundSnapshot, opts Options) (*gg.Context, error) {
	if snap == nil {
		return nil, fmt.Errorf("render: no snapshot")
	}
	scale := opts.Scale
	if scale <= 0 {
		scale = 1
	}
	width, height := int(snap.Width*scale), int(snap.Height*scale)
	if width <= 0 || height <= 0 || width > maxOutputPixels || height > maxOutputPixels {
		return nil, fmt.Errorf("render: output %dx%d out of range", width, height)
	}

	dc := gg.NewContext(width, height)
	dc.SetColor(backgroundColor)
	dc.Clear()

	dc.Push()
	dc.Scale(scale, scale)
	drawGrid(dc, snap.Width, snap.Height)
	for _, f := range snap.Foods {
		dc.SetColor(parseHexColor(f.Color, 255))
		dc.DrawCircle(f.X, f.Y, f.Size/2)
		dc.Fill()
	}
	for _, e := range snap.Enemies {
		drawEnemy(dc, e)
	}
	drawPlayer(dc, snap.Player)
	dc.Pop()

	dc.SetFontFace(basicfont.Face7x13)
	drawHUD(dc, snap)
	return dc, nil
}

func drawGrid(dc *gg.Context, w, h float64) {
	dc.SetColor(gridColor)
	dc.SetLineWidth(1)
	for x := 0.0; x <= w; x += gridSpacing {
		dc.DrawLine(x, 0, x, h)
	}
	for y := 0.0; y <= h; y += gridSpacing {
		dc.DrawLine(0, y, w, y)
	}
	dc.Stroke()
}

func drawEnemy(dc *gg.Context, e game.EnemySnapshot) {
	radius := e.Size / 2
	dc.SetColor(parseHexColor(e.Color, 255))
	dc.DrawCircle(e.X, e.Y, radius)
	dc.Fill()

	dc.SetColor(color.RGBA{255, 255, 255, 120})
	dc.SetLineWidth(2)
	dc.DrawCircle(e.X, e.Y, radius)
	dc.Stroke()

	if radius >= 8 && e.Role != "" {
		dc.SetFontFace(basicfont.Face7x13)
		dc.SetColor(color.White)
		dc.DrawStringAnchored(strings.ToUpper(e.Role[:1]), e.X, e.Y, 0.5, 0.35)
	}
}

func drawPlayer(dc *gg.Context, p game.PlayerSnapshot) {
	alpha := uint8(255)
	if p.Invisible {
		alpha = invisibleAlpha
	}
	radius := p.Size / 2

	dc.SetColor(parseHexColor(p.Color, alpha))
	dc.DrawCircle(p.X, p.Y, radius)
	dc.Fill()

	dc.SetColor(color.NRGBA{255, 255, 255, alpha})
	dc.SetLineWidth(3)
	dc.DrawCircle(p.X, p.Y, radius+1.5)
	dc.Stroke()
}

func drawHUD(dc *gg.Context, snap *game.RoundSnapshot) {
	lines := []string{
		fmt.Sprintf("Score: %d", snap.Score),
		fmt.Sprintf("Mass: %.0f  Size: %.0f", snap.Player.Mass, snap.Player.Size),
		fmt.Sprintf("Food: %d  Enemies: %d", snap.FoodEaten, snap.EnemiesDefeated),
	}
	if snap.Timed {
		secs := int(snap.TimeRemainingMs / 1000)
		lines = append(lines, fmt.Sprintf("Time: %d:%02d", secs/60, secs%60))
	}

	dc.SetColor(hudColor)
	for i, line := range lines {
		dc.DrawString(line, 8, float64(16+i*15))
	}

	var banner string
	switch snap.Phase {
	case "paused":
		banner = "PAUSED"
	case "ended":
		banner = fmt.Sprintf("ROUND OVER (%s)  SCORE %d", snap.EndReason, snap.Score)
	default:
		return
	}
	w, h := float64(dc.Width()), float64(dc.Height())
	dc.SetColor(bannerShade)
	dc.DrawRectangle(0, h/2-20, w, 40)
	dc.Fill()
	dc.SetColor(hudColor)
	dc.DrawStringAnchored(banner, w/2, h/2, 0.5, 0.35)
}

// parseHexColor converts "#RRGGBB" with the given alpha; bad input draws white
func parseHexColor(hex string, alpha uint8) color.NRGBA {
	if len(hex) != 7 || hex[0] != '#' {
		return color.NRGBA{255, 255, 255, alpha}
	}
	return color.NRGBA{
		R: hexByte(hex[1], hex[2]),
		G: hexByte(hex[3], hex[4]),
		B: hexByte(hex[5], hex[6]),
		A: alpha,
	}
}

func hexByte(h1, h2 byte) uint8 {
	return nibble(h1)<<4 | nibble(h2)
}

func nibble(c byte) uint8 {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	default:
		return 0
	}
}
