package camio

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// RenderConfig defines the look of a path preview.
type RenderConfig struct {
	Width      int        // Image width in pixels
	Height     int        // Image height in pixels
	Margin     int        // Empty border around the plot
	Background color.RGBA // Background color
	Foreground color.RGBA // Label color
	Path       color.RGBA // Camera path color
	Start      color.RGBA // First keyframe marker
	End        color.RGBA // Last keyframe marker
}

// DefaultRenderConfig returns a 640x480 dark preview.
func DefaultRenderConfig() RenderConfig {
	return RenderConfig{
		Width:      640,
		Height:     480,
		Margin:     24,
		Background: color.RGBA{16, 18, 22, 255},
		Foreground: color.RGBA{220, 220, 220, 255},
		Path:       color.RGBA{88, 166, 255, 255},
		Start:      color.RGBA{63, 185, 80, 255},
		End:        color.RGBA{248, 81, 73, 255},
	}
}

// PathRenderer draws a top-down view of a camera path: host X runs right,
// host Z (depth) runs up the image.
type PathRenderer struct {
	config     RenderConfig
	font       font.Face
	lineHeight int
}

// NewPathRenderer creates a renderer.
func NewPathRenderer(config RenderConfig) *PathRenderer {
	return &PathRenderer{
		config:     config,
		font:       basicfont.Face7x13,
		lineHeight: 16,
	}
}

// plotArea is the rectangle keyframes are scaled into, above the label row.
func (pr *PathRenderer) plotArea() image.Rectangle {
	m := pr.config.Margin
	return image.Rect(m, m, pr.config.Width-m, pr.config.Height-m-pr.lineHeight)
}

// projection maps host ground-plane coordinates into the plot area with a
// uniform scale so the path keeps its shape.
type projection struct {
	minX, minZ float64
	scale      float64
	offX, offY float64
	area       image.Rectangle
}

func (pr *PathRenderer) project(frames []OutputFrame) projection {
	area := pr.plotArea()
	p := projection{area: area, scale: 1}
	if len(frames) == 0 {
		return p
	}

	minX, maxX := math.Inf(1), math.Inf(-1)
	minZ, maxZ := math.Inf(1), math.Inf(-1)
	for _, f := range frames {
		minX = math.Min(minX, f.Position.X)
		maxX = math.Max(maxX, f.Position.X)
		minZ = math.Min(minZ, f.Position.Z)
		maxZ = math.Max(maxZ, f.Position.Z)
	}

	spanX, spanZ := maxX-minX, maxZ-minZ
	w, h := float64(area.Dx()), float64(area.Dy())
	switch {
	case spanX == 0 && spanZ == 0:
		p.scale = 1
	case spanX == 0:
		p.scale = h / spanZ
	case spanZ == 0:
		p.scale = w / spanX
	default:
		p.scale = math.Min(w/spanX, h/spanZ)
	}

	p.minX, p.minZ = minX, minZ
	p.offX = (w - spanX*p.scale) / 2
	p.offY = (h - spanZ*p.scale) / 2
	return p
}

func (p projection) point(f OutputFrame) image.Point {
	x := float64(p.area.Min.X) + p.offX + (f.Position.X-p.minX)*p.scale
	y := float64(p.area.Max.Y) - p.offY - (f.Position.Z-p.minZ)*p.scale
	return image.Pt(int(math.Round(x)), int(math.Round(y)))
}

// Render draws the path of frames.
func (pr *PathRenderer) Render(frames []OutputFrame) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, pr.config.Width, pr.config.Height))

	for y := 0; y < pr.config.Height; y++ {
		for x := 0; x < pr.config.Width; x++ {
			img.SetRGBA(x, y, pr.config.Background)
		}
	}

	if len(frames) == 0 {
		pr.drawLabel(img, "no keyframes")
		return img
	}

	p := pr.project(frames)
	prev := p.point(frames[0])
	for _, f := range frames[1:] {
		next := p.point(f)
		drawLine(img, prev, next, pr.config.Path)
		prev = next
	}

	drawMarker(img, p.point(frames[0]), pr.config.Start)
	drawMarker(img, p.point(frames[len(frames)-1]), pr.config.End)

	last := frames[len(frames)-1]
	pr.drawLabel(img, fmt.Sprintf("%d keyframes  %.2fs - %.2fs", len(frames), frames[0].Time, last.Time))
	return img
}

// drawLabel writes text along the bottom margin.
func (pr *PathRenderer) drawLabel(img *image.RGBA, text string) {
	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(pr.config.Foreground),
		Face: pr.font,
		Dot: fixed.Point26_6{
			X: fixed.I(pr.config.Margin),
			Y: fixed.I(pr.config.Height - pr.config.Margin/2),
		},
	}
	drawer.DrawString(text)
}

// drawLine plots a segment with Bresenham's algorithm.
func drawLine(img *image.RGBA, a, b image.Point, c color.RGBA) {
	dx := abs(b.X - a.X)
	dy := -abs(b.Y - a.Y)
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}

	err := dx + dy
	x, y := a.X, a.Y
	for {
		img.SetRGBA(x, y, c)
		if x == b.X && y == b.Y {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x += sx
		}
		if e2 <= dx {
			err += dx
			y += sy
		}
	}
}

// drawMarker fills a 7x7 square centred on pt.
func drawMarker(img *image.RGBA, pt image.Point, c color.RGBA) {
	for y := pt.Y - 3; y <= pt.Y+3; y++ {
		for x := pt.X - 3; x <= pt.X+3; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Encode renders frames and writes them as PNG.
func (pr *PathRenderer) Encode(w io.Writer, frames []OutputFrame) error {
	return png.Encode(w, pr.Render(frames))
}

// CaptureFrame renders frames to a PNG file, creating its directory.
func (pr *PathRenderer) CaptureFrame(filename string, frames []OutputFrame) error {
	if dir := filepath.Dir(filename); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create preview directory: %w", err)
		}
	}

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return pr.Encode(file, frames)
}
