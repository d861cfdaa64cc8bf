// Package export renders frames and series as standalone SVG documents.
package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/hardsphere/internal/dynamo"
	"github.com/san-kum/hardsphere/internal/trace"
	"github.com/san-kum/hardsphere/internal/viz"
)

const background = "#0a0a0a"

func header(sb *strings.Builder, width, height float64) {
	fmt.Fprintf(sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, background)
}

// CanvasToSVG converts a Braille canvas to SVG, one circle per lit dot.
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}

	var sb strings.Builder
	header(&sb, float64(canvas.SubWidth())*scale, float64(canvas.SubHeight())*scale)
	sb.WriteString(`<g fill="#00ff00">` + "\n")

	pixelMap := [4][2]int{
		{0x01, 0x08},
		{0x02, 0x10},
		{0x04, 0x20},
		{0x40, 0x80},
	}
	dotRadius := scale * 0.4

	for row := 0; row < canvas.Height; row++ {
		for col := 0; col < canvas.Width; col++ {
			r := canvas.Grid[row][col]
			if r < 0x2800 {
				continue
			}
			pattern := int(r - 0x2800)
			baseX := float64(col) * scale * 2
			baseY := float64(row) * scale * 4

			for dy := 0; dy < 4; dy++ {
				for dx := 0; dx < 2; dx++ {
					if pattern&pixelMap[dy][dx] != 0 {
						cx := baseX + float64(dx)*scale + scale/2
						cy := baseY + float64(dy)*scale + scale/2
						fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="%.1f"/>`+"\n", cx, cy, dotRadius)
					}
				}
			}
		}
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// FrameToSVG draws the particles of f projected onto axes ax and ay at
// their true radii, colored by speed from blue (slow) to red (fast).
func FrameToSVG(f *trace.Frame, walls dynamo.Walls, ax, ay, size int) (string, error) {
	if f == nil {
		return "", fmt.Errorf("no frame")
	}
	if ax < 0 || ax > 2 || ay < 0 || ay > 2 || ax == ay {
		return "", fmt.Errorf("invalid projection axes %d, %d", ax, ay)
	}
	spanX := walls[ax][1] - walls[ax][0]
	spanY := walls[ay][1] - walls[ay][0]
	if !(spanX > 0) || !(spanY > 0) {
		return "", fmt.Errorf("%w: empty enclosure", dynamo.ErrInvalidConfig)
	}

	scale := float64(size) / math.Max(spanX, spanY)
	width, height := spanX*scale, spanY*scale

	speeds := f.Speeds()
	maxSpeed := 0.0
	for _, s := range speeds {
		maxSpeed = math.Max(maxSpeed, s)
	}

	var sb strings.Builder
	header(&sb, width, height)
	fmt.Fprintf(&sb, `<rect width="%.1f" height="%.1f" fill="none" stroke="#444466" stroke-width="2"/>`+"\n", width, height)
	fmt.Fprintf(&sb, `<text x="6" y="16" fill="#888899" font-family="monospace" font-size="12">t=%.6g n=%d</text>`+"\n", f.Time, f.Len())
	sb.WriteString(`<g fill-opacity="0.85">` + "\n")
	for i, p := range f.Pos {
		cx := (p[ax] - walls[ax][0]) * scale
		cy := height - (p[ay]-walls[ay][0])*scale
		r := math.Max(0.5, f.Radius[i]*scale)
		fmt.Fprintf(&sb, `<circle cx="%.2f" cy="%.2f" r="%.2f" fill="%s"/>`+"\n", cx, cy, r, speedColor(speeds[i], maxSpeed))
	}
	sb.WriteString("</g>\n</svg>")
	return sb.String(), nil
}

func speedColor(speed, max float64) string {
	t := 0.0
	if max > 0 {
		t = speed / max
	}
	r := int(40 + t*215)
	b := int(255 - t*215)
	return fmt.Sprintf("#%02x%02x%02x", r, 80, b)
}

// SeriesToSVG plots values against times as a polyline.
func SeriesToSVG(times, values []float64, width, height int, strokeColor string) string {
	if len(times) < 2 || len(times) != len(values) {
		return ""
	}

	minX, maxX := times[0], times[len(times)-1]
	minY, maxY := values[0], values[0]
	for _, v := range values {
		minY = math.Min(minY, v)
		maxY = math.Max(maxY, v)
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minY -= rangeY * 0.1
	rangeY *= 1.2

	var sb strings.Builder
	header(&sb, float64(width), float64(height))
	fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="M`, strokeColor)
	for i := range times {
		x := (times[i] - minX) / rangeX * float64(width)
		y := float64(height) - (values[i]-minY)/rangeY*float64(height)
		if i == 0 {
			fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
		}
	}
	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}
