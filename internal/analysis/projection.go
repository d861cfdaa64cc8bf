package analysis

import (
	"fmt"
	"strings"

	"github.com/san-kum/hardsphere/internal/dynamo"
	"github.com/san-kum/hardsphere/internal/trace"
)

// ProjectionToASCII draws the particles of f projected onto axes ax and ay
// inside the enclosure walls. Cells holding several particles are drawn as
// '●', single particles as '•'.
func ProjectionToASCII(f *trace.Frame, walls dynamo.Walls, ax, ay, width, height int) (string, error) {
	if ax < 0 || ax > 2 || ay < 0 || ay > 2 || ax == ay {
		return "", fmt.Errorf("invalid projection axes %d, %d", ax, ay)
	}
	if width < 3 || height < 3 {
		return "", fmt.Errorf("canvas too small: %dx%d", width, height)
	}

	minX, maxX := walls[ax][0], walls[ax][1]
	minY, maxY := walls[ay][0], walls[ay][1]
	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX <= 0 || rangeY <= 0 {
		return "", fmt.Errorf("%w: empty enclosure", dynamo.ErrInvalidConfig)
	}

	// inner area excludes the border
	iw, ih := width-2, height-2
	hits := make([][]int, ih)
	for i := range hits {
		hits[i] = make([]int, iw)
	}

	for _, p := range f.Pos {
		col := int((p[ax] - minX) / rangeX * float64(iw-1))
		row := ih - 1 - int((p[ay]-minY)/rangeY*float64(ih-1))
		if row >= 0 && row < ih && col >= 0 && col < iw {
			hits[row][col]++
		}
	}

	var sb strings.Builder
	sb.WriteString("┌" + strings.Repeat("─", iw) + "┐\n")
	for _, row := range hits {
		sb.WriteRune('│')
		for _, n := range row {
			switch {
			case n == 0:
				sb.WriteRune(' ')
			case n == 1:
				sb.WriteRune('•')
			default:
				sb.WriteRune('●')
			}
		}
		sb.WriteString("│\n")
	}
	sb.WriteString("└" + strings.Repeat("─", iw) + "┘\n")
	return sb.String(), nil
}

// AxisIndex maps "x", "y" or "z" to 0, 1 or 2.
func AxisIndex(name string) (int, error) {
	switch strings.ToLower(name) {
	case "x":
		return 0, nil
	case "y":
		return 1, nil
	case "z":
		return 2, nil
	}
	return 0, fmt.Errorf("unknown axis %q", name)
}
