package export

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/san-kum/deformsim/internal/analysis"
)

// SeriesPath pairs a sampled series with its sample times for plotting.
func SeriesPath(times, values []float64, label string) *analysis.Path2D {
	n := min(len(times), len(values))
	path := &analysis.Path2D{XLabel: "t", YLabel: label, Points: make([]analysis.Point, n)}
	for i := 0; i < n; i++ {
		path.Points[i] = analysis.Point{X: times[i], Y: values[i]}
	}
	return path
}

// PathToSVG writes the path as a polyline on a dark background, scaled to
// fill width x height with a 10% margin.
func PathToSVG(w io.Writer, path *analysis.Path2D, width, height int, strokeColor string) error {
	if path == nil || len(path.Points) < 2 {
		return fmt.Errorf("svg: need at least two points")
	}

	points := path.Points
	minX, maxX := points[0].X, points[0].X
	minY, maxY := points[0].Y, points[0].Y
	for _, p := range points {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	minY -= rangeY * 0.1
	rangeX *= 1.2
	rangeY *= 1.2

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, strokeColor)

	for i, p := range points {
		x := (p.X - minX) / rangeX * float64(width)
		y := float64(height) - (p.Y-minY)/rangeY*float64(height)
		if i == 0 {
			fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
		}
	}
	sb.WriteString("\"/>\n")

	fmt.Fprintf(&sb, `<g fill="#888888" font-family="monospace" font-size="12">
<text x="%d" y="%d" text-anchor="end">%s</text>
<text x="6" y="16">%s</text>
</g>
</svg>
`, width-6, height-6, escape(path.XLabel), escape(path.YLabel))

	_, err := io.WriteString(w, sb.String())
	return err
}

var escaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

func escape(s string) string { return escaper.Replace(s) }
