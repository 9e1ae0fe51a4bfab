package analysis

import (
	"math"
	"strings"
)

// NodeSeries extracts one translational component of a node from recorded
// states.
func NodeSeries(states [][]float64, node, dofPerNode, axis int) []float64 {
	i := node*dofPerNode + axis
	series := make([]float64, 0, len(states))
	for _, s := range states {
		if i < len(s) {
			series = append(series, s[i])
		}
	}
	return series
}

// DisplacementSeries is, per sample, the largest node translation away
// from the first sample.
func DisplacementSeries(states [][]float64, dofPerNode int) []float64 {
	if len(states) == 0 {
		return nil
	}
	rest := states[0]
	series := make([]float64, len(states))
	for k, s := range states {
		largest := 0.0
		for base := 0; base+2 < len(s); base += dofPerNode {
			dx, dy, dz := s[base]-rest[base], s[base+1]-rest[base+1], s[base+2]-rest[base+2]
			largest = math.Max(largest, math.Sqrt(dx*dx+dy*dy+dz*dz))
		}
		series[k] = largest
	}
	return series
}

type Point struct{ X, Y float64 }

// Path2D is a sequence of points, such as a node projected on two axes.
type Path2D struct {
	XLabel, YLabel string
	Points         []Point
}

var axisNames = [3]string{"x", "y", "z"}

// NodePath projects the trajectory of a node on two of its axes.
func NodePath(states [][]float64, node, dofPerNode, xAxis, yAxis int) *Path2D {
	if xAxis < 0 || xAxis > 2 || yAxis < 0 || yAxis > 2 {
		return nil
	}
	xs := NodeSeries(states, node, dofPerNode, xAxis)
	ys := NodeSeries(states, node, dofPerNode, yAxis)
	path := &Path2D{XLabel: axisNames[xAxis], YLabel: axisNames[yAxis], Points: make([]Point, len(xs))}
	for i := range xs {
		path.Points[i] = Point{xs[i], ys[i]}
	}
	return path
}

func PathToASCII(path *Path2D, width, height int) string {
	if path == nil || len(path.Points) == 0 || width < 2 || height < 2 {
		return ""
	}

	minX, maxX := path.Points[0].X, path.Points[0].X
	minY, maxY := path.Points[0].Y, path.Points[0].Y
	for _, p := range path.Points {
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
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = make([]rune, width)
		for j := range canvas[i] {
			canvas[i][j] = ' '
		}
	}

	for _, p := range path.Points {
		col := int((p.X - minX) / rangeX * float64(width-1))
		row := height - 1 - int((p.Y-minY)/rangeY*float64(height-1))
		if row >= 0 && row < height && col >= 0 && col < width {
			canvas[row][col] = '•'
		}
	}

	// Axes, where they cross the visible area.
	if minX <= 0 && maxX >= 0 {
		col := int((0 - minX) / rangeX * float64(width-1))
		for row := 0; row < height; row++ {
			if canvas[row][col] == ' ' {
				canvas[row][col] = '│'
			}
		}
	}
	if minY <= 0 && maxY >= 0 {
		row := height - 1 - int((0-minY)/rangeY*float64(height-1))
		for col := 0; col < width; col++ {
			if canvas[row][col] == ' ' {
				canvas[row][col] = '─'
			}
		}
	}

	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}
