package export

import (
	"strings"
	"testing"

	"github.com/san-kum/deformsim/internal/analysis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeriesPath(t *testing.T) {
	path := SeriesPath([]float64{0, 0.1, 0.2}, []float64{1, 2}, "disp")
	require.Len(t, path.Points, 2)
	assert.Equal(t, analysis.Point{X: 0.1, Y: 2}, path.Points[1])
	assert.Equal(t, "t", path.XLabel)
	assert.Equal(t, "disp", path.YLabel)
}

func TestPathToSVG(t *testing.T) {
	path := SeriesPath([]float64{0, 1, 2}, []float64{0, 1, 0}, "a<b")
	var sb strings.Builder
	require.NoError(t, PathToSVG(&sb, path, 200, 100, "#00ff00"))

	svg := sb.String()
	assert.True(t, strings.HasPrefix(svg, "<?xml"))
	assert.Contains(t, svg, `width="200" height="100"`)
	assert.Contains(t, svg, `stroke="#00ff00"`)
	assert.Equal(t, 2, strings.Count(svg, " L"))
	assert.Contains(t, svg, "a&lt;b")
	assert.True(t, strings.HasSuffix(svg, "</svg>\n"))
}

func TestPathToSVGFlat(t *testing.T) {
	path := SeriesPath([]float64{0, 1}, []float64{3, 3}, "flat")
	var sb strings.Builder
	require.NoError(t, PathToSVG(&sb, path, 100, 100, "white"))
	assert.NotContains(t, sb.String(), "NaN")
}

func TestPathToSVGTooShort(t *testing.T) {
	var sb strings.Builder
	assert.Error(t, PathToSVG(&sb, nil, 100, 100, "white"))
	assert.Error(t, PathToSVG(&sb, SeriesPath([]float64{0}, []float64{1}, "y"), 100, 100, "white"))
	assert.Empty(t, sb.String())
}
