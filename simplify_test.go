package geojsonvt

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// douglasPeucker classic recursive implementation returning the kept indexes
func douglasPeucker(points []Point, first, last int, sqTolerance float64, keep map[int]bool) {
	maxSqDist := sqTolerance
	index := -1
	for i := first + 1; i < last; i++ {
		if d := getSqSegDist(points[i], points[first], points[last]); d > maxSqDist {
			index = i
			maxSqDist = d
		}
	}
	if index == -1 {
		return
	}
	keep[index] = true
	douglasPeucker(points, first, index, sqTolerance, keep)
	douglasPeucker(points, index, last, sqTolerance, keep)
}

func TestSimplifyLine_Endpoints(t *testing.T) {
	points := []Point{{X: 0, Y: 0}, {X: 0.5, Y: 0.0001}, {X: 1, Y: 0}}
	simplifyLine(points, 0.1)

	assert.Equal(t, 1.0, points[0].Z)
	assert.Equal(t, 1.0, points[2].Z)
	assert.Equal(t, 0.0, points[1].Z)
}

func TestSimplifyLine_Empty(t *testing.T) {
	require.NotPanics(t, func() {
		simplifyLine(nil, 1)
	})
}

func TestSimplify_TieBreak(t *testing.T) {
	points := []Point{
		{X: 0, Y: 0},
		{X: 1, Y: 1},
		{X: 2, Y: 1},
		{X: 3, Y: 1},
		{X: 4, Y: 0},
	}
	simplifyLine(points, 0.1)

	// every middle point is at the same distance, the one closest to the middle wins
	assert.Equal(t, 1.0, points[2].Z)
	assert.InDelta(t, 0.2, points[1].Z, 1e-12)
	assert.InDelta(t, 0.2, points[3].Z, 1e-12)
}

func TestSimplify_MatchesDouglasPeucker(t *testing.T) {
	r := rand.New(rand.NewSource(42))

	tests := []struct {
		name      string
		count     int
		tolerance float64
	}{
		{"short", 10, 0.05},
		{"medium", 100, 0.02},
		{"long", 1000, 0.01},
		{"tiny tolerance", 200, 0.0001},
	}

	for _, tt := range tests {
		points := make([]Point, tt.count)
		for i := range points {
			points[i] = Point{
				X: float64(i) / float64(tt.count),
				Y: 0.5 + 0.2*math.Sin(float64(i)/7) + 0.05*r.Float64(),
			}
		}

		t.Run(tt.name, func(t *testing.T) {
			sqTolerance := tt.tolerance * tt.tolerance

			want := map[int]bool{0: true, len(points) - 1: true}
			douglasPeucker(points, 0, len(points)-1, sqTolerance, want)

			simplifyLine(points, tt.tolerance)

			got := make(map[int]bool)
			for i, p := range points {
				if p.Z > sqTolerance {
					got[i] = true
				}
			}

			assert.Equal(t, want, got)
		})
	}
}

func TestGetSqSegDist(t *testing.T) {
	tests := []struct {
		name    string
		p, a, b Point
		want    float64
	}{
		{"on segment", Point{X: 1, Y: 0}, Point{X: 0, Y: 0}, Point{X: 2, Y: 0}, 0},
		{"above segment", Point{X: 1, Y: 1}, Point{X: 0, Y: 0}, Point{X: 2, Y: 0}, 1},
		{"past b", Point{X: 3, Y: 1}, Point{X: 0, Y: 0}, Point{X: 2, Y: 0}, 2},
		{"before a", Point{X: -1, Y: 0}, Point{X: 0, Y: 0}, Point{X: 2, Y: 0}, 1},
		{"degenerate segment", Point{X: 3, Y: 4}, Point{X: 0, Y: 0}, Point{X: 0, Y: 0}, 25},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, getSqSegDist(tt.p, tt.a, tt.b), 1e-12)
		})
	}
}
