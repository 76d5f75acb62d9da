package geojsonvt

// getSqSegDist square distance from p to the segment a b
func getSqSegDist(p, a, b Point) float64 {
	x := a.X
	y := a.Y
	dx := b.X - a.X
	dy := b.Y - a.Y

	if dx != 0 || dy != 0 {
		t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / (dx*dx + dy*dy)

		if t > 1 {
			x = b.X
			y = b.Y
		} else if t > 0 {
			x += dx * t
			y += dy * t
		}
	}

	dx = p.X - x
	dy = p.Y - y

	return dx*dx + dy*dy
}

// simplify stores in Z the importance of every point between first and last
// using Douglas-Peucker, no point is removed
func simplify(points []Point, first, last int, sqTolerance float64) {
	maxSqDist := sqTolerance
	index := 0
	mid := first + (last-first)/2
	minPosToMid := last - first

	for i := first + 1; i < last; i++ {
		sqDist := getSqSegDist(points[i], points[first], points[last])

		if sqDist > maxSqDist {
			index = i
			maxSqDist = sqDist
			minPosToMid = abs(i - mid)
		} else if sqDist == maxSqDist {
			// among equal distances the point closest to the middle
			// keeps the recursion balanced on degenerate input
			if posToMid := abs(i - mid); posToMid < minPosToMid {
				index = i
				minPosToMid = posToMid
			}
		}
	}

	if maxSqDist > sqTolerance {
		points[index].Z = maxSqDist
		if index-first > 1 {
			simplify(points, first, index, sqTolerance)
		}
		if last-index > 1 {
			simplify(points, index, last, sqTolerance)
		}
	}
}

// simplifyLine computes points importance, endpoints are always retained
func simplifyLine(points []Point, tolerance float64) {
	l := len(points)
	if l == 0 {
		return
	}

	points[0].Z = 1
	points[l-1].Z = 1

	simplify(points, 0, l-1, tolerance*tolerance)
}

func abs(i int) int {
	if i < 0 {
		return -i
	}
	return i
}
