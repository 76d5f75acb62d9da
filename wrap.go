package geojsonvt

// shiftFeatures returns copies of features moved by offset along x
func shiftFeatures(features Features, offset float64) Features {
	res := make(Features, len(features))
	for i, f := range features {
		nf := *f
		nf.Geometry = mapPoints(f.Geometry, func(p Point) Point {
			p.X += offset
			return p
		})
		nf.BBox.Min.X += offset
		nf.BBox.Max.X += offset
		res[i] = &nf
	}
	return res
}

// wrap duplicates features crossing the antimeridian into the adjacent world copy,
// returns features untouched when nothing crosses
func wrap(features Features, buffer float64, lineMetrics bool) Features {
	// left world copy
	left := clip(features, -1-buffer, buffer, -1, 2, axisX, lineMetrics)
	// right world copy
	right := clip(features, 1-buffer, 2+buffer, -1, 2, axisX, lineMetrics)

	if len(left) == 0 && len(right) == 0 {
		return features
	}

	// center world copy
	center := clip(features, -buffer, 1+buffer, -1, 2, axisX, lineMetrics)

	merged := make(Features, 0, len(left)+len(center)+len(right))
	merged = append(merged, shiftFeatures(left, 1)...)
	merged = append(merged, center...)
	merged = append(merged, shiftFeatures(right, -1)...)

	return merged
}
