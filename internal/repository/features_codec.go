package repository

import "sort"

// unzipFeatures flattens a feature map into parallel arrays sorted by name.
func unzipFeatures(m map[string]float64) ([]string, []float64) {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	values := make([]float64, len(names))
	for i, n := range names {
		values[i] = m[n]
	}
	return names, values
}

// zipFeatures rebuilds a feature map. Extra entries in the longer array are ignored.
func zipFeatures(names []string, values []float64) map[string]float64 {
	n := len(names)
	if len(values) < n {
		n = len(values)
	}
	out := make(map[string]float64, n)
	for i := 0; i < n; i++ {
		out[names[i]] = values[i]
	}
	return out
}
