package utils

// Create a map from array with kf providing keys, values are array elements
func ArrayToMap[T, K comparable](ts []T, kf func(T) K) map[K]T {
	result := make(map[K]T)
	for _, t := range ts {
		result[kf(t)] = t
	}
	return result
}

// Map array to an array of the same length with f applied to each element
func Map[T, U any](ts []T, f func(T) U) []U {
	result := make([]U, len(ts))
	for i, t := range ts {
		result[i] = f(t)
	}
	return result
}
