package recovery

// Strategy is one attempt at producing a value. Returning false means the
// attempt yielded nothing and the next strategy should run.
type Strategy[T any] func() (T, bool)

// FirstSuccess runs strategies in order and returns the first hit. It is the
// shared "try A, else B, else C" combinator used by the JSON fallback chain
// and by the image payload extraction.
func FirstSuccess[T any](strategies ...Strategy[T]) (T, bool) {
	for _, s := range strategies {
		if v, ok := s(); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}
