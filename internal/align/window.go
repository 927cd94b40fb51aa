package align

// Window describes one O-stream capture record, either as an explicit
// (start, end) span or as the record's full per-sample timestamp
// sequence. Its midpoint is the representative query time.
type Window struct {
	start, end float64
	stamps     []float64
	hasStamps  bool
}

// SpanWindow builds a window from an explicit start/end pair.
func SpanWindow(start, end float64) Window {
	return Window{start: start, end: end}
}

// StampsWindow builds a window from a per-sample timestamp sequence.
func StampsWindow(stamps []float64) Window {
	return Window{stamps: stamps, hasStamps: true}
}

// Midpoint returns the mean of the window's first and last timestamp.
func (w Window) Midpoint() (float64, error) {
	if w.hasStamps {
		if len(w.stamps) == 0 {
			return 0, errValidation("window timestamp sequence is empty")
		}
		return (w.stamps[0] + w.stamps[len(w.stamps)-1]) / 2, nil
	}
	return (w.start + w.end) / 2, nil
}
