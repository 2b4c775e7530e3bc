package visibility

// Debouncer latches a boolean and only flips it after n consecutive samples
// disagree with the latched value.
type Debouncer struct {
	n       int
	latched bool
	streak  int
}

// NewDebouncer returns a debouncer requiring n consecutive disagreeing samples (n >= 1).
func NewDebouncer(n int) *Debouncer {
	if n < 1 {
		n = 1
	}
	return &Debouncer{n: n}
}

// Feed records a sample and reports the latched value and whether it just changed.
func (d *Debouncer) Feed(v bool) (latched, changed bool) {
	if v == d.latched {
		d.streak = 0
		return d.latched, false
	}
	d.streak++
	if d.streak < d.n {
		return d.latched, false
	}
	d.latched = v
	d.streak = 0
	return d.latched, true
}

// Latched returns the current latched value.
func (d *Debouncer) Latched() bool { return d.latched }

// Reset clears the latch back to false.
func (d *Debouncer) Reset() {
	d.latched = false
	d.streak = 0
}
