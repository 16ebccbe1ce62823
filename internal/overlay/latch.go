package overlay

// Latch captures a value the first time the watched index equals target
// and keeps returning it for every later index. Values offered after the
// capture are ignored.
type Latch struct {
	target int
	value  float64
	armed  bool
}

func NewLatch(target int) *Latch {
	return &Latch{target: target}
}

// Observe must be called with increasing indexes.
func (l *Latch) Observe(index int, value float64) (float64, bool) {
	if !l.armed && index == l.target {
		l.value = value
		l.armed = true
	}
	if l.armed && index >= l.target {
		return l.value, true
	}
	return 0, false
}

func (l *Latch) Armed() bool {
	return l.armed
}
