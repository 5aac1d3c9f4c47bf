package cell

import "fmt"

// Layout assigns each fundamental state variable a contiguous slice of the
// global state vector, in registration order.
type Layout struct {
	names  []string
	offset map[string]int
	size   map[string]int
	total  int
}

func NewLayout() *Layout {
	return &Layout{
		offset: make(map[string]int),
		size:   make(map[string]int),
	}
}

func (l *Layout) Add(name string, size int) error {
	if size <= 0 {
		return fmt.Errorf("battsim: state variable %q has size %d", name, size)
	}
	if _, ok := l.offset[name]; ok {
		return fmt.Errorf("battsim: state variable %q declared twice", name)
	}
	l.names = append(l.names, name)
	l.offset[name] = l.total
	l.size[name] = size
	l.total += size
	return nil
}

func (l *Layout) Has(name string) bool {
	_, ok := l.offset[name]
	return ok
}

func (l *Layout) Size(name string) (int, bool) {
	n, ok := l.size[name]
	return n, ok
}

func (l *Layout) Total() int { return l.total }

// Names returns state variable names in layout order.
func (l *Layout) Names() []string {
	out := make([]string, len(l.names))
	copy(out, l.names)
	return out
}

// Slice returns the view of y holding the named state variable.
func (l *Layout) Slice(y State, name string) ([]float64, error) {
	off, ok := l.offset[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariable, name)
	}
	n := l.size[name]
	if len(y) < off+n {
		return nil, fmt.Errorf("battsim: state vector too short for %q (len %d, need %d)", name, len(y), off+n)
	}
	return y[off : off+n], nil
}
