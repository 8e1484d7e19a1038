package queue

// Entry is a node waiting to be expanded.
type Entry struct {
	Tree   int32
	Node   int32
	Margin float64
}

// Frontier pops the entry with the largest margin first. The zero value is
// ready to use.
type Frontier struct {
	entries []Entry
}

// NewFrontier returns a Frontier with room for capacity entries.
func NewFrontier(capacity int) *Frontier {
	return &Frontier{entries: make([]Entry, 0, capacity)}
}

// Len returns the number of pending entries.
func (f *Frontier) Len() int { return len(f.entries) }

// Push adds a node of tree with the given margin.
func (f *Frontier) Push(tree, node int32, margin float64) {
	f.entries = append(f.entries, Entry{Tree: tree, Node: node, Margin: margin})

	i := len(f.entries) - 1
	for i > 0 {
		parent := (i - 1) / 2
		if f.entries[parent].Margin >= f.entries[i].Margin {
			break
		}
		f.entries[i], f.entries[parent] = f.entries[parent], f.entries[i]
		i = parent
	}
}

// Pop removes the entry with the largest margin.
func (f *Frontier) Pop() (Entry, bool) {
	n := len(f.entries)
	if n == 0 {
		return Entry{}, false
	}
	top := f.entries[0]
	f.entries[0] = f.entries[n-1]
	f.entries = f.entries[:n-1]

	i, n := 0, n-1
	for {
		largest := i
		if l := 2*i + 1; l < n && f.entries[l].Margin > f.entries[largest].Margin {
			largest = l
		}
		if r := 2*i + 2; r < n && f.entries[r].Margin > f.entries[largest].Margin {
			largest = r
		}
		if largest == i {
			return top, true
		}
		f.entries[i], f.entries[largest] = f.entries[largest], f.entries[i]
		i = largest
	}
}

// Reset empties the frontier, keeping its storage.
func (f *Frontier) Reset() {
	f.entries = f.entries[:0]
}
