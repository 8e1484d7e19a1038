package forest

// Stats describes the shape of a built forest.
type Stats struct {
	NumTrees     int
	Rows         int
	Nodes        int
	Leaves       int
	RandomSplits int
	MaxDepth     int
	AvgLeafSize  float64
	MemoryBytes  int64
}

// Stats returns statistics about the forest.
func (f *Forest) Stats() Stats {
	s := Stats{
		NumTrees:    len(f.trees),
		Rows:        len(f.rows),
		MemoryBytes: f.MemoryBytes(),
	}

	for i := range f.trees {
		t := &f.trees[i]
		s.Nodes += len(t.nodes)
		s.MaxDepth = max(s.MaxDepth, depth(t, 0))
		for j := range t.nodes {
			switch n := &t.nodes[j]; {
			case n.leaf():
				s.Leaves++
			case n.Normal < 0:
				s.RandomSplits++
			}
		}
	}

	if s.Leaves > 0 {
		s.AvgLeafSize = float64(s.Rows*s.NumTrees) / float64(s.Leaves)
	}
	return s
}

func depth(t *tree, id int32) int {
	n := &t.nodes[id]
	if n.leaf() {
		return 1
	}
	return 1 + max(depth(t, n.Left), depth(t, n.Right))
}
