package compare

import "sort"

// IntervalTree answers inclusive overlap queries over one chromosome using
// a sorted slice with a prefix-max of end coordinates. Built once, read-only.
type IntervalTree struct {
	intervals []node
	maxEnd    []int64 // maxEnd[i] = max(end) for intervals[:i+1]
}

type node struct {
	start int64
	end   int64
	id    int
}

// BuildIntervalTree creates a tree from start/end pairs.
func BuildIntervalTree(starts, ends []int64, ids []int) *IntervalTree {
	if len(starts) == 0 {
		return &IntervalTree{}
	}

	nodes := make([]node, len(starts))
	for i := range starts {
		nodes[i] = node{start: starts[i], end: ends[i], id: ids[i]}
	}
	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].start < nodes[j].start
	})

	maxEnd := make([]int64, len(nodes))
	maxEnd[0] = nodes[0].end
	for i := 1; i < len(nodes); i++ {
		maxEnd[i] = max(maxEnd[i-1], nodes[i].end)
	}

	return &IntervalTree{intervals: nodes, maxEnd: maxEnd}
}

// Overlaps reports whether any interval overlaps [start, end] inclusively.
func (t *IntervalTree) Overlaps(start, end int64) bool {
	found := false
	t.scan(start, end, func(int) bool {
		found = true
		return false
	})
	return found
}

func (t *IntervalTree) scan(start, end int64, fn func(id int) bool) {
	if len(t.intervals) == 0 {
		return
	}
	// candidates are intervals[:hi], all starting at or before end
	hi := sort.Search(len(t.intervals), func(i int) bool {
		return t.intervals[i].start > end
	})
	for i := hi - 1; i >= 0; i-- {
		// nothing at or before i reaches start
		if t.maxEnd[i] < start {
			return
		}
		if t.intervals[i].end >= start {
			if !fn(t.intervals[i].id) {
				return
			}
		}
	}
}
