package frame

// Index labels the rows of a Frame. It is either a range (start, start+step,
// ...) or one or more named levels.
type Index struct {
	levels []*Series

	name              Label
	start, stop, step int64
}

// RangeIndex returns the default 0..n-1 row index.
func RangeIndex(n int) *Index {
	return &Index{start: 0, stop: int64(n), step: 1}
}

// NewRangeIndex returns a named range index. step must not be zero.
func NewRangeIndex(name Label, start, stop, step int64) *Index {
	return &Index{name: name, start: start, stop: stop, step: step}
}

// NewIndex returns an index made of one or more levels of equal length.
func NewIndex(levels ...*Series) *Index {
	return &Index{levels: levels}
}

// IsRange reports whether the index is a range.
func (ix *Index) IsRange() bool { return len(ix.levels) == 0 }

// Range returns the bounds of a range index.
func (ix *Index) Range() (start, stop, step int64) { return ix.start, ix.stop, ix.step }

// Len returns the number of rows the index labels.
func (ix *Index) Len() int {
	if !ix.IsRange() {
		return ix.levels[0].Len()
	}
	if ix.step > 0 && ix.stop > ix.start {
		return int((ix.stop - ix.start + ix.step - 1) / ix.step)
	}
	if ix.step < 0 && ix.start > ix.stop {
		return int((ix.start - ix.stop - ix.step - 1) / -ix.step)
	}
	return 0
}

// NumLevels returns the number of index levels; a range has one.
func (ix *Index) NumLevels() int {
	if ix.IsRange() {
		return 1
	}
	return len(ix.levels)
}

// Names returns the label of each level.
func (ix *Index) Names() []Label {
	if ix.IsRange() {
		return []Label{ix.name}
	}
	names := make([]Label, len(ix.levels))
	for i, l := range ix.levels {
		names[i] = l.Name()
	}
	return names
}

// Levels returns the index levels, materializing a range as an int64 series.
func (ix *Index) Levels() []*Series {
	if !ix.IsRange() {
		return ix.levels
	}
	n := ix.Len()
	values := make([]int64, n)
	for i := range values {
		values[i] = ix.start + int64(i)*ix.step
	}
	return []*Series{NewNumeric(ix.name, values)}
}

// IsDefault reports whether the index is the unnamed 0..n-1 range.
func (ix *Index) IsDefault() bool {
	return ix.IsRange() && ix.name == nil && ix.start == 0 && ix.step == 1
}
