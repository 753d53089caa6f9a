// Package frame implements the dynamically typed table that arrowframe
// converts to and from Arrow.
//
// A Frame is an ordered list of Series plus a row Index and a ColumnAxis.
// Each Series carries a run-time Dtype and marks missing values with the
// sentinel of that dtype rather than a validity bitmap:
//
//	object       nil or NaN
//	float        NaN
//	datetime64   NaT
//	category     code -1
//
// Integer and bool series cannot hold missing values.
//
// Object series hold Go values of these kinds: bool, integers, floats,
// string, []byte, civil.Date, civil.Time, time.Time, decimal.Decimal,
// sequences ([]any or typed slices) and mappings (map[string]any).
package frame
