package convert

import (
	"github.com/apache/arrow-go/v18/arrow"

	"github.com/ajitpratap0/arrowframe/pkg/errors"
	"github.com/ajitpratap0/arrowframe/pkg/frame"
)

// Reasons a column cannot be converted without copying, in the order they
// are checked.
const (
	ReasonObject   = "object dtype"
	ReasonBoolean  = "boolean dtype"
	ReasonNested   = "nested dtype"
	ReasonTemporal = "temporal dtype"
	ReasonNulls    = "nulls present"
	ReasonChunks   = "multiple chunks"
	ReasonCast     = "cast requested"
)

// CheckZeroCopy decides, before any value is materialized, whether a column
// of type dt with the given null count and chunk count may alias its source
// buffer. The returned zero_copy error carries the first disqualifying
// reason under the "reason" detail.
func CheckZeroCopy(dt arrow.DataType, nulls, chunks int, cast bool) error {
	if reason := typeReason(dt); reason != "" {
		return zeroCopyError(dt, reason)
	}
	switch {
	case nulls > 0:
		return zeroCopyError(dt, ReasonNulls).WithDetail("null_count", nulls)
	case chunks > 1:
		return zeroCopyError(dt, ReasonChunks).WithDetail("chunks", chunks)
	case cast:
		return zeroCopyError(dt, ReasonCast)
	}
	return nil
}

// checkSeriesZeroCopy applies the gate to the forward direction, where the
// source dtype can disqualify a column whose target type would not.
func checkSeriesZeroCopy(s *frame.Series, dt arrow.DataType, nulls int) error {
	switch s.Dtype().Kind {
	case frame.KindObject:
		return zeroCopyError(dt, ReasonObject)
	case frame.KindBool:
		return zeroCopyError(dt, ReasonBoolean)
	case frame.KindDatetime64, frame.KindTimedelta64:
		return zeroCopyError(dt, ReasonTemporal)
	}
	natural, err := InferType(s)
	if err != nil {
		return err
	}
	return CheckZeroCopy(dt, nulls, 1, !arrow.TypeEqual(natural, dt))
}

// aliasesSource reports whether the reverse conversion of a column of type
// dt returns a view of its buffer. Dictionary codes are always copied into
// the frame, even when the gate admits the column.
func aliasesSource(dt arrow.DataType, zeroCopyOnly bool) bool {
	return zeroCopyOnly && dt.ID() != arrow.DICTIONARY && typeReason(dt) == ""
}

// typeReason returns the type-level disqualifier of dt, or "".
func typeReason(dt arrow.DataType) string {
	switch dt.ID() {
	case arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64,
		arrow.UINT8, arrow.UINT16, arrow.UINT32, arrow.UINT64,
		arrow.FLOAT32, arrow.FLOAT64:
		return ""
	case arrow.BOOL:
		return ReasonBoolean
	case arrow.LIST, arrow.LARGE_LIST, arrow.FIXED_SIZE_LIST, arrow.STRUCT, arrow.MAP:
		return ReasonNested
	case arrow.DATE32, arrow.DATE64, arrow.TIMESTAMP, arrow.TIME32, arrow.TIME64, arrow.DURATION:
		return ReasonTemporal
	case arrow.DICTIONARY:
		return typeReason(dt.(*arrow.DictionaryType).ValueType)
	}
	// strings, binaries, decimals and null all materialize as objects
	return ReasonObject
}

func zeroCopyError(dt arrow.DataType, reason string) *errors.Error {
	return errors.Newf(errors.ErrorTypeZeroCopy, "cannot convert %s without copying: %s", dt, reason).
		WithDetail("reason", reason).
		WithDetail("type", dt.String())
}

// ZeroCopyReason extracts the disqualifying reason from a zero_copy error.
func ZeroCopyReason(err error) string {
	var e *errors.Error
	if !errors.As(err, &e) || e.Type != errors.ErrorTypeZeroCopy {
		return ""
	}
	reason, _ := e.Detail("reason")
	s, _ := reason.(string)
	return s
}
