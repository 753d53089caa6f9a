package convert

import (
	"math"
	"math/bits"
	"time"

	"cloud.google.com/go/civil"
	"github.com/apache/arrow-go/v18/arrow"

	"github.com/ajitpratap0/arrowframe/pkg/errors"
	"github.com/ajitpratap0/arrowframe/pkg/frame"
)

var epochDate = civil.Date{Year: 1970, Month: time.January, Day: 1}

const (
	secondsPerDay = 86400
	nanosPerDay   = secondsPerDay * 1e9
	millisPerDay  = secondsPerDay * 1e3
)

// timestampType builds a timestamp type after checking tz names an IANA
// zone. The zone is metadata only; stored values stay UTC-normalized.
func timestampType(unit frame.Unit, tz string) (arrow.DataType, error) {
	if tz != "" {
		if _, err := frame.LoadZone(tz); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeInvalid, "unknown time zone").WithDetail("timezone", tz)
		}
	}
	return &arrow.TimestampType{Unit: arrowUnit(unit), TimeZone: tz}, nil
}

func arrowUnit(u frame.Unit) arrow.TimeUnit {
	switch u {
	case frame.Second:
		return arrow.Second
	case frame.Millisecond:
		return arrow.Millisecond
	case frame.Microsecond:
		return arrow.Microsecond
	}
	return arrow.Nanosecond
}

func frameUnit(u arrow.TimeUnit) frame.Unit {
	switch u {
	case arrow.Second:
		return frame.Second
	case arrow.Millisecond:
		return frame.Millisecond
	case arrow.Microsecond:
		return frame.Microsecond
	}
	return frame.Nanosecond
}

// ticksPerDay returns the number of ticks of u in one day.
func ticksPerDay(u frame.Unit) int64 {
	if u == frame.Day {
		return 1
	}
	return secondsPerDay * u.PerSecond()
}

// rescale converts ticks between units. Converting to a coarser unit floors
// toward negative infinity; converting to a finer unit fails on overflow.
func rescale(v int64, from, to frame.Unit) (int64, error) {
	f, t := ticksPerDay(from), ticksPerDay(to)
	switch {
	case f == t:
		return v, nil
	case f > t:
		return floorDiv(v, f/t), nil
	}
	return mulChecked(v, t/f)
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int64) int64 {
	return a - floorDiv(a, b)*b
}

func mulChecked(a, b int64) (int64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	neg := (a < 0) != (b < 0)
	hi, lo := bits.Mul64(absUint(a), absUint(b))
	if hi != 0 || lo > math.MaxInt64+boolToUint(neg) {
		return 0, errors.Newf(errors.ErrorTypeInvalid, "value %d out of range after scaling by %d", a, b)
	}
	if neg {
		return -int64(lo - 1) - 1, nil
	}
	return int64(lo), nil
}

func absUint(v int64) uint64 {
	if v < 0 {
		return uint64(-(v + 1)) + 1
	}
	return uint64(v)
}

func boolToUint(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

// timeTicks converts t to ticks since the epoch at unit.
func timeTicks(t time.Time, unit frame.Unit) (int64, error) {
	sec, nsec := t.Unix(), int64(t.Nanosecond())
	if unit == frame.Day {
		return floorDiv(sec, secondsPerDay), nil
	}
	perSec := unit.PerSecond()
	v, err := mulChecked(sec, perSec)
	if err != nil {
		return 0, err
	}
	frac := nsec / (1e9 / perSec)
	if v > math.MaxInt64-frac {
		return 0, errors.Newf(errors.ErrorTypeInvalid, "time %s out of range for unit %s", t, unit)
	}
	return v + frac, nil
}

// timeOfDayNanos returns nanoseconds since midnight.
func timeOfDayNanos(t civil.Time) int64 {
	return (int64(t.Hour)*3600+int64(t.Minute)*60+int64(t.Second))*1e9 + int64(t.Nanosecond)
}

func civilTimeFromNanos(ns int64) civil.Time {
	ns = floorMod(ns, nanosPerDay)
	sec := ns / 1e9
	return civil.Time{
		Hour:       int(sec / 3600),
		Minute:     int(sec % 3600 / 60),
		Second:     int(sec % 60),
		Nanosecond: int(ns % 1e9),
	}
}

// timeUnitOf returns the resolution of a time32 or time64 type.
func timeUnitOf(dt arrow.DataType) frame.Unit {
	switch t := dt.(type) {
	case *arrow.Time32Type:
		return frameUnit(t.Unit)
	case *arrow.Time64Type:
		return frameUnit(t.Unit)
	case *arrow.TimestampType:
		return frameUnit(t.Unit)
	}
	return frame.Nanosecond
}

// temporalValues packs a series into the physical integers of a date, time
// or timestamp type: []int32 for date32 and time32, []int64 otherwise. Null
// slots are left zero.
func temporalValues(s *frame.Series, dt arrow.DataType, nulls *NullMask) (any, error) {
	n := s.Len()
	out := make([]int64, n)

	switch dtype := s.Dtype(); {
	case dtype.Kind == frame.KindDatetime64:
		ticks, _ := s.Ticks()
		for i, v := range ticks {
			if nulls.IsNull(i) {
				continue
			}
			packed, err := packTicks(v, dtype.Unit, dt)
			if err != nil {
				return nil, err
			}
			out[i] = packed
		}
	case dtype.Kind.IsInteger():
		for i := 0; i < n; i++ {
			if nulls.IsNull(i) {
				continue
			}
			v, _ := frame.AsInt64(s.Value(i))
			out[i] = v
		}
	case dtype.Kind == frame.KindObject:
		values, _ := s.Objects()
		for i, v := range values {
			if nulls.IsNull(i) {
				continue
			}
			packed, err := packTemporalValue(v, dt)
			if err != nil {
				return nil, err
			}
			out[i] = packed
		}
	default:
		return nil, errors.Newf(errors.ErrorTypeSchemaMismatch, "cannot convert %s column to %s", dtype, dt)
	}

	switch dt.ID() {
	case arrow.DATE32, arrow.TIME32:
		narrow := make([]int32, n)
		for i, v := range out {
			if v < math.MinInt32 || v > math.MaxInt32 {
				return nil, errors.Newf(errors.ErrorTypeInvalid, "value %d out of range for %s", v, dt)
			}
			narrow[i] = int32(v)
		}
		return narrow, nil
	}
	return out, nil
}

// packTicks converts a datetime64 tick count to the physical value of dt.
func packTicks(v int64, unit frame.Unit, dt arrow.DataType) (int64, error) {
	switch dt.ID() {
	case arrow.DATE32:
		return rescale(v, unit, frame.Day)
	case arrow.DATE64:
		days, _ := rescale(v, unit, frame.Day)
		return mulChecked(days, millisPerDay)
	case arrow.TIMESTAMP:
		return rescale(v, unit, timeUnitOf(dt))
	}
	return 0, errors.Newf(errors.ErrorTypeSchemaMismatch, "cannot convert datetime64[%s] to %s", unit, dt)
}

// packTemporalValue converts one object value to the physical value of dt.
func packTemporalValue(v any, dt arrow.DataType) (int64, error) {
	if i, ok := frame.AsInt64(v); ok {
		return i, nil
	}
	switch x := v.(type) {
	case civil.Date:
		days := int64(x.DaysSince(epochDate))
		switch dt.ID() {
		case arrow.DATE32:
			return days, nil
		case arrow.DATE64:
			return mulChecked(days, millisPerDay)
		case arrow.TIMESTAMP:
			return rescale(days, frame.Day, timeUnitOf(dt))
		}
	case time.Time:
		switch dt.ID() {
		case arrow.DATE32:
			return int64(civil.DateOf(x).DaysSince(epochDate)), nil
		case arrow.DATE64:
			return mulChecked(int64(civil.DateOf(x).DaysSince(epochDate)), millisPerDay)
		case arrow.TIMESTAMP:
			return timeTicks(x, timeUnitOf(dt))
		}
	case civil.Time:
		switch dt.ID() {
		case arrow.TIME32, arrow.TIME64:
			return rescale(timeOfDayNanos(x), frame.Nanosecond, timeUnitOf(dt))
		}
	}
	return 0, errors.Newf(errors.ErrorTypeSchemaMismatch, "cannot convert %T value to %s", v, dt)
}

// temporalValue materializes one physical value of a temporal type as a
// dynamic value: civil.Date, civil.Time or time.Time.
func temporalValue(v int64, dt arrow.DataType, loc *time.Location) any {
	switch t := dt.(type) {
	case *arrow.Date32Type:
		return epochDate.AddDays(int(v))
	case *arrow.Date64Type:
		return epochDate.AddDays(int(floorDiv(v, millisPerDay)))
	case *arrow.Time32Type, *arrow.Time64Type:
		ns, _ := rescale(v, timeUnitOf(dt), frame.Nanosecond)
		return civilTimeFromNanos(ns)
	case *arrow.TimestampType:
		return frame.TimeFromTicks(v, frameUnit(t.Unit), "").In(loc)
	}
	return v
}

// zoneOf returns the location of a timestamp type, UTC when naive.
func zoneOf(dt arrow.DataType) *time.Location {
	ts, ok := dt.(*arrow.TimestampType)
	if !ok || ts.TimeZone == "" {
		return time.UTC
	}
	loc, err := frame.LoadZone(ts.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}
