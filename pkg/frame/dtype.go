package frame

import (
	"fmt"
	"strings"
)

// Kind is the run-time type tag of a Series.
type Kind int

const (
	KindBool Kind = iota
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindFloat32
	KindFloat64
	KindObject
	KindDatetime64
	KindTimedelta64
	KindCategory
)

var kindNames = [...]string{
	KindBool:        "bool",
	KindInt8:        "int8",
	KindInt16:       "int16",
	KindInt32:       "int32",
	KindInt64:       "int64",
	KindUint8:       "uint8",
	KindUint16:      "uint16",
	KindUint32:      "uint32",
	KindUint64:      "uint64",
	KindFloat32:     "float32",
	KindFloat64:     "float64",
	KindObject:      "object",
	KindDatetime64:  "datetime64",
	KindTimedelta64: "timedelta64",
	KindCategory:    "category",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// IsInteger reports whether k is a signed or unsigned integer kind.
func (k Kind) IsInteger() bool { return k >= KindInt8 && k <= KindUint64 }

// IsFloat reports whether k is a floating point kind.
func (k Kind) IsFloat() bool { return k == KindFloat32 || k == KindFloat64 }

// IsNumeric reports whether k is an integer or floating point kind.
func (k Kind) IsNumeric() bool { return k.IsInteger() || k.IsFloat() }

// Unit is the resolution of datetime64 and timedelta64 values.
type Unit string

const (
	Day         Unit = "D"
	Second      Unit = "s"
	Millisecond Unit = "ms"
	Microsecond Unit = "us"
	Nanosecond  Unit = "ns"
)

// PerSecond returns how many ticks of u make one second; zero for Day.
func (u Unit) PerSecond() int64 {
	switch u {
	case Second:
		return 1
	case Millisecond:
		return 1e3
	case Microsecond:
		return 1e6
	case Nanosecond:
		return 1e9
	}
	return 0
}

// Valid reports whether u is one of the supported units.
func (u Unit) Valid() bool {
	switch u {
	case Day, Second, Millisecond, Microsecond, Nanosecond:
		return true
	}
	return false
}

// Dtype is the full run-time type of a Series. Unit applies to datetime64 and
// timedelta64, TZ to timezone-aware datetime64.
type Dtype struct {
	Kind Kind
	Unit Unit
	TZ   string
}

// Predefined dtypes.
var (
	Bool    = Dtype{Kind: KindBool}
	Int8    = Dtype{Kind: KindInt8}
	Int16   = Dtype{Kind: KindInt16}
	Int32   = Dtype{Kind: KindInt32}
	Int64   = Dtype{Kind: KindInt64}
	Uint8   = Dtype{Kind: KindUint8}
	Uint16  = Dtype{Kind: KindUint16}
	Uint32  = Dtype{Kind: KindUint32}
	Uint64  = Dtype{Kind: KindUint64}
	Float32 = Dtype{Kind: KindFloat32}
	Float64 = Dtype{Kind: KindFloat64}
	Object  = Dtype{Kind: KindObject}

	Category = Dtype{Kind: KindCategory}
)

// Datetime64 returns the datetime dtype at unit, timezone-aware when tz is set.
func Datetime64(unit Unit, tz string) Dtype {
	return Dtype{Kind: KindDatetime64, Unit: unit, TZ: tz}
}

// Timedelta64 returns the timedelta dtype at unit.
func Timedelta64(unit Unit) Dtype {
	return Dtype{Kind: KindTimedelta64, Unit: unit}
}

// String renders the dtype the way numpy and pandas spell it, for example
// "int64", "datetime64[ns]" or "datetime64[ns, UTC]".
func (d Dtype) String() string {
	switch d.Kind {
	case KindDatetime64:
		if d.TZ != "" {
			return fmt.Sprintf("datetime64[%s, %s]", d.Unit, d.TZ)
		}
		return fmt.Sprintf("datetime64[%s]", d.Unit)
	case KindTimedelta64:
		return fmt.Sprintf("timedelta64[%s]", d.Unit)
	}
	return d.Kind.String()
}

// NumpyString renders the storage dtype: timezone information is dropped.
func (d Dtype) NumpyString() string {
	switch d.Kind {
	case KindDatetime64:
		return fmt.Sprintf("datetime64[%s]", d.Unit)
	case KindTimedelta64:
		return fmt.Sprintf("timedelta64[%s]", d.Unit)
	}
	return d.Kind.String()
}

// ParseDtype parses the numpy spelling produced by String or NumpyString.
func ParseDtype(s string) (Dtype, error) {
	for k, name := range kindNames {
		if s == name {
			return Dtype{Kind: Kind(k)}, nil
		}
	}
	for _, prefix := range []struct {
		p    string
		kind Kind
	}{{"datetime64[", KindDatetime64}, {"timedelta64[", KindTimedelta64}} {
		if !strings.HasPrefix(s, prefix.p) || !strings.HasSuffix(s, "]") {
			continue
		}
		inner := s[len(prefix.p) : len(s)-1]
		unit, tz, _ := strings.Cut(inner, ",")
		d := Dtype{Kind: prefix.kind, Unit: Unit(strings.TrimSpace(unit)), TZ: strings.TrimSpace(tz)}
		if !d.Unit.Valid() {
			break
		}
		return d, nil
	}
	return Dtype{}, fmt.Errorf("unknown dtype %q", s)
}
