package decl

import (
	"math"

	"fortio.org/safecast"
)

// ScalarKind classifies builtin C++ value types.
type ScalarKind uint8

const (
	ScalarBool ScalarKind = iota
	ScalarSigned
	ScalarUnsigned
	ScalarFloat
	ScalarString
)

// Scalar describes a builtin C++ value type.
type Scalar struct {
	Name string
	Kind ScalarKind
	Bits int
}

var scalars = map[string]Scalar{}

func init() {
	add := func(kind ScalarKind, bits int, names ...string) {
		for _, n := range names {
			scalars[n] = Scalar{Name: n, Kind: kind, Bits: bits}
		}
	}
	add(ScalarBool, 8, "bool")
	add(ScalarSigned, 8, "char", "signed char", "int8_t", "std::int8_t")
	add(ScalarSigned, 16, "short", "int16_t", "std::int16_t")
	add(ScalarSigned, 32, "int", "int32_t", "std::int32_t")
	add(ScalarSigned, 64, "long", "long long", "int64_t", "std::int64_t",
		"ptrdiff_t", "std::ptrdiff_t", "ssize_t", "intptr_t", "std::intptr_t")
	add(ScalarUnsigned, 8, "unsigned char", "uint8_t", "std::uint8_t")
	add(ScalarUnsigned, 16, "unsigned short", "uint16_t", "std::uint16_t")
	add(ScalarUnsigned, 32, "unsigned int", "uint32_t", "std::uint32_t")
	add(ScalarUnsigned, 64, "unsigned long", "unsigned long long", "uint64_t", "std::uint64_t",
		"size_t", "std::size_t", "uintptr_t", "std::uintptr_t")
	add(ScalarFloat, 32, "float")
	add(ScalarFloat, 64, "double", "long double")
	add(ScalarString, 0, "std::string", "std::string_view", "std::basic_string")
}

// LookupScalar returns the builtin description of a canonical type name.
func LookupScalar(name string) (Scalar, bool) {
	s, ok := scalars[name]
	return s, ok
}

// Integer reports whether the scalar is an integer type.
func (s Scalar) Integer() bool {
	return s.Kind == ScalarSigned || s.Kind == ScalarUnsigned
}

// FitInt checks that v is representable in the scalar's width and sign.
func (s Scalar) FitInt(v int64) error {
	var err error
	switch s.Kind {
	case ScalarSigned:
		switch s.Bits {
		case 8:
			_, err = safecast.Conv[int8](v)
		case 16:
			_, err = safecast.Conv[int16](v)
		case 32:
			_, err = safecast.Conv[int32](v)
		}
	case ScalarUnsigned:
		switch s.Bits {
		case 8:
			_, err = safecast.Conv[uint8](v)
		case 16:
			_, err = safecast.Conv[uint16](v)
		case 32:
			_, err = safecast.Conv[uint32](v)
		default:
			_, err = safecast.Conv[uint64](v)
		}
	case ScalarBool:
		if v != 0 && v != 1 {
			err = safecast.ErrOutOfRange
		}
	}
	return err
}

// FitUint checks an unsigned value above the int64 range.
func (s Scalar) FitUint(v uint64) error {
	if s.Kind == ScalarUnsigned && s.Bits == 64 {
		return nil
	}
	i, err := safecast.Conv[int64](v)
	if err != nil {
		return err
	}
	return s.FitInt(i)
}

// FitFloat checks that f does not overflow the scalar's float width.
// Precision loss is accepted as in a C++ narrowing conversion.
func (s Scalar) FitFloat(f float64) error {
	if s.Bits == 32 && !math.IsInf(f, 0) && !math.IsNaN(f) && math.Abs(f) > math.MaxFloat32 {
		return safecast.ErrOutOfRange
	}
	return nil
}
