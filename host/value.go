package host

import (
	"reflect"
)

// Shape names of host builtin values.
const (
	ShapeNone  = "None"
	ShapeBool  = "bool"
	ShapeInt   = "int"
	ShapeFloat = "float"
	ShapeStr   = "str"
	ShapeList  = "list"
	ShapeTuple = "tuple"
	ShapeDict  = "dict"
)

// Tuple is a fixed-size host sequence.
type Tuple []any

// Dict is a host mapping.
type Dict map[any]any

// Shape describes the runtime type of a host value at a call site.
type Shape struct {
	// Name is the host-visible type name.
	Name string
	// Module is the defining module for classes and enums.
	Module string
	// Classes lists the native classes in the value's lineage, most
	// derived first. Empty for builtin values.
	Classes []string
}

func (s Shape) String() string {
	return s.Name
}

// Is reports whether the value's lineage includes the native class.
func (s Shape) Is(class string) bool {
	for _, c := range s.Classes {
		if c == class {
			return true
		}
	}
	return false
}

// Shaped is implemented by host values that are not builtins.
type Shaped interface {
	Shape() Shape
}

// ShapeOf returns the shape of a host value.
func ShapeOf(v any) Shape {
	switch x := v.(type) {
	case nil:
		return Shape{Name: ShapeNone}
	case Shaped:
		return x.Shape()
	case bool:
		return Shape{Name: ShapeBool}
	case string:
		return Shape{Name: ShapeStr}
	case float32, float64:
		return Shape{Name: ShapeFloat}
	case Tuple:
		return Shape{Name: ShapeTuple}
	case []any:
		return Shape{Name: ShapeList}
	case Dict:
		return Shape{Name: ShapeDict}
	}
	if IsInt(v) {
		return Shape{Name: ShapeInt}
	}
	return Shape{Name: reflect.TypeOf(v).String()}
}

// ShapeNames returns the shape names of args.
func ShapeNames(args []any) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = ShapeOf(a).Name
	}
	return out
}

// AsInt reports whether v is a host integer within the int64 range.
func AsInt(v any) (small int64, ok bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint:
		if uint64(x) <= 1<<63-1 {
			return int64(x), true
		}
	case uint64:
		if x <= 1<<63-1 {
			return int64(x), true
		}
	}
	return 0, false
}

// AsUint reports whether v is a non-negative host integer, including
// values above the int64 range.
func AsUint(v any) (uint64, bool) {
	switch x := v.(type) {
	case uint:
		return uint64(x), true
	case uint64:
		return x, true
	}
	if i, ok := AsInt(v); ok && i >= 0 {
		return uint64(i), true
	}
	return 0, false
}

// IsInt reports whether v is any host integer.
func IsInt(v any) bool {
	if _, ok := AsInt(v); ok {
		return true
	}
	switch v.(type) {
	case uint, uint64:
		return true
	}
	return false
}
