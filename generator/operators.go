package generator

import (
	"strings"
)

// protocol names by operator and number of explicit operands (the
// receiver excluded).
var protocols = map[string][2]string{
	"+":  {"__pos__", "__add__"},
	"-":  {"__neg__", "__sub__"},
	"*":  {"", "__mul__"},
	"/":  {"", "__truediv__"},
	"%":  {"", "__mod__"},
	"&":  {"", "__and__"},
	"|":  {"", "__or__"},
	"^":  {"", "__xor__"},
	"<<": {"", "__lshift__"},
	">>": {"", "__rshift__"},
	"~":  {"__invert__", ""},
	"!":  {"__not__", ""},
	"==": {"", "__eq__"},
	"!=": {"", "__ne__"},
	"<":  {"", "__lt__"},
	"<=": {"", "__le__"},
	">":  {"", "__gt__"},
	">=": {"", "__ge__"},
	"+=": {"", "__iadd__"},
	"-=": {"", "__isub__"},
	"*=": {"", "__imul__"},
	"/=": {"", "__itruediv__"},
	"[]": {"", "__getitem__"},
}

// reflected names used when the bound class is the right operand.
var reflected = map[string]string{
	"__add__":     "__radd__",
	"__sub__":     "__rsub__",
	"__mul__":     "__rmul__",
	"__truediv__": "__rtruediv__",
	"__mod__":     "__rmod__",
	"__and__":     "__rand__",
	"__or__":      "__ror__",
	"__xor__":     "__rxor__",
	"__lshift__":  "__rlshift__",
	"__rshift__":  "__rrshift__",
	"__eq__":      "__eq__",
	"__ne__":      "__ne__",
	"__lt__":      "__gt__",
	"__le__":      "__ge__",
	"__gt__":      "__lt__",
	"__ge__":      "__le__",
}

// ProtocolName returns the host protocol method for a C++ operator
// declaration name such as "operator+" with the given number of operands
// besides the receiver.
func ProtocolName(name string, operands int) (string, bool) {
	op, ok := strings.CutPrefix(name, "operator")
	if !ok {
		return "", false
	}
	op = strings.TrimSpace(op)
	switch op {
	case "()":
		return "__call__", true
	case "bool":
		return "__bool__", operands == 0
	}
	names, ok := protocols[op]
	if !ok || operands > 1 {
		return "", false
	}
	n := names[operands]
	return n, n != ""
}

// ReflectedName returns the protocol method for the right operand.
func ReflectedName(protocol string) (string, bool) {
	r, ok := reflected[protocol]
	return r, ok
}
