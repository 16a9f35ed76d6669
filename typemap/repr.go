package typemap

import (
	"github.com/wippyai/cxxbind/host"
)

// Kind is the host representation category.
type Kind uint8

const (
	KindNone Kind = iota
	KindBool
	KindInt
	KindFloat
	KindStr
	KindList
	KindTuple
	KindDict
	KindClass
	KindEnum       // typed enum
	KindLegacyEnum // legacy enum, a host int
)

var kindNames = [...]string{
	KindNone:       "none",
	KindBool:       "bool",
	KindInt:        "int",
	KindFloat:      "float",
	KindStr:        "str",
	KindList:       "list",
	KindTuple:      "tuple",
	KindDict:       "dict",
	KindClass:      "class",
	KindEnum:       "enum",
	KindLegacyEnum: "legacy_enum",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Repr is a host representation descriptor shared by every C++ type that
// maps to it.
type Repr struct {
	Name   string // host type name
	Module string // defining module for classes and enums
	Kind   Kind
}

// Builtin representations.
var (
	ReprNone  = &Repr{Name: host.ShapeNone, Kind: KindNone}
	ReprBool  = &Repr{Name: host.ShapeBool, Kind: KindBool}
	ReprInt   = &Repr{Name: host.ShapeInt, Kind: KindInt}
	ReprFloat = &Repr{Name: host.ShapeFloat, Kind: KindFloat}
	ReprStr   = &Repr{Name: host.ShapeStr, Kind: KindStr}
	ReprList  = &Repr{Name: host.ShapeList, Kind: KindList}
	ReprTuple = &Repr{Name: host.ShapeTuple, Kind: KindTuple}
	ReprDict  = &Repr{Name: host.ShapeDict, Kind: KindDict}

	// ReprLegacyEnum is a host int whose native conversion checks the
	// enum's underlying type.
	ReprLegacyEnum = &Repr{Name: host.ShapeInt, Kind: KindLegacyEnum}
)

// Rank scores how well a host value matches a parameter type.
type Rank uint8

const (
	RankNone Rank = iota
	RankConvertible
	RankExact
)

func (r Rank) String() string {
	switch r {
	case RankExact:
		return "exact"
	case RankConvertible:
		return "convertible"
	default:
		return "none"
	}
}

func minRank(a, b Rank) Rank {
	if a < b {
		return a
	}
	return b
}
