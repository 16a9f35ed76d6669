package ownership

// Wrapper is how a returned native value is represented on the host side.
type Wrapper uint8

const (
	// WrapNone returns nothing.
	WrapNone Wrapper = iota
	// WrapCopy converts or copies the value; no native lifetime is shared.
	WrapCopy
	// WrapOwning takes the native object into an owning slot destroyed
	// exactly once when the last host reference is released.
	WrapOwning
	// WrapView is a non-owning view re-resolved through its owner on each
	// access.
	WrapView
	// WrapShared retains a shared control block.
	WrapShared
	// WrapReference refers to an object owned elsewhere without keeping
	// anything alive.
	WrapReference
)

var wrapperNames = [...]string{
	WrapNone:      "none",
	WrapCopy:      "copy",
	WrapOwning:    "owning",
	WrapView:      "view",
	WrapShared:    "shared",
	WrapReference: "reference",
}

func (w Wrapper) String() string {
	if int(w) < len(wrapperNames) {
		return wrapperNames[w]
	}
	return "unknown"
}

// Passing is how a host argument reaches a native parameter.
type Passing uint8

const (
	// PassValue converts the argument.
	PassValue Passing = iota
	// PassBorrow lends the wrapped object for the duration of the call.
	PassBorrow
	// PassMove transfers the object; the host wrapper is left moved-out.
	PassMove
	// PassShare hands the native side another reference to a shared slot.
	PassShare
)

var passingNames = [...]string{
	PassValue:  "value",
	PassBorrow: "borrow",
	PassMove:   "move",
	PassShare:  "share",
}

func (p Passing) String() string {
	if int(p) < len(passingNames) {
		return passingNames[p]
	}
	return "unknown"
}

// ReturnPlan describes how a result crosses into the host.
type ReturnPlan struct {
	Annotation Annotation
	Wrapper    Wrapper
	// Validity documents how long the host value remains usable.
	Validity string
}

const (
	validityOwned     = "valid while any host reference exists"
	validityInternal  = "valid while the receiver is alive; the view keeps the receiver alive"
	validityBorrowed  = "valid while the native owner is alive; use after the owner is destroyed is undefined"
	validityIndepend  = "independent of native lifetimes"
	validityReference = "valid while the native owner is alive; nothing is kept alive"
)

// PlanReturn maps a result annotation to its wrapper. void results have no
// wrapper. Non-class results are always copied.
func PlanReturn(ann Annotation, class, void bool) ReturnPlan {
	p := ReturnPlan{Annotation: ann}
	switch {
	case void:
		p.Wrapper = WrapNone
	case !class:
		p.Wrapper = WrapCopy
		p.Validity = validityIndepend
	default:
		switch ann.Kind {
		case OwnedUnique:
			p.Wrapper = WrapOwning
			p.Validity = validityOwned
		case OwnedShared:
			p.Wrapper = WrapShared
			p.Validity = validityOwned
		case Borrowed:
			if ann.Internal {
				p.Wrapper = WrapView
				p.Validity = validityInternal
			} else {
				p.Wrapper = WrapReference
				p.Validity = validityReference
			}
		default:
			p.Wrapper = WrapOwning
			p.Validity = validityOwned
		}
	}
	return p
}

// PlanParam maps a parameter annotation to its passing mode.
func PlanParam(ann Annotation, class bool) Passing {
	if !class {
		return PassValue
	}
	switch ann.Kind {
	case OwnedUnique:
		return PassMove
	case OwnedShared:
		return PassShare
	case Borrowed:
		return PassBorrow
	}
	return PassValue
}

// BorrowValidity is the documented lifetime of a field or element view.
const BorrowValidity = validityBorrowed
