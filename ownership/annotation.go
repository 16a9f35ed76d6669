package ownership

// Kind is the ownership category of one value occurrence.
type Kind uint8

const (
	// Value copies the value; no lifetime is shared.
	Value Kind = iota
	// Borrowed is a non-owning view that must not outlive its owner.
	Borrowed
	// OwnedUnique transfers exclusive ownership; the source relinquishes it.
	OwnedUnique
	// OwnedShared shares a reference-counted lifetime.
	OwnedShared
)

var kindNames = [...]string{
	Value:       "value",
	Borrowed:    "borrowed",
	OwnedUnique: "owned_unique",
	OwnedShared: "owned_shared",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Annotation is the ownership decision for one parameter or return.
type Annotation struct {
	Kind Kind
	// ReadOnly marks borrows through const pointers and references.
	ReadOnly bool
	// Internal marks borrowed returns that point into the receiver and
	// keep it alive.
	Internal bool
}

func (a Annotation) String() string {
	s := a.Kind.String()
	if a.ReadOnly {
		s += ",readonly"
	}
	if a.Internal {
		s += ",internal"
	}
	return s
}

// Policies accepted on declarations.
const (
	PolicyAutomatic         = ""
	PolicyCopy              = "copy"
	PolicyMove              = "move"
	PolicyTakeOwnership     = "take_ownership"
	PolicyReference         = "reference"
	PolicyReferenceInternal = "reference_internal"
)
