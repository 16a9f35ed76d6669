package ownership

import (
	stderrors "errors"
	"testing"

	"github.com/wippyai/cxxbind/decl"
	"github.com/wippyai/cxxbind/errors"
)

func site(typ string, class bool) Site {
	return Site{Type: decl.MustParseType(typ), Decl: "zoo::f", Path: []string{"param", "x"}, Class: class}
}

func TestDerive_Defaults(t *testing.T) {
	tests := []struct {
		typ   string
		class bool
		want  Annotation
	}{
		{"Pet*", true, Annotation{Kind: Borrowed}},
		{"const Pet*", true, Annotation{Kind: Borrowed, ReadOnly: true}},
		{"const Pet&", true, Annotation{Kind: Borrowed, ReadOnly: true}},
		{"Pet&", true, Annotation{Kind: Borrowed}},
		{"Pet&&", true, Annotation{Kind: OwnedUnique}},
		{"Pet", true, Annotation{Kind: Value}},
		{"std::unique_ptr<Pet>", true, Annotation{Kind: OwnedUnique}},
		{"std::unique_ptr<Pet>&&", true, Annotation{Kind: OwnedUnique}},
		{"const std::unique_ptr<Pet>&", true, Annotation{Kind: Borrowed, ReadOnly: true}},
		{"std::shared_ptr<Pet>", true, Annotation{Kind: OwnedShared}},
		{"const std::shared_ptr<Pet>&", true, Annotation{Kind: OwnedShared}},
		{"std::weak_ptr<Pet>", true, Annotation{Kind: Borrowed}},
		{"int", false, Annotation{Kind: Value}},
		{"const std::string&", false, Annotation{Kind: Value}},
		{"const char*", false, Annotation{Kind: Value}},
		{"std::vector<int>&&", false, Annotation{Kind: Value}},
	}
	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			got, err := Derive(site(tt.typ, tt.class))
			if err != nil {
				t.Fatalf("Derive: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDerive_Ambiguous(t *testing.T) {
	tests := []struct {
		typ    string
		class  bool
		policy string
		ret    bool
	}{
		{typ: "Pet**", class: true},
		{typ: "Pet*&", class: true},
		{typ: "std::unique_ptr<Pet>*", class: true},
		{typ: "std::unique_ptr<Pet>&", class: true},
		{typ: "std::shared_ptr<Pet>&", class: true},
		{typ: "int*", class: false},
		{typ: "int&", class: false},
		{typ: "std::shared_ptr<Pet>", class: true, policy: PolicyTakeOwnership},
		{typ: "const Pet&", class: true, policy: PolicyTakeOwnership},
		{typ: "Pet", class: true, policy: PolicyTakeOwnership},
		{typ: "Pet", class: true, policy: PolicyReferenceInternal, ret: true},
		{typ: "Pet*", class: true, policy: PolicyReferenceInternal},
		{typ: "std::unique_ptr<Pet>", class: true, policy: PolicyCopy},
		{typ: "const Pet*", class: true, policy: PolicyMove},
	}
	for _, tt := range tests {
		t.Run(tt.typ+"/"+tt.policy, func(t *testing.T) {
			s := site(tt.typ, tt.class)
			s.Policy = tt.policy
			s.Return = tt.ret
			_, err := Derive(s)
			if err == nil {
				t.Fatal("expected ambiguity")
			}
			if !stderrors.Is(err, errors.New(errors.PhaseOwnership, errors.KindAmbiguousOwnership).Build()) {
				t.Fatalf("unexpected error: %v", err)
			}
			var e *errors.Error
			if !stderrors.As(err, &e) || e.Decl != "zoo::f" {
				t.Errorf("error does not carry the declaration: %v", err)
			}
		})
	}
}

func TestDerive_Policies(t *testing.T) {
	tests := []struct {
		typ    string
		policy string
		member bool
		want   Annotation
	}{
		{"Pet*", PolicyTakeOwnership, false, Annotation{Kind: OwnedUnique}},
		{"std::unique_ptr<Pet>", PolicyTakeOwnership, false, Annotation{Kind: OwnedUnique}},
		{"Pet*", PolicyReference, false, Annotation{Kind: Borrowed}},
		{"const Pet&", PolicyReferenceInternal, true, Annotation{Kind: Borrowed, ReadOnly: true, Internal: true}},
		{"Pet&", PolicyCopy, false, Annotation{Kind: Value}},
		{"Pet*", PolicyMove, false, Annotation{Kind: OwnedUnique}},
		{"Pet", PolicyMove, false, Annotation{Kind: Value}},
	}
	for _, tt := range tests {
		t.Run(tt.typ+"/"+tt.policy, func(t *testing.T) {
			s := site(tt.typ, true)
			s.Policy = tt.policy
			s.Return = true
			s.Member = tt.member
			got, err := Derive(s)
			if err != nil {
				t.Fatalf("Derive: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDerive_UnknownPolicy(t *testing.T) {
	s := site("Pet*", true)
	s.Policy = "automatic_reference"
	_, err := Derive(s)
	if !stderrors.Is(err, errors.New(errors.PhaseOwnership, errors.KindInvalidInput).Build()) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestDerive_MemberBorrowIsInternal(t *testing.T) {
	s := site("Pet&", true)
	s.Return = true
	s.Member = true
	got, err := Derive(s)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Internal || got.Kind != Borrowed {
		t.Errorf("member borrow should be internal, got %v", got)
	}

	s.Member = false
	got, _ = Derive(s)
	if got.Internal {
		t.Errorf("free function borrow should not be internal")
	}
}

func TestPlanReturn(t *testing.T) {
	tests := []struct {
		ann   Annotation
		class bool
		void  bool
		want  Wrapper
	}{
		{Annotation{}, false, true, WrapNone},
		{Annotation{Kind: Value}, false, false, WrapCopy},
		{Annotation{Kind: Value}, true, false, WrapOwning},
		{Annotation{Kind: OwnedUnique}, true, false, WrapOwning},
		{Annotation{Kind: OwnedShared}, true, false, WrapShared},
		{Annotation{Kind: Borrowed, Internal: true}, true, false, WrapView},
		{Annotation{Kind: Borrowed}, true, false, WrapReference},
	}
	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			p := PlanReturn(tt.ann, tt.class, tt.void)
			if p.Wrapper != tt.want {
				t.Errorf("got %v, want %v", p.Wrapper, tt.want)
			}
			if tt.want != WrapNone && p.Validity == "" {
				t.Error("missing validity")
			}
		})
	}
}

func TestPlanParam(t *testing.T) {
	tests := []struct {
		ann   Annotation
		class bool
		want  Passing
	}{
		{Annotation{Kind: OwnedUnique}, false, PassValue},
		{Annotation{Kind: OwnedUnique}, true, PassMove},
		{Annotation{Kind: OwnedShared}, true, PassShare},
		{Annotation{Kind: Borrowed, ReadOnly: true}, true, PassBorrow},
		{Annotation{Kind: Value}, true, PassValue},
	}
	for _, tt := range tests {
		if got := PlanParam(tt.ann, tt.class); got != tt.want {
			t.Errorf("PlanParam(%v, %v) = %v, want %v", tt.ann, tt.class, got, tt.want)
		}
	}
}
