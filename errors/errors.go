package errors

import (
	"fmt"
	"strings"

	"github.com/ianlancetaylor/demangle"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseLoad      Phase = "load"      // declaration manifest loading
	PhaseConfig    Phase = "config"    // configuration decoding
	PhaseResolve   Phase = "resolve"   // type mapping
	PhaseOwnership Phase = "ownership" // ownership derivation
	PhaseGenerate  Phase = "generate"  // plan synthesis
	PhaseEmit      Phase = "emit"      // backend fragment emission
	PhaseInstall   Phase = "install"   // runtime module installation
	PhaseConvert   Phase = "convert"   // host <-> native value conversion
	PhaseOverload  Phase = "overload"  // call-time overload resolution
	PhaseDispatch  Phase = "dispatch"  // virtual dispatch
	PhaseRuntime   Phase = "runtime"   // runtime operations
)

// Kind categorizes the error
type Kind string

const (
	KindUnresolvedType     Kind = "unresolved_type"
	KindAmbiguousOwnership Kind = "ambiguous_ownership"
	KindNoMatchingOverload Kind = "no_matching_overload"
	KindCrossLanguage      Kind = "cross_language"
	KindTypeMismatch       Kind = "type_mismatch"
	KindOverflow           Kind = "overflow"
	KindNilPointer         Kind = "nil_pointer"
	KindInvalidEnum        Kind = "invalid_enum"
	KindAbstract           Kind = "abstract"
	KindMoved              Kind = "moved"
	KindReleased           Kind = "released"
	KindPureVirtual        Kind = "pure_virtual"
	KindMissingSymbol      Kind = "missing_symbol"
	KindNotFound           Kind = "not_found"
	KindInvalidInput       Kind = "invalid_input"
	KindInvalidData        Kind = "invalid_data"
	KindUnsupported        Kind = "unsupported"
	KindDuplicate          Kind = "duplicate"
)

// Category is the stable host-visible classification of a translated
// native exception.
type Category string

const (
	CategoryRuntime           Category = "runtime_error"
	CategoryInvalidArgument   Category = "invalid_argument"
	CategoryOutOfRange        Category = "out_of_range"
	CategoryResourceExhausted Category = "resource_exhausted"
	CategoryOverflow          Category = "overflow"
	CategoryLogic             Category = "logic_error"
	CategoryHost              Category = "host_error"
	CategoryUnknown           Category = "unknown"
)

// Error is the structured error type used throughout the module
type Error struct {
	Value    any
	Cause    error
	Phase    Phase
	Kind     Kind
	Category Category
	HostType string
	CppType  string
	Decl     string
	Detail   string
	Path     []string
	Shapes   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Category != "" {
		b.WriteByte('(')
		b.WriteString(string(e.Category))
		b.WriteByte(')')
	}

	if e.Decl != "" {
		b.WriteString(" in ")
		b.WriteString(e.Decl)
	}

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.HostType != "" || e.CppType != "" {
		b.WriteString(": ")
		if e.HostType != "" && e.CppType != "" {
			b.WriteString("host type ")
			b.WriteString(e.HostType)
			b.WriteString(", C++ type ")
			b.WriteString(e.CppType)
		} else if e.HostType != "" {
			b.WriteString("host type ")
			b.WriteString(e.HostType)
		} else {
			b.WriteString("C++ type ")
			b.WriteString(e.CppType)
		}
	}

	if e.Detail != "" {
		if e.HostType != "" || e.CppType != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Fatal reports whether the error must stop generation.
func (e *Error) Fatal() bool {
	return e.Kind == KindUnresolvedType || e.Kind == KindAmbiguousOwnership
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// HostType sets the host type name
func (b *Builder) HostType(t string) *Builder {
	b.err.HostType = t
	return b
}

// CppType sets the C++ type spelling
func (b *Builder) CppType(t string) *Builder {
	b.err.CppType = t
	return b
}

// Decl sets the offending declaration
func (b *Builder) Decl(name string) *Builder {
	b.err.Decl = name
	return b
}

// Category sets the translated exception category
func (b *Builder) Category(c Category) *Builder {
	b.err.Category = c
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// UnresolvedType creates the fatal error raised when no mapping or template
// rule exists for a C++ type.
func UnresolvedType(cppType, decl string) *Error {
	return &Error{
		Phase:   PhaseResolve,
		Kind:    KindUnresolvedType,
		CppType: cppType,
		Decl:    decl,
		Detail:  "no type mapping or template rule",
	}
}

// AmbiguousOwnership creates the fatal error raised when qualifiers do not
// determine a single ownership annotation.
func AmbiguousOwnership(decl string, path []string, cppType, detail string) *Error {
	return &Error{
		Phase:   PhaseOwnership,
		Kind:    KindAmbiguousOwnership,
		Decl:    decl,
		Path:    path,
		CppType: cppType,
		Detail:  detail,
	}
}

// NoMatchingOverload creates the runtime error naming the attempted
// argument shapes and the available signatures.
func NoMatchingOverload(name string, shapes []string, signatures []string) *Error {
	detail := fmt.Sprintf("no overload of %s accepts (%s)", name, strings.Join(shapes, ", "))
	if len(signatures) > 0 {
		detail += "; candidates: " + strings.Join(signatures, " | ")
	}
	return &Error{
		Phase:  PhaseOverload,
		Kind:   KindNoMatchingOverload,
		Decl:   name,
		Shapes: shapes,
		Detail: detail,
	}
}

// CrossLanguage creates a translated native exception.
func CrossLanguage(category Category, cppType, message string, cause error) *Error {
	return &Error{
		Phase:    PhaseRuntime,
		Kind:     KindCrossLanguage,
		Category: category,
		CppType:  cppType,
		Detail:   message,
		Cause:    cause,
	}
}

// TypeMismatch creates a type mismatch error
func TypeMismatch(phase Phase, path []string, hostType, cppType string) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindTypeMismatch,
		Path:     path,
		HostType: hostType,
		CppType:  cppType,
	}
}

// NilPointer creates a nil pointer error
func NilPointer(phase Phase, path []string, cppType string) *Error {
	return &Error{
		Phase:   phase,
		Kind:    KindNilPointer,
		Path:    path,
		CppType: cppType,
		Detail:  "None passed for a non-nullable value",
	}
}

// Overflow creates an overflow error
func Overflow(phase Phase, path []string, value any, targetType string) *Error {
	return &Error{
		Phase:   phase,
		Kind:    KindOverflow,
		Path:    path,
		CppType: targetType,
		Detail:  fmt.Sprintf("value %v overflows %s", value, targetType),
		Value:   value,
	}
}

// InvalidEnum creates an invalid enum value error
func InvalidEnum(phase Phase, path []string, value any, enumType string) *Error {
	return &Error{
		Phase:   phase,
		Kind:    KindInvalidEnum,
		Path:    path,
		CppType: enumType,
		Detail:  fmt.Sprintf("invalid enum value %v for %s", value, enumType),
		Value:   value,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Detail: detail,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// MissingSymbol represents a single declaration without a native implementation
type MissingSymbol struct {
	Scope  string // e.g., "geo::Shape"
	Symbol string // e.g., "area() const" or a mangled name
}

// MissingSymbolsError is returned when installing a module finds declarations
// the native library does not implement
type MissingSymbolsError struct {
	Symbols []MissingSymbol
}

// NewMissingSymbolsError creates an error from a list of "scope#symbol" strings
func NewMissingSymbolsError(symbols []string) *MissingSymbolsError {
	result := &MissingSymbolsError{
		Symbols: make([]MissingSymbol, 0, len(symbols)),
	}
	for _, sym := range symbols {
		scope, name := parseSymbolKey(sym)
		result.Symbols = append(result.Symbols, MissingSymbol{
			Scope:  scope,
			Symbol: name,
		})
	}
	return result
}

func parseSymbolKey(key string) (scope, symbol string) {
	sc, sym, found := strings.Cut(key, "#")
	if found {
		return sc, sym
	}
	return "", key
}

// Demangle returns the readable form of an Itanium-mangled C++ symbol.
// Names that are not mangled are returned unchanged.
func Demangle(name string) string {
	return demangle.Filter(name)
}

func (e *MissingSymbolsError) Error() string {
	if len(e.Symbols) == 0 {
		return "[install] missing_symbol: no symbols specified"
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("missing %d native symbol(s):\n", len(e.Symbols)))

	// Group by scope for cleaner output
	byScope := make(map[string][]string)
	var scopeOrder []string
	for _, sym := range e.Symbols {
		if _, exists := byScope[sym.Scope]; !exists {
			scopeOrder = append(scopeOrder, sym.Scope)
		}
		byScope[sym.Scope] = append(byScope[sym.Scope], Demangle(sym.Symbol))
	}

	for _, scope := range scopeOrder {
		b.WriteString("\n  ")
		if scope == "" {
			b.WriteString("<global>")
		} else {
			b.WriteString(scope)
		}
		b.WriteString(":\n")
		for _, fn := range byScope[scope] {
			b.WriteString("    - ")
			b.WriteString(fn)
			b.WriteByte('\n')
		}
	}

	return strings.TrimSuffix(b.String(), "\n")
}

// Is reports whether target matches this error type
func (e *MissingSymbolsError) Is(target error) bool {
	_, ok := target.(*MissingSymbolsError)
	return ok
}

// Runtime convenience constructors

// Abstract creates the error raised when constructing an abstract class
// directly from the host
func Abstract(class string, missing []string) *Error {
	return &Error{
		Phase:  PhaseRuntime,
		Kind:   KindAbstract,
		Decl:   class,
		Detail: fmt.Sprintf("cannot instantiate abstract class; pure virtual methods without override: %s", strings.Join(missing, ", ")),
	}
}

// Moved creates the error raised when using a wrapper whose object was
// transferred to native ownership
func Moved(class string) *Error {
	return &Error{
		Phase:  PhaseRuntime,
		Kind:   KindMoved,
		Decl:   class,
		Detail: "object ownership was transferred to native code",
	}
}

// Released creates the error raised when using a wrapper after the host
// released its last reference
func Released(class string) *Error {
	return &Error{
		Phase:  PhaseRuntime,
		Kind:   KindReleased,
		Decl:   class,
		Detail: "object was already released",
	}
}

// PureVirtual creates the error raised when a pure virtual method has no
// implementation on either side
func PureVirtual(class, method string) *Error {
	return &Error{
		Phase:    PhaseDispatch,
		Kind:     KindPureVirtual,
		Category: CategoryRuntime,
		Decl:     class + "::" + method,
		Detail:   "pure virtual function called without a host override",
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Duplicate creates a duplicate registration error
func Duplicate(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindDuplicate,
		Detail: fmt.Sprintf("%s %q already registered", what, name),
	}
}

// Load creates a manifest loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInvalidData,
		Detail: detail,
		Cause:  cause,
	}
}
