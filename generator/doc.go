// Package generator turns a declaration list into a binding plan.
//
// A Session runs four phases over the list, in order:
//
//   - register: classes, aliases, enums, exceptions and implicit
//     conversions enter the type registry;
//   - annotate: every parameter, result and field type is resolved and
//     its ownership derived;
//   - synthesize: overload sets, operator protocol methods, the virtual
//     method hierarchy and class layouts are built;
//   - wrap: boundary metadata is recorded per declaration.
//
// An unresolved type or ambiguous ownership aborts the session and no
// plan is produced. The resulting Plan is read-only and shared by every
// backend.
package generator
