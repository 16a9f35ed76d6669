// Package lifecycle coordinates what happens at every crossing between host
// and native code: the host execution token, exception translation in both
// directions, partial-failure rollback and destructor ordering.
//
// # Execution token
//
// The host runtime is single-threaded with respect to host objects. A
// [Token] models its global execution lock. Host entry points call
// [Token.Enter]; the hold is carried in the context so nested host calls
// on the same logical thread do not block. Native calls marked as long
// running suspend the hold for their duration.
//
// # Destructors
//
// [Coordinator.Destroy] releases the caller's hold before invoking a
// native destructor, so a destructor that waits on another thread needing
// the token cannot deadlock. The trampoline binding of the object is
// released only after the destructor returned.
//
// # Exceptions
//
// A [Translator] maps native exception types, including user declared
// exception classes, onto stable error categories. A host error that
// travels through native frames is restored verbatim when it reaches the
// host again.
package lifecycle
