// Package ownership decides, for every pointer, reference and smart
// pointer occurrence in a declaration, how lifetime crosses the boundary.
//
// [Derive] computes an [Annotation] from the C++ qualifiers and an
// optional return value policy. The annotation is computed once during
// generation and stored in the plan; it is never re-derived at call time.
// Qualifier combinations that do not determine a single answer fail with
// an ambiguous-ownership error instead of guessing.
//
// [PlanReturn] and [PlanParam] turn annotations into the wrapper the
// runtime builds. Borrowed views returned from members are re-resolved
// from their owner on every access. A borrowed view is valid only while
// its owner is alive: using a view after the owner was destroyed is
// undefined and not guarded at runtime.
package ownership
