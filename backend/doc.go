// Package backend turns a generation plan into binding code and into a
// runnable host module.
//
// Two styles are supported. Legacy emits direct host API calls: type
// objects created explicitly and filled from static method and property
// tables. Embedded emits declarative builder chains. The emitted code
// differs but both styles install through the same runtime, so overload
// resolution, value conversion, ownership and lifecycle behave identically
// whichever style produced the module.
//
// Install checks that the native library implements every symbol the plan
// requires, creates the host classes in base-first order, binds enums,
// exceptions and functions, and installs the virtual call dispatcher into
// the library. Native objects live in a resource.Arena owned by the
// returned Installation; Close destroys whatever the host still owns.
package backend
