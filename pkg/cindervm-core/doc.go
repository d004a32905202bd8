// Package cindervm provides the public embedding surface for the VM core:
// a tagged-value heap with an incremental tri-color collector, a
// frame-based bytecode interpreter, and an open native-function bridge,
// behind a single facade type that owns the VM instance's lifecycle.
//
// Everything under internal/cindervm-core is implementation detail. The
// VM, its values and its errors are reached through this package; the
// Programs it runs are assembled with the internal program package, and
// native handlers use the internal native package's helpers (see
// cmd/cindervm-demo), which only code inside this module can import.
package cindervm
