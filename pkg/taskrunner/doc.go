// Package taskrunner hosts the entry point for running descriptor tasks. It
// exposes the `Executor` interface plus helpers (`Factory`, `Resolve`) so the
// CLI can build dependencies once and obtain a runner, while unit tests can
// swap in fakes. Loading, planning and process handling stay in the internal
// packages.
package taskrunner
