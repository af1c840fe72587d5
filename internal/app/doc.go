// Package app contains the launcher's application logic. It resolves the
// run from CLI values and profile files, starts the entry point, and wires
// the supporting services (status server, run reporter, artifact upload)
// around the child process. It is decoupled from any specific entrypoint.
package app
