// Package launcher runs a resolved invocation.Command as a child process.
//
// The child's output is relayed to the launcher's own streams, optionally
// teed into a log file and split into lines for a LineObserver. The child's
// exit status is surfaced as an *ExitStatusError so the caller can exit with
// the same code.
package launcher
