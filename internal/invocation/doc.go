// Package invocation turns run parameters into the exact command line of the
// fine-tuning entry point.
//
// Nothing here executes anything. Build produces a Command value; running it
// is the job of the launcher package. Every value supplied by the caller is
// forwarded as-is, so a learning rate of "3e-2" reaches the entry point as
// "3e-2" and not as "0.03".
package invocation
