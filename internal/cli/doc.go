// Package cli parses the launcher's command line: the local and distributed
// positional forms, the profile and override flags, and the exit codes for
// usage errors. It produces an app.Config and nothing else.
package cli
