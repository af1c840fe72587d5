package launcher

import "fmt"

// ExitStatusError reports a child process that ended with a non-zero status.
// A child terminated by a signal reports 128 plus the signal number, the
// same convention shells use.
type ExitStatusError struct {
	Code int
}

func (e *ExitStatusError) Error() string {
	return fmt.Sprintf("process exited with status %d", e.Code)
}
