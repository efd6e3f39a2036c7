package capture

import "fmt"

// NavigationError means the target could not be reached within its timeout.
type NavigationError struct {
	Target Target
	Err    error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigating to %s: %v", e.Target.Location, e.Err)
}

func (e *NavigationError) Unwrap() error { return e.Err }

// CaptureError means a screenshot could not be rendered or written.
type CaptureError struct {
	Artifact Artifact
	Err      error
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("capturing %s: %v", e.Artifact.Name(), e.Err)
}

func (e *CaptureError) Unwrap() error { return e.Err }
