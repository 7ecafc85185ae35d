package gpu

import (
	"errors"
	"fmt"
)

// ErrResource marks device, buffer, shader and pipeline failures. A render that fails with
// it can be retried on the CPU backend.
var ErrResource = errors.New("gpu resource error")

// ResourceError reports which step of the GPU pipeline failed
type ResourceError struct {
	Stage string
	Err   error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("gpu %s: %v", e.Stage, e.Err)
}

func (e *ResourceError) Unwrap() []error {
	return []error{ErrResource, e.Err}
}

func resourceErr(stage string, err error) error {
	return &ResourceError{Stage: stage, Err: err}
}
