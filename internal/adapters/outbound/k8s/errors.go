package k8s

import (
	"errors"
	"fmt"
)

var ErrNoControlPlane = errors.New("control plane host is not configured")

// StatusError is a control plane response with a non-success status.
type StatusError struct {
	Code   int
	Reason string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("control plane status %d %s", e.Code, e.Reason)
}

func (e *StatusError) StatusCode() int {
	return e.Code
}
