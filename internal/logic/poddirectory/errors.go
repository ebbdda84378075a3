package poddirectory

import "errors"

var (
	ErrNoPodsRunning       = errors.New("no pods running for namespace")
	ErrControlPlaneStatus  = errors.New("unexpected control plane status")
	ErrControlPlaneTimeout = errors.New("control plane request timed out")
	ErrListPods            = errors.New("list pods")
)
