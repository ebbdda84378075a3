package poddirectory

import "context"

// Repository is the port interface for the control plane pod listing.
// Implementations are provided by adapters in the outbound layer.
type Repository interface {
	ListPodsQuery(
		ctx context.Context,
		namespace string,
	) ([]Pod, error)
}

// statusCoder is a private interface for reading the control plane response
// code without importing the adapter package.
type statusCoder interface {
	StatusCode() int
}

// ipWhitelister authorizes pod IPs.
type ipWhitelister interface {
	IsWhitelistedIP(ctx context.Context, ip string) bool
}
