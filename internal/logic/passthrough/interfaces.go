package passthrough

import "context"

type gate interface {
	IsWhitelistedIP(ctx context.Context, ip string) bool
	IsWhitelistedPath(ctx context.Context, path string) bool
}
