package passthrough

import "errors"

var (
	ErrPodNotWhitelisted  = errors.New("pod ip is not whitelisted")
	ErrPathNotWhitelisted = errors.New("upstream path is not whitelisted")
	ErrInvalidScheme      = errors.New("invalid target scheme")
	ErrInvalidPort        = errors.New("invalid target port")
)
