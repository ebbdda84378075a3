package whitelist

import "errors"

var (
	ErrInvalidNamespace   = errors.New("invalid namespace name")
	ErrIPNotWhitelisted   = errors.New("ip is not part of whitelisted cidr")
	ErrPathNotWhitelisted = errors.New("path is not whitelisted")
	ErrInvalidCIDR        = errors.New("parse cidr whitelist")
	ErrInvalidPattern     = errors.New("parse path whitelist")
)
