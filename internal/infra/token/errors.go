package token

import "errors"

var (
	ErrReadToken  = errors.New("read token file")
	ErrParseToken = errors.New("parse token file")
	ErrEmptyToken = errors.New("token is empty")
)
