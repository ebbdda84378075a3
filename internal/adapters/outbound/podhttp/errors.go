package podhttp

import "strconv"

// UnexpectedStatusError is returned when a pod answers with anything but 200.
type UnexpectedStatusError struct {
	Code int
}

func (e *UnexpectedStatusError) Error() string {
	return "unexpected status " + strconv.Itoa(e.Code)
}

func (e *UnexpectedStatusError) StatusCode() int {
	return e.Code
}
