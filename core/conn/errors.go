package conn

import "errors"

var (
	// ErrUnexpectedOperation is reported to a machine that returns an
	// operation its polling method is not allowed to return.
	ErrUnexpectedOperation = errors.New("conn: unexpected machine operation")
)
