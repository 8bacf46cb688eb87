package utils

import (
	"errors"
	"io"
)

var ErrTooLarge = errors.New("payload too large")

// ReadAllLimit reads r fully, failing once more than max bytes arrive.
// A max of zero or less means no limit.
func ReadAllLimit(r io.Reader, max int64) ([]byte, error) {
	if max <= 0 {
		return io.ReadAll(r)
	}
	lr := io.LimitReader(r, max+1)
	b, err := io.ReadAll(lr)
	if err != nil {
		return nil, err
	}
	if int64(len(b)) > max {
		return nil, ErrTooLarge
	}
	return b, nil
}
