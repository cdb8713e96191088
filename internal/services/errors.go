package services

import (
	"errors"
	"fmt"
)

// ErrUpstream marks failures of the AI or asset providers.
var ErrUpstream = errors.New("upstream service failed")

func upstream(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrUpstream, op, err)
}
