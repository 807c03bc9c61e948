package nodeaddr

import (
	"errors"
	"fmt"
)

var (
	// ErrIllegalState is returned when the iterator is used against its
	// protocol, e.g. advanced past the last address.
	ErrIllegalState = errors.New("illegal iterator state")

	// ErrNoMoreAddresses is returned by Advance on the last address.
	ErrNoMoreAddresses = fmt.Errorf("%w: no more addresses available", ErrIllegalState)

	// ErrInvalidSettings is returned on construction with unusable settings.
	ErrInvalidSettings = errors.New("invalid iterator settings")
)

// UnknownHostError occurs when a host name cannot be resolved to at least one
// address.
type UnknownHostError struct {
	Host string
	Err  error
}

func (e *UnknownHostError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("unknown host %q", e.Host)
	}
	return fmt.Sprintf("unknown host %q: %v", e.Host, e.Err)
}

func (e *UnknownHostError) Unwrap() error {
	return e.Err
}

// IsUnknownHost reports whether err is caused by a failed resolution.
func IsUnknownHost(err error) bool {
	var uhe *UnknownHostError
	return errors.As(err, &uhe)
}
