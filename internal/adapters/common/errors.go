package common

import (
	"errors"
	"fmt"
)

// Sentinel errors used to classify dispatch failures. Transient failures are
// retried up to the request's budget; permanent and validation failures
// abort immediately.
var (
	ErrTransient  = errors.New("transient error")
	ErrPermanent  = errors.New("permanent error")
	ErrValidation = errors.New("validation error")
)

// WrapTransient annotates an error so callers can detect transient failures.
func WrapTransient(err error) error {
	if err == nil {
		return ErrTransient
	}
	return fmt.Errorf("%w: %v", ErrTransient, err)
}

// WrapPermanent annotates an error as permanent.
func WrapPermanent(err error) error {
	if err == nil {
		return ErrPermanent
	}
	return fmt.Errorf("%w: %v", ErrPermanent, err)
}

// WrapValidation annotates an error as a recipient/message format failure.
func WrapValidation(err error) error {
	if err == nil {
		return ErrValidation
	}
	return fmt.Errorf("%w: %v", ErrValidation, err)
}
