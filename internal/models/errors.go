package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnsupportedChannel is returned for channel values outside the
	// supported set. It signals caller misuse rather than a transient
	// condition and is never retried.
	ErrUnsupportedChannel = errors.New("unsupported channel")
	// ErrIncompleteRequest is returned by the builder when a required field
	// (channel, recipient, message) was never set.
	ErrIncompleteRequest = errors.New("incomplete notification request")
	// ErrInvalidPriority is returned for priority values outside the
	// supported set.
	ErrInvalidPriority = errors.New("invalid priority")
)

// ParseChannel normalizes and validates a channel identifier.
func ParseChannel(value string) (Channel, error) {
	switch Channel(strings.TrimSpace(strings.ToLower(value))) {
	case ChannelEmail:
		return ChannelEmail, nil
	case ChannelSMS:
		return ChannelSMS, nil
	case ChannelPush:
		return ChannelPush, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedChannel, value)
	}
}

// ParsePriority normalizes and validates a priority value. An empty value
// defaults to PriorityNormal.
func ParsePriority(value string) (Priority, error) {
	switch Priority(strings.TrimSpace(strings.ToLower(value))) {
	case "":
		return PriorityNormal, nil
	case PriorityLow:
		return PriorityLow, nil
	case PriorityNormal:
		return PriorityNormal, nil
	case PriorityHigh:
		return PriorityHigh, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPriority, value)
	}
}
