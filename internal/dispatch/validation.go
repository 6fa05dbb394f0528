package dispatch

import (
	"context"
	"errors"
	"fmt"

	common "github.com/example/notification-service/internal/adapters/common"
)

// ValidationStage rejects structurally broken requests before any provider
// work happens. Channel-specific recipient formats are checked deeper in the
// pipeline by the channel strategy; this stage only enforces what every
// channel needs.
type ValidationStage struct {
	maxMessageLen   int
	maxRecipientLen int
}

// NewValidationStage builds the stage. Non-positive limits disable the
// corresponding length check.
func NewValidationStage(maxMessageLen, maxRecipientLen int) *ValidationStage {
	return &ValidationStage{
		maxMessageLen:   maxMessageLen,
		maxRecipientLen: maxRecipientLen,
	}
}

func (s *ValidationStage) Name() string { return "validation" }

func (s *ValidationStage) Handle(_ context.Context, dc *Context) error {
	if dc.Request == nil {
		return errors.New("nil request")
	}
	req := dc.Request
	if req.Recipient == "" {
		return common.WrapValidation(errors.New("recipient is empty"))
	}
	if req.Message == "" {
		return common.WrapValidation(errors.New("message is empty"))
	}
	if s.maxRecipientLen > 0 && len(req.Recipient) > s.maxRecipientLen {
		return common.WrapValidation(fmt.Errorf("recipient exceeds %d bytes", s.maxRecipientLen))
	}
	if s.maxMessageLen > 0 && len(req.Message) > s.maxMessageLen {
		return common.WrapValidation(fmt.Errorf("message exceeds %d bytes", s.maxMessageLen))
	}
	if dc.Strategy == nil {
		return errors.New("no strategy resolved for request")
	}
	if dc.Strategy.Channel() != req.Channel {
		return fmt.Errorf("strategy channel %q does not match request channel %q", dc.Strategy.Channel(), req.Channel)
	}
	return nil
}
