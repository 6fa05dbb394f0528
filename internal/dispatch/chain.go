package dispatch

import (
	"context"
	"errors"
	"fmt"

	common "github.com/example/notification-service/internal/adapters/common"
	"github.com/example/notification-service/internal/models"
	"github.com/example/notification-service/internal/strategy"
)

// Context carries the mutable per-dispatch state through the chain. It is
// owned exclusively by one Dispatch invocation and discarded on completion;
// the chain itself holds no per-call state and is shared across concurrent
// dispatches.
type Context struct {
	Request  *models.NotificationRequest
	Strategy strategy.Strategy
	Outcome  models.DeliveryOutcome
	Response *common.ProviderResponse
}

// Handler is one pipeline stage. A nil return forwards control to the next
// stage; an error short-circuits the chain.
type Handler interface {
	Name() string
	Handle(ctx context.Context, dc *Context) error
}

// Chain is an ordered, immutable sequence of handlers assembled once at
// startup and iterated by index per dispatch.
type Chain struct {
	stages []Handler
}

// NewChain builds a chain from the supplied stages.
func NewChain(stages ...Handler) (*Chain, error) {
	if len(stages) == 0 {
		return nil, errors.New("dispatch chain: at least one stage is required")
	}
	for i, s := range stages {
		if s == nil {
			return nil, fmt.Errorf("dispatch chain: stage %d is nil", i)
		}
	}
	return &Chain{stages: append([]Handler(nil), stages...)}, nil
}

// Run executes the stages in order, stopping at the first error.
func (c *Chain) Run(ctx context.Context, dc *Context) error {
	for _, stage := range c.stages {
		if err := stage.Handle(ctx, dc); err != nil {
			return fmt.Errorf("%s: %w", stage.Name(), err)
		}
	}
	return nil
}
