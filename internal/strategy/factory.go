package strategy

import (
	"fmt"
	"sync"

	"github.com/example/notification-service/internal/models"
)

// Factory maps a channel to the strategy pre-wired with its default adapter.
// Registration happens at startup; Create is safe for concurrent use.
type Factory struct {
	mu         sync.RWMutex
	strategies map[models.Channel]Strategy
}

// NewFactory returns an empty strategy factory.
func NewFactory() *Factory {
	return &Factory{strategies: make(map[models.Channel]Strategy)}
}

// Register adds a strategy for its channel, replacing any previous entry.
// Adding a new channel requires only a new Strategy/Adapter pairing; no
// existing code changes.
func (f *Factory) Register(s Strategy) error {
	if s == nil {
		return fmt.Errorf("strategy factory: strategy must not be nil")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.strategies[s.Channel()] = s
	return nil
}

// Create resolves the strategy for a channel. Unknown channels report
// models.ErrUnsupportedChannel; this is caller misuse, not a transient
// condition.
func (f *Factory) Create(channel models.Channel) (Strategy, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	s, ok := f.strategies[channel]
	if !ok {
		return nil, fmt.Errorf("%w: %q", models.ErrUnsupportedChannel, channel)
	}
	return s, nil
}

// Channels returns the registered channel set, for logging at startup.
func (f *Factory) Channels() []models.Channel {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]models.Channel, 0, len(f.strategies))
	for ch := range f.strategies {
		out = append(out, ch)
	}
	return out
}
