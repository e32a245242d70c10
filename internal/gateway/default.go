package gateway

import (
	"fmt"
	"sync"

	"github.com/relaywise/llmgate/internal/config"
	"github.com/relaywise/llmgate/internal/transport"
)

var (
	defaultOnce   sync.Once
	defaultClient *Client
	defaultErr    error
)

// Default returns the application-wide client, constructed lazily from the
// environment on first call and reused afterwards. It fails fast when the
// API key is absent; the same error is returned on every subsequent call.
func Default() (*Client, error) {
	defaultOnce.Do(func() {
		cfg, err := config.FromEnv()
		if err != nil {
			defaultErr = fmt.Errorf("invalid configuration: %w", err)
			return
		}
		tr, err := transport.NewAnthropic(cfg.APIKey)
		if err != nil {
			defaultErr = fmt.Errorf("upstream client unavailable: %w", err)
			return
		}
		defaultClient, defaultErr = Open(cfg, tr)
	})
	return defaultClient, defaultErr
}
