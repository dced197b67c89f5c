package engine

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/germanamz/statai/pkg/modeladapter"
	"github.com/germanamz/statai/pkg/prompt"
	"github.com/germanamz/statai/pkg/providers/deepseek"
)

const deepseekKind = "deepseek"

// Completer is a modeladapter.Completer that holds pooled connections.
// The engine closes it after every request.
type Completer interface {
	modeladapter.Completer
	Close() error
}

// ProviderRequest carries everything a factory needs to build a completer
// for one invocation.
type ProviderRequest struct {
	Config   Config
	APIKey   string
	Sampling prompt.Sampling
	Logger   *slog.Logger
}

// ProviderFactory creates a Completer for a provider kind.
type ProviderFactory func(req ProviderRequest) (Completer, error)

var (
	factoryMu   sync.RWMutex
	factories   = map[string]ProviderFactory{}
	defaultsReg sync.Once
)

func ensureDefaults() {
	defaultsReg.Do(func() {
		factories[deepseekKind] = newDeepSeek
	})
}

// RegisterProvider registers a provider factory under the given kind.
// Registering an existing kind replaces it.
func RegisterProvider(kind string, factory ProviderFactory) {
	ensureDefaults()

	factoryMu.Lock()
	defer factoryMu.Unlock()

	factories[kind] = factory
}

// getFactory returns the factory for the given kind.
func getFactory(kind string) (ProviderFactory, bool) {
	ensureDefaults()

	factoryMu.RLock()
	defer factoryMu.RUnlock()

	f, ok := factories[kind]
	return f, ok
}

func newDeepSeek(req ProviderRequest) (Completer, error) {
	retry, err := req.Config.Retry.Policy()
	if err != nil {
		return nil, err
	}
	esc, err := req.Config.Escalation.Policy()
	if err != nil {
		return nil, err
	}

	a := deepseek.New(req.Config.Provider.BaseURL, req.APIKey, req.Config.Provider.Model)
	a.Temperature = req.Sampling.Temperature
	a.MaxTokens = req.Sampling.MaxTokens
	a.Retry = retry
	a.Escalation = esc
	a.Logger = req.Logger

	return a, nil
}

// buildCompleter creates a Completer using the factory registered for the
// configured provider kind.
func buildCompleter(req ProviderRequest) (Completer, error) {
	factory, ok := getFactory(req.Config.Provider.Kind)
	if !ok {
		return nil, fmt.Errorf("engine: unknown provider kind %q", req.Config.Provider.Kind)
	}

	return factory(req)
}
