// internal/adapter/adapter.go
package adapter

import (
	"fmt"
	"net/http"
	"sort"
	"sync"

	"LogoSync/internal/config"
	"LogoSync/internal/interfaces"
	"LogoSync/internal/model"

	"github.com/sirupsen/logrus"
)

// Factory builds a provider from its config and a ready HTTP client
type Factory func(cfg *config.ProviderConfig, client *http.Client, logger *logrus.Logger) interfaces.ImageProvider

var (
	factoryMu       sync.RWMutex
	factoryRegistry = make(map[model.ProviderName]Factory)
)

// Register is called from provider package init functions
func Register(provider model.ProviderName, factory Factory) {
	if factory == nil {
		panic(fmt.Sprintf("adapter: nil factory for provider %s", provider))
	}
	factoryMu.Lock()
	defer factoryMu.Unlock()
	if _, exists := factoryRegistry[provider]; exists {
		logrus.Warnf("adapter: provider %s registered twice, replacing previous factory", provider)
	}
	factoryRegistry[provider] = factory
}

// GetFactory returns the factory registered for provider
func GetFactory(provider model.ProviderName) (Factory, bool) {
	factoryMu.RLock()
	defer factoryMu.RUnlock()
	factory, ok := factoryRegistry[provider]
	return factory, ok
}

// ListFactories returns the registered provider names, sorted
func ListFactories() []model.ProviderName {
	factoryMu.RLock()
	defer factoryMu.RUnlock()
	providers := make([]model.ProviderName, 0, len(factoryRegistry))
	for p := range factoryRegistry {
		providers = append(providers, p)
	}
	sort.Slice(providers, func(i, j int) bool { return providers[i] < providers[j] })
	return providers
}
