package adapter

import (
	"fmt"
	"sort"

	"LogoSync/internal/config"
	"LogoSync/internal/interfaces"
	"LogoSync/internal/model"
	"LogoSync/internal/utils/httpclient"

	"github.com/sirupsen/logrus"
)

// ProviderRegistry initialised image providers, in canonical fallback order
type ProviderRegistry struct {
	logger    *logrus.Logger
	providers map[model.ProviderName]interfaces.ImageProvider
	order     []model.ProviderName
}

// NewProviderRegistry instantiates every enabled provider of cfg.Providers that has a registered factory
func NewProviderRegistry(cfg *config.Config, logger *logrus.Logger) *ProviderRegistry {
	r := &ProviderRegistry{
		logger:    logger,
		providers: make(map[model.ProviderName]interfaces.ImageProvider),
	}

	logger.WithField("factories", ListFactories()).Debug("registered provider factories")

	for name, providerCfg := range cfg.Providers {
		provider := model.ProviderName(name)
		log := logger.WithField("provider", provider)
		if !providerCfg.Enabled {
			log.Info("provider disabled in config")
			continue
		}

		factory, ok := GetFactory(provider)
		if !ok {
			log.Error("no factory registered for provider")
			continue
		}

		pc := providerCfg
		client := httpclient.NewHTTPClient(httpclient.FromProvider(&pc), logger)
		instance := factory(&pc, client, logger)
		if instance == nil {
			log.Error("provider factory returned nil")
			continue
		}
		if instance.GetName() != provider {
			log.WithField("adapter_name", instance.GetName()).Error("adapter name does not match config key")
			continue
		}
		r.providers[provider] = instance
	}

	r.order = canonicalOrder(r.providers)
	logger.WithField("providers", r.order).Info("image providers initialised")
	return r
}

// NewStaticRegistry wraps already built providers
func NewStaticRegistry(logger *logrus.Logger, providers ...interfaces.ImageProvider) *ProviderRegistry {
	r := &ProviderRegistry{
		logger:    logger,
		providers: make(map[model.ProviderName]interfaces.ImageProvider, len(providers)),
	}
	for _, p := range providers {
		r.providers[p.GetName()] = p
	}
	r.order = canonicalOrder(r.providers)
	return r
}

// GetProvider returns an initialised provider
func (r *ProviderRegistry) GetProvider(name model.ProviderName) (interfaces.ImageProvider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("provider %s not initialised (available: %v)", name, r.order)
	}
	return p, nil
}

// ListProviders returns providers in canonical order; unknown extras follow, sorted by name
func (r *ProviderRegistry) ListProviders() []model.ProviderName {
	return append([]model.ProviderName(nil), r.order...)
}

// Count number of initialised providers
func (r *ProviderRegistry) Count() int {
	return len(r.providers)
}

func canonicalOrder(providers map[model.ProviderName]interfaces.ImageProvider) []model.ProviderName {
	order := make([]model.ProviderName, 0, len(providers))
	known := make(map[model.ProviderName]bool, len(model.CanonicalProviders))
	for _, p := range model.CanonicalProviders {
		known[p] = true
		if _, ok := providers[p]; ok {
			order = append(order, p)
		}
	}
	var extra []model.ProviderName
	for p := range providers {
		if !known[p] {
			extra = append(extra, p)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(order, extra...)
}
