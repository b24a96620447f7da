package adapter_test

import (
	"context"
	"io"
	"testing"

	"LogoSync/internal/adapter"
	_ "LogoSync/internal/adapter/duckduckgo"
	_ "LogoSync/internal/adapter/htmlsearch"
	"LogoSync/internal/config"
	"LogoSync/internal/model"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type stubProvider struct{ name model.ProviderName }

func (s stubProvider) GetName() model.ProviderName { return s.name }
func (s stubProvider) SearchImage(context.Context, string) (string, error) {
	return "https://img.test/" + string(s.name) + ".png", nil
}

func TestListFactories_AllProvidersRegistered(t *testing.T) {
	t.Parallel()
	got := adapter.ListFactories()
	for _, p := range model.CanonicalProviders {
		assert.Contains(t, got, p)
	}
}

func TestNewProviderRegistry_DefaultConfig(t *testing.T) {
	t.Parallel()
	r := adapter.NewProviderRegistry(config.Default(), quietLogger())
	assert.Equal(t, model.CanonicalProviders, r.ListProviders())
	assert.Equal(t, len(model.CanonicalProviders), r.Count())

	for _, name := range model.CanonicalProviders {
		p, err := r.GetProvider(name)
		require.NoError(t, err)
		assert.Equal(t, name, p.GetName())
	}
}

func TestNewProviderRegistry_SkipsDisabledAndUnknown(t *testing.T) {
	t.Parallel()
	cfg := config.Default()
	google := cfg.Providers["google"]
	google.Enabled = false
	cfg.Providers["google"] = google
	cfg.Providers["altavista"] = config.ProviderConfig{Enabled: true}

	r := adapter.NewProviderRegistry(cfg, quietLogger())
	assert.NotContains(t, r.ListProviders(), model.ProviderGoogle)
	assert.NotContains(t, r.ListProviders(), model.ProviderName("altavista"))
	assert.Equal(t, len(model.CanonicalProviders)-1, r.Count())

	_, err := r.GetProvider(model.ProviderGoogle)
	assert.Error(t, err)
}

func TestNewStaticRegistry_Order(t *testing.T) {
	t.Parallel()
	r := adapter.NewStaticRegistry(quietLogger(),
		stubProvider{"zeta"},
		stubProvider{model.ProviderBrave},
		stubProvider{"alpha"},
		stubProvider{model.ProviderGoogle},
	)
	assert.Equal(t, []model.ProviderName{model.ProviderGoogle, model.ProviderBrave, "alpha", "zeta"}, r.ListProviders())
}
