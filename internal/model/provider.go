package model

// ProviderName image-search provider identifier
type ProviderName string

const (
	ProviderGoogle     ProviderName = "google"
	ProviderYandex     ProviderName = "yandex"
	ProviderDuckDuckGo ProviderName = "duckduckgo"
	ProviderEcosia     ProviderName = "ecosia"
	ProviderYahoo      ProviderName = "yahoo"
	ProviderBrave      ProviderName = "brave"
)

// CanonicalProviders fixed fallback order
var CanonicalProviders = []ProviderName{
	ProviderGoogle,
	ProviderYandex,
	ProviderDuckDuckGo,
	ProviderEcosia,
	ProviderYahoo,
	ProviderBrave,
}

// Resolution sources that are not providers
const (
	SourceOverride    = "override"
	SourcePlaceholder = "placeholder"
)
