package configs

import "time"

// ServiceConfig is the full service configuration, decoded from
// defaults.yaml. The store token is usually injected through the
// GITHUB_TOKEN environment variable instead of the file.
type ServiceConfig struct {
	API        apiConfig        `yaml:"api"`
	Store      StoreConfig      `yaml:"store"`
	Geocoding  geocodingConfig  `yaml:"geocoding"`
	Prometheus prometheusConfig `yaml:"prometheus"`
	Tracing    tracingConfig    `yaml:"tracing"`
}

type apiConfig struct {
	Port int `yaml:"port"`
}

// StoreConfig identifies the GitHub repository used as the blob store.
type StoreConfig struct {
	Token          string        `yaml:"token"`
	Owner          string        `yaml:"owner"`
	Repo           string        `yaml:"repo"`
	Branch         string        `yaml:"branch"`
	RequestTimeout time.Duration `yaml:"requestTimeout"`
}

type geocodingConfig struct {
	Enabled bool   `yaml:"enabled"`
	BaseURL string `yaml:"baseUrl"`
}

type prometheusConfig struct {
	MetricsPort int `yaml:"metricsPort"`
}

type tracingConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
}
