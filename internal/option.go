package internal

import "time"

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config         *Config
	brokerThrottle time.Duration
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithBrokerThrottle caps how often archive change events are broadcast to
// SSE clients. Zero keeps the broker's default.
func WithBrokerThrottle(d time.Duration) Option {
	return func(a *application) {
		a.brokerThrottle = d
	}
}
