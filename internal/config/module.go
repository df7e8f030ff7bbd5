package config

import "go.uber.org/fx"

// Module exposes the sections of a supplied *Config to other modules.
var Module = fx.Module("config",
	fx.Provide(
		func(c *Config) *ClientConfig { return &c.Client },
		func(c *Config) *EndpointConfig { return &c.Endpoint },
		func(c *Config) *LoggingConfig { return &c.Logging },
		func(c *Config) *ServerConfig { return &c.Server },
		func(c *Config) *MetricsConfig { return &c.Metrics },
		func(c *Config) *OAuthConfig { return &c.OAuth },
	),
)
