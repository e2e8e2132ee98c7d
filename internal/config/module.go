package config

import "go.uber.org/fx"

// Module exposes the sections of an already loaded *Config to the fx graph.
var Module = fx.Module("config",
	fx.Provide(
		func(cfg *Config) *ServerConfig { return &cfg.Server },
		func(cfg *Config) *LoggingConfig { return &cfg.Logging },
		func(cfg *Config) *ProviderConfig { return &cfg.Provider },
		func(cfg *Config) *SessionConfig { return &cfg.Session },
		func(cfg *Config) *StoreConfig { return &cfg.Store },
		func(cfg *Config) *CORSConfig { return &cfg.CORS },
		func(cfg *Config) *MetricsConfig { return &cfg.Metrics },
	),
)
