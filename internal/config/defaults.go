package config

const (
	defaultConfigPath          = "~/.config/wesline/config.toml"
	defaultDataDir             = "~/.local/share/wesline"
	defaultLogDir              = "~/.local/share/wesline/logs"
	defaultBind                = "127.0.0.1:8787"
	defaultReadHeaderTimeout   = 5
	defaultWriteTimeout        = 60
	defaultShutdownTimeout     = 5
	defaultUpstreamMode        = ModeFailover
	defaultUpstreamPrefix      = "/api"
	defaultUpstreamTimeout     = 30
	defaultMaxBodyBytes        = 1 << 20
	defaultUserAgent           = "wesline/dev"
	defaultCORSMaxAge          = 600
	defaultRequestsPerSecond   = 10
	defaultBurst               = 20
	defaultLimiterIdleSeconds  = 300
	defaultHistoryRetention    = 30
	defaultHistoryMaxEntries   = 1000
	defaultHistoryPruneSeconds = 3600
	defaultMeter               = "4/4"
	defaultUnitLength          = "1/8"
	defaultTempo               = 160
	defaultBarsPerLine         = 4
	defaultNtfyTimeout         = 10
	defaultHealthInterval      = 60
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// Upstream modes.
const (
	ModeAPI      = "api"
	ModeWorker   = "worker"
	ModeFailover = "failover"
)

var (
	defaultAllowedOrigins = []string{"*"}
	defaultAllowedMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	defaultAllowedHeaders = []string{"Content-Type", "Authorization", "X-Request-ID"}
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Server: Server{
			Bind:              defaultBind,
			ReadHeaderTimeout: defaultReadHeaderTimeout,
			WriteTimeout:      defaultWriteTimeout,
			ShutdownTimeout:   defaultShutdownTimeout,
		},
		Upstream: Upstream{
			Mode:           defaultUpstreamMode,
			Prefix:         defaultUpstreamPrefix,
			TimeoutSeconds: defaultUpstreamTimeout,
			MaxBodyBytes:   defaultMaxBodyBytes,
			UserAgent:      defaultUserAgent,
		},
		CORS: CORS{
			AllowedOrigins: append([]string(nil), defaultAllowedOrigins...),
			AllowedMethods: append([]string(nil), defaultAllowedMethods...),
			AllowedHeaders: append([]string(nil), defaultAllowedHeaders...),
			MaxAgeSeconds:  defaultCORSMaxAge,
		},
		RateLimit: RateLimit{
			Enabled:           true,
			RequestsPerSecond: defaultRequestsPerSecond,
			Burst:             defaultBurst,
			IdleSeconds:       defaultLimiterIdleSeconds,
		},
		History: History{
			Enabled:              true,
			RetentionDays:        defaultHistoryRetention,
			MaxEntries:           defaultHistoryMaxEntries,
			PruneIntervalSeconds: defaultHistoryPruneSeconds,
		},
		Notation: Notation{
			Meter:       defaultMeter,
			UnitLength:  defaultUnitLength,
			Tempo:       defaultTempo,
			BarsPerLine: defaultBarsPerLine,
		},
		Notifications: Notifications{
			RequestTimeout:        defaultNtfyTimeout,
			HealthIntervalSeconds: defaultHealthInterval,
			DaemonLifecycle:       true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
