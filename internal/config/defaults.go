package config

const (
	defaultJikanBaseURL  = "https://api.jikan.moe/v4"
	defaultJikanDelay    = 4
	defaultJikanAttempts = 2
	defaultJikanLimit    = 10
	defaultJikanTimeout  = 30
	defaultDataDir       = "~/.local/share/anitransfer"
	defaultCacheDir      = "~/.cache/anitransfer/jikan_cache"
	defaultLogDir        = "~/.local/share/anitransfer/logs"
	defaultMappingFile   = "cache.csv"
	defaultBlacklistFile = "bad.csv"
	defaultMaxChoices    = 5
	defaultMaxPasses     = 3
	defaultOutputFile    = "convert.xml"
	defaultLogFormat     = "console"
	defaultLogLevel      = "info"
	defaultIgnoreExpiry  = true
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Jikan: Jikan{
			BaseURL:               defaultJikanBaseURL,
			DelaySeconds:          defaultJikanDelay,
			SearchAttempts:        defaultJikanAttempts,
			SearchLimit:           defaultJikanLimit,
			RequestTimeoutSeconds: defaultJikanTimeout,
		},
		Paths: Paths{
			DataDir:       defaultDataDir,
			CacheDir:      defaultCacheDir,
			LogDir:        defaultLogDir,
			MappingFile:   defaultMappingFile,
			BlacklistFile: defaultBlacklistFile,
		},
		Matching: Matching{
			MaxChoices:   defaultMaxChoices,
			IgnoreExpiry: defaultIgnoreExpiry,
			MaxPasses:    defaultMaxPasses,
		},
		Output: Output{
			File: defaultOutputFile,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
