package config

const (
	defaultConfigPath       = "~/.config/pixelwatch/config.toml"
	defaultStateDir         = "~/.local/share/pixelwatch"
	defaultLogDir           = "~/.local/share/pixelwatch/logs"
	defaultDriverBinary     = "geckodriver"
	defaultDriverHeadless   = true
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultLogRetentionDays = 30
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Driver: Driver{
			Binary:   defaultDriverBinary,
			Headless: defaultDriverHeadless,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
