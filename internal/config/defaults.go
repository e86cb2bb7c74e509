package config

const (
	defaultSidecarExtension = ".AAE"
	defaultVideoBackend     = VideoBackendMP4
	defaultFFprobeBinary    = "ffprobe"
	defaultExiftoolBinary   = "exiftool"
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultConfigPath       = "~/.config/organize/config.toml"
	projectConfigName       = "organize.toml"
)

// Video metadata backends.
const (
	VideoBackendMP4      = "mp4"
	VideoBackendFFprobe  = "ffprobe"
	VideoBackendExiftool = "exiftool"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Organize: Organize{
			SidecarExtension:   defaultSidecarExtension,
			SidecarsInCopyMode: false,
			SkipHidden:         false,
			VerifyCopies:       true,
		},
		Video: Video{
			Backend:        defaultVideoBackend,
			FFprobeBinary:  defaultFFprobeBinary,
			ExiftoolBinary: defaultExiftoolBinary,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
