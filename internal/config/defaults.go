package config

const (
	defaultProjectsDir             = "~/hermes"
	defaultLogDir                  = "~/.local/share/hermes/logs"
	defaultScratchDir              = "~/.cache/hermes/scratch"
	defaultExportMode              = "opie"
	defaultAudioQuality            = "normal"
	defaultMicrophone              = "Default"
	defaultFFmpegBinary            = "ffmpeg"
	defaultToleranceMS             = 1
	defaultAutosaveIntervalSeconds = 120
	defaultScratchMaxAgeHours      = 24
	defaultLogFormat               = "console"
	defaultLogLevel                = "info"
	defaultLogRetentionDays        = 30
)

// ExportModes lists the accepted export.mode values.
var ExportModes = []string{"opie", "dictionary", "manifest"}

// AudioQualities lists the accepted audio.quality values, lowest first.
var AudioQualities = []string{"very low", "low", "normal", "high", "very high"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ProjectsDir: defaultProjectsDir,
			LogDir:      defaultLogDir,
			ScratchDir:  defaultScratchDir,
		},
		Export: Export{
			Mode: defaultExportMode,
		},
		Audio: Audio{
			Quality:      defaultAudioQuality,
			Microphone:   defaultMicrophone,
			FFmpegBinary: defaultFFmpegBinary,
		},
		Alignment: Alignment{
			ToleranceMS: defaultToleranceMS,
		},
		Session: Session{
			AutosaveEnabled:         true,
			AutosaveIntervalSeconds: defaultAutosaveIntervalSeconds,
			ScratchMaxAgeHours:      defaultScratchMaxAgeHours,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
