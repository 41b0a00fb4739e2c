package config

const (
	defaultRecordingsDir      = "~/.local/share/scribe/recordings"
	defaultArtifactsDir       = "~/.local/share/scribe/artifacts"
	defaultLogDir             = "~/.local/share/scribe/logs"
	defaultIdentityStrategy   = IdentityStrategyHash
	defaultPollInterval       = 30
	defaultErrorRetryInterval = 10
	defaultHeartbeatInterval  = 15
	defaultStaleClaimTimeout  = 900
	defaultSettleSeconds      = 30
	defaultTranscriberBaseURL = "https://api.openai.com/v1"
	defaultTranscriberModel   = "whisper-1"
	defaultTranscriberTimeout = 600
	defaultNotesBaseURL       = "https://api.openai.com/v1"
	defaultNotesModel         = "gpt-4o"
	defaultNotesTimeout       = 300
	defaultNtfyRequestTimeout = 10
	defaultFFmpegBinary       = "ffmpeg"
	defaultLogLevel           = "info"
	defaultLogFormat          = "console"
)

// Identity strategy values accepted by identity.strategy.
const (
	IdentityStrategyHash       = "hash"
	IdentityStrategyExternalID = "external_id"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			RecordingsDir: defaultRecordingsDir,
			ArtifactsDir:  defaultArtifactsDir,
			LogDir:        defaultLogDir,
		},
		Identity: Identity{
			Strategy: defaultIdentityStrategy,
		},
		Workflow: Workflow{
			PollInterval:       defaultPollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
			HeartbeatInterval:  defaultHeartbeatInterval,
			StaleClaimTimeout:  defaultStaleClaimTimeout,
			SettleSeconds:      defaultSettleSeconds,
		},
		Transcriber: Transcriber{
			BaseURL:        defaultTranscriberBaseURL,
			Model:          defaultTranscriberModel,
			TimeoutSeconds: defaultTranscriberTimeout,
		},
		Notes: Notes{
			BaseURL:        defaultNotesBaseURL,
			Model:          defaultNotesModel,
			TimeoutSeconds: defaultNotesTimeout,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyRequestTimeout,
			Started:        false,
			Completed:      true,
			Errors:         true,
		},
		Tools: Tools{
			FFmpegBinary: defaultFFmpegBinary,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
