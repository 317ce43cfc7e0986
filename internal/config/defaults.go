package config

const (
	defaultStateDir  = "~/.local/share/podium"
	defaultUploadDir = "~/.local/share/podium/uploads"
	defaultChunkDir  = "~/.local/share/podium/chunks"
	defaultLogDir    = "~/.local/share/podium/logs"
	defaultAPIBind   = "127.0.0.1:8401"

	defaultMaxFileBytes      = 500 << 20 // 500 MiB
	defaultChunkSizeBytes    = 5 << 20   // 5 MiB
	defaultSessionTTLMinutes = 120
	defaultRetentionMinutes  = 1440
	defaultSweepInterval     = 300
	defaultFreeBytesMargin   = 1 << 30 // keep 1 GiB free on the chunk volume

	defaultStageTimeoutSeconds = 300
	defaultPipelineWorkers     = 2
	defaultQueuePollInterval   = 2
	defaultErrorRetryInterval  = 10

	defaultLLMBaseURL        = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel          = "openai/gpt-4o-mini"
	defaultLLMTimeoutSeconds = 60

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir:  defaultStateDir,
			UploadDir: defaultUploadDir,
			ChunkDir:  defaultChunkDir,
			LogDir:    defaultLogDir,
			APIBind:   defaultAPIBind,
		},
		Upload: Upload{
			MaxFileBytes:       defaultMaxFileBytes,
			ChunkSizeBytes:     defaultChunkSizeBytes,
			AllowedExtensions:  []string{".mp4", ".mov"},
			SessionTTLMinutes:  defaultSessionTTLMinutes,
			RetentionMinutes:   defaultRetentionMinutes,
			SweepIntervalSecs:  defaultSweepInterval,
			MinFreeBytesMargin: defaultFreeBytesMargin,
		},
		Analysis: Analysis{
			AudioCommand:        []string{"podium-audio-analyzer"},
			VisualCommand:       []string{"podium-visual-analyzer"},
			NarrativeCommand:    []string{"podium-narrative-analyzer"},
			StageTimeoutSeconds: defaultStageTimeoutSeconds,
		},
		Pipeline: Pipeline{
			Workers:            defaultPipelineWorkers,
			QueuePollInterval:  defaultQueuePollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Notifications: Notifications{
			RequestTimeout: 10,
			Completion:     true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
