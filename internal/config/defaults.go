package config

const (
	defaultConfigPath         = "~/.config/bericht/config.toml"
	defaultProjectConfig      = "bericht.toml"
	defaultBind               = "127.0.0.1:8000"
	defaultStateDir           = "~/.local/state/bericht"
	defaultMaxUploadMB        = 100
	defaultRequestTimeout     = 300
	defaultWhisperTimeout     = 300
	defaultLLMModel           = "cortecs/Llama-3.3-70B-Instruct-FP8-Dynamic"
	defaultLLMTimeout         = 60
	defaultMailHost           = "mail.bs.ch"
	defaultMailPort           = 25
	defaultMailFrom           = "noreply@bs.ch"
	defaultMailTLSPolicy      = "opportunistic"
	defaultMailTimeout        = 30
	defaultAttachmentFilename = "document.docx"
	defaultNtfyTimeout        = 10
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultLogBufferCapacity  = 1000
)

// Default returns a Config populated with repository defaults. Fields that
// may come from the environment stay empty here and are resolved during Load.
func Default() Config {
	return Config{
		Server: Server{
			Bind:                  defaultBind,
			StateDir:              defaultStateDir,
			MaxUploadMB:           defaultMaxUploadMB,
			RequestTimeoutSeconds: defaultRequestTimeout,
		},
		Whisper: Whisper{
			TimeoutSeconds: defaultWhisperTimeout,
		},
		LLM: LLM{
			TimeoutSeconds: defaultLLMTimeout,
		},
		Mail: Mail{
			Host:               defaultMailHost,
			Port:               defaultMailPort,
			From:               defaultMailFrom,
			TLSPolicy:          defaultMailTLSPolicy,
			TimeoutSeconds:     defaultMailTimeout,
			AttachmentFilename: defaultAttachmentFilename,
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNtfyTimeout,
		},
		Logging: Logging{
			BufferCapacity: defaultLogBufferCapacity,
		},
	}
}
