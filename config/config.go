package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds everything the service reads from the environment, with an
// optional config.yaml overlay for local development.
type Config struct {
	Port       string `yaml:"port"`
	DailyLimit int    `yaml:"daily_limit"`

	OutputDir string `yaml:"output_dir"`
	ClipsDir  string `yaml:"clips_dir"`
	MusicDir  string `yaml:"music_dir"`

	PexelsAPIKey  string `yaml:"pexels_api_key"`
	PixabayAPIKey string `yaml:"pixabay_api_key"`
	OpenAIAPIKey  string `yaml:"openai_api_key"`
	OpenAIModel   string `yaml:"openai_model"`
	TTSCommand    string `yaml:"tts_command"`

	SupabaseURL    string `yaml:"supabase_url"`
	SupabaseKey    string `yaml:"supabase_key"`
	SupabaseBucket string `yaml:"supabase_bucket"`

	RedisAddr string `yaml:"redis_addr"`
	QueueName string `yaml:"queue_name"`

	// serial: one consumer loop, FIFO. spawn: one goroutine per job.
	SchedulerMode string `yaml:"scheduler_mode"`

	DownloadAttempts int `yaml:"download_attempts"`
	MaxClips         int `yaml:"max_clips"`
}

// Load builds the config from environment variables. If a config.yaml sits
// next to the binary its values win over the env fallbacks but lose to
// explicitly set env vars.
func Load() Config {
	cfg := Config{
		Port:             getEnv("PORT", "8080"),
		DailyLimit:       getEnvInt("DAILY_LIMIT", 5),
		OutputDir:        getEnv("OUTPUT_DIR", "outputs"),
		ClipsDir:         getEnv("CLIPS_DIR", "clips_cache"),
		MusicDir:         getEnv("MUSIC_DIR", "music"),
		PexelsAPIKey:     os.Getenv("PEXELS_API_KEY"),
		PixabayAPIKey:    os.Getenv("PIXABAY_API_KEY"),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:      getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		TTSCommand:       os.Getenv("TTS_COMMAND"),
		SupabaseURL:      os.Getenv("SUPABASE_URL"),
		SupabaseKey:      os.Getenv("SUPABASE_SERVICE_KEY"),
		SupabaseBucket:   getEnv("SUPABASE_BUCKET", "funny-videos"),
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		QueueName:        getEnv("QUEUE_NAME", "video-jobs"),
		SchedulerMode:    getEnv("SCHEDULER_MODE", "serial"),
		DownloadAttempts: getEnvInt("DOWNLOAD_ATTEMPTS", 3),
		MaxClips:         getEnvInt("MAX_CLIPS", 3),
	}

	if data, err := os.ReadFile("config.yaml"); err == nil {
		var overlay Config
		if err := yaml.Unmarshal(data, &overlay); err == nil {
			mergeOverlay(&cfg, overlay)
		} else if Log != nil {
			Log.WithField("error", err).Warn("invalid config.yaml, ignoring")
		}
	}

	return cfg
}

// HasProviderCredentials reports whether the content pipeline can reach its
// upstream APIs. Listing and health routes stay usable without them.
func (c Config) HasProviderCredentials() bool {
	return c.PexelsAPIKey != "" && c.OpenAIAPIKey != ""
}

// HasUploader reports whether remote publishing is configured.
func (c Config) HasUploader() bool {
	return c.SupabaseURL != "" && c.SupabaseKey != ""
}

func mergeOverlay(dst *Config, src Config) {
	// Env vars explicitly set in the environment keep priority. Only fill
	// fields the overlay provides and the env left at a default or empty.
	overlayString(&dst.Port, src.Port, "PORT")
	overlayString(&dst.OutputDir, src.OutputDir, "OUTPUT_DIR")
	overlayString(&dst.ClipsDir, src.ClipsDir, "CLIPS_DIR")
	overlayString(&dst.MusicDir, src.MusicDir, "MUSIC_DIR")
	overlayString(&dst.PexelsAPIKey, src.PexelsAPIKey, "PEXELS_API_KEY")
	overlayString(&dst.PixabayAPIKey, src.PixabayAPIKey, "PIXABAY_API_KEY")
	overlayString(&dst.OpenAIAPIKey, src.OpenAIAPIKey, "OPENAI_API_KEY")
	overlayString(&dst.OpenAIModel, src.OpenAIModel, "OPENAI_MODEL")
	overlayString(&dst.TTSCommand, src.TTSCommand, "TTS_COMMAND")
	overlayString(&dst.SupabaseURL, src.SupabaseURL, "SUPABASE_URL")
	overlayString(&dst.SupabaseKey, src.SupabaseKey, "SUPABASE_SERVICE_KEY")
	overlayString(&dst.SupabaseBucket, src.SupabaseBucket, "SUPABASE_BUCKET")
	overlayString(&dst.RedisAddr, src.RedisAddr, "REDIS_ADDR")
	overlayString(&dst.QueueName, src.QueueName, "QUEUE_NAME")
	overlayString(&dst.SchedulerMode, src.SchedulerMode, "SCHEDULER_MODE")
	if src.DailyLimit > 0 && os.Getenv("DAILY_LIMIT") == "" {
		dst.DailyLimit = src.DailyLimit
	}
	if src.DownloadAttempts > 0 && os.Getenv("DOWNLOAD_ATTEMPTS") == "" {
		dst.DownloadAttempts = src.DownloadAttempts
	}
	if src.MaxClips > 0 && os.Getenv("MAX_CLIPS") == "" {
		dst.MaxClips = src.MaxClips
	}
}

func overlayString(dst *string, overlay, envKey string) {
	if overlay != "" && os.Getenv(envKey) == "" {
		*dst = overlay
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}
