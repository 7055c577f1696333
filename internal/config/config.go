package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type TelemetryConfig struct {
	LogLevel       string `yaml:"log_level"`
	OTLPEndpoint   string `yaml:"otlp_endpoint"`
	OTLPInsecure   bool   `yaml:"otlp_insecure"`
	PrometheusBind string `yaml:"prometheus_bind"`
}

type HTTPConfig struct {
	Bind        string   `yaml:"bind"`
	Port        int      `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
}

type Config struct {
	ServiceName string           `yaml:"service_name"`
	Environment string           `yaml:"environment"`
	HTTP        HTTPConfig       `yaml:"http"`
	Telemetry   TelemetryConfig  `yaml:"telemetry"`
	Bus         BusConfig        `yaml:"bus"`
	Store       StoreConfig      `yaml:"store"`
	Stations    StationsConfig   `yaml:"stations"`
	Collectors  CollectorsConfig `yaml:"collectors"`
	Mixer       MixerConfig      `yaml:"mixer"`
	Script      ScriptConfig     `yaml:"script"`
	Voice       VoiceConfig      `yaml:"voice"`
	Cover       CoverConfig      `yaml:"cover"`
	Assembly    AssemblyConfig   `yaml:"assembly"`
	Pipeline    PipelineConfig   `yaml:"pipeline"`
}

type BusConfig struct {
	Embedded       bool     `yaml:"embedded"`
	Port           int      `yaml:"port"`
	StoreDir       string   `yaml:"store_dir"`
	Servers        []string `yaml:"servers"`
	Username       string   `yaml:"username"`
	Password       string   `yaml:"password"`
	Token          string   `yaml:"token"`
	TLSInsecure    bool     `yaml:"tls_insecure"`
	ConnectTimeout int      `yaml:"connect_timeout_ms"`
}

type StoreConfig struct {
	Path          string `yaml:"path"`
	RetentionDays int    `yaml:"retention_days"`
	MaxRuns       int    `yaml:"max_runs"`
	VacuumOnStart bool   `yaml:"vacuum_on_start"`
}

type StationsConfig struct {
	Directory      string `yaml:"directory"`
	DefaultStation string `yaml:"default_station"`
}

type FeedConfig struct {
	URL      string `yaml:"url"`
	Category string `yaml:"category"`
	Weight   int    `yaml:"weight"`
}

type WeatherConfig struct {
	Enabled   bool    `yaml:"enabled"`
	City      string  `yaml:"city"`
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
}

type CryptoConfig struct {
	Enabled    bool     `yaml:"enabled"`
	Coins      []string `yaml:"coins"`
	VsCurrency string   `yaml:"vs_currency"`
}

type CollectorsConfig struct {
	Feeds     []FeedConfig  `yaml:"feeds"`
	Weather   WeatherConfig `yaml:"weather"`
	Crypto    CryptoConfig  `yaml:"crypto"`
	TimeoutMS int           `yaml:"timeout_ms"`
	UserAgent string        `yaml:"user_agent"`
}

type MixerConfig struct {
	MinViableItems int    `yaml:"min_viable_items"`
	DefaultProfile string `yaml:"default_profile"`
}

type ScriptConfig struct {
	Mode           string  `yaml:"mode"` // mock, openai, ollama
	Model          string  `yaml:"model"`
	Endpoint       string  `yaml:"endpoint"` // ollama only
	Temperature    float64 `yaml:"temperature"`
	MaxTokens      int     `yaml:"max_tokens"`
	WordsPerMinute int     `yaml:"words_per_minute"`
	TimeoutMS      int     `yaml:"timeout_ms"`
}

type VoiceConfig struct {
	Mode        string `yaml:"mode"` // mock, elevenlabs
	Endpoint    string `yaml:"endpoint"`
	ModelID     string `yaml:"model_id"`
	Concurrency int    `yaml:"concurrency"`
	MaxAttempts int    `yaml:"max_attempts"`
	TimeoutMS   int    `yaml:"timeout_ms"`
}

type CoverConfig struct {
	Enabled bool   `yaml:"enabled"`
	Mode    string `yaml:"mode"` // mock, openai
	Model   string `yaml:"model"`
	Size    string `yaml:"size"`
}

type AssemblyConfig struct {
	OutputDir     string `yaml:"output_dir"`
	WorkDir       string `yaml:"work_dir"`
	FFmpegCommand string `yaml:"ffmpeg_command"`
	BitrateKbps   int    `yaml:"bitrate_kbps"`
	SampleRate    int    `yaml:"sample_rate"`
	GapMS         int    `yaml:"gap_ms"`
	Artist        string `yaml:"artist"`
	Album         string `yaml:"album"`
}

type PipelineConfig struct {
	MaxConcurrentRuns      int  `yaml:"max_concurrent_runs"`
	DefaultDurationMinutes int  `yaml:"default_duration_minutes"`
	PublishEvents          bool `yaml:"publish_events"`
	BusTrigger             bool `yaml:"bus_trigger"`
}

func Default() Config {
	return Config{
		ServiceName: "aircast",
		Environment: "development",
		HTTP: HTTPConfig{
			Bind:        "0.0.0.0",
			Port:        8080,
			CORSOrigins: []string{"http://localhost:3000"},
		},
		Telemetry: TelemetryConfig{
			LogLevel:       "info",
			OTLPEndpoint:   "",
			OTLPInsecure:   true,
			PrometheusBind: ":9091",
		},
		Bus: BusConfig{
			Embedded:       true,
			Port:           4222,
			StoreDir:       "./data/nats",
			Servers:        []string{"nats://localhost:4222"},
			ConnectTimeout: 2000,
		},
		Store: StoreConfig{
			Path:          "./data/aircast.db",
			RetentionDays: 30,
			MaxRuns:       5000,
		},
		Stations: StationsConfig{
			Directory:      "./stations",
			DefaultStation: "breaking_news",
		},
		Collectors: CollectorsConfig{
			Feeds: []FeedConfig{
				{URL: "https://www.srf.ch/news/bnf/rss/1646", Category: "world", Weight: 8},
				{URL: "https://www.20min.ch/rss/rss.tmpl?type=channel&get=4", Category: "local", Weight: 6},
				{URL: "https://cointelegraph.com/rss/tag/bitcoin", Category: "bitcoin", Weight: 8},
				{URL: "https://www.theverge.com/rss/index.xml", Category: "technology", Weight: 7},
			},
			Weather: WeatherConfig{
				Enabled:   true,
				City:      "Zurich",
				Latitude:  47.3769,
				Longitude: 8.5417,
			},
			Crypto: CryptoConfig{
				Enabled:    true,
				Coins:      []string{"bitcoin"},
				VsCurrency: "usd",
			},
			TimeoutMS: 15000,
			UserAgent: "aircast/0.1",
		},
		Mixer: MixerConfig{
			MinViableItems: 3,
			DefaultProfile: "balanced_news",
		},
		Script: ScriptConfig{
			Mode:           "mock",
			Model:          "gpt-4o",
			Endpoint:       "http://localhost:11434",
			Temperature:    0.8,
			MaxTokens:      4096,
			WordsPerMinute: 150,
			TimeoutMS:      120000,
		},
		Voice: VoiceConfig{
			Mode:        "mock",
			Endpoint:    "https://api.elevenlabs.io",
			ModelID:     "eleven_multilingual_v2",
			Concurrency: 3,
			MaxAttempts: 3,
			TimeoutMS:   60000,
		},
		Cover: CoverConfig{
			Enabled: true,
			Mode:    "mock",
			Model:   "dall-e-3",
			Size:    "1024x1024",
		},
		Assembly: AssemblyConfig{
			OutputDir:     "./data/broadcasts",
			WorkDir:       "./data/work",
			FFmpegCommand: "ffmpeg",
			BitrateKbps:   128,
			SampleRate:    44100,
			GapMS:         500,
			Artist:        "Marcel & Jarvis",
			Album:         "aircast AI Broadcasts",
		},
		Pipeline: PipelineConfig{
			MaxConcurrentRuns:      2,
			DefaultDurationMinutes: 10,
			PublishEvents:          true,
		},
	}
}

func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return cfg, fmt.Errorf("config file not found: %w", err)
			}
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.ServiceName, "AIRCAST_SERVICE_NAME")
	overrideString(&cfg.Environment, "AIRCAST_ENVIRONMENT")
	overrideString(&cfg.HTTP.Bind, "AIRCAST_HTTP_BIND")
	overrideInt(&cfg.HTTP.Port, "AIRCAST_HTTP_PORT")
	overrideStringSlice(&cfg.HTTP.CORSOrigins, "AIRCAST_HTTP_CORS_ORIGINS")
	overrideString(&cfg.Telemetry.LogLevel, "AIRCAST_TELEMETRY_LOG_LEVEL")
	overrideString(&cfg.Telemetry.OTLPEndpoint, "AIRCAST_TELEMETRY_OTLP_ENDPOINT")
	overrideBool(&cfg.Telemetry.OTLPInsecure, "AIRCAST_TELEMETRY_OTLP_INSECURE")
	overrideString(&cfg.Telemetry.PrometheusBind, "AIRCAST_TELEMETRY_PROMETHEUS_BIND")
	overrideBool(&cfg.Bus.Embedded, "AIRCAST_BUS_EMBEDDED")
	overrideInt(&cfg.Bus.Port, "AIRCAST_BUS_PORT")
	overrideString(&cfg.Bus.StoreDir, "AIRCAST_BUS_STORE_DIR")
	overrideStringSlice(&cfg.Bus.Servers, "AIRCAST_BUS_SERVERS")
	overrideString(&cfg.Bus.Username, "AIRCAST_BUS_USERNAME")
	overrideString(&cfg.Bus.Password, "AIRCAST_BUS_PASSWORD")
	overrideString(&cfg.Bus.Token, "AIRCAST_BUS_TOKEN")
	overrideBool(&cfg.Bus.TLSInsecure, "AIRCAST_BUS_TLS_INSECURE")
	overrideInt(&cfg.Bus.ConnectTimeout, "AIRCAST_BUS_CONNECT_TIMEOUT_MS")
	overrideString(&cfg.Store.Path, "AIRCAST_STORE_PATH")
	overrideInt(&cfg.Store.RetentionDays, "AIRCAST_STORE_RETENTION_DAYS")
	overrideInt(&cfg.Store.MaxRuns, "AIRCAST_STORE_MAX_RUNS")
	overrideBool(&cfg.Store.VacuumOnStart, "AIRCAST_STORE_VACUUM_ON_START")
	overrideString(&cfg.Stations.Directory, "AIRCAST_STATIONS_DIRECTORY")
	overrideString(&cfg.Stations.DefaultStation, "AIRCAST_STATIONS_DEFAULT")
	overrideInt(&cfg.Collectors.TimeoutMS, "AIRCAST_COLLECTORS_TIMEOUT_MS")
	overrideString(&cfg.Collectors.UserAgent, "AIRCAST_COLLECTORS_USER_AGENT")
	overrideBool(&cfg.Collectors.Weather.Enabled, "AIRCAST_WEATHER_ENABLED")
	overrideString(&cfg.Collectors.Weather.City, "AIRCAST_WEATHER_CITY")
	overrideFloat(&cfg.Collectors.Weather.Latitude, "AIRCAST_WEATHER_LATITUDE")
	overrideFloat(&cfg.Collectors.Weather.Longitude, "AIRCAST_WEATHER_LONGITUDE")
	overrideBool(&cfg.Collectors.Crypto.Enabled, "AIRCAST_CRYPTO_ENABLED")
	overrideStringSlice(&cfg.Collectors.Crypto.Coins, "AIRCAST_CRYPTO_COINS")
	overrideString(&cfg.Collectors.Crypto.VsCurrency, "AIRCAST_CRYPTO_VS_CURRENCY")
	overrideInt(&cfg.Mixer.MinViableItems, "AIRCAST_MIXER_MIN_VIABLE_ITEMS")
	overrideString(&cfg.Mixer.DefaultProfile, "AIRCAST_MIXER_DEFAULT_PROFILE")
	overrideString(&cfg.Script.Mode, "AIRCAST_SCRIPT_MODE")
	overrideString(&cfg.Script.Model, "AIRCAST_SCRIPT_MODEL")
	overrideString(&cfg.Script.Endpoint, "AIRCAST_SCRIPT_ENDPOINT")
	overrideFloat(&cfg.Script.Temperature, "AIRCAST_SCRIPT_TEMPERATURE")
	overrideInt(&cfg.Script.MaxTokens, "AIRCAST_SCRIPT_MAX_TOKENS")
	overrideInt(&cfg.Script.WordsPerMinute, "AIRCAST_SCRIPT_WORDS_PER_MINUTE")
	overrideInt(&cfg.Script.TimeoutMS, "AIRCAST_SCRIPT_TIMEOUT_MS")
	overrideString(&cfg.Voice.Mode, "AIRCAST_VOICE_MODE")
	overrideString(&cfg.Voice.Endpoint, "AIRCAST_VOICE_ENDPOINT")
	overrideString(&cfg.Voice.ModelID, "AIRCAST_VOICE_MODEL_ID")
	overrideInt(&cfg.Voice.Concurrency, "AIRCAST_VOICE_CONCURRENCY")
	overrideInt(&cfg.Voice.MaxAttempts, "AIRCAST_VOICE_MAX_ATTEMPTS")
	overrideInt(&cfg.Voice.TimeoutMS, "AIRCAST_VOICE_TIMEOUT_MS")
	overrideBool(&cfg.Cover.Enabled, "AIRCAST_COVER_ENABLED")
	overrideString(&cfg.Cover.Mode, "AIRCAST_COVER_MODE")
	overrideString(&cfg.Cover.Model, "AIRCAST_COVER_MODEL")
	overrideString(&cfg.Cover.Size, "AIRCAST_COVER_SIZE")
	overrideString(&cfg.Assembly.OutputDir, "AIRCAST_ASSEMBLY_OUTPUT_DIR")
	overrideString(&cfg.Assembly.WorkDir, "AIRCAST_ASSEMBLY_WORK_DIR")
	overrideString(&cfg.Assembly.FFmpegCommand, "AIRCAST_ASSEMBLY_FFMPEG_COMMAND")
	overrideInt(&cfg.Assembly.BitrateKbps, "AIRCAST_ASSEMBLY_BITRATE_KBPS")
	overrideInt(&cfg.Assembly.SampleRate, "AIRCAST_ASSEMBLY_SAMPLE_RATE")
	overrideInt(&cfg.Assembly.GapMS, "AIRCAST_ASSEMBLY_GAP_MS")
	overrideString(&cfg.Assembly.Artist, "AIRCAST_ASSEMBLY_ARTIST")
	overrideString(&cfg.Assembly.Album, "AIRCAST_ASSEMBLY_ALBUM")
	overrideInt(&cfg.Pipeline.MaxConcurrentRuns, "AIRCAST_PIPELINE_MAX_CONCURRENT_RUNS")
	overrideInt(&cfg.Pipeline.DefaultDurationMinutes, "AIRCAST_PIPELINE_DEFAULT_DURATION_MINUTES")
	overrideBool(&cfg.Pipeline.PublishEvents, "AIRCAST_PIPELINE_PUBLISH_EVENTS")
	overrideBool(&cfg.Pipeline.BusTrigger, "AIRCAST_PIPELINE_BUS_TRIGGER")
}

func overrideString(target *string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(value) != "" {
		*target = value
	}
}

func overrideInt(target *int, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			*target = parsed
		}
	}
}

func overrideBool(target *bool, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			*target = parsed
		}
	}
}

func overrideStringSlice(target *[]string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		parts := strings.Split(value, ",")
		var trimmed []string
		for _, p := range parts {
			if s := strings.TrimSpace(p); s != "" {
				trimmed = append(trimmed, s)
			}
		}
		if len(trimmed) > 0 {
			*target = trimmed
		}
	}
}

func overrideFloat(target *float64, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			*target = parsed
		}
	}
}

func validate(cfg Config) error {
	if cfg.ServiceName == "" {
		return errors.New("service_name must not be empty")
	}
	if cfg.HTTP.Port <= 0 || cfg.HTTP.Port > 65535 {
		return errors.New("http.port must be between 1 and 65535")
	}
	if cfg.Bus.Embedded {
		if cfg.Bus.Port <= 0 || cfg.Bus.Port > 65535 {
			return errors.New("bus.port must be between 1 and 65535 when embedded mode is enabled")
		}
	} else {
		if len(cfg.Bus.Servers) == 0 {
			return errors.New("bus.servers must not be empty when embedded mode is disabled")
		}
	}
	if cfg.Store.Path == "" {
		return errors.New("store.path must not be empty")
	}
	if cfg.Store.RetentionDays < 0 {
		return errors.New("store.retention_days must be >= 0")
	}
	if cfg.Telemetry.PrometheusBind == "" {
		return errors.New("telemetry.prometheus_bind must not be empty")
	}
	if cfg.Stations.DefaultStation == "" {
		return errors.New("stations.default_station must not be empty")
	}
	for i, feed := range cfg.Collectors.Feeds {
		if feed.URL == "" {
			return fmt.Errorf("collectors.feeds[%d].url must not be empty", i)
		}
		if feed.Category == "" {
			return fmt.Errorf("collectors.feeds[%d].category must not be empty", i)
		}
		if feed.Weight < 1 || feed.Weight > 10 {
			return fmt.Errorf("collectors.feeds[%d].weight must be between 1 and 10", i)
		}
	}
	if cfg.Collectors.TimeoutMS <= 0 {
		return errors.New("collectors.timeout_ms must be positive")
	}
	if cfg.Mixer.MinViableItems < 1 {
		return errors.New("mixer.min_viable_items must be >= 1")
	}
	switch cfg.Script.Mode {
	case "mock", "openai", "ollama":
	default:
		return errors.New("script.mode must be one of mock|openai|ollama")
	}
	if cfg.Script.Mode == "openai" && cfg.Script.Model == "" {
		return errors.New("script.model must be set when mode=openai")
	}
	if cfg.Script.Mode == "ollama" && cfg.Script.Endpoint == "" {
		return errors.New("script.endpoint must be set when mode=ollama")
	}
	if cfg.Script.WordsPerMinute <= 0 {
		return errors.New("script.words_per_minute must be positive")
	}
	switch cfg.Voice.Mode {
	case "mock", "elevenlabs":
	default:
		return errors.New("voice.mode must be one of mock|elevenlabs")
	}
	if cfg.Voice.Mode == "elevenlabs" && cfg.Voice.Endpoint == "" {
		return errors.New("voice.endpoint must be set when mode=elevenlabs")
	}
	if cfg.Voice.Concurrency < 2 || cfg.Voice.Concurrency > 4 {
		return errors.New("voice.concurrency must be between 2 and 4")
	}
	if cfg.Voice.MaxAttempts < 1 {
		return errors.New("voice.max_attempts must be >= 1")
	}
	if cfg.Cover.Enabled {
		switch cfg.Cover.Mode {
		case "mock", "openai":
		default:
			return errors.New("cover.mode must be one of mock|openai")
		}
	}
	if cfg.Assembly.OutputDir == "" {
		return errors.New("assembly.output_dir must not be empty")
	}
	if cfg.Assembly.WorkDir == "" {
		return errors.New("assembly.work_dir must not be empty")
	}
	if cfg.Assembly.FFmpegCommand == "" {
		return errors.New("assembly.ffmpeg_command must not be empty")
	}
	if cfg.Assembly.BitrateKbps <= 0 {
		return errors.New("assembly.bitrate_kbps must be positive")
	}
	if cfg.Assembly.SampleRate <= 0 {
		return errors.New("assembly.sample_rate must be positive")
	}
	if cfg.Assembly.GapMS < 0 {
		return errors.New("assembly.gap_ms must be >= 0")
	}
	if cfg.Pipeline.MaxConcurrentRuns < 1 {
		return errors.New("pipeline.max_concurrent_runs must be >= 1")
	}
	if cfg.Pipeline.DefaultDurationMinutes < 1 {
		return errors.New("pipeline.default_duration_minutes must be >= 1")
	}
	return nil
}
