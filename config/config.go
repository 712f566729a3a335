package config

import (
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
	"github.com/slighter12/go-lib/database/postgres"
)

const (
	defaultPath               = "."
	defaultMaxRequestBodySize = "100KB"
	defaultBookingMarker      = "Powered by Calendly.com"
	defaultImportWorkers      = 4
	defaultImportMaxRetries   = 3
	defaultInitialBackoff     = 500 * time.Millisecond
	defaultCalendarTimeout    = 15 * time.Second
	defaultLockTTL            = 30 * time.Second
)

type Config struct {
	Env struct {
		Env         string `json:"env" yaml:"env"`
		ServiceName string `json:"serviceName" yaml:"serviceName"`
		Debug       bool   `json:"debug" yaml:"debug"`
		AutoMigrate bool   `json:"autoMigrate" yaml:"autoMigrate"`
		Log         Log    `json:"log" yaml:"log"`
	} `json:"env" yaml:"env"`

	HTTP struct {
		Port               int    `json:"port" yaml:"port"`
		MaxRequestBodySize string `json:"maxRequestBodySize" yaml:"maxRequestBodySize"`
		Timeouts           struct {
			ReadTimeout       time.Duration `json:"readTimeout" yaml:"readTimeout"`
			ReadHeaderTimeout time.Duration `json:"readHeaderTimeout" yaml:"readHeaderTimeout"`
			WriteTimeout      time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
			IdleTimeout       time.Duration `json:"idleTimeout" yaml:"idleTimeout"`
		} `json:"timeouts" yaml:"timeouts"`
	} `json:"http" yaml:"http"`

	Postgres *postgres.DBConn `json:"postgres" yaml:"postgres" mapstructure:"postgres"`

	SecretKey struct {
		Access string `json:"access" yaml:"access"`
	} `json:"secretKey" yaml:"secretKey"`

	// Calendar selects and configures the external calendar source
	Calendar *CalendarConfig `json:"calendar" yaml:"calendar"`

	// Importer tunes the bulk import pipeline
	Importer *ImporterConfig `json:"importer" yaml:"importer"`

	// Lock selects the per-email lock implementation
	Lock *LockConfig `json:"lock" yaml:"lock"`

	// Redis connection, used when lock.provider is "redis"
	Redis *RedisConfig `json:"redis" yaml:"redis"`

	// PubSub configuration for event publishing
	PubSub *PubSubConfig `json:"pubsub" yaml:"pubsub"`
}

type Log struct {
	Pretty bool   `json:"pretty" yaml:"pretty"`
	Level  string `json:"level" yaml:"level"`
}

// CalendarConfig defines where calendar events are read from
type CalendarConfig struct {
	// Provider type: "google" for Google Calendar API or "ics" for an iCalendar feed
	Provider string `json:"provider" yaml:"provider"`

	// OrganizerEmail is the teacher's own address, excluded when picking the student attendee
	OrganizerEmail string `json:"organizerEmail" yaml:"organizerEmail"`

	// RequestTimeout bounds every call to the calendar provider
	RequestTimeout time.Duration `json:"requestTimeout" yaml:"requestTimeout"`

	Google struct {
		CredentialsPath string `json:"credentialsPath" yaml:"credentialsPath"`
		CalendarID      string `json:"calendarId" yaml:"calendarId"`
	} `json:"google" yaml:"google"`

	ICS struct {
		URL string `json:"url" yaml:"url"`
	} `json:"ics" yaml:"ics"`
}

// ImporterConfig defines the import pipeline tuning
type ImporterConfig struct {
	// Workers is the number of chunks processed concurrently
	Workers int `json:"workers" yaml:"workers"`

	// MaxRetries is the number of retries per chunk on transient failures
	MaxRetries int `json:"maxRetries" yaml:"maxRetries"`

	// InitialBackoff is the first retry delay; it grows exponentially
	InitialBackoff time.Duration `json:"initialBackoff" yaml:"initialBackoff"`

	// BookingMarker is the description substring that identifies booked lessons
	BookingMarker string `json:"bookingMarker" yaml:"bookingMarker"`

	// TeacherID owns the lessons created by scheduled imports
	TeacherID string `json:"teacherId" yaml:"teacherId"`

	// Schedule is a cron expression for the rolling import; empty disables it
	Schedule string `json:"schedule" yaml:"schedule"`

	// LookbackDays and LookaheadDays bound the rolling import window around today
	LookbackDays  int `json:"lookbackDays" yaml:"lookbackDays"`
	LookaheadDays int `json:"lookaheadDays" yaml:"lookaheadDays"`
}

// LockConfig defines the per-email lock
type LockConfig struct {
	// Provider type: "local" for an in-process mutex or "redis" for a shared lock
	Provider string `json:"provider" yaml:"provider"`

	// TTL bounds how long a redis lock is held if its owner dies
	TTL time.Duration `json:"ttl" yaml:"ttl"`
}

// RedisConfig defines the Redis connection
type RedisConfig struct {
	Addr     string `json:"addr" yaml:"addr"`
	Password string `json:"password" yaml:"password"`
	DB       int    `json:"db" yaml:"db"`
}

// PubSubConfig defines Pub/Sub configuration for event publishing
type PubSubConfig struct {
	// Provider type: "local" for local HTTP, "google" for Google Pub/Sub or "noop"
	Provider string `json:"provider" yaml:"provider"`

	// Google Cloud project ID (for google provider)
	ProjectID string `json:"projectId" yaml:"projectId"`

	// Pub/Sub topic ID (for google provider)
	TopicID string `json:"topicId" yaml:"topicId"`

	// Local HTTP endpoint for development (for local provider)
	LocalEndpoint string `json:"localEndpoint" yaml:"localEndpoint"`

	// PushAudience is the expected audience of push request OIDC tokens
	PushAudience string `json:"pushAudience" yaml:"pushAudience"`
}

// LoadWithEnv loads .yaml files through koanf.
func LoadWithEnv[T any](currEnv string, configPath ...string) (*T, error) {
	cfg := new(T)
	koanfInstance := koanf.New(".")

	// Build list of paths to search for config file
	searchPaths := []string{defaultPath}
	if len(configPath) != 0 {
		pwd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "os.Getwd")
		}
		for _, path := range configPath {
			abs := filepath.Join(pwd, path)
			searchPaths = append(searchPaths, abs)
		}
	}

	// Try to find and load the config file
	var configFile string
	var found bool
	for _, path := range searchPaths {
		candidate := filepath.Join(path, currEnv+".yaml")
		if _, err := os.Stat(candidate); err == nil {
			configFile = candidate
			found = true

			break
		}
	}

	if !found {
		return nil, errors.Errorf("config file %s.yaml not found in any search path", currEnv)
	}

	// Load YAML config file
	if err := koanfInstance.Load(file.Provider(configFile), yaml.Parser()); err != nil {
		return nil, errors.Wrapf(err, "read %s config failed", currEnv)
	}

	existingConfigMap := koanfInstance.Raw()

	// Load environment variables
	if err := koanfInstance.Load(env.Provider(".", env.Opt{
		TransformFunc: func(k, v string) (string, any) {
			// Example: IMPORTER_BOOKINGMARKER -> importer.bookingMarker
			key := canonicalizeEnvKey(k, existingConfigMap)

			return key, v
		},
	}), nil); err != nil {
		return nil, errors.Wrap(err, "load env variables failed")
	}

	// Unmarshal into the config struct (case-insensitive to match env vars)
	if err := koanfInstance.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
			MatchName: func(mapKey, fieldName string) bool {
				return strings.EqualFold(mapKey, fieldName)
			},
		},
	}); err != nil {
		return nil, errors.Wrapf(err, "unmarshal %s config failed", currEnv)
	}

	return cfg, nil
}

func New() (*Config, error) {
	// A .env file is optional; real environment variables take precedence over it.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, errors.Wrap(err, "load .env failed")
	}

	cfg, err := LoadWithEnv[Config]("config", "config", "../config", "../../config")
	if err != nil {
		return nil, err
	}

	applyDefaults(cfg)

	// Build replicas from environment variables (POSTGRES_REPLICAS_0_HOST, POSTGRES_REPLICAS_0_PORT, etc.)
	if cfg.Postgres != nil {
		cfg.Postgres.Replicas = buildReplicasFromEnv()
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.HTTP.MaxRequestBodySize) == "" {
		cfg.HTTP.MaxRequestBodySize = defaultMaxRequestBodySize
	}

	if cfg.Calendar == nil {
		cfg.Calendar = &CalendarConfig{}
	}
	if cfg.Calendar.RequestTimeout <= 0 {
		cfg.Calendar.RequestTimeout = defaultCalendarTimeout
	}

	if cfg.Importer == nil {
		cfg.Importer = &ImporterConfig{}
	}
	if cfg.Importer.Workers <= 0 {
		cfg.Importer.Workers = defaultImportWorkers
	}
	if cfg.Importer.MaxRetries < 0 {
		cfg.Importer.MaxRetries = 0
	} else if cfg.Importer.MaxRetries == 0 {
		cfg.Importer.MaxRetries = defaultImportMaxRetries
	}
	if cfg.Importer.InitialBackoff <= 0 {
		cfg.Importer.InitialBackoff = defaultInitialBackoff
	}
	if strings.TrimSpace(cfg.Importer.BookingMarker) == "" {
		cfg.Importer.BookingMarker = defaultBookingMarker
	}

	if cfg.Lock == nil {
		cfg.Lock = &LockConfig{}
	}
	if cfg.Lock.TTL <= 0 {
		cfg.Lock.TTL = defaultLockTTL
	}

	if cfg.PubSub == nil {
		cfg.PubSub = &PubSubConfig{}
	}
}

func canonicalizeEnvKey(rawKey string, existing map[string]any) string {
	segments := strings.Split(strings.ToLower(rawKey), "_")
	canonical := make([]string, 0, len(segments))
	current := existing

	for _, segment := range segments {
		if segment == "" {
			continue
		}

		if matched, next, ok := findExistingSegment(current, segment); ok {
			canonical = append(canonical, matched)
			current = next
		} else {
			canonical = append(canonical, segment)
			current = nil
		}
	}

	return strings.Join(canonical, ".")
}

func findExistingSegment(current map[string]any, segment string) (matched string, next map[string]any, ok bool) {
	if len(current) == 0 {
		return "", nil, false
	}

	needle := normalizeToken(segment)
	for key, value := range current {
		if normalizeToken(key) != needle {
			continue
		}

		child, _ := value.(map[string]any)

		return key, child, true
	}

	return "", nil, false
}

func normalizeToken(s string) string {
	var normalized strings.Builder
	normalized.Grow(len(s))

	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		normalized.WriteRune(unicode.ToLower(r))
	}

	return normalized.String()
}

// buildReplicasFromEnv builds the replicas slice from environment variables.
// Environment variable format: POSTGRES_REPLICAS_{index}_{field}
func buildReplicasFromEnv() []postgres.ConnectionConfig {
	var replicas []postgres.ConnectionConfig

	for i := 0; ; i++ {
		prefix := "POSTGRES_REPLICAS_" + strconv.Itoa(i) + "_"

		host := os.Getenv(prefix + "HOST")
		port := os.Getenv(prefix + "PORT")
		if host == "" || port == "" {
			break
		}

		replicas = append(replicas, postgres.ConnectionConfig{
			Host:     host,
			Port:     port,
			UserName: os.Getenv(prefix + "USERNAME"),
			Password: os.Getenv(prefix + "PASSWORD"),
		})
	}

	return replicas
}
