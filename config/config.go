package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Required lists the variables the service refuses to start without.
var Required = []string{
	"POSTGRES_SERVER",
	"POSTGRES_USER",
	"POSTGRES_PASSWORD",
	"POSTGRES_DB",
	"SECRET_KEY",
}

type Config struct {
	ProjectName  string
	ImageVersion string

	PostgresServer   string
	PostgresPort     int
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	TZ               string

	AppHost     string
	AppPort     int
	APIV1Str    string
	CORSOrigins string

	Debug    bool
	LogLevel string

	SecretKey                string
	Algorithm                string
	AccessTokenExpireMinutes int

	PrestartMaxTries int
	PrestartWait     time.Duration
	DBRoleSessions   bool

	ReportsDir string

	FirstSuperuser         string
	FirstSuperuserPassword string

	KafkaBroker      string
	KafkaEventsTopic string
	KafkaChecksTopic string
	KafkaGroupID     string
}

// Load reads the env file named by ENV_FILE (default .env) into the process
// environment, then resolves the configuration from it. Variables already
// present in the environment win over the file. A missing env file is fine.
func Load() (*Config, error) {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading %s: %w", envFile, err)
	}
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("PROJECT_NAME", "study-backend")
	v.SetDefault("IMAGE_VERSION", "dev")
	v.SetDefault("POSTGRES_PORT", 5432)
	v.SetDefault("TZ", "UTC")
	v.SetDefault("APP_HOST", "0.0.0.0")
	v.SetDefault("APP_PORT", 8000)
	v.SetDefault("API_V1_STR", "/api/v1")
	v.SetDefault("BACKEND_CORS_ORIGINS", "*")
	v.SetDefault("DEBUG", false)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("ALGORITHM", "HS256")
	v.SetDefault("ACCESS_TOKEN_EXPIRE_MINUTES", 60*24*8)
	v.SetDefault("PRESTART_MAX_TRIES", 60*5)
	v.SetDefault("PRESTART_WAIT", time.Second)
	v.SetDefault("DB_ROLE_SESSIONS", false)
	v.SetDefault("REPORTS_DIR", "reports")
	v.SetDefault("KAFKA_EVENTS_TOPIC", "task_events")
	v.SetDefault("KAFKA_CHECKS_TOPIC", "task_checks")
	v.SetDefault("KAFKA_GROUP_ID", "study-backend")
	return v
}

// FromViper builds a Config from v and checks that every Required variable
// is set. The returned error names all missing variables at once.
func FromViper(v *viper.Viper) (*Config, error) {
	var missing []string
	for _, name := range Required {
		if strings.TrimSpace(v.GetString(name)) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}

	cfg := &Config{
		ProjectName:              v.GetString("PROJECT_NAME"),
		ImageVersion:             v.GetString("IMAGE_VERSION"),
		PostgresServer:           v.GetString("POSTGRES_SERVER"),
		PostgresPort:             v.GetInt("POSTGRES_PORT"),
		PostgresUser:             v.GetString("POSTGRES_USER"),
		PostgresPassword:         v.GetString("POSTGRES_PASSWORD"),
		PostgresDB:               v.GetString("POSTGRES_DB"),
		TZ:                       v.GetString("TZ"),
		AppHost:                  v.GetString("APP_HOST"),
		AppPort:                  v.GetInt("APP_PORT"),
		APIV1Str:                 v.GetString("API_V1_STR"),
		CORSOrigins:              v.GetString("BACKEND_CORS_ORIGINS"),
		Debug:                    v.GetBool("DEBUG"),
		LogLevel:                 v.GetString("LOG_LEVEL"),
		SecretKey:                v.GetString("SECRET_KEY"),
		Algorithm:                v.GetString("ALGORITHM"),
		AccessTokenExpireMinutes: v.GetInt("ACCESS_TOKEN_EXPIRE_MINUTES"),
		PrestartMaxTries:         v.GetInt("PRESTART_MAX_TRIES"),
		PrestartWait:             v.GetDuration("PRESTART_WAIT"),
		DBRoleSessions:           v.GetBool("DB_ROLE_SESSIONS"),
		ReportsDir:               v.GetString("REPORTS_DIR"),
		FirstSuperuser:           v.GetString("FIRST_SUPERUSER"),
		FirstSuperuserPassword:   v.GetString("FIRST_SUPERUSER_PASSWORD"),
		KafkaBroker:              v.GetString("KAFKA_BROKER"),
		KafkaEventsTopic:         v.GetString("KAFKA_EVENTS_TOPIC"),
		KafkaChecksTopic:         v.GetString("KAFKA_CHECKS_TOPIC"),
		KafkaGroupID:             v.GetString("KAFKA_GROUP_ID"),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Algorithm {
	case "HS256", "HS384", "HS512":
	default:
		return fmt.Errorf("unsupported ALGORITHM %q", c.Algorithm)
	}
	if c.AppPort <= 0 || c.AppPort > 65535 {
		return fmt.Errorf("invalid APP_PORT %d", c.AppPort)
	}
	if c.PostgresPort <= 0 || c.PostgresPort > 65535 {
		return fmt.Errorf("invalid POSTGRES_PORT %d", c.PostgresPort)
	}
	if c.PrestartMaxTries < 1 {
		return fmt.Errorf("PRESTART_MAX_TRIES must be at least 1")
	}
	if _, err := time.LoadLocation(c.TZ); err != nil {
		return fmt.Errorf("invalid TZ %q: %w", c.TZ, err)
	}
	return nil
}

// DatabaseURL is the postgres:// DSN for the configured database.
func (c *Config) DatabaseURL() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.PostgresUser, c.PostgresPassword),
		Host:   net.JoinHostPort(c.PostgresServer, strconv.Itoa(c.PostgresPort)),
		Path:   "/" + c.PostgresDB,
	}
	return u.String()
}

// ListenAddr is the address the HTTP server binds to.
func (c *Config) ListenAddr() string {
	return net.JoinHostPort(c.AppHost, strconv.Itoa(c.AppPort))
}

func (c *Config) Version() string {
	return c.ProjectName + ":" + c.ImageVersion
}
