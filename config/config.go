package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del bot.
type Config struct {
	Scanner ScannerConfig `yaml:"scanner"`
	API     APIConfig     `yaml:"api"`
	Storage StorageConfig `yaml:"storage"`
	Notify  NotifyConfig  `yaml:"notify"`
	Log     LogConfig     `yaml:"log"`
}

// ScannerConfig controla el ciclo de detección.
type ScannerConfig struct {
	IntervalSeconds      int      `yaml:"interval_seconds"`
	Sports               []string `yaml:"sports"`
	Markets              []string `yaml:"markets"`
	Bookmakers           []string `yaml:"bookmakers"`
	Regions              []string `yaml:"regions"`
	ReferenceBookmaker   string   `yaml:"reference_bookmaker"`
	Threshold            float64  `yaml:"threshold"` // ratio comparada/referencia, 1.20 = +20%
	MinOdds              float64  `yaml:"min_odds"`  // cuota mínima de referencia
	HoursMin             float64  `yaml:"hours_min"`
	HoursMax             float64  `yaml:"hours_max"`
	LedgerRetentionHours float64  `yaml:"ledger_retention_hours"` // <0 desactiva la poda
	Heartbeat            *bool    `yaml:"heartbeat"`
}

// APIConfig contiene el acceso a The Odds API.
type APIConfig struct {
	OddsBase          string  `yaml:"odds_base"`
	APIKey            string  `yaml:"api_key"` // mejor vía ODDS_API_KEY
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// StorageConfig controla dónde se persiste el ledger.
type StorageConfig struct {
	Driver        string `yaml:"driver"` // sqlite | redis | memory
	DSN           string `yaml:"dsn"`    // ruta al archivo SQLite, o ":memory:"
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	RedisKey      string `yaml:"redis_key"`
}

// NotifyConfig controla los canales de notificación.
type NotifyConfig struct {
	TelegramToken  string            `yaml:"telegram_token"`
	TelegramChatID string            `yaml:"telegram_chat_id"`
	Console        *bool             `yaml:"console"`
	Table          bool              `yaml:"table"`
	KafkaBrokers   []string          `yaml:"kafka_brokers"`
	KafkaTopic     string            `yaml:"kafka_topic"`
	Timezone       string            `yaml:"timezone"`
	Leagues        map[string]string `yaml:"leagues"`
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Las variables de entorno sobreescriben los valores del YAML.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	return &cfg, nil
}

// ScanInterval devuelve el intervalo de escaneo como time.Duration.
func (c *Config) ScanInterval() time.Duration {
	return time.Duration(c.Scanner.IntervalSeconds) * time.Second
}

// WindowBounds devuelve los extremos de la ventana de kickoff.
func (c *Config) WindowBounds() (time.Duration, time.Duration) {
	return hoursToDuration(c.Scanner.HoursMin), hoursToDuration(c.Scanner.HoursMax)
}

// LedgerRetention devuelve el horizonte de poda del ledger (0 = sin poda).
func (c *Config) LedgerRetention() time.Duration {
	if c.Scanner.LedgerRetentionHours < 0 {
		return 0
	}
	return hoursToDuration(c.Scanner.LedgerRetentionHours)
}

// HeartbeatEnabled devuelve si se envía heartbeat en ciclos vacíos (default true).
func (c *Config) HeartbeatEnabled() bool {
	return c.Scanner.Heartbeat == nil || *c.Scanner.Heartbeat
}

// ConsoleEnabled devuelve si se imprimen alertas en stdout (default true).
func (c *Config) ConsoleEnabled() bool {
	return c.Notify.Console == nil || *c.Notify.Console
}

// Validate comprueba que la configuración permite arrancar.
func (c *Config) Validate() error {
	var errs []error
	if c.API.APIKey == "" {
		errs = append(errs, errors.New("missing API key (ODDS_API_KEY)"))
	}
	if len(c.Scanner.Sports) == 0 {
		errs = append(errs, errors.New("scanner.sports is empty"))
	}
	if c.Scanner.Threshold < 1 {
		errs = append(errs, fmt.Errorf("scanner.threshold must be >= 1, got %g", c.Scanner.Threshold))
	}
	if c.Scanner.MinOdds < 1 {
		errs = append(errs, fmt.Errorf("scanner.min_odds must be >= 1, got %g", c.Scanner.MinOdds))
	}
	if c.Scanner.HoursMin < 0 || c.Scanner.HoursMin > c.Scanner.HoursMax {
		errs = append(errs, fmt.Errorf("invalid window %g–%gh", c.Scanner.HoursMin, c.Scanner.HoursMax))
	}
	switch c.Storage.Driver {
	case "sqlite", "memory":
	case "redis":
		if c.Storage.RedisAddr == "" {
			errs = append(errs, errors.New("storage.redis_addr required for redis driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage.driver %q", c.Storage.Driver))
	}
	if (c.Notify.TelegramToken == "") != (c.Notify.TelegramChatID == "") {
		errs = append(errs, errors.New("telegram needs both TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID"))
	}
	if len(c.Notify.KafkaBrokers) > 0 && c.Notify.KafkaTopic == "" {
		errs = append(errs, errors.New("notify.kafka_topic required with kafka_brokers"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config.Validate: %w", err)
	}
	return nil
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ODDS_API_KEY"); v != "" {
		cfg.API.APIKey = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Notify.TelegramToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Notify.TelegramChatID = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Storage.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Storage.RedisPassword = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Notify.KafkaBrokers = splitList(v)
	}
	if v := os.Getenv("SCAN_INTERVAL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Scanner.IntervalSeconds = n
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Scanner.IntervalSeconds <= 0 {
		cfg.Scanner.IntervalSeconds = 600
	}
	if len(cfg.Scanner.Markets) == 0 {
		cfg.Scanner.Markets = []string{"h2h", "totals"}
	}
	if len(cfg.Scanner.Regions) == 0 {
		cfg.Scanner.Regions = []string{"eu"}
	}
	if cfg.Scanner.ReferenceBookmaker == "" {
		cfg.Scanner.ReferenceBookmaker = "bet365"
	}
	if cfg.Scanner.Threshold == 0 {
		cfg.Scanner.Threshold = 1.20
	}
	if cfg.Scanner.MinOdds == 0 {
		cfg.Scanner.MinOdds = 1.50
	}
	if cfg.Scanner.HoursMin == 0 && cfg.Scanner.HoursMax == 0 {
		cfg.Scanner.HoursMin = 3
		cfg.Scanner.HoursMax = 24
	}
	if cfg.Scanner.LedgerRetentionHours == 0 {
		cfg.Scanner.LedgerRetentionHours = 48
	}
	if cfg.API.OddsBase == "" {
		cfg.API.OddsBase = "https://api.the-odds-api.com"
	}
	if cfg.API.RequestsPerSecond <= 0 {
		cfg.API.RequestsPerSecond = 2
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "sqlite"
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "data/valuebot.db"
	}
	if cfg.Storage.RedisKey == "" {
		cfg.Storage.RedisKey = "valuebot:ledger"
	}
	if cfg.Notify.KafkaTopic == "" && len(cfg.Notify.KafkaBrokers) > 0 {
		cfg.Notify.KafkaTopic = "valuebot.alerts"
	}
	if cfg.Notify.Timezone == "" {
		cfg.Notify.Timezone = "Europe/Rome"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func hoursToDuration(h float64) time.Duration {
	return time.Duration(h * float64(time.Hour))
}
