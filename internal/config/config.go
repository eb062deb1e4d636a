package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"certaudit/pkg/contracts/domain"
)

// EnvPrefix namespaces every environment variable (CERTAUDIT_SERVER_PORT).
const EnvPrefix = "CERTAUDIT"

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Audit     AuditConfig     `yaml:"audit" envconfig:"AUDIT"`
	Columns   ColumnsConfig   `yaml:"columns" envconfig:"COLUMNS"`
	Source    SourceConfig    `yaml:"source" envconfig:"SOURCE"`
	Store     StoreConfig     `yaml:"store" envconfig:"STORE"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes" envconfig:"MAX_BODY_BYTES" validate:"gt=0"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=stdout file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	DataDir       string `yaml:"data_dir" envconfig:"DATA_DIR" validate:"required"`
	DownloadsDir  string `yaml:"downloads_dir" envconfig:"DOWNLOADS_DIR" validate:"required"`
	ReportsDir    string `yaml:"reports_dir" envconfig:"REPORTS_DIR" validate:"required"`
	LogsDir       string `yaml:"logs_dir" envconfig:"LOGS_DIR" validate:"required"`
	WeightsFile   string `yaml:"weights_file" envconfig:"WEIGHTS_FILE"`
	SuppliersFile string `yaml:"suppliers_file" envconfig:"SUPPLIERS_FILE"`
}

// AuditConfig tunes the checks.
type AuditConfig struct {
	Threshold       int      `yaml:"threshold" envconfig:"THRESHOLD" validate:"min=1,max=100"`
	DateLayout      string   `yaml:"date_layout" envconfig:"DATE_LAYOUT" validate:"required"`
	NullIsError     bool     `yaml:"null_is_error" envconfig:"NULL_IS_ERROR"`
	DateNullIsError bool     `yaml:"date_null_is_error" envconfig:"DATE_NULL_IS_ERROR"`
	ReferenceDate   string   `yaml:"reference_date" envconfig:"REFERENCE_DATE"`
	GroupColumns    []string `yaml:"group_columns" envconfig:"GROUP_COLUMNS"`
	DateColumns     []string `yaml:"date_columns" envconfig:"DATE_COLUMNS"`
	DayTokens       []string `yaml:"day_tokens" envconfig:"DAY_TOKENS"`
	MonthTokens     []string `yaml:"month_tokens" envconfig:"MONTH_TOKENS"`
	FuzzyFallback   bool     `yaml:"fuzzy_fallback" envconfig:"FUZZY_FALLBACK"`
	Locale          string   `yaml:"locale" envconfig:"LOCALE" validate:"oneof=pt-BR en"`
	Outcomes        string   `yaml:"outcomes" envconfig:"OUTCOMES"`
	Totals          bool     `yaml:"totals" envconfig:"TOTALS"`
	Formats         []string `yaml:"formats" envconfig:"FORMATS" validate:"min=1,dive,oneof=xlsx csv"`
}

// ColumnsConfig holds the spreadsheet headers of each input table.
type ColumnsConfig struct {
	Name           string `yaml:"name" envconfig:"NAME" validate:"required"`
	TaxID          string `yaml:"tax_id" envconfig:"TAX_ID" validate:"required"`
	Classification string `yaml:"classification" envconfig:"CLASSIFICATION" validate:"required"`
	Outcome        string `yaml:"outcome" envconfig:"OUTCOME" validate:"required"`
	IssuedAt       string `yaml:"issued_at" envconfig:"ISSUED_AT" validate:"required"`
	Validity       string `yaml:"validity" envconfig:"VALIDITY" validate:"required"`
	URL            string `yaml:"url" envconfig:"URL" validate:"required"`

	PositiveName    string `yaml:"positive_name" envconfig:"POSITIVE_NAME" validate:"required"`
	PositiveProcess string `yaml:"positive_process" envconfig:"POSITIVE_PROCESS" validate:"required"`

	SupplierTaxID string `yaml:"supplier_tax_id" envconfig:"SUPPLIER_TAX_ID" validate:"required"`
	SupplierTier  string `yaml:"supplier_tier" envconfig:"SUPPLIER_TIER" validate:"required"`
	SupplierLocal string `yaml:"supplier_local" envconfig:"SUPPLIER_LOCAL" validate:"required"`
}

// SourceConfig points at the server the case files are downloaded from.
type SourceConfig struct {
	BaseURL     string        `yaml:"base_url" envconfig:"BASE_URL" validate:"omitempty,url"`
	PositiveURL string        `yaml:"positive_url" envconfig:"POSITIVE_URL" validate:"omitempty,url"`
	Token       string        `yaml:"token" envconfig:"TOKEN"`
	Folders     []string      `yaml:"folders" envconfig:"FOLDERS"`
	Encoding    string        `yaml:"encoding" envconfig:"ENCODING" validate:"oneof=utf-8 iso-8859-1"`
	RatePerSec  float64       `yaml:"rate_per_sec" envconfig:"RATE_PER_SEC" validate:"gt=0"`
	Burst       int           `yaml:"burst" envconfig:"BURST" validate:"min=1"`
	Timeout     time.Duration `yaml:"timeout" envconfig:"TIMEOUT" validate:"gt=0"`
}

// StoreConfig enables persistence of findings when DSN is set.
type StoreConfig struct {
	DSN          string `yaml:"dsn" envconfig:"DSN"`
	MaxOpenConns int    `yaml:"max_open_conns" envconfig:"MAX_OPEN_CONNS" validate:"min=0"`
}

// Enabled reports whether a database is configured.
func (s StoreConfig) Enabled() bool { return s.DSN != "" }

// TelemetryConfig selects the OpenTelemetry exporters.
type TelemetryConfig struct {
	ServiceName    string `yaml:"service_name" envconfig:"SERVICE_NAME" validate:"required"`
	Environment    string `yaml:"environment" envconfig:"ENVIRONMENT"`
	TraceExporter  string `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=stdout none"`
	MetricExporter string `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER" validate:"oneof=prometheus none"`
}

// Load reads configuration in increasing precedence: defaults, the YAML
// file, a .env file and the environment.
func Load() (*Config, error) {
	return LoadFile(getConfigFilePath())
}

// LoadFile is Load with an explicit YAML file; an empty path skips it.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// a missing .env is normal outside development
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	// fields have no default tags, so only variables that are set override
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// loadFromFile overlays the keys present in a YAML file onto cfg.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

var validate = validator.New()

// Validate checks field constraints and the values that need parsing.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	for _, col := range append(append([]string{}, c.Audit.GroupColumns...), c.Audit.DateColumns...) {
		if strings.TrimSpace(col) == "" {
			return fmt.Errorf("audit columns must not be blank")
		}
	}
	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if p := os.Getenv(EnvPrefix + "_CONFIG"); p != "" {
		return p
	}
	locations := []string{
		"certaudit.yaml",
		"configs/certaudit.yaml",
	}
	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return "" // env vars only
}

// HeaderMap maps the configured main table headers to record fields.
func (c ColumnsConfig) HeaderMap() map[string]domain.Field {
	return map[string]domain.Field{
		c.Name:           domain.FieldName,
		c.TaxID:          domain.FieldTaxID,
		c.Classification: domain.FieldClassification,
		c.Outcome:        domain.FieldOutcome,
		c.IssuedAt:       domain.FieldIssuedAt,
		c.Validity:       domain.FieldValidity,
		c.URL:            domain.FieldURL,
	}
}

// Fields converts configured column names to record fields. Known headers
// map to their field, anything else is an extra column.
func (c ColumnsConfig) Fields(names []string) []domain.Field {
	headers := c.HeaderMap()
	out := make([]domain.Field, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if f, ok := headers[n]; ok {
			out = append(out, f)
			continue
		}
		out = append(out, domain.Field(n))
	}
	return out
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			MaxBodyBytes:    32 << 20,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "stdout",
			FilePath: "logs/certaudit.log",
		},
		Paths: PathsConfig{
			DataDir:       "data",
			DownloadsDir:  "data/downloads",
			ReportsDir:    "data/reports",
			LogsDir:       "logs",
			WeightsFile:   "special-scores.xlsx",
			SuppliersFile: "fornecedores.xlsx",
		},
		Audit: AuditConfig{
			Threshold:    60,
			DateLayout:   "02/01/2006",
			GroupColumns: []string{"name", "tax_id", "classification", "outcome"},
			DateColumns:  []string{"issued_at"},
			DayTokens:    []string{"dias", "dia", "days", "day"},
			MonthTokens:  []string{"meses", "mes", "mês", "months", "month"},
			Locale:       string(domain.LocalePtBR),
			Outcomes:     "all",
			Totals:       true,
			Formats:      []string{"xlsx"},
		},
		Columns: ColumnsConfig{
			Name:            "Consultado (Nome)",
			TaxID:           "Consultado (CPF/CNPJ)",
			Classification:  "Classificação",
			Outcome:         "Resultado",
			IssuedAt:        "Emitido em",
			Validity:        "Validade",
			URL:             "Url",
			PositiveName:    "Nome",
			PositiveProcess: "Número do Processo",
			SupplierTaxID:   "CNPJ_CPF",
			SupplierTier:    "Classificação",
			SupplierLocal:   "Terceiro",
		},
		Source: SourceConfig{
			Encoding:   "utf-8",
			RatePerSec: 2,
			Burst:      1,
			Timeout:    60 * time.Second,
		},
		Store: StoreConfig{
			MaxOpenConns: 4,
		},
		Telemetry: TelemetryConfig{
			ServiceName:    "certaudit",
			Environment:    "development",
			TraceExporter:  "none",
			MetricExporter: "prometheus",
		},
	}
}
