package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/domicilios-tipovia/internal/pipeline"
)

// DatabaseConfig holds connection parameters for the address store.
type DatabaseConfig struct {
	Driver       string `validate:"oneof=postgres pgx"`
	Host         string `validate:"required"`
	Port         int    `validate:"min=1,max=65535"`
	User         string `validate:"required"`
	Password     string
	Name         string `validate:"required"`
	SSLMode      string `validate:"oneof=disable require verify-ca verify-full"`
	MaxOpenConns int    `validate:"min=1"`
	MaxIdleConns int    `validate:"min=0"`
}

// TargetConfig names the table and columns a run works on.
type TargetConfig struct {
	Schema     string `validate:"pgident"`
	Table      string `validate:"pgident"`
	PrimaryKey string `validate:"pgident"`
	TypeColumn string `validate:"pgident,nefield=NameColumn"`
	NameColumn string `validate:"pgident"`
	// Filter is a raw SQL predicate pushed down to every read.
	Filter string
}

// RunConfig holds pipeline tuning.
type RunConfig struct {
	BatchSize    int    `validate:"min=1"`
	Window       int    `validate:"min=1"`
	PreviewLimit int    `validate:"min=0"`
	ExportMode   string `validate:"oneof=all changed"`
	ExportLimit  int    `validate:"min=0"`
	Backup       bool
}

// LogConfig selects the zap logger.
type LogConfig struct {
	Level  string `validate:"oneof=debug info warn error"`
	Format string `validate:"oneof=console json"`
}

// WebConfig configures the preview API.
type WebConfig struct {
	Addr     string `validate:"required"`
	APIKey   string
	MaxBatch int `validate:"min=1,max=10000"`
}

// Config is the full runtime configuration.
type Config struct {
	Database DatabaseConfig
	Target   TargetConfig
	Run      RunConfig
	Log      LogConfig
	Web      WebConfig
}

// Load builds a Config from the environment, with defaults for everything.
// Call LoadEnv first to pick up a .env file.
func Load() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:       GetEnv("TIPOVIA_DRIVER", "postgres"),
			Host:         GetEnv("PGHOST", "localhost"),
			Port:         GetEnvInt("PGPORT", 5432),
			User:         GetEnv("PGUSER", "postgres"),
			Password:     GetEnv("PGPASSWORD", ""),
			Name:         GetEnv("PGDATABASE", "postgres"),
			SSLMode:      GetEnv("PGSSLMODE", "disable"),
			MaxOpenConns: GetEnvInt("TIPOVIA_MAX_OPEN_CONNS", 4),
			MaxIdleConns: GetEnvInt("TIPOVIA_MAX_IDLE_CONNS", 2),
		},
		Target: TargetConfig{
			Schema:     GetEnv("TIPOVIA_SCHEMA", "public"),
			Table:      GetEnv("TIPOVIA_TABLE", "domicilios"),
			PrimaryKey: GetEnv("TIPOVIA_PK", "id"),
			TypeColumn: GetEnv("TIPOVIA_TYPE_COLUMN", "tipo_via"),
			NameColumn: GetEnv("TIPOVIA_NAME_COLUMN", "calle"),
			Filter:     GetEnv("TIPOVIA_WHERE", ""),
		},
		Run: RunConfig{
			BatchSize:    GetEnvInt("TIPOVIA_BATCH_SIZE", pipeline.DefaultBatchSize),
			Window:       GetEnvInt("TIPOVIA_WINDOW", 5000),
			PreviewLimit: GetEnvInt("TIPOVIA_PREVIEW", pipeline.DefaultPreviewLimit),
			ExportMode:   GetEnv("TIPOVIA_EXPORT", "all"),
			ExportLimit:  GetEnvInt("TIPOVIA_EXPORT_LIMIT", 0),
			Backup:       GetEnvBool("TIPOVIA_BACKUP", false),
		},
		Log: LogConfig{
			Level:  strings.ToLower(GetEnv("LOG_LEVEL", "info")),
			Format: strings.ToLower(GetEnv("LOG_FORMAT", "console")),
		},
		Web: WebConfig{
			Addr:     GetEnv("WEB_ADDR", ":8080"),
			APIKey:   GetEnv("WEB_API_KEY", ""),
			MaxBatch: GetEnvInt("WEB_MAX_BATCH", 1000),
		},
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// quoted PostgreSQL identifiers: non-empty, at most 63 bytes, no NUL
	_ = v.RegisterValidation("pgident", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s != "" && len(s) <= 63 && !strings.ContainsRune(s, 0)
	})
	return v
}

// Validate checks every section and returns a pipeline.ErrValidation
// wrapped error listing all problems.
func (c *Config) Validate() error {
	return validateStruct(c)
}

// ValidateDatabase checks the connection section only.
func (c *Config) ValidateDatabase() error {
	if err := validateStruct(&c.Database); err != nil {
		return err
	}
	return validateStruct(&c.Target)
}

// ValidateRun checks the pipeline tuning section only.
func (c *Config) ValidateRun() error {
	return validateStruct(&c.Run)
}

// ValidateLog checks the logging section only.
func (c *Config) ValidateLog() error {
	return validateStruct(&c.Log)
}

// ValidateWeb checks the preview API section only.
func (c *Config) ValidateWeb() error {
	return validateStruct(&c.Web)
}

func validateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %w", pipeline.ErrValidation, err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("%w: invalid configuration: %s", pipeline.ErrValidation, strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	field := fe.Namespace()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", field, fe.Param(), fe.Value())
	case "min", "max":
		return fmt.Sprintf("%s must be %s %s, got %v", field, map[string]string{"min": ">=", "max": "<="}[fe.Tag()], fe.Param(), fe.Value())
	case "pgident":
		return fmt.Sprintf("%s is not a usable identifier: %q", field, fe.Value())
	case "nefield":
		return fmt.Sprintf("%s must differ from %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}

// DSN assembles a libpq keyword/value connection string. Values are quoted
// so passwords with spaces or quotes survive.
func (d DatabaseConfig) DSN() string {
	parts := []string{
		"host=" + quoteDSNValue(d.Host),
		"port=" + strconv.Itoa(d.Port),
		"user=" + quoteDSNValue(d.User),
		"dbname=" + quoteDSNValue(d.Name),
		"sslmode=" + quoteDSNValue(d.SSLMode),
	}
	if d.Password != "" {
		parts = append(parts, "password="+quoteDSNValue(d.Password))
	}
	return strings.Join(parts, " ")
}

// Redacted returns DSN with the password masked, for logs.
func (d DatabaseConfig) Redacted() string {
	if d.Password == "" {
		return d.DSN()
	}
	d.Password = "xxxxx"
	return d.DSN()
}

func quoteDSNValue(v string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(v) + "'"
}
