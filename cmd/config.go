package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"time"

	"fulfillment/internal/core/application/dispatch"
	"fulfillment/internal/core/domain/model/job"
	"fulfillment/internal/core/domain/model/review"
	"fulfillment/internal/core/domain/services"
	"fulfillment/internal/jobs"
	"fulfillment/internal/pkg/errs"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

type Config struct {
	HTTPPort string
	Storage  string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string

	JWTSecret string

	Fees      services.FeeSchedule
	Dispatch  dispatch.Config
	Jobs      jobs.Config
	RatingMin int
	RatingMax int
	// MaxAttempts feeds Dispatch.FailurePolicy.
	MaxAttempts int

	RabbitMQURL      string
	RabbitMQExchange string
	RedisAddr        string
	CatalogFile      string
}

// LoadConfig reads the environment, optionally seeded from an env file, and
// applies command-line overrides. Unparseable values are all reported
// together.
func LoadConfig(args []string) (Config, error) {
	flags := pflag.NewFlagSet("fulfillment", pflag.ContinueOnError)
	envFile := flags.String("env-file", ".env", "file with KEY=VALUE lines loaded into the environment")
	httpPort := flags.String("http-port", "", "port the HTTP API listens on (overrides HTTP_PORT)")
	storage := flags.String("storage", "", "storage backend: memory or postgres (overrides STORAGE)")
	if err := flags.Parse(args); err != nil {
		return Config{}, err
	}

	// Variables already set in the environment win over the file.
	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", *envFile, err)
	}

	env := envReader{}
	fees := services.DefaultFeeSchedule()
	fees.BaseFee = env.getFloat("FEE_BASE", fees.BaseFee)
	fees.PerKmRate = env.getFloat("FEE_PER_KM", fees.PerKmRate)
	fees.Tiers[0].Surcharge = env.getFloat("FEE_SURCHARGE_SMALL", fees.Tiers[0].Surcharge)
	fees.Tiers[1].Surcharge = env.getFloat("FEE_SURCHARGE_MEDIUM", fees.Tiers[1].Surcharge)
	fees.Tiers[2].Surcharge = env.getFloat("FEE_SURCHARGE_LARGE", fees.Tiers[2].Surcharge)
	fees.Tiers[0].MaxWeightKg = env.getFloat("FEE_MAX_WEIGHT_SMALL", fees.Tiers[0].MaxWeightKg)
	fees.Tiers[1].MaxWeightKg = env.getFloat("FEE_MAX_WEIGHT_MEDIUM", fees.Tiers[1].MaxWeightKg)

	dispatchCfg := dispatch.DefaultConfig()
	dispatchCfg.FoodTaxRate = env.getFloat("FOOD_TAX_RATE", dispatchCfg.FoodTaxRate)
	dispatchCfg.ProximityRadiusKm = env.getFloat("PROXIMITY_RADIUS_KM", dispatchCfg.ProximityRadiusKm)
	dispatchCfg.OfferFanout = env.getInt("OFFER_FANOUT", dispatchCfg.OfferFanout)

	defaultBounds := review.DefaultRatingBounds()
	jobsCfg := jobs.DefaultConfig()
	jobsCfg.PendingTTL = env.getDuration("PENDING_JOB_TTL", jobsCfg.PendingTTL)

	cfg := Config{
		HTTPPort:         env.getString("HTTP_PORT", "8080"),
		Storage:          env.getString("STORAGE", StorageMemory),
		DBHost:           env.getString("DB_HOST", "localhost"),
		DBPort:           env.getString("DB_PORT", "5432"),
		DBUser:           env.getString("DB_USER", "postgres"),
		DBPassword:       env.getString("DB_PASSWORD", ""),
		DBName:           env.getString("DB_NAME", "fulfillment"),
		DBSslMode:        env.getString("DB_SSLMODE", "disable"),
		JWTSecret:        env.getString("JWT_SECRET", ""),
		Fees:             fees,
		Dispatch:         dispatchCfg,
		Jobs:             jobsCfg,
		RatingMin:        env.getInt("RATING_MIN", defaultBounds.Min()),
		RatingMax:        env.getInt("RATING_MAX", defaultBounds.Max()),
		MaxAttempts:      env.getInt("FAILURE_MAX_ATTEMPTS", job.DefaultMaxAttempts),
		RabbitMQURL:      env.getString("RABBITMQ_URL", ""),
		RabbitMQExchange: env.getString("RABBITMQ_EXCHANGE", ""),
		RedisAddr:        env.getString("REDIS_ADDR", ""),
		CatalogFile:      env.getString("CATALOG_FILE", ""),
	}
	if flags.Changed("http-port") {
		cfg.HTTPPort = *httpPort
	}
	if flags.Changed("storage") {
		cfg.Storage = *storage
	}
	if err := errors.Join(env.errList...); err != nil {
		return Config{}, err
	}

	if err := cfg.resolve(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// resolve turns the scalar settings into the value objects the core wants.
func (c *Config) resolve() error {
	var errList []error
	bounds, err := review.NewRatingBounds(c.RatingMin, c.RatingMax)
	if err != nil {
		errList = append(errList, err)
	} else {
		c.Dispatch.RatingBounds = bounds
	}
	policy, err := job.NewFailurePolicy(c.MaxAttempts)
	if err != nil {
		errList = append(errList, err)
	} else {
		c.Dispatch.FailurePolicy = policy
	}
	return errors.Join(errList...)
}

// Validate reports every problem with the configuration at once.
func (c Config) Validate() error {
	var errList []error
	if c.HTTPPort == "" {
		errList = append(errList, errs.NewValueIsRequiredError("HTTP_PORT"))
	} else if port, err := strconv.Atoi(c.HTTPPort); err != nil || port < 1 || port > 65535 {
		errList = append(errList, errs.NewValueIsOutOfRangeError("HTTP_PORT", c.HTTPPort, 1, 65535))
	}
	switch c.Storage {
	case StorageMemory:
	case StoragePostgres:
		if c.DBHost == "" {
			errList = append(errList, errs.NewValueIsRequiredError("DB_HOST"))
		}
		if c.DBName == "" {
			errList = append(errList, errs.NewValueIsRequiredError("DB_NAME"))
		}
	default:
		errList = append(errList, errs.NewValueIsInvalidErrorWithCause("STORAGE",
			fmt.Errorf("%q is not %s or %s", c.Storage, StorageMemory, StoragePostgres)))
	}
	if c.JWTSecret == "" {
		errList = append(errList, errs.NewValueIsRequiredError("JWT_SECRET"))
	}
	if err := c.Fees.Validate(); err != nil {
		errList = append(errList, err)
	}
	if err := c.Dispatch.Validate(); err != nil {
		errList = append(errList, err)
	}
	if err := c.Jobs.Validate(); err != nil {
		errList = append(errList, err)
	}
	return errors.Join(errList...)
}

// DSN is the Postgres connection string.
func (c Config) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     c.DBHost + ":" + c.DBPort,
		Path:     c.DBName,
		RawQuery: url.Values{"sslmode": {c.DBSslMode}}.Encode(),
	}
	return u.String()
}

// envReader collects parse failures instead of stopping at the first one.
type envReader struct {
	errList []error
}

func (r *envReader) getString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func (r *envReader) getFloat(key string, def float64) float64 {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.errList = append(r.errList, errs.NewValueIsInvalidErrorWithCause(key, err))
		return def
	}
	return f
}

func (r *envReader) getInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.errList = append(r.errList, errs.NewValueIsInvalidErrorWithCause(key, err))
		return def
	}
	return n
}

func (r *envReader) getDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.errList = append(r.errList, errs.NewValueIsInvalidErrorWithCause(key, err))
		return def
	}
	return d
}
