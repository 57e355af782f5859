package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Postgres struct {
	Host     string
	Port     string
	User     string
	Password string
	DB       string
}

// ConnString builds a lib/pq connection URL.
func (p Postgres) ConnString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", p.User, p.Password, p.Host, p.Port, p.DB)
}

type Rating struct {
	Mu0         float64
	Sigma0      float64
	Beta        float64
	SigmaMin    float64
	ReferenceMu float64
}

type Engine struct {
	PurchaseCap      int64
	QuestionTTL      time.Duration
	VotingWindow     time.Duration
	VoteQuorum       int
	SweepInterval    time.Duration
	SweepConcurrency int
	PayoutBatchSize  int
	Rating           Rating
}

type Scorer struct {
	URL     string
	APIKey  string
	Model   string
	Timeout time.Duration
}

type Events struct {
	Backend      string
	RedisURL     string
	RedisChannel string
	KafkaBrokers []string
	KafkaTopic   string
}

type Config struct {
	HTTPAddr       string
	Store          string
	JWTSecret      string
	LogLevel       string
	LogFormat      string
	CharityWebhook string
	Postgres       Postgres
	Engine         Engine
	Scorer         Scorer
	Events         Events
}

// Load reads .env (when present) and the environment. Unset keys fall back to
// development defaults.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	var errs []string
	r := reader{errs: &errs}

	cfg := Config{
		HTTPAddr:       r.str("HTTP_ADDR", "0.0.0.0:8080"),
		Store:          r.str("STORE", "memory"),
		JWTSecret:      r.str("JWT_SECRET", ""),
		LogLevel:       r.str("LOG_LEVEL", "info"),
		LogFormat:      r.str("LOG_FORMAT", "json"),
		CharityWebhook: r.str("CHARITY_WEBHOOK_URL", ""),
		Postgres: Postgres{
			Host:     r.str("POSTGRES_HOST", "localhost"),
			Port:     r.str("POSTGRES_PORT", "5432"),
			User:     r.str("POSTGRES_USER", "postgres"),
			Password: r.str("POSTGRES_PASSWORD", ""),
			DB:       r.str("POSTGRES_DB", "civicstake"),
		},
		Engine: Engine{
			PurchaseCap:      r.integer("PURCHASE_CAP", 1000),
			QuestionTTL:      r.duration("QUESTION_TTL", 7*24*time.Hour),
			VotingWindow:     r.duration("VOTING_WINDOW", 72*time.Hour),
			VoteQuorum:       int(r.integer("VOTE_QUORUM", 0)),
			SweepInterval:    r.duration("SWEEP_INTERVAL", time.Minute),
			SweepConcurrency: int(r.integer("SWEEP_CONCURRENCY", 8)),
			PayoutBatchSize:  int(r.integer("PAYOUT_BATCH_SIZE", 50)),
			Rating: Rating{
				Mu0:         r.float("RATING_MU0", 25),
				Sigma0:      r.float("RATING_SIGMA0", 25.0/3),
				Beta:        r.float("RATING_BETA", 25.0/6),
				SigmaMin:    r.float("RATING_SIGMA_MIN", 1),
				ReferenceMu: r.float("RATING_REFERENCE_MU", 25),
			},
		},
		Scorer: Scorer{
			URL:     r.str("SCORER_URL", ""),
			APIKey:  r.str("SCORER_API_KEY", ""),
			Model:   r.str("SCORER_MODEL", "gemini-1.5-flash"),
			Timeout: r.duration("SCORER_TIMEOUT", 10*time.Second),
		},
		Events: Events{
			Backend:      r.str("EVENTS_BACKEND", "log"),
			RedisURL:     r.str("REDIS_URL", ""),
			RedisChannel: r.str("REDIS_CHANNEL", "civicstake.events"),
			KafkaBrokers: r.list("KAFKA_BROKERS", nil),
			KafkaTopic:   r.str("KAFKA_TOPIC", "civicstake.events"),
		},
	}

	if len(errs) > 0 {
		return Config{}, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Store != "memory" && c.Store != "postgres" {
		return fmt.Errorf("invalid configuration: STORE must be memory or postgres, got %q", c.Store)
	}
	if c.Engine.PurchaseCap <= 0 {
		return fmt.Errorf("invalid configuration: PURCHASE_CAP must be positive")
	}
	if c.Engine.Rating.Sigma0 <= 0 || c.Engine.Rating.SigmaMin <= 0 {
		return fmt.Errorf("invalid configuration: rating sigmas must be positive")
	}
	switch c.Events.Backend {
	case "log", "redis", "kafka":
	default:
		return fmt.Errorf("invalid configuration: EVENTS_BACKEND must be log, redis or kafka, got %q", c.Events.Backend)
	}
	return nil
}

type reader struct {
	errs *[]string
}

func (r reader) str(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func (r reader) list(key string, def []string) []string {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (r reader) integer(key string, def int64) int64 {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		*r.errs = append(*r.errs, fmt.Sprintf("%s: %v", key, err))
		return def
	}
	return n
}

func (r reader) float(key string, def float64) float64 {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		*r.errs = append(*r.errs, fmt.Sprintf("%s: %v", key, err))
		return def
	}
	return f
}

func (r reader) duration(key string, def time.Duration) time.Duration {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*r.errs = append(*r.errs, fmt.Sprintf("%s: %v", key, err))
		return def
	}
	return d
}
