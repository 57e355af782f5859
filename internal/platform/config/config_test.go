package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Store)
	assert.Equal(t, int64(1000), cfg.Engine.PurchaseCap)
	assert.Equal(t, 72*time.Hour, cfg.Engine.VotingWindow)
	assert.Equal(t, 0, cfg.Engine.VoteQuorum)
	assert.Equal(t, 25.0/3, cfg.Engine.Rating.Sigma0)
	assert.Equal(t, "log", cfg.Events.Backend)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("STORE", "postgres")
	t.Setenv("POSTGRES_HOST", "db")
	t.Setenv("POSTGRES_PASSWORD", "secret")
	t.Setenv("VOTING_WINDOW", "48h")
	t.Setenv("VOTE_QUORUM", "25")
	t.Setenv("RATING_SIGMA_MIN", "0.5")
	t.Setenv("EVENTS_BACKEND", "kafka")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 48*time.Hour, cfg.Engine.VotingWindow)
	assert.Equal(t, 25, cfg.Engine.VoteQuorum)
	assert.Equal(t, 0.5, cfg.Engine.Rating.SigmaMin)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Events.KafkaBrokers)
	assert.Equal(t, "postgres://postgres:secret@db:5432/civicstake?sslmode=disable", cfg.Postgres.ConnString())
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "unparsable duration", key: "VOTING_WINDOW", val: "three days"},
		{name: "unparsable integer", key: "PURCHASE_CAP", val: "lots"},
		{name: "non positive cap", key: "PURCHASE_CAP", val: "0"},
		{name: "unknown store", key: "STORE", val: "sqlite"},
		{name: "unknown bus", key: "EVENTS_BACKEND", val: "nats"},
		{name: "zero sigma", key: "RATING_SIGMA0", val: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			assert.ErrorContains(t, err, "invalid configuration")
		})
	}
}
