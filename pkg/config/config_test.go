package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, 0.8, cfg.Similarity.Threshold)
	assert.Equal(t, 1000, cfg.Similarity.MaxFeatures)
	assert.Equal(t, "0 9 * * *", cfg.Reminders.DailySpec)
	assert.Equal(t, "0 */6 * * *", cfg.Reminders.IntervalSpec)
	assert.Equal(t, "Asia/Kolkata", cfg.Reminders.Timezone)
	assert.Equal(t, 72*time.Hour, cfg.Reminders.Cooldown)
	assert.Equal(t, 10*time.Second, cfg.Classifier.Timeout)
	assert.Equal(t, 50, cfg.Classifier.MaxTokens)
}

func TestLoadReadsEnvironment(t *testing.T) {
	chdirTemp(t)
	t.Setenv("DB_DRIVER", "MONGO")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")
	t.Setenv("REMINDER_COOLDOWN", "not-a-duration")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverMongo, cfg.Database.Driver)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Notifications.KafkaBrokers)
	assert.Equal(t, 72*time.Hour, cfg.Reminders.Cooldown)
}

func chdirTemp(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
