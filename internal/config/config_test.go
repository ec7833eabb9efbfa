package config

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unset clears an environment variable for the test and restores it after.
func unset(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	os.Unsetenv(key)
}

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"REDIS_ADDR", "EXAM_DURATION", "BANK_DIR"} {
		unset(t, key)
	}

	cfg, err := Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "prepdesk-exam", cfg.Name)
	assert.Equal(t, "./banks", cfg.Bank.Dir)
	assert.Equal(t, 30*time.Minute, cfg.Exam.Duration)
}

func TestLoadWithoutRedisAddr(t *testing.T) {
	unset(t, "REDIS_ADDR")

	cfg, err := Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, cfg.Redis.Addr, "an unset REDIS_ADDR selects the in-process cache")
}

func TestLoadRejectsNonPositiveDuration(t *testing.T) {
	t.Setenv("EXAM_DURATION", "0s")

	_, err := Load(context.Background())
	assert.Error(t, err)
}
