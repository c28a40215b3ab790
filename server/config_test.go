package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	assert.Equal(t, DefaultStartTimeout, cfg.startTimeout())
	assert.Equal(t, DefaultStopTimeout, cfg.stopTimeout())
	assert.Equal(t, DefaultPollInterval, cfg.pollInterval())

	cfg = Config{
		StartTimeout: time.Second,
		StopTimeout:  2 * time.Second,
		PollInterval: 50 * time.Millisecond,
	}
	assert.Equal(t, time.Second, cfg.startTimeout())
	assert.Equal(t, 2*time.Second, cfg.stopTimeout())
	assert.Equal(t, 50*time.Millisecond, cfg.pollInterval())
}

func TestConfigValidate(t *testing.T) {
	assert.Error(t, Config{}.validate())
	assert.NoError(t, Config{Name: "x"}.validate())
}

func TestConfigExpandEnv(t *testing.T) {
	t.Setenv("PROBE_TEST_HOME", "/srv/data")

	cfg := Config{
		Name: "x",
		Env: map[string]string{
			"DATA_DIR": "${PROBE_TEST_HOME}/cache",
			"API_MODE": "live",
		},
	}

	// Keys come out sorted with ${VAR} references expanded.
	assert.Equal(t, []string{
		"API_MODE=live",
		"DATA_DIR=/srv/data/cache",
	}, cfg.expandEnv())
}

func TestConfigExpandEnvEmpty(t *testing.T) {
	assert.Nil(t, Config{Name: "x"}.expandEnv())
}
