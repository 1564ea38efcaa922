package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("TEST_STR", "value")
	t.Setenv("TEST_INT", "42")
	t.Setenv("TEST_BAD_INT", "x")
	t.Setenv("TEST_BOOL", "true")
	t.Setenv("TEST_MS", "1500")
	t.Setenv("TEST_DUR", "2m")

	assert.Equal(t, "value", GetEnv("TEST_STR", "d"))
	assert.Equal(t, "d", GetEnv("TEST_MISSING", "d"))
	assert.Equal(t, 42, GetEnvInt("TEST_INT", 1))
	assert.Equal(t, 1, GetEnvInt("TEST_BAD_INT", 1))
	assert.True(t, GetEnvBool("TEST_BOOL", false))
	assert.Equal(t, 1500*time.Millisecond, GetEnvDuration("TEST_MS", time.Second))
	assert.Equal(t, 2*time.Minute, GetEnvDuration("TEST_DUR", time.Second))
	assert.Equal(t, time.Second, GetEnvDuration("TEST_MISSING", time.Second))
}
