package config

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNewLogger_Level(t *testing.T) {
	logger := NewLogger(LoggingConfig{Level: "debug", Format: "json"})
	assert.Equal(t, zerolog.DebugLevel, logger.GetLevel())

	logger = NewLogger(LoggingConfig{Level: "WARN", Format: "json"})
	assert.Equal(t, zerolog.WarnLevel, logger.GetLevel())
}

func TestNewLogger_UnknownLevelFallsBackToInfo(t *testing.T) {
	logger := NewLogger(LoggingConfig{Level: "nonsense", Format: "json"})
	assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())
}
