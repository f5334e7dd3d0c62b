package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestSetMode(t *testing.T) {
	SetMode("release")
	assert.Equal(t, zap.InfoLevel, Level())

	SetMode("debug")
	assert.Equal(t, zap.DebugLevel, Level())

	SetMode("test")
	assert.Equal(t, zap.InfoLevel, Level())
}

func TestNopBeforeInit(t *testing.T) {
	assert.NotNil(t, Log)
	Log.Info("no output expected")
}
