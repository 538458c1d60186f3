package logger

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"career_coach_backend/internal/config"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestSetLevel(t *testing.T) {
	tests := []struct {
		name  string
		cfg   config.Config
		level zapcore.Level
	}{
		{"debug mode", config.Config{Server: config.ServerConfig{Mode: "debug"}}, zap.DebugLevel},
		{"release mode", config.Config{Server: config.ServerConfig{Mode: "release"}}, zap.InfoLevel},
		{"explicit level wins", config.Config{Server: config.ServerConfig{Mode: "debug"}, Log: config.LogConfig{Level: "warn"}}, zap.WarnLevel},
		{"bad level ignored", config.Config{Server: config.ServerConfig{Mode: "release"}, Log: config.LogConfig{Level: "loud"}}, zap.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			SetLevel(&tt.cfg)
			assert.Equal(t, tt.level, Level())
		})
	}
}

func TestInitLogger_WritesFile(t *testing.T) {
	prev := Log
	t.Cleanup(func() { Log = prev })

	path := filepath.Join(t.TempDir(), "app.log")
	InitLogger(&config.Config{Server: config.ServerConfig{Mode: "release"}, Log: config.LogConfig{Filename: path}})
	Log.Info("hello")
	Log.Sync()

	assert.FileExists(t, path)
}

func TestGormLogger_Trace(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	gl := NewGormLogger(zap.New(core), gormlogger.Warn)
	sql := func() (string, int64) { return "SELECT 1", 1 }

	gl.Trace(context.Background(), time.Now(), sql, gorm.ErrRecordNotFound)
	assert.Equal(t, 0, logs.Len())

	gl.Trace(context.Background(), time.Now(), sql, errors.New("boom"))
	assert.Equal(t, 1, logs.FilterMessage("gorm query failed").Len())

	gl.Trace(context.Background(), time.Now().Add(-time.Second), sql, nil)
	assert.Equal(t, 1, logs.FilterMessage("gorm slow query").Len())

	// Warn 级别不记录普通查询
	gl.Trace(context.Background(), time.Now(), sql, nil)
	assert.Equal(t, 2, logs.Len())

	gl.LogMode(gormlogger.Silent).Trace(context.Background(), time.Now(), sql, errors.New("boom"))
	assert.Equal(t, 2, logs.Len())
}
