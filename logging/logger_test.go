package logging

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/c0deZ3R0/go-autosave-kit/errors"
)

func TestLogger(t *testing.T) {
	// Test different environments
	configs := []Config{
		{Level: "debug", Format: "text", Environment: EnvDevelopment, AddSource: true},
		{Level: "info", Format: "json", Environment: EnvProduction, AddSource: false},
	}

	for _, config := range configs {
		t.Run("Environment_"+config.Environment, func(t *testing.T) {
			logger := NewLogger(config)

			// Test basic logging
			logger.Debug("Debug message", slog.String("key", "value"))
			logger.Info("Info message", slog.Int("count", 42))
			logger.Warn("Warning message", slog.Bool("enabled", true))

			// Test error logging
			testErr := errors.New(errors.OpSave, fmt.Errorf("persist error"))
			logger.LogError(context.Background(), testErr, "Operation failed")

			// Test child loggers
			childLogger := logger.WithComponent(Component("test"))
			childLogger.Info("Child logger message")

			docLogger := logger.WithDocument("risk-form-7")
			docLogger.Info("Document logger message")

			// Test operation logging
			err := logger.LogOperation(
				context.Background(),
				Operation("test_op"),
				Component("test_component"),
				func() error {
					time.Sleep(10 * time.Millisecond)
					return nil
				},
			)
			if err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}

func TestDynamicLevel(t *testing.T) {
	config := Config{
		Level:       "info",
		Format:      "text",
		Environment: EnvTest,
		AddSource:   false,
	}

	logger, levelVar := NewLoggerWithDynamicLevel(config)

	// Initially at info level - debug should not appear
	logger.Debug("This should not appear")
	logger.Info("This should appear")

	// Change to debug level
	levelVar.SetFromString("debug")
	logger.Debug("This should now appear")

	if levelVar.SetFromString("nonsense") {
		t.Error("SetFromString should reject unknown level names")
	}
}

func TestSaveErrorValuer(t *testing.T) {
	saveErr := &errors.SaveError{
		Op:        errors.OpSave,
		Component: "test",
		Code:      errors.ErrCodeNetworkFailure,
		Kind:      errors.KindTransient,
		Err:       fmt.Errorf("underlying error"),
		Retryable: true,
		Metadata: map[string]interface{}{
			"retry_count": 3,
			"timeout":     "30s",
		},
	}

	valuer := SaveErrorValuer{SaveError: saveErr}
	logValue := valuer.LogValue()

	// Verify the log value is properly structured
	if logValue.Kind() != slog.KindGroup {
		t.Errorf("Expected group value, got %v", logValue.Kind())
	}
}

func TestGetConfigFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "WARN")
	t.Setenv("LOG_FORMAT", "TEXT")
	t.Setenv("ENVIRONMENT", "production")

	config := GetConfigFromEnv()

	if config.Level != "warn" {
		t.Errorf("Level = %v, want warn", config.Level)
	}
	if config.Format != "text" {
		t.Errorf("Format = %v, want text", config.Format)
	}
	if config.AddSource {
		t.Error("production config should disable AddSource")
	}
}

func BenchmarkLogger(b *testing.B) {
	config := Config{
		Level:       "info",
		Format:      "json",
		Environment: EnvProduction,
		AddSource:   false,
	}
	logger := NewLogger(config)

	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.InfoContext(ctx, "Benchmark message",
			slog.String("operation", "benchmark"),
			slog.Int("iteration", i),
			slog.Duration("elapsed", time.Microsecond*100),
		)
	}
}
