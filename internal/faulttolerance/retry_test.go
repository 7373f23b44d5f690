package faulttolerance

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestExecuteSucceedsAfterFailures(t *testing.T) {
	r := NewRetryer(RetryConfig{MaxAttempts: 5, Delay: time.Millisecond, Name: "test"}, testLogger())

	attempts := 0
	err := r.Execute(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})

	if err != nil {
		t.Errorf("Expected success, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
}

func TestExecuteExhaustsBudget(t *testing.T) {
	r := NewRetryer(RetryConfig{MaxAttempts: 3, Delay: time.Millisecond, Name: "test"}, testLogger())

	attempts := 0
	sentinel := errors.New("down")
	err := r.Execute(context.Background(), func() error {
		attempts++
		return sentinel
	})

	if err == nil {
		t.Fatal("Expected an error after exhausting attempts")
	}
	if !errors.Is(err, sentinel) {
		t.Errorf("Expected the last error wrapped, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
}

func TestExecuteRespectsContext(t *testing.T) {
	r := NewRetryer(RetryConfig{MaxAttempts: 100, Delay: time.Hour, Name: "test"}, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := r.Execute(ctx, func() error { return errors.New("always") })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context cancellation, got %v", err)
	}
}

func TestNewRetryerDefaults(t *testing.T) {
	r := NewRetryer(RetryConfig{}, testLogger())
	if r.config.MaxAttempts != 3 {
		t.Errorf("Expected default of 3 attempts, got %d", r.config.MaxAttempts)
	}
	if r.config.Delay != time.Second {
		t.Errorf("Expected default 1s delay, got %v", r.config.Delay)
	}
}
