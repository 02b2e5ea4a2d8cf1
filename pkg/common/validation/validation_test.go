package validation

import (
	"testing"
	"time"

	"github.com/vnykmshr/tickflow/pkg/common/errors"
)

func TestValidatePositive(t *testing.T) {
	tests := []struct {
		name      string
		value     int
		wantError bool
	}{
		{"positive value", 10, false},
		{"positive value 1", 1, false},
		{"zero value", 0, true},
		{"negative value", -1, true},
		{"large negative", -1000000, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePositive("test", "count", tt.value)

			if tt.wantError {
				if err == nil {
					t.Error("expected error, got nil")
				}
				if !errors.IsValidationError(err) {
					t.Errorf("expected ValidationError, got %T", err)
				}
			} else if err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})
	}
}

func TestValidateDurations(t *testing.T) {
	tests := []struct {
		name        string
		value       time.Duration
		positiveErr bool
		nonNegErr   bool
	}{
		{"positive", 30 * time.Millisecond, false, false},
		{"zero", 0, true, false},
		{"negative", -time.Nanosecond, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidatePositiveDuration("test", "interval", tt.value); (err != nil) != tt.positiveErr {
				t.Errorf("ValidatePositiveDuration(%v) error = %v, wantErr %v", tt.value, err, tt.positiveErr)
			}
			if err := ValidateNonNegativeDuration("test", "restTime", tt.value); (err != nil) != tt.nonNegErr {
				t.Errorf("ValidateNonNegativeDuration(%v) error = %v, wantErr %v", tt.value, err, tt.nonNegErr)
			}
		})
	}
}

func TestValidateNotNil(t *testing.T) {
	var nilPtr *int
	var nilFunc func()

	tests := []struct {
		name      string
		value     interface{}
		wantError bool
	}{
		{"nil interface", nil, true},
		{"typed nil pointer", nilPtr, true},
		{"nil func", nilFunc, true},
		{"non-nil pointer", new(int), false},
		{"string value", "hello", false},
		{"zero int", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNotNil("test", "client", tt.value)
			if (err != nil) != tt.wantError {
				t.Errorf("ValidateNotNil() error = %v, wantErr %v", err, tt.wantError)
			}
		})
	}
}

func TestValidateNotEmpty(t *testing.T) {
	if err := ValidateNotEmpty("test", "key", ""); !errors.IsValidationError(err) {
		t.Errorf("expected ValidationError for empty string, got %v", err)
	}
	if err := ValidateNotEmpty("test", "key", "tickflow:heartbeat"); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestValidationErrorDetails(t *testing.T) {
	t.Run("ValidatePositive error details", func(t *testing.T) {
		err := ValidatePositive("workerpool", "threadCount", -5)
		if err == nil {
			t.Fatal("expected error")
		}

		valErr, ok := err.(*errors.ValidationError)
		if !ok {
			t.Fatal("could not cast to ValidationError")
		}

		if valErr.Module != "workerpool" {
			t.Errorf("Module = %q, want %q", valErr.Module, "workerpool")
		}
		if valErr.Field != "threadCount" {
			t.Errorf("Field = %q, want %q", valErr.Field, "threadCount")
		}
		if valErr.Value != -5 {
			t.Errorf("Value = %v, want %v", valErr.Value, -5)
		}
		if valErr.Hint != "value must be greater than 0" {
			t.Errorf("Hint = %q, want %q", valErr.Hint, "value must be greater than 0")
		}
	})

	t.Run("ValidateNonNegativeDuration error details", func(t *testing.T) {
		err := ValidateNonNegativeDuration("tickthread", "restTime", -time.Second)

		valErr, ok := err.(*errors.ValidationError)
		if !ok {
			t.Fatal("could not cast to ValidationError")
		}
		if valErr.Reason != "cannot be negative" {
			t.Errorf("Reason = %q, want %q", valErr.Reason, "cannot be negative")
		}
	})
}
