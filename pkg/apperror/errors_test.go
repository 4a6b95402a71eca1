package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestWrapKeepsIdentity(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("print: %w", ErrPrintDeliveryFailed.Wrap(cause))

	if !errors.Is(err, ErrPrintDeliveryFailed) {
		t.Fatal("wrapped error should match its sentinel")
	}
	if !errors.Is(err, cause) {
		t.Fatal("wrapped error should expose its cause")
	}
	if errors.Is(err, ErrBackendUnavailable) {
		t.Fatal("different sentinels with the same code must not match")
	}
	if ErrPrintDeliveryFailed.Error() != "Label document could not be delivered" {
		t.Fatalf("sentinel was mutated: %q", ErrPrintDeliveryFailed.Error())
	}
}

func TestGetAppError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"app error", NewNotFoundError("Bill"), http.StatusNotFound},
		{"wrapped app error", fmt.Errorf("ctx: %w", ErrNoBarcodeData), http.StatusBadRequest},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetAppError(tt.err).Code; got != tt.code {
				t.Fatalf("expected %d, got %d", tt.code, got)
			}
		})
	}
}

func TestValidationErrorCarriesFields(t *testing.T) {
	err := NewValidationError([]FieldError{{Field: "items.I-1.qty", Message: "too many"}})
	if err.Code != http.StatusUnprocessableEntity || len(err.Errors) != 1 {
		t.Fatalf("unexpected validation error %+v", err)
	}
	if !IsAppError(err) {
		t.Fatal("expected IsAppError")
	}
}
