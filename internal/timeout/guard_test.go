package timeout

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestDoReturnsResultBeforeDeadline(t *testing.T) {
	got, err := Do(time.Second, "fast op", func() (string, error) {
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "ok" {
		t.Errorf("expected ok, got %q", got)
	}
}

func TestDoPropagatesOperationError(t *testing.T) {
	opErr := errors.New("store unavailable")
	_, err := Do(time.Second, "failing op", func() (string, error) {
		return "", opErr
	})
	if !errors.Is(err, opErr) {
		t.Errorf("expected operation error, got %v", err)
	}
	if IsTimeout(err) {
		t.Error("operation error misclassified as timeout")
	}
}

func TestDoFiresAtDeadlineNotCompletion(t *testing.T) {
	deadline := 30 * time.Millisecond
	started := time.Now()
	_, err := Do(deadline, "slow save", func() (string, error) {
		time.Sleep(500 * time.Millisecond)
		return "too late", nil
	})
	elapsed := time.Since(started)

	if !IsTimeout(err) {
		t.Fatalf("expected timeout error, got %v", err)
	}
	if elapsed > 200*time.Millisecond {
		t.Errorf("guard waited for completion (%v) instead of firing at the deadline", elapsed)
	}
	if !strings.Contains(err.Error(), "slow save") || !strings.Contains(err.Error(), "30ms") {
		t.Errorf("error message should embed label and deadline: %q", err.Error())
	}
}

func TestIsTimeoutSeesWrappedErrors(t *testing.T) {
	inner := &Error{Label: "save proposal", Deadline: 20 * time.Second}
	wrapped := fmt.Errorf("save document: %w", inner)
	if !IsTimeout(wrapped) {
		t.Error("expected wrapped guard error to be detected")
	}
	if IsTimeout(errors.New("plain")) {
		t.Error("plain error misclassified as timeout")
	}
	if IsTimeout(nil) {
		t.Error("nil misclassified as timeout")
	}
}
