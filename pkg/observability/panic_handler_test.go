package observability

import (
	"bytes"
	"strings"
	"testing"
)

func TestRecoverPanic(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(ErrorLevel, &buf)

	func() {
		defer RecoverPanic(logger, "rerun")
		panic("bad feed")
	}()

	out := buf.String()
	if !strings.Contains(out, "PANIC recovered") {
		t.Errorf("missing panic log: %q", out)
	}
	if !strings.Contains(out, "bad feed") || !strings.Contains(out, "rerun") {
		t.Errorf("missing panic details: %q", out)
	}
}

func TestRecoverPanicWithCallback(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(ErrorLevel, &buf)

	called := false
	func() {
		defer RecoverPanicWithCallback(logger, "job", func() { called = true })
		panic("boom")
	}()
	if !called {
		t.Error("callback was not invoked after panic")
	}

	called = false
	func() {
		defer RecoverPanicWithCallback(logger, "job", func() { called = true })
	}()
	if called {
		t.Error("callback should not run without a panic")
	}
}

func TestMustRecover(t *testing.T) {
	if err := MustRecover(nil); err != nil {
		t.Errorf("MustRecover(nil) = %v", err)
	}
	if err := MustRecover("x"); err == nil || err.Error() != "panic: x" {
		t.Errorf("MustRecover(x) = %v", err)
	}
}
