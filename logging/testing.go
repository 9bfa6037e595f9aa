package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

type testAppender struct {
	tb testing.TB
}

// NewTestAppender returns an appender that writes through tb.Log, so each line is attributed to
// the test that produced it even when tests run in parallel.
func NewTestAppender(tb testing.TB) Appender {
	return &testAppender{tb}
}

// Write logs the entry in the console layout, without the trailing newline tb.Log adds itself.
func (tapp *testAppender) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	tapp.tb.Helper()
	cfg := consoleEncoderConfig()
	cfg.SkipLineEnding = true
	buf, err := zapcore.NewConsoleEncoder(cfg).EncodeEntry(entry, fields)
	if err != nil {
		tapp.tb.Log(entry.Message)
		return err
	}
	defer buf.Free()
	tapp.tb.Log(buf.String())
	return nil
}

// Sync is a no-op.
func (tapp *testAppender) Sync() error {
	return nil
}
