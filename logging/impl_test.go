package logging

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"testing"
	"time"

	"go.viam.com/test"
)

type BasicStruct struct {
	X int
	y string
	z string
}

type User struct {
	Name string
}

type StructWithStruct struct {
	x int
	Y User
	z string
}

type StructWithAnonymousStruct struct {
	x int
	Y struct {
		Y1 string
	}
	Z string
}

// assertLogMatches will fuzzy match log lines. Notably, this checks the time format, but ignores
// the exact time. And it expects a match on the filename, but the exact line number can be wrong.
func assertLogMatches(t *testing.T, actual *bytes.Buffer, expected string) {
	t.Helper()

	output, err := actual.ReadString('\n')
	test.That(t, err, test.ShouldBeNil)

	actualTrimmed := strings.TrimSuffix(output, "\n")
	actualParts := strings.Split(actualTrimmed, "\t")
	expectedParts := strings.Split(expected, "\t")
	// Timestamp: must parse in the log time format, the value and zone are not compared.
	_, err = time.Parse(DefaultTimeFormatStr, actualParts[0])
	test.That(t, err, test.ShouldBeNil)
	// Log level.
	test.That(t, actualParts[1], test.ShouldEqual, expectedParts[1])

	// Filename:line_number.
	actualFilename, actualLineNumber, found := strings.Cut(actualParts[2], ":")
	test.That(t, found, test.ShouldBeTrue)
	// Verify the filename matches exactly.
	expectedFilename, _, found := strings.Cut(expectedParts[2], ":")
	test.That(t, found, test.ShouldBeTrue)
	test.That(t, actualFilename, test.ShouldEqual, expectedFilename)
	// Verify the line number is in fact a number, but no more.
	_, err = strconv.Atoi(actualLineNumber)
	test.That(t, err, test.ShouldBeNil)

	// Log message.
	test.That(t, actualParts[3], test.ShouldEqual, expectedParts[3])

	// Structured logging with the "w" API. E.g: `Debugw` has an extra tab delimited output.
	test.That(t, len(actualParts), test.ShouldEqual, len(expectedParts))
	if len(actualParts) == 4 {
		return
	}

	// compare fields as maps, key order is not stable
	expectedMap := make(map[string]any)
	err = json.Unmarshal([]byte(expectedParts[4]), &expectedMap)
	test.That(t, err, test.ShouldBeNil)

	actualMap := make(map[string]any)
	err = json.Unmarshal([]byte(actualParts[4]), &actualMap)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, actualMap, test.ShouldResemble, expectedMap)
}

func newWriterLogger(name string, level Level, out *bytes.Buffer) *impl {
	return &impl{name, NewAtomicLevelAt(level), false, []Appender{NewWriterAppender(out)}}
}

// E.g:
//
//	2023-10-30T09:12:09.459-0400	INFO	logging/impl_test.go:87	zap Info log
func TestConsoleOutputFormat(t *testing.T) {
	// A logger object that will write to the `notStdout` buffer.
	notStdout := &bytes.Buffer{}
	impl := newWriterLogger("", DEBUG, notStdout)

	impl.Info("impl Info log")
	// Note the use of tabs between the date, level, file location and log line. The
	// `assertLogMatches` helper will also deal with the changes to the time/line number.
	assertLogMatches(t, notStdout,
		`2023-10-30T09:12:09.459-0400	INFO	logging/impl_test.go:67	impl Info log`)

	// Using `Infof` substitutes the tail arguments into the leading template string input.
	impl.Infof("impl %s log", "infof")
	assertLogMatches(t, notStdout,
		`2023-10-30T09:45:20.764-0400	INFO	logging/impl_test.go:131	impl infof log`)

	// Using `Infow` turns the tail arguments into a map for structured logging.
	impl.Infow("impl logw", "key", "value")
	assertLogMatches(t, notStdout,
		`2023-10-30T13:19:45.806-0400	INFO	logging/impl_test.go:132	impl logw	{"key":"value"}`)

	impl.Infow("StructWithStruct", "key", "val", "StructWithStruct", StructWithStruct{1, User{"alice"}, "foo"})
	assertLogMatches(t, notStdout,
		`2023-10-30T13:20:47.129-0400	INFO	logging/impl_test.go:123	StructWithStruct	{"StructWithStruct":{"Y":{"Name":"alice"}},"key":"val"}`)

	impl.Infow("BasicStruct", "implOneKey", "1val", "BasicStruct", BasicStruct{1, "alice", "foo"})
	assertLogMatches(t, notStdout,
		`2023-10-30T13:20:47.129-0400	INFO	logging/impl_test.go:125	BasicStruct	{"BasicStruct":{"X":1},"implOneKey":"1val"}`)

	impl.Infow("StructWithAnonymousStruct", "key", "val", "StructWithAnonymousStruct",
		StructWithAnonymousStruct{1, struct{ Y1 string }{"y1"}, "foo"})
	assertLogMatches(t, notStdout,
		`2023-10-30T13:20:47.129-0400	INFO	logging/impl_test.go:121	StructWithAnonymousStruct	{"StructWithAnonymousStruct":{"Y":{"Y1":"y1"},"Z":"foo"},"key":"val"}`)

	// A dangling key is kept and paired with an error value.
	impl.Infow("unpaired", "lonely")
	assertLogMatches(t, notStdout,
		`2023-10-30T13:20:47.129-0400	INFO	logging/impl_test.go:125	unpaired	{"lonely":"unpaired log key"}`)
}

func TestLevels(t *testing.T) {
	notStdout := &bytes.Buffer{}
	impl := newWriterLogger("", WARN, notStdout)

	impl.Debug("dropped")
	impl.Info("dropped")
	test.That(t, notStdout.Len(), test.ShouldEqual, 0)

	impl.Warn("kept")
	assertLogMatches(t, notStdout,
		`2023-10-30T09:12:09.459-0400	WARN	logging/impl_test.go:67	kept`)

	impl.SetLevel(DEBUG)
	test.That(t, impl.GetLevel(), test.ShouldEqual, DEBUG)
	impl.Debugf("now %d", 1)
	assertLogMatches(t, notStdout,
		`2023-10-30T09:12:09.459-0400	DEBUG	logging/impl_test.go:67	now 1`)

	for _, tc := range []struct {
		in       string
		expected Level
	}{
		{"debug", DEBUG},
		{"INFO", INFO},
		{"Warning", WARN},
		{"error", ERROR},
	} {
		level, err := LevelFromString(tc.in)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, level, test.ShouldEqual, tc.expected)
		test.That(t, strings.ToLower(level.String()), test.ShouldStartWith, strings.ToLower(tc.in)[:4])
	}
	_, err := LevelFromString("loud")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestSublogger(t *testing.T) {
	logger, observed := NewObservedTestLogger(t)
	sub := logger.Sublogger("render")
	subsub := sub.Sublogger("pool")

	subsub.Infow("rendered", "poses", 3)
	entries := observed.All()
	test.That(t, entries, test.ShouldHaveLength, 1)
	test.That(t, entries[0].LoggerName, test.ShouldEqual, "render.pool")
	test.That(t, entries[0].Message, test.ShouldEqual, "rendered")
	test.That(t, entries[0].ContextMap()["poses"], test.ShouldEqual, int64(3))

	// Sublogger levels are independent of the parent's.
	sub.SetLevel(ERROR)
	sub.Warn("quiet")
	logger.Warn("loud")
	test.That(t, observed.FilterMessage("quiet").Len(), test.ShouldEqual, 0)
	test.That(t, observed.FilterMessage("loud").Len(), test.ShouldEqual, 1)
}

func TestAsZap(t *testing.T) {
	logger, observed := NewObservedTestLogger(t)
	logger.SetLevel(INFO)
	zapLogger := logger.AsZap()

	zapLogger.Debug("hidden")
	zapLogger.Infow("visible", "key", "value")
	test.That(t, observed.FilterMessage("hidden").Len(), test.ShouldEqual, 0)
	visible := observed.FilterMessage("visible").All()
	test.That(t, visible, test.ShouldHaveLength, 1)
	test.That(t, visible[0].ContextMap()["key"], test.ShouldEqual, "value")
	test.That(t, logger.Sync(), test.ShouldBeNil)
}

func TestGlobalLogger(t *testing.T) {
	orig := Global()
	defer ReplaceGlobal(orig)

	logger := NewTestLogger(t)
	ReplaceGlobal(logger)
	test.That(t, Global(), test.ShouldEqual, logger)
}

func TestBlankLoggerInUTC(t *testing.T) {
	notStdout := &bytes.Buffer{}
	logger := NewBlankLogger("")
	test.That(t, logger.GetLevel(), test.ShouldEqual, DEBUG)
	logger.AddAppender(NewWriterAppender(notStdout))

	logger.Debug("utc log")
	// UTC entries end their timestamp with "Z" rather than a numeric offset.
	ts, _, _ := strings.Cut(notStdout.String(), "\t")
	test.That(t, ts, test.ShouldEndWith, "Z")
	assertLogMatches(t, notStdout,
		`2023-10-30T13:12:09.459Z	DEBUG	logging/impl_test.go:230	utc log`)
}

func TestDebugLogger(t *testing.T) {
	test.That(t, NewLogger("info").GetLevel(), test.ShouldEqual, INFO)
	test.That(t, NewDebugLogger("debug").GetLevel(), test.ShouldEqual, DEBUG)
}
