package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
	"go.viam.com/test"
)

type BasicStruct struct {
	X int
	y string
}

// assertLogMatches will fuzzy match log lines. Notably, this checks the time format, but ignores
// the exact time. And it expects a match on the filename, but the exact line number can be wrong.
func assertLogMatches(t *testing.T, actual *bytes.Buffer, expected string) {
	t.Helper()

	output, err := actual.ReadString('\n')
	test.That(t, err, test.ShouldBeNil)

	actualParts := strings.Split(strings.TrimSuffix(output, "\n"), "\t")
	expectedParts := strings.Split(expected, "\t")
	test.That(t, len(actualParts), test.ShouldEqual, len(expectedParts))
	// Use the length of the first string as a weak verification of checking that the result looks like a date.
	test.That(t, len(actualParts[0]), test.ShouldEqual, len(expectedParts[0]))
	// Level and logger name.
	test.That(t, actualParts[1], test.ShouldEqual, expectedParts[1])
	test.That(t, actualParts[2], test.ShouldEqual, expectedParts[2])

	actualFilename, actualLineNumber, found := strings.Cut(actualParts[3], ":")
	test.That(t, found, test.ShouldBeTrue)
	expectedFilename, _, found := strings.Cut(expectedParts[3], ":")
	test.That(t, found, test.ShouldBeTrue)
	test.That(t, actualFilename, test.ShouldEqual, expectedFilename)
	_, err = strconv.Atoi(actualLineNumber)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, actualParts[4], test.ShouldEqual, expectedParts[4])
	if len(actualParts) == 5 {
		return
	}

	expectedMap := make(map[string]any)
	test.That(t, json.Unmarshal([]byte(expectedParts[5]), &expectedMap), test.ShouldBeNil)
	actualMap := make(map[string]any)
	test.That(t, json.Unmarshal([]byte(actualParts[5]), &actualMap), test.ShouldBeNil)
	test.That(t, actualMap, test.ShouldResemble, expectedMap)
}

func TestConsoleOutputFormat(t *testing.T) {
	notStdout := &bytes.Buffer{}
	logger := newImpl("jawframe", DEBUG, true, NewWriterAppender(notStdout))

	logger.Info("impl Info log")
	assertLogMatches(t, notStdout,
		"2023-10-30T09:12:09.459Z\tINFO\tjawframe\tlogging/impl_test.go:67\timpl Info log")

	logger.Debugf("filtered %d channels", 14)
	assertLogMatches(t, notStdout,
		"2023-10-30T09:12:09.459Z\tDEBUG\tjawframe\tlogging/impl_test.go:67\tfiltered 14 channels")

	logger.Warnw("envelope exceeded", "frames", 3, "axis", "x_mm")
	assertLogMatches(t, notStdout,
		`2023-10-30T09:12:09.459Z	WARN	jawframe	logging/impl_test.go:67	envelope exceeded	{"frames":3,"axis":"x_mm"}`)

	logger.Errorw("odd", "BasicStruct", BasicStruct{1, "hidden"}, "dangling")
	assertLogMatches(t, notStdout,
		`2023-10-30T09:12:09.459Z	ERROR	jawframe	logging/impl_test.go:67	odd	{"BasicStruct":{"X":1},"dangling":"unpaired log key"}`)
}

func TestLevels(t *testing.T) {
	notStdout := &bytes.Buffer{}
	logger := newImpl("lvl", INFO, true, NewWriterAppender(notStdout))

	logger.Debug("hidden")
	test.That(t, notStdout.Len(), test.ShouldEqual, 0)

	logger.SetLevel(ERROR)
	test.That(t, logger.GetLevel(), test.ShouldEqual, ERROR)
	logger.Warn("hidden")
	test.That(t, notStdout.Len(), test.ShouldEqual, 0)
	logger.Error("shown")
	test.That(t, notStdout.String(), test.ShouldContainSubstring, "shown")

	for _, tc := range []struct {
		in   string
		want Level
	}{
		{"debug", DEBUG}, {"INFO", INFO}, {"Warn", WARN}, {"warning", WARN}, {"error", ERROR},
	} {
		level, err := LevelFromString(tc.in)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, level, test.ShouldEqual, tc.want)
	}
	_, err := LevelFromString("loud")
	test.That(t, err, test.ShouldNotBeNil)

	var level Level
	test.That(t, json.Unmarshal([]byte(`"warn"`), &level), test.ShouldBeNil)
	test.That(t, level, test.ShouldEqual, WARN)
	data, err := json.Marshal(DEBUG)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(data), test.ShouldEqual, `"debug"`)
	test.That(t, ERROR.AsZap(), test.ShouldEqual, zapcore.ErrorLevel)
}

func TestSublogger(t *testing.T) {
	logger, observed := NewObservedTestLogger(t)
	sub := logger.Sublogger("signal")
	sub.Infow("conditioned", "frames", 10)
	logger.Sublogger("derive").Sublogger("pca").Debug("components")

	entries := observed.All()
	test.That(t, len(entries), test.ShouldEqual, 2)
	test.That(t, entries[0].LoggerName, test.ShouldEqual, "signal")
	test.That(t, entries[0].ContextMap()["frames"], test.ShouldEqual, int64(10))
	test.That(t, entries[1].LoggerName, test.ShouldEqual, "derive.pca")

	// an appender added to the parent reaches existing subloggers
	buf := &bytes.Buffer{}
	logger.AddAppender(NewWriterAppender(buf))
	sub.Warn("late")
	test.That(t, buf.String(), test.ShouldContainSubstring, "late")
	test.That(t, buf.String(), test.ShouldContainSubstring, "\tsignal\tlogging/impl_test.go:")

	sub.SetLevel(ERROR)
	sub.Warn("quiet")
	test.That(t, observed.FilterMessage("quiet").Len(), test.ShouldEqual, 0)
	test.That(t, logger.GetLevel(), test.ShouldEqual, DEBUG)
	test.That(t, logger.Sync(), test.ShouldBeNil)
}

func TestFileAppender(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jawframe.log")
	appender, closer := NewFileAppender(FileAppenderConfig{Path: path, MaxSizeMB: 1})
	logger := NewBlankLogger("file")
	logger.AddAppender(appender)
	logger.Infow("written", "run", "abc")
	test.That(t, closer.Close(), test.ShouldBeNil)

	data, err := os.ReadFile(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(data), test.ShouldContainSubstring, "INFO\tfile")
	test.That(t, string(data), test.ShouldContainSubstring, `{"run":"abc"}`)
}

func TestGlobal(t *testing.T) {
	prev := Global()
	defer ReplaceGlobal(prev)

	logger := NewTestLogger(t)
	ReplaceGlobal(logger)
	test.That(t, Global(), test.ShouldEqual, logger)
}
