package utils

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"
)

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")

	err := WriteFileAtomic(path, func(w io.Writer) error {
		_, err := io.WriteString(w, "hello")
		return err
	})
	test.That(t, err, test.ShouldBeNil)
	data, err := os.ReadFile(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(data), test.ShouldEqual, "hello")

	boom := errors.New("boom")
	other := filepath.Join(dir, "failed.csv")
	err = WriteFileAtomic(other, func(w io.Writer) error {
		_, err := io.WriteString(w, "partial")
		test.That(t, err, test.ShouldBeNil)
		return boom
	})
	test.That(t, err, test.ShouldBeError, boom)
	exists, err := FileExists(other)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, exists, test.ShouldBeFalse)

	entries, err := os.ReadDir(dir)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(entries), test.ShouldEqual, 1)
}

func TestWriteFileExclusive(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "basis.bin")
	write := func(w io.Writer) error {
		_, err := w.Write([]byte{1, 2, 3})
		return err
	}

	test.That(t, WriteFileExclusive(path, write), test.ShouldBeNil)
	err := WriteFileExclusive(path, write)
	test.That(t, errors.Is(err, os.ErrExist), test.ShouldBeTrue)

	entries, err := os.ReadDir(dir)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(entries), test.ShouldEqual, 1)
}

func TestWriteFileAtomicReplace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trajectory.csv")
	writeString := func(s string) func(io.Writer) error {
		return func(w io.Writer) error {
			_, err := io.WriteString(w, s)
			return err
		}
	}
	test.That(t, WriteFileAtomic(path, writeString("first")), test.ShouldBeNil)
	test.That(t, WriteFileAtomic(path, writeString("second")), test.ShouldBeNil)

	boom := errors.New("boom")
	err := WriteFileAtomic(path, func(w io.Writer) error {
		test.That(t, writeString("third")(w), test.ShouldBeNil)
		return boom
	})
	test.That(t, err, test.ShouldBeError, boom)

	data, err := os.ReadFile(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(data), test.ShouldEqual, "second")
	info, err := os.Stat(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, info.Mode().Perm()&0o600, test.ShouldEqual, os.FileMode(0o600))

	entries, err := os.ReadDir(filepath.Dir(path))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(entries), test.ShouldEqual, 1)
}

func TestWriteFileExclusiveFailedWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "basis.bin")
	boom := errors.New("boom")
	err := WriteFileExclusive(path, func(w io.Writer) error { return boom })
	test.That(t, err, test.ShouldBeError, boom)

	entries, err := os.ReadDir(dir)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, entries, test.ShouldBeEmpty)
}
