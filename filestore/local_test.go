package filestore

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestLocal(t *testing.T) *Local {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewLocal(dir)
	assert.NoError(t, err)
	return fs
}

func TestWriteAllThenReadAll(t *testing.T) {
	fs := newTestLocal(t)
	assert.NoError(t, fs.WriteAll("a/b/file.dat", []byte("hello")))
	got, err := fs.ReadAll("a/b/file.dat")
	assert.NoError(t, err)
	assert.Equal(t, []byte("hello"), got)
}

func TestExistsAndSize(t *testing.T) {
	fs := newTestLocal(t)
	assert.False(t, fs.Exists("nope.dat"))
	assert.NoError(t, fs.WriteAll("nope.dat", []byte("xyz")))
	assert.True(t, fs.Exists("nope.dat"))
	n, err := fs.Size("nope.dat")
	assert.NoError(t, err)
	assert.EqualValues(t, 3, n)
}

func TestPathEscapeRejected(t *testing.T) {
	fs := newTestLocal(t)
	_, err := fs.ReadAll("../../../etc/passwd")
	assert.Error(t, err)
	var rej *Rejection
	assert.ErrorAs(t, err, &rej)
	assert.Equal(t, RejectionPathEscape, rej.Kind)
}

func TestReadAllMissingFileIsNotFound(t *testing.T) {
	fs := newTestLocal(t)
	_, err := fs.ReadAll("missing.dat")
	var rej *Rejection
	assert.ErrorAs(t, err, &rej)
	assert.Equal(t, RejectionNotFound, rej.Kind)
}

func TestCreateFileRejectsExisting(t *testing.T) {
	fs := newTestLocal(t)
	assert.NoError(t, fs.CreateFile("dup.dat"))
	err := fs.CreateFile("dup.dat")
	var rej *Rejection
	assert.ErrorAs(t, err, &rej)
	assert.Equal(t, RejectionExists, rej.Kind)
}

func TestRename(t *testing.T) {
	fs := newTestLocal(t)
	assert.NoError(t, fs.WriteAll("old.dat", []byte("data")))
	assert.NoError(t, fs.Rename("old.dat", "new.dat"))
	assert.False(t, fs.Exists("old.dat"))
	got, err := fs.ReadAll("new.dat")
	assert.NoError(t, err)
	assert.Equal(t, []byte("data"), got)
}

func TestAppend(t *testing.T) {
	fs := newTestLocal(t)
	assert.NoError(t, fs.WriteAll("target.dat", []byte("abc")))
	assert.NoError(t, fs.WriteAll("source.dat", []byte("def")))
	assert.NoError(t, fs.Append("target.dat", "source.dat"))
	got, err := fs.ReadAll("target.dat")
	assert.NoError(t, err)
	assert.Equal(t, []byte("abcdef"), got)
}

func TestReplace(t *testing.T) {
	fs := newTestLocal(t)
	assert.NoError(t, fs.WriteAll("target.dat", []byte("old")))
	assert.NoError(t, fs.WriteAll("source.dat", []byte("new")))
	assert.NoError(t, fs.Replace("target.dat", "source.dat"))
	got, err := fs.ReadAll("target.dat")
	assert.NoError(t, err)
	assert.Equal(t, []byte("new"), got)
	assert.False(t, fs.Exists("source.dat"))
}

func TestCreateAndRemoveDirectory(t *testing.T) {
	fs := newTestLocal(t)
	assert.NoError(t, fs.CreateDirectory("sub/dir"))
	info, err := os.Stat(fs.root + "/sub/dir")
	assert.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.NoError(t, fs.RemoveDirectory("sub/dir"))
}
