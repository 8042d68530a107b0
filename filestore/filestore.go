// Package filestore is the byte-granularity storage contract
// send.Transaction and recv.Transaction use to read and commit files.
// The teacher has no analogous abstraction (its "storage" is the
// in-memory object dictionary, pkg/od), so this package is new code
// built directly from the byte-oriented contract spec.md specifies,
// in the teacher's style of a small interface plus one concrete
// implementation.
package filestore

import "fmt"

// RejectionKind taxonomises why a Filestore operation failed, so
// callers can map any of them straight to ConditionCode
// FilestoreRejection without inspecting error strings.
type RejectionKind int

const (
	RejectionNotFound RejectionKind = iota
	RejectionPathEscape
	RejectionIO
	RejectionExists
)

func (k RejectionKind) String() string {
	switch k {
	case RejectionNotFound:
		return "not_found"
	case RejectionPathEscape:
		return "path_escape"
	case RejectionExists:
		return "exists"
	default:
		return "io_error"
	}
}

// Rejection is the error type every Filestore method returns on
// failure.
type Rejection struct {
	Kind RejectionKind
	Path string
	Err  error
}

func (r *Rejection) Error() string {
	if r.Err != nil {
		return fmt.Sprintf("filestore: %s: %s: %v", r.Kind, r.Path, r.Err)
	}
	return fmt.Sprintf("filestore: %s: %s", r.Kind, r.Path)
}

func (r *Rejection) Unwrap() error { return r.Err }

// Filestore is the byte-granularity contract spec.md §6 names exactly:
// read/write a whole file, query existence/size, and the filesystem
// operations a receive transaction's completion step needs.
type Filestore interface {
	ReadAll(path string) ([]byte, error)
	WriteAll(path string, data []byte) error
	Exists(path string) bool
	Size(path string) (int64, error)
	CreateFile(path string) error
	DeleteFile(path string) error
	Rename(oldPath, newPath string) error
	// Append copies source's bytes onto the end of target, creating
	// target if it does not exist.
	Append(target, source string) error
	// Replace overwrites target with source's bytes, then removes
	// source.
	Replace(target, source string) error
	CreateDirectory(path string) error
	RemoveDirectory(path string) error
}
