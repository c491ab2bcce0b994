// Package upload opens and inspects the resume file chosen by the user.
package upload

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// DefaultMaxBytes is the largest file accepted for upload.
const DefaultMaxBytes int64 = 10 << 20

// File is a handle to a selected resume file.
type File struct {
	Path  string
	Name  string
	Size  int64
	Pages int
}

// Error describes why a file cannot be uploaded.
type Error struct {
	Path    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("cannot upload %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("cannot upload %s: %s", e.Path, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Inspect checks that path is a readable PDF no larger than maxBytes.
// A non-positive maxBytes means DefaultMaxBytes.
func Inspect(path string, maxBytes int64) (*File, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, &Error{Path: path, Message: "file not found", Cause: err}
	}
	if info.IsDir() {
		return nil, &Error{Path: path, Message: "is a directory"}
	}
	if info.Size() == 0 {
		return nil, &Error{Path: path, Message: "file is empty"}
	}
	if info.Size() > maxBytes {
		return nil, &Error{Path: path, Message: fmt.Sprintf("file too large: %d bytes (max %d)", info.Size(), maxBytes)}
	}
	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		return nil, &Error{Path: path, Message: "only PDF resumes are accepted"}
	}

	pages, err := countPages(path)
	if err != nil {
		return nil, &Error{Path: path, Message: "not a readable PDF", Cause: err}
	}

	return &File{
		Path:  path,
		Name:  filepath.Base(path),
		Size:  info.Size(),
		Pages: pages,
	}, nil
}

// Open returns a reader over the file contents.
func (f *File) Open() (io.ReadCloser, error) {
	return os.Open(f.Path)
}

func countPages(path string) (pages int, err error) {
	defer func() {
		// the PDF reader panics on some malformed cross-reference tables
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed PDF: %v", r)
		}
	}()

	fh, r, err := pdf.Open(path)
	if err != nil {
		return 0, err
	}
	defer fh.Close()

	return r.NumPage(), nil
}
