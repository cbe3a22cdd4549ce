package restyutil

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// InstrumentOutput receives named text dumps (http exchanges, payloads
// that failed extraction).
type InstrumentOutput interface {
	Write(id string, contents string)
}

type FilesystemOutput struct {
	directory string
}

// NewFilesystemOutput creates `dir` if needed, existing dumps are kept.
func NewFilesystemOutput(dir string) (FilesystemOutput, error) {
	err := os.MkdirAll(dir, 0755)
	if err != nil {
		return FilesystemOutput{}, err
	}
	return FilesystemOutput{directory: dir}, nil
}

var unsafeFilenameChars = strings.NewReplacer("/", "_", "\\", "_", ":", "_", "..", "_")

func (o FilesystemOutput) Write(id string, contents string) {
	name := unsafeFilenameChars.Replace(id)
	err := os.WriteFile(filepath.Join(o.directory, name), []byte(contents), 0600)
	if err != nil {
		slog.Warn("failed to write dump file", "id", id, "err", err)
	}
}

// Dump writes to `out` when it is non-nil.
func Dump(out InstrumentOutput, id, contents string) {
	if out == nil {
		return
	}
	out.Write(id, contents)
}
