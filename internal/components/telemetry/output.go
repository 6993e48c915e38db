package telemetry

import (
	"os"
	"path/filepath"
)

// Output is a sink for large blobs of diagnostic text (raw html, http messages)
// that do not belong in a log line.
type Output interface {
	Write(id string, contents string) error
}

// FilesystemOutput writes every blob to a file named `id` inside a directory.
type FilesystemOutput struct {
	directory string
}

// NewFilesystemOutput creates an output that writes into dir, the directory is
// created on the first write.
func NewFilesystemOutput(dir string) FilesystemOutput {
	return FilesystemOutput{directory: dir}
}

// NewCleanFilesystemOutput is NewFilesystemOutput but it removes anything left
// over in dir from a previous run.
func NewCleanFilesystemOutput(dir string) (FilesystemOutput, error) {
	err := os.RemoveAll(dir)
	if err != nil {
		return FilesystemOutput{}, err
	}
	return NewFilesystemOutput(dir), nil
}

// Path returns the file a blob with the given id is written to.
func (o FilesystemOutput) Path(id string) string {
	return filepath.Join(o.directory, id)
}

func (o FilesystemOutput) Write(id string, contents string) error {
	err := os.MkdirAll(o.directory, 0755)
	if err != nil {
		return err
	}
	return os.WriteFile(o.Path(id), []byte(contents), 0644)
}
