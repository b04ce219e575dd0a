package chain

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cleared-dev/trustledger/internal/model"
)

const maxLineSize = 64 << 20

// FileLog stores one JSON block per line in a file opened for append only.
type FileLog struct {
	path string
}

// NewFileLog creates a FileLog at path. The file is created on first Append.
func NewFileLog(path string) *FileLog {
	return &FileLog{path: path}
}

// Path returns the log file path.
func (l *FileLog) Path() string {
	return l.path
}

// Append writes b as one line after checking that it extends the tip.
func (l *FileLog) Append(b model.Block) error {
	tip, ok, err := l.Last()
	if err != nil {
		return err
	}
	if err := checkExtends(tip, ok, b); err != nil {
		return err
	}

	data, err := MarshalBlock(b)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("creating chain dir: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening chain: %w", err)
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		f.Close()
		return fmt.Errorf("appending block %d: %w", b.Height, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("syncing chain: %w", err)
	}
	return f.Close()
}

// Iterate reads the file line by line. A line that does not parse is
// reported as corruption at its position.
func (l *FileLog) Iterate(fn func(model.Block) error) error {
	f, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("opening chain: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var pos int64
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		b, err := UnmarshalBlock(line)
		if err != nil {
			return &CorruptError{Height: pos, Reason: fmt.Sprintf("unreadable block: %v", err)}
		}
		if err := fn(b); err != nil {
			return err
		}
		pos++
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("reading chain: %w", err)
	}
	return nil
}

// Last scans the file and returns the final block.
func (l *FileLog) Last() (model.Block, bool, error) {
	var last model.Block
	var ok bool
	err := l.Iterate(func(b model.Block) error {
		last, ok = b, true
		return nil
	})
	if err != nil {
		return model.Block{}, false, err
	}
	return last, ok, nil
}

// Close is a no-op; every Append opens and closes the file.
func (l *FileLog) Close() error {
	return nil
}
