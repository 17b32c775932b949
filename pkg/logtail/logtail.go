// Package logtail reads the most recent entries of a JSON-lines log file.
package logtail

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

// maxLineSize bounds a single log entry. Longer lines are skipped.
const maxLineSize = 1 << 20

// File tails a log file written by a zap JSON encoder.
type File struct {
	path string
}

// New returns a File reading path.
func New(path string) *File {
	return &File{path: path}
}

// Path returns the file being tailed.
func (f *File) Path() string { return f.path }

// Tail returns up to n of the last lines, oldest first. When level is set,
// only entries whose "level" field equals it are returned. A missing file
// yields no lines.
func (f *File) Tail(n int, level string) ([]string, error) {
	if n <= 0 {
		return []string{}, nil
	}
	file, err := os.Open(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "open log")
	}
	defer func() { _ = file.Close() }()

	lines, err := tail(file, n, level)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", f.path)
	}
	return lines, nil
}

func tail(r io.Reader, n int, level string) ([]string, error) {
	ring := make([]string, n)
	var count int

	br := bufio.NewReaderSize(r, 64*1024)
	for {
		line, err := readLine(br)
		if line != "" && (level == "" || levelOf(line) == level) {
			ring[count%n] = line
			count++
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
	}

	if count <= n {
		return ring[:count], nil
	}
	start := count % n
	return append(ring[start:], ring[:start]...), nil
}

// readLine returns the next line without its terminator, or "" for lines
// over maxLineSize.
func readLine(br *bufio.Reader) (string, error) {
	var (
		sb      strings.Builder
		tooLong bool
	)
	for {
		chunk, isPrefix, err := br.ReadLine()
		if err != nil {
			return "", err
		}
		if !tooLong {
			if sb.Len()+len(chunk) > maxLineSize {
				tooLong = true
				sb.Reset()
			} else {
				sb.Write(chunk)
			}
		}
		if !isPrefix {
			break
		}
	}
	if tooLong {
		return "", nil
	}
	return strings.TrimSpace(sb.String()), nil
}

// levelOf extracts the top-level "level" field; non-JSON lines have none.
func levelOf(line string) string {
	var lvl string
	d := jx.DecodeStr(line)
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		if string(key) != "level" || d.Next() != jx.String {
			return d.Skip()
		}
		v, err := d.Str()
		if err != nil {
			return err
		}
		lvl = strings.ToLower(v)
		return nil
	})
	if err != nil {
		return ""
	}
	return lvl
}
