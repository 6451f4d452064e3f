package wos

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Reader yields records from a plain-text export one at a time.
type Reader struct {
	sc      *bufio.Scanner
	first   bool
	done    bool
	lastTag string
}

// NewReader wraps r. Abstract lines can run long, so the scanner buffer is
// raised well past the bufio default.
func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	return &Reader{sc: sc, first: true}
}

// Next returns the next record, or io.EOF when the input is exhausted.
// FN/VR file-header lines are skipped, records with no fields are dropped,
// and a trailing record not closed by ER is dropped as truncated.
func (r *Reader) Next() (*Record, error) {
	if r.done {
		return nil, io.EOF
	}
	fields := map[string]string{}
	for r.sc.Scan() {
		line := strings.TrimSuffix(r.sc.Text(), "\r")
		if r.first {
			line = strings.TrimPrefix(line, "\uFEFF")
			r.first = false
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		if strings.HasPrefix(line, "   ") {
			r.continueTag(fields, line)
			continue
		}
		tag, value, ok := splitTag(line)
		if !ok {
			// Stray unindented text: treat it as a continuation so a
			// re-wrapped export does not shear a field in half.
			r.continueTag(fields, line)
			continue
		}
		switch tag {
		case "ER":
			r.lastTag = ""
			if len(fields) == 0 {
				continue
			}
			return &Record{Fields: fields}, nil
		case "EF":
			r.done = true
			return nil, io.EOF
		case "FN", "VR":
			r.lastTag = ""
			continue
		default:
			fields[tag] = value
			r.lastTag = tag
		}
	}
	r.done = true
	if err := r.sc.Err(); err != nil {
		return nil, fmt.Errorf("wos: read: %w", err)
	}
	return nil, io.EOF
}

func (r *Reader) continueTag(fields map[string]string, line string) {
	if r.lastTag == "" {
		return
	}
	text := strings.TrimSpace(line)
	if text == "" {
		return
	}
	if prev := fields[r.lastTag]; prev != "" {
		fields[r.lastTag] = prev + " " + text
	} else {
		fields[r.lastTag] = text
	}
}

// splitTag parses an "XX value" line. Tags are an upper-case ASCII letter
// followed by an upper-case letter or digit (TI, AB, C1, Z9).
func splitTag(line string) (tag, value string, ok bool) {
	if len(line) < 2 || !isUpper(line[0]) || !(isUpper(line[1]) || isDigit(line[1])) {
		return "", "", false
	}
	if len(line) == 2 {
		return line, "", true
	}
	if line[2] != ' ' {
		return "", "", false
	}
	return line[:2], line[3:], true
}

func isUpper(b byte) bool { return b >= 'A' && b <= 'Z' }
func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// ReadAll drains r into a slice.
func ReadAll(r io.Reader) ([]*Record, error) {
	rd := NewReader(r)
	var out []*Record
	for {
		rec, err := rd.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
}

// ReadFile reads every record in one export file.
func ReadFile(path string) ([]*Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("wos: open: %w", err)
	}
	defer f.Close()
	recs, err := ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("wos: %s: %w", filepath.Base(path), err)
	}
	return recs, nil
}

// ReadDir reads every .txt export under dir, in name order. A directory with
// no exports yields an empty slice.
func ReadDir(dir string) ([]*Record, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("wos: read dir: %w", err)
	}
	var out []*Record
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".txt") {
			continue
		}
		recs, err := ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		out = append(out, recs...)
	}
	return out, nil
}
