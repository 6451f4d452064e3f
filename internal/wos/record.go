// Package wos reads Web of Science plain-text exports. A record is a run of
// "XX value" tag lines closed by ER; three-space indented lines continue the
// previous tag. The reader keeps every tag so callers can pull whatever
// fields they need.
package wos

import "strings"

// Record is one bibliographic entry keyed by its two-character WoS tags.
type Record struct {
	Fields map[string]string
}

// Field returns the raw value for a tag, or "" when the tag is absent.
func (r *Record) Field(tag string) string {
	return r.Fields[tag]
}

// Title returns the TI field.
func (r *Record) Title() string { return r.Fields["TI"] }

// Abstract returns the AB field.
func (r *Record) Abstract() string { return r.Fields["AB"] }

// Keywords splits the DE field on semicolons, trimming whitespace and
// dropping empty entries.
func (r *Record) Keywords() []string {
	raw := r.Fields["DE"]
	if raw == "" {
		return nil
	}
	var out []string
	for _, kw := range strings.Split(raw, ";") {
		if kw = strings.TrimSpace(kw); kw != "" {
			out = append(out, kw)
		}
	}
	return out
}
