// Package lexicon loads entity dictionaries from YAML. A lexicon is an
// ordered list of phrase/label pairs; order matters downstream because a
// later entry overwrites an earlier one when their tagged spans overlap.
package lexicon

import (
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/DlutRDSerivice/dlut-research-service/internal/bio"
)

type entry struct {
	Phrase string `yaml:"phrase"`
	Label  string `yaml:"label"`
}

type document struct {
	Entities []entry `yaml:"entities"`
}

// Lexicon holds entity phrases in file order.
type Lexicon struct {
	entities []bio.Entity
}

// Parse reads a YAML lexicon from r. Every entry needs a non-empty phrase
// and label; entry order is preserved.
func Parse(r io.Reader) (*Lexicon, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("lexicon: read: %w", err)
	}
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("lexicon: parse: %w", err)
	}
	lex := &Lexicon{entities: make([]bio.Entity, 0, len(doc.Entities))}
	for i, e := range doc.Entities {
		if e.Phrase == "" {
			return nil, fmt.Errorf("lexicon: entity %d: empty phrase", i)
		}
		if e.Label == "" {
			return nil, fmt.Errorf("lexicon: entity %d (%q): empty label", i, e.Phrase)
		}
		lex.entities = append(lex.entities, bio.Entity{Phrase: e.Phrase, Label: e.Label})
	}
	return lex, nil
}

// Load reads a YAML lexicon from path.
func Load(path string) (*Lexicon, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("lexicon: open: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Entities returns a copy of the entries in file order.
func (l *Lexicon) Entities() []bio.Entity {
	out := make([]bio.Entity, len(l.entities))
	copy(out, l.entities)
	return out
}

// Len reports the number of entries.
func (l *Lexicon) Len() int { return len(l.entities) }
