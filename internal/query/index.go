package query

import (
	"sort"
	"strings"

	"github.com/DlutRDSerivice/dlut-research-service/internal/wos"
)

// Index answers boolean queries over a fixed corpus. Search results are
// indices into the record slice the Index was built from.
type Index struct {
	records []*wos.Record
}

// NewIndex wraps records. The slice is not copied; the caller stops
// mutating it once the Index exists.
func NewIndex(records []*wos.Record) *Index {
	return &Index{records: records}
}

// Len reports the corpus size.
func (ix *Index) Len() int { return len(ix.records) }

// Record returns the record behind a Search result index.
func (ix *Index) Record(i int) *wos.Record { return ix.records[i] }

// Search evaluates q and returns the matching record indices in ascending
// order. A query that matches nothing returns an empty slice, not an error.
func (ix *Index) Search(q string) ([]int, error) {
	root, err := compile(q)
	if err != nil {
		return nil, err
	}
	set := ix.eval(root)
	out := make([]int, 0, len(set))
	for i := range set {
		out = append(out, i)
	}
	sort.Ints(out)
	return out, nil
}

func (ix *Index) eval(n *node) map[int]struct{} {
	if n.op == "" {
		return ix.evalLeaf(n.field, n.term)
	}
	result := ix.eval(n.left)
	right := ix.eval(n.right)
	switch n.op {
	case "AND":
		for i := range result {
			if _, ok := right[i]; !ok {
				delete(result, i)
			}
		}
	case "OR":
		for i := range right {
			result[i] = struct{}{}
		}
	case "NOT":
		for i := range right {
			delete(result, i)
		}
	}
	return result
}

func (ix *Index) evalLeaf(field, term string) map[int]struct{} {
	term = strings.ToLower(term)
	out := make(map[int]struct{})
	for i, rec := range ix.records {
		if matches(rec, field, term) {
			out[i] = struct{}{}
		}
	}
	return out
}

// matches does case-insensitive substring matching. ts is the topic search:
// title, keywords and abstract together.
func matches(rec *wos.Record, field, term string) bool {
	if field == "ts" {
		return contains(rec.Title(), term) ||
			contains(rec.Field("DE"), term) ||
			contains(rec.Abstract(), term)
	}
	return contains(rec.Field(strings.ToUpper(field)), term)
}

func contains(value, term string) bool {
	return strings.Contains(strings.ToLower(value), term)
}
