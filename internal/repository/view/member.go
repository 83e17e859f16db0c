package view

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kailas-cloud/lineage/internal/db"
	"github.com/kailas-cloud/lineage/internal/db/collate"
	"github.com/kailas-cloud/lineage/internal/domain/search"
)

// keyEnd sorts after every member sharing an encoded key prefix.
const keyEnd = collate.Separator + "\xff"

// encodeMember builds the set member of a row: key, doc id and value JSON
// joined by collate.Separator.
func encodeMember(key []any, docID string, value any) (string, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("marshal value: %w", err)
	}
	return collate.Encode(key) + collate.Separator + docID + collate.Separator + string(raw), nil
}

func decodeMember(member string) (search.Row, error) {
	keyPart, rest, ok := strings.Cut(member, collate.Separator)
	if !ok {
		return search.Row{}, fmt.Errorf("malformed row %q", member)
	}
	id, valuePart, ok := strings.Cut(rest, collate.Separator)
	if !ok {
		return search.Row{}, fmt.Errorf("malformed row %q", member)
	}

	key, err := collate.Decode(keyPart)
	if err != nil {
		return search.Row{}, fmt.Errorf("decode key of %s: %w", id, err)
	}
	var value any
	if err := json.Unmarshal([]byte(valuePart), &value); err != nil {
		return search.Row{}, fmt.Errorf("decode value of %s: %w", id, err)
	}
	return search.Row{ID: id, Key: key, Value: value}, nil
}

// buildRanges translates query parameters into lexicographic ranges.
// Descending follows view semantics: StartKey is the upper bound.
func buildRanges(setKey string, p search.Params) []db.LexRange {
	switch {
	case len(p.Keys) > 0:
		ranges := make([]db.LexRange, len(p.Keys))
		for i, k := range p.Keys {
			ranges[i] = exactRange(setKey, k, p.Descending)
		}
		return ranges
	case p.Key != nil:
		r := exactRange(setKey, p.Key, p.Descending)
		r.Offset, r.Count = p.Skip, p.Limit
		return []db.LexRange{r}
	}

	lo, hi := p.StartKey, p.EndKey
	if p.Descending {
		lo, hi = p.EndKey, p.StartKey
	}
	r := db.LexRange{Key: setKey, Min: "-", Max: "+", Rev: p.Descending, Offset: p.Skip, Count: p.Limit}
	if lo != nil {
		r.Min = "[" + collate.Encode(lo)
	}
	if hi != nil {
		r.Max = "[" + collate.Encode(hi) + keyEnd
	}
	return []db.LexRange{r}
}

func exactRange(setKey string, key []any, rev bool) db.LexRange {
	enc := collate.Encode(key)
	return db.LexRange{
		Key: setKey,
		Min: "[" + enc + collate.Separator,
		Max: "[" + enc + keyEnd,
		Rev: rev,
	}
}
