package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/lineage/internal/db"
)

// ZAddMulti adds members with score 0 (lexicographic ordering), one ZADD per key,
// all in a single DoMulti round-trip.
func (s *Store) ZAddMulti(ctx context.Context, items []db.SortedSetItem) error {
	keys, members := groupByKey(items)
	if len(keys) == 0 {
		return nil
	}

	cmds := make([]rueidis.Completed, len(keys))
	for i, key := range keys {
		args := make([]string, 0, 2*len(members[key]))
		for _, m := range members[key] {
			args = append(args, "0", m)
		}
		cmds[i] = s.b().Arbitrary("ZADD").Keys(key).Args(args...).Build()
	}

	for i, res := range s.client.DoMulti(ctx, cmds...) {
		if err := res.Error(); err != nil {
			return &db.Error{Op: db.OpZAdd, Err: fmt.Errorf("key %s: %w", keys[i], err)}
		}
	}
	return nil
}

// ZRemMulti removes members, one ZREM per key, in a single DoMulti round-trip.
func (s *Store) ZRemMulti(ctx context.Context, items []db.SortedSetItem) error {
	keys, members := groupByKey(items)
	if len(keys) == 0 {
		return nil
	}

	cmds := make([]rueidis.Completed, len(keys))
	for i, key := range keys {
		cmds[i] = s.b().Arbitrary("ZREM").Keys(key).Args(members[key]...).Build()
	}

	for i, res := range s.client.DoMulti(ctx, cmds...) {
		if err := res.Error(); err != nil {
			return &db.Error{Op: db.OpZRem, Err: fmt.Errorf("key %s: %w", keys[i], err)}
		}
	}
	return nil
}

// ZRangeByLexMulti runs ZRANGE ... BYLEX for every range in one DoMulti round-trip.
func (s *Store) ZRangeByLexMulti(ctx context.Context, ranges []db.LexRange) ([][]string, error) {
	if len(ranges) == 0 {
		return nil, nil
	}

	cmds := make([]rueidis.Completed, len(ranges))
	for i := range ranges {
		cmds[i] = s.b().Arbitrary("ZRANGE").Keys(ranges[i].Key).Args(buildLexArgs(&ranges[i])...).Build()
	}

	results := s.client.DoMulti(ctx, cmds...)
	out := make([][]string, len(results))
	for i, res := range results {
		members, err := res.AsStrSlice()
		if err != nil {
			return nil, &db.Error{Op: db.OpZRange, Err: fmt.Errorf("key %s: %w", ranges[i].Key, err)}
		}
		out[i] = members
	}
	return out, nil
}

// buildLexArgs renders the arguments after the key. With REV, Redis expects
// the upper bound first.
func buildLexArgs(r *db.LexRange) []string {
	lo, hi := r.Min, r.Max
	if lo == "" {
		lo = "-"
	}
	if hi == "" {
		hi = "+"
	}

	args := make([]string, 0, 7)
	if r.Rev {
		args = append(args, hi, lo, "BYLEX", "REV")
	} else {
		args = append(args, lo, hi, "BYLEX")
	}

	if r.Offset > 0 || r.Count > 0 {
		count := r.Count
		if count <= 0 {
			count = -1
		}
		args = append(args, "LIMIT", strconv.Itoa(r.Offset), strconv.Itoa(count))
	}
	return args
}

// groupByKey preserves first-seen key order so command order is deterministic.
func groupByKey(items []db.SortedSetItem) ([]string, map[string][]string) {
	var keys []string
	members := make(map[string][]string)
	for _, it := range items {
		if _, ok := members[it.Key]; !ok {
			keys = append(keys, it.Key)
		}
		members[it.Key] = append(members[it.Key], it.Member)
	}
	return keys, members
}
