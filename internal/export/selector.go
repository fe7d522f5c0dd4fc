package export

import (
	"encoding/json"
	"fmt"

	"github.com/PaesslerAG/jsonpath"

	"github.com/clinicore/corpusengine/internal/corpusstore"
)

// Target is one record selector: every record in Group whose JSON
// projection matches Expr (a JSONPath bracket-filter, e.g.
// `$[?(@.session_id=="sess_1")]`, or empty to select every record).
type Target struct {
	Group string `json:"group"`
	Expr  string `json:"expr"`
}

// snapshot pins each involved group's length before reading, so a
// concurrent append during bundle assembly never changes what this export
// captures — the "consistency marker" spec.md calls for.
func snapshot(store *corpusstore.Store, targets []Target) map[string]int64 {
	lengths := make(map[string]int64, len(targets))
	for _, t := range targets {
		if _, ok := lengths[t.Group]; !ok {
			lengths[t.Group] = store.GroupLength(t.Group)
		}
	}
	return lengths
}

// resolve reads each target's group up to its snapshot length and applies
// its JSONPath filter, returning one []map[string]interface{} batch per
// target in targets order.
func resolve(store *corpusstore.Store, targets []Target) ([][]map[string]interface{}, error) {
	lengths := snapshot(store, targets)

	batches := make([][]map[string]interface{}, len(targets))
	for i, t := range targets {
		length := lengths[t.Group]
		recs, err := store.Read(t.Group, corpusstore.Selector{Offset: 0, Limit: int(length)})
		if err != nil {
			return nil, fmt.Errorf("export: read %s: %w", t.Group, err)
		}

		matched := make([]map[string]interface{}, 0, len(recs))
		for _, r := range recs {
			var projection map[string]interface{}
			if err := json.Unmarshal(r.Payload, &projection); err != nil {
				return nil, fmt.Errorf("export: decode %s record: %w", t.Group, err)
			}
			if t.Expr == "" {
				matched = append(matched, projection)
				continue
			}
			ok, err := matchesFilter(projection, t.Expr)
			if err != nil {
				return nil, fmt.Errorf("export: evaluate selector %q: %w", t.Expr, err)
			}
			if ok {
				matched = append(matched, projection)
			}
		}
		batches[i] = matched
	}
	return batches, nil
}

// matchesFilter reuses the same wrap-in-a-one-element-array technique as
// audit.Filter so PaesslerAG/jsonpath's bracket-filter syntax, which
// expects an array, can evaluate a single record.
func matchesFilter(projection map[string]interface{}, expr string) (bool, error) {
	wrapped := []interface{}{projection}
	result, err := jsonpath.Get(expr, wrapped)
	if err != nil {
		return false, nil
	}
	arr, ok := result.([]interface{})
	return ok && len(arr) > 0, nil
}
