package audit

import (
	"encoding/json"
	"fmt"

	"github.com/PaesslerAG/jsonpath"
)

// Filter evaluates a JSONPath expression against each event's JSON
// projection and returns only the events for which it resolves to a
// non-empty, non-error result. This lets ad hoc query parameters like
// "operation=JOB_FAILED" or "user=u_42" be expressed as JSONPath
// predicates instead of bespoke Go filter functions per field.
func Filter(events []Event, expr string) ([]Event, error) {
	if expr == "" {
		return events, nil
	}

	var out []Event
	for _, e := range events {
		raw, err := json.Marshal(e)
		if err != nil {
			return nil, fmt.Errorf("audit: marshal event for filter: %w", err)
		}
		var projection interface{}
		if err := json.Unmarshal(raw, &projection); err != nil {
			return nil, fmt.Errorf("audit: decode event projection: %w", err)
		}
		// Filter expressions use the bracket-filter form ($[?(@.field ==
		// "x")]), which expects an array to filter — wrap the single event
		// so the same expression language works per-event.
		wrapped := []interface{}{projection}

		result, err := jsonpath.Get(expr, wrapped)
		if err != nil {
			// A JSONPath that resolves to nothing for this event (field
			// absent, predicate false) is not a query error — it just
			// means this event doesn't match.
			continue
		}
		if isEmptyResult(result) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func isEmptyResult(v interface{}) bool {
	switch r := v.(type) {
	case nil:
		return true
	case []interface{}:
		return len(r) == 0
	case bool:
		return !r
	default:
		return false
	}
}

// ByOperation builds a JSONPath filter expression matching events whose
// operation field equals op.
func ByOperation(op Operation) string {
	return fmt.Sprintf("$[?(@.operation == \"%s\")]", op)
}

// ByUser builds a JSONPath filter expression matching events whose user
// field equals user.
func ByUser(user string) string {
	return fmt.Sprintf("$[?(@.user == \"%s\")]", user)
}
