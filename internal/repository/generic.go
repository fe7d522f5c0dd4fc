// Package repository implements C2: one repository per logical entity
// type, each exposing create/read/list plus entity-specific append
// operations. "update" is deliberately absent — every repository is
// append-only, matching the corpus store it sits on. Generic helpers here
// are grounded on infrastructure/database/generic_repository.go's
// GenericCreate[T]/GenericList[T] pattern: JSON marshal/unmarshal wrapped
// around a single underlying call, with error wrapping via %w.
package repository

import (
	"encoding/json"
	"fmt"

	"github.com/clinicore/corpusengine/internal/corpusstore"
)

// GenericAppend marshals entity to JSON and appends it to group under
// recordID, returning the assigned id.
func GenericAppend[T any](s *corpusstore.Store, group, recordID string, entity T) (string, error) {
	payload, err := json.Marshal(entity)
	if err != nil {
		return "", fmt.Errorf("%s: %w", group, err)
	}
	id, err := s.Append(group, recordID, payload)
	if err != nil {
		return "", fmt.Errorf("%s: %w", group, err)
	}
	return id, nil
}

// GenericList reads every record in group within sel and unmarshals each
// into T.
func GenericList[T any](s *corpusstore.Store, group string, sel corpusstore.Selector) ([]T, error) {
	recs, err := s.Read(group, sel)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", group, err)
	}
	out := make([]T, 0, len(recs))
	for _, r := range recs {
		var v T
		if err := json.Unmarshal(r.Payload, &v); err != nil {
			return nil, fmt.Errorf("%s: %w", group, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// GenericGetByField scans group for the first record where matches
// reports true, returning ErrNotFound (via NotFoundError) if none match.
func GenericGetByField[T any](s *corpusstore.Store, group, entity string, matches func(T) bool) (T, error) {
	var zero T
	all, err := GenericList[T](s, group, corpusstore.Selector{})
	if err != nil {
		return zero, err
	}
	for _, v := range all {
		if matches(v) {
			return v, nil
		}
	}
	return zero, NewNotFoundError(entity, "")
}

// GenericListByField returns every record in group for which matches
// reports true.
func GenericListByField[T any](s *corpusstore.Store, group string, matches func(T) bool) ([]T, error) {
	all, err := GenericList[T](s, group, corpusstore.Selector{})
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(all))
	for _, v := range all {
		if matches(v) {
			out = append(out, v)
		}
	}
	return out, nil
}
