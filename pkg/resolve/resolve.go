// Package resolve turns raw free-text values into master references using a
// reference index snapshot. Resolution outcomes are values, not errors.
package resolve

import (
	"fmt"
	"strings"

	"github.com/Ramsey-B/yarrow/pkg/models"
	"github.com/Ramsey-B/yarrow/pkg/refindex"
)

// Status is the outcome of resolving one raw value.
type Status string

const (
	StatusResolved   Status = "resolved"
	StatusIgnored    Status = "ignored"
	StatusUnresolved Status = "unresolved"
	StatusEmpty      Status = "empty"
)

// ReasonIgnored is the note attached to records skipped by the ignore lists.
const ReasonIgnored = "ignored by configuration"

// Resolution is the result of one lookup. Value is set only when Status is
// StatusResolved; Unresolved is set only when Status is StatusUnresolved.
type Resolution[T any] struct {
	Status     Status
	Value      T
	Reason     string
	Unresolved *models.UnresolvedField
}

// Center resolves a raw distribution center value against the index.
func Center(idx *refindex.Index, field, raw string) Resolution[models.DistributionCenter] {
	if strings.TrimSpace(raw) == "" {
		return Resolution[models.DistributionCenter]{Status: StatusEmpty}
	}
	if _, ok := idx.Ignores().Ignored(models.KindCenter, raw); ok {
		return Resolution[models.DistributionCenter]{Status: StatusIgnored, Reason: ReasonIgnored}
	}
	if c, ok := idx.LookupCenter(raw); ok {
		return Resolution[models.DistributionCenter]{Status: StatusResolved, Value: c}
	}
	return unresolved[models.DistributionCenter](models.KindCenter, field, raw)
}

// Store resolves a raw store value against the index.
func Store(idx *refindex.Index, field, raw string) Resolution[models.Store] {
	if strings.TrimSpace(raw) == "" {
		return Resolution[models.Store]{Status: StatusEmpty}
	}
	if _, ok := idx.Ignores().Ignored(models.KindStore, raw); ok {
		return Resolution[models.Store]{Status: StatusIgnored, Reason: ReasonIgnored}
	}
	if s, ok := idx.LookupStore(raw); ok {
		return Resolution[models.Store]{Status: StatusResolved, Value: s}
	}
	return unresolved[models.Store](models.KindStore, field, raw)
}

// Product resolves a raw item code against the index. Products have no
// ignore list.
func Product(idx *refindex.Index, field, raw string) Resolution[models.Product] {
	if strings.TrimSpace(raw) == "" {
		return Resolution[models.Product]{Status: StatusEmpty}
	}
	if p, ok := idx.LookupProduct(raw); ok {
		return Resolution[models.Product]{Status: StatusResolved, Value: p}
	}
	return unresolved[models.Product](models.KindProduct, field, raw)
}

func unresolved[T any](kind models.EntityKind, field, raw string) Resolution[T] {
	trimmed := strings.TrimSpace(raw)
	return Resolution[T]{
		Status: StatusUnresolved,
		Reason: fmt.Sprintf("%s not found: %s", kind.Label(), trimmed),
		Unresolved: &models.UnresolvedField{
			Kind:     kind,
			Field:    field,
			RawValue: trimmed,
		},
	}
}
