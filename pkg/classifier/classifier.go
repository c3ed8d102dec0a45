// Package classifier groups unresolved raw values from failed records and
// proposes the closest catalog entries for each group.
package classifier

import (
	"sort"

	"github.com/Ramsey-B/yarrow/pkg/models"
	"github.com/Ramsey-B/yarrow/pkg/normalizers"
	"github.com/Ramsey-B/yarrow/pkg/refindex"
)

const (
	// DefaultCutoff is the minimum similarity for a suggestion
	DefaultCutoff = 0.6
	// DefaultMaxSuggestions caps the suggestions per group
	DefaultMaxSuggestions = 3
)

// Suggestion is one candidate catalog entry for an unresolved value.
type Suggestion struct {
	Value string  `json:"value"`
	Score float64 `json:"score"`
}

// Group is one unresolved (kind, raw value) pair with the records that carry
// it. Suggestions are advisory; nothing is applied automatically.
type Group struct {
	Kind        models.EntityKind `json:"kind"`
	RawValue    string            `json:"raw_value"`
	RecordIDs   []int64           `json:"record_ids"`
	Count       int               `json:"count"`
	Suggestions []Suggestion      `json:"suggestions"`
}

// ErrorRecord is the classifier's view of a failed record.
type ErrorRecord struct {
	ID         int64
	Unresolved []models.UnresolvedField
}

// Classifier turns failed records into suggestion groups.
type Classifier struct {
	scorer         *Scorer
	cutoff         float64
	maxSuggestions int
}

// New creates a Classifier with the default cutoff and suggestion cap.
func New() *Classifier {
	return &Classifier{
		scorer:         NewScorer(),
		cutoff:         DefaultCutoff,
		maxSuggestions: DefaultMaxSuggestions,
	}
}

// Classify groups the unresolved fields of the given records by (kind,
// normalized raw value) and attaches up to maxSuggestions candidates with
// similarity at or above the cutoff, most similar first. Groups are ordered
// by descending record count, then raw value.
func (c *Classifier) Classify(idx *refindex.Index, records []ErrorRecord) []Group {
	type groupKey struct {
		kind models.EntityKind
		key  string
	}
	grouped := make(map[groupKey]*Group)

	for _, rec := range records {
		for _, uf := range rec.Unresolved {
			key := groupKey{kind: uf.Kind, key: normalizers.Key(uf.RawValue)}
			if key.key == "" {
				continue
			}
			g, ok := grouped[key]
			if !ok {
				g = &Group{Kind: uf.Kind, RawValue: uf.RawValue}
				grouped[key] = g
			}
			g.RecordIDs = append(g.RecordIDs, rec.ID)
			g.Count++
		}
	}

	groups := make([]Group, 0, len(grouped))
	for _, g := range grouped {
		sort.Slice(g.RecordIDs, func(i, j int) bool { return g.RecordIDs[i] < g.RecordIDs[j] })
		g.Suggestions = c.suggest(g.RawValue, candidatesFor(idx, g.Kind))
		groups = append(groups, *g)
	}

	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Count != groups[j].Count {
			return groups[i].Count > groups[j].Count
		}
		if groups[i].Kind != groups[j].Kind {
			return groups[i].Kind < groups[j].Kind
		}
		return groups[i].RawValue < groups[j].RawValue
	})

	return groups
}

// suggest ranks candidates by Levenshtein ratio with a Jaro-Winkler tiebreak.
func (c *Classifier) suggest(raw string, candidates []string) []Suggestion {
	type scored struct {
		Suggestion
		tiebreak float64
	}
	key := normalizers.Key(raw)

	matches := make([]scored, 0, len(candidates))
	for _, candidate := range candidates {
		score := c.scorer.Similarity(key, candidate)
		if score < c.cutoff {
			continue
		}
		matches = append(matches, scored{
			Suggestion: Suggestion{Value: candidate, Score: score},
			tiebreak:   c.scorer.JaroWinkler(key, normalizers.Key(candidate)),
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		if matches[i].tiebreak != matches[j].tiebreak {
			return matches[i].tiebreak > matches[j].tiebreak
		}
		return matches[i].Value < matches[j].Value
	})

	if len(matches) > c.maxSuggestions {
		matches = matches[:c.maxSuggestions]
	}

	suggestions := make([]Suggestion, len(matches))
	for i, m := range matches {
		suggestions[i] = m.Suggestion
	}
	return suggestions
}

func candidatesFor(idx *refindex.Index, kind models.EntityKind) []string {
	switch kind {
	case models.KindCenter:
		return idx.CenterNames()
	case models.KindStore:
		return idx.StoreNames()
	case models.KindProduct:
		return idx.ProductCodes()
	default:
		return nil
	}
}
