// Package cards holds the pure card rules: feature decoding, the set
// legality predicate and set enumeration. Nothing here touches shared
// state or goroutines.
package cards

import "errors"

var ErrBadRules = errors.New("feature count and range must be positive")

// Rules describes the card space. A card id in [0, DeckSize()) encodes
// FeatureCount digits base FeatureRange.
type Rules struct {
	FeatureCount int
	FeatureRange int
	SetSize      int
}

func NewRules(featureCount, featureRange, setSize int) (Rules, error) {
	if featureCount <= 0 || featureRange <= 0 || setSize <= 0 {
		return Rules{}, ErrBadRules
	}
	return Rules{FeatureCount: featureCount, FeatureRange: featureRange, SetSize: setSize}, nil
}

// DeckSize is the number of distinct cards the rules admit.
func (r Rules) DeckSize() int {
	size := 1
	for i := 0; i < r.FeatureCount; i++ {
		size *= r.FeatureRange
	}
	return size
}

// Features decodes a card id into its feature vector.
func (r Rules) Features(card int) []int {
	fs := make([]int, r.FeatureCount)
	for i := r.FeatureCount - 1; i >= 0; i-- {
		fs[i] = card % r.FeatureRange
		card /= r.FeatureRange
	}
	return fs
}

// IsLegalSet reports whether the given cards form a legal set: for every
// feature, the values are either all equal or all distinct. Order of the
// cards does not matter.
func (r Rules) IsLegalSet(set ...int) bool {
	if len(set) != r.SetSize {
		return false
	}
	features := make([][]int, len(set))
	for i, c := range set {
		features[i] = r.Features(c)
	}
	for f := 0; f < r.FeatureCount; f++ {
		seen := make(map[int]int)
		for i := range set {
			seen[features[i][f]]++
		}
		if len(seen) != 1 && len(seen) != len(set) {
			return false
		}
	}
	return true
}

// FindSets enumerates legal sets within the given cards, up to limit
// combinations. A limit <= 0 means no limit. The empty result means no
// legal set exists among the cards.
func (r Rules) FindSets(cards []int, limit int) [][]int {
	var found [][]int
	combo := make([]int, r.SetSize)
	var rec func(start, depth int) bool
	rec = func(start, depth int) bool {
		if depth == r.SetSize {
			if r.IsLegalSet(combo...) {
				found = append(found, append([]int(nil), combo...))
				if limit > 0 && len(found) >= limit {
					return true
				}
			}
			return false
		}
		for i := start; i < len(cards); i++ {
			combo[depth] = cards[i]
			if rec(i+1, depth+1) {
				return true
			}
		}
		return false
	}
	rec(0, 0)
	return found
}
