// Package knowledge represents background constraints on causal structure:
// forbidden and required directed relations between named variables, and
// tier (temporal ordering) constraints.
//
// Knowledge is constructed once before a search run and must not be mutated
// while a search holds it. All query methods are read-only and safe for
// concurrent readers.
package knowledge

import (
	"errors"
	"fmt"
	"slices"
)

// ErrConflict is returned by [Knowledge.Validate] when the same ordered
// pair is both required and forbidden. Search refuses to start on
// conflicting knowledge rather than picking a precedence silently.
var ErrConflict = errors.New("conflicting knowledge")

type pair struct{ from, to string }

// Knowledge holds background constraints. The zero value is not usable -
// use New.
type Knowledge struct {
	forbidden map[pair]bool
	required  map[pair]bool

	tierOf          map[string]int
	tiers           map[int][]string
	forbiddenWithin map[int]bool
}

// New creates an empty knowledge set.
func New() *Knowledge {
	return &Knowledge{
		forbidden:       make(map[pair]bool),
		required:        make(map[pair]bool),
		tierOf:          make(map[string]int),
		tiers:           make(map[int][]string),
		forbiddenWithin: make(map[int]bool),
	}
}

// SetForbidden forbids the directed relation from --> to.
func (k *Knowledge) SetForbidden(from, to string) {
	k.forbidden[pair{from, to}] = true
}

// SetRequired requires the directed relation from --> to.
func (k *Knowledge) SetRequired(from, to string) {
	k.required[pair{from, to}] = true
}

// AddToTier assigns a variable to a tier. Variables in a lower tier precede
// (and may not be caused by) variables in a higher tier. A variable belongs
// to at most one tier; reassignment overwrites.
func (k *Knowledge) AddToTier(tier int, name string) {
	if old, ok := k.tierOf[name]; ok {
		k.tiers[old] = slices.DeleteFunc(k.tiers[old], func(s string) bool { return s == name })
	}
	k.tierOf[name] = tier
	k.tiers[tier] = append(k.tiers[tier], name)
}

// SetTierForbiddenWithin forbids edges between variables of the same tier.
func (k *Knowledge) SetTierForbiddenWithin(tier int, forbidden bool) {
	k.forbiddenWithin[tier] = forbidden
}

// Tier returns the tier index of a variable and whether it is assigned.
func (k *Knowledge) Tier(name string) (int, bool) {
	t, ok := k.tierOf[name]
	return t, ok
}

// IsForbidden reports whether the directed relation from --> to is ruled
// out, either explicitly or by tier constraints: a later-tier variable can
// never cause an earlier-tier one, and same-tier relations are forbidden
// when the tier is marked forbidden-within.
func (k *Knowledge) IsForbidden(from, to string) bool {
	if k.forbidden[pair{from, to}] {
		return true
	}
	tf, okF := k.tierOf[from]
	tt, okT := k.tierOf[to]
	if okF && okT {
		if tf > tt {
			return true
		}
		if tf == tt && k.forbiddenWithin[tf] {
			return true
		}
	}
	return false
}

// IsRequired reports whether the directed relation from --> to is required.
func (k *Knowledge) IsRequired(from, to string) bool {
	return k.required[pair{from, to}]
}

// IsEmpty reports whether no constraints are present. Searches skip
// knowledge checks entirely on empty knowledge.
func (k *Knowledge) IsEmpty() bool {
	return len(k.forbidden) == 0 && len(k.required) == 0 && len(k.tierOf) == 0
}

// Validate returns ErrConflict (wrapped with the offending pair) when any
// ordered pair is simultaneously required and forbidden, including
// tier-induced forbiddance.
func (k *Knowledge) Validate() error {
	for p := range k.required {
		if k.IsForbidden(p.from, p.to) {
			return fmt.Errorf("%w: %s --> %s is both required and forbidden", ErrConflict, p.from, p.to)
		}
	}
	return nil
}

// MustPrecede reports whether knowledge demands that a appear before b in
// any causal ordering: a --> b is required, a's tier precedes b's, or b is
// forbidden as a cause of a while the reverse is allowed.
func (k *Knowledge) MustPrecede(a, b string) bool {
	if k.IsRequired(a, b) {
		return true
	}
	ta, okA := k.tierOf[a]
	tb, okB := k.tierOf[b]
	if okA && okB && ta < tb {
		return true
	}
	return k.forbidden[pair{b, a}] && !k.forbidden[pair{a, b}]
}

// SortOrder stably reorders names so that every MustPrecede relation is
// satisfied: walking the input order, each variable is emitted only after
// the variables knowledge demands precede it, so a required cause is hoisted
// to just before its earliest effect and unconstrained variables keep their
// relative positions. The input slice is not modified.
//
// Constraint graphs with precedence cycles (only possible with conflicting
// knowledge, which Validate rejects) are returned best-effort.
func (k *Knowledge) SortOrder(names []string) []string {
	if k.IsEmpty() {
		return slices.Clone(names)
	}

	out := make([]string, 0, len(names))
	emitted := make(map[string]bool, len(names))
	onPath := make(map[string]bool, len(names))

	var visit func(name string)
	visit = func(name string) {
		if emitted[name] || onPath[name] {
			return
		}
		onPath[name] = true
		for _, p := range names {
			if p != name && k.MustPrecede(p, name) && !k.MustPrecede(name, p) {
				visit(p)
			}
		}
		onPath[name] = false
		emitted[name] = true
		out = append(out, name)
	}
	for _, name := range names {
		visit(name)
	}
	return out
}

// IsViolatedBy reports whether an ordering places some variable before
// another that knowledge demands precede it.
func (k *Knowledge) IsViolatedBy(order []string) bool {
	if k.IsEmpty() {
		return false
	}
	for i := range order {
		for j := i + 1; j < len(order); j++ {
			if k.MustPrecede(order[j], order[i]) && !k.MustPrecede(order[i], order[j]) {
				return true
			}
		}
	}
	return false
}

// ForbiddenPairs returns all explicitly forbidden ordered pairs, sorted.
func (k *Knowledge) ForbiddenPairs() [][2]string { return sortedPairs(k.forbidden) }

// RequiredPairs returns all required ordered pairs, sorted.
func (k *Knowledge) RequiredPairs() [][2]string { return sortedPairs(k.required) }

func sortedPairs(m map[pair]bool) [][2]string {
	out := make([][2]string, 0, len(m))
	for p := range m {
		out = append(out, [2]string{p.from, p.to})
	}
	slices.SortFunc(out, func(a, b [2]string) int {
		if a[0] != b[0] {
			if a[0] < b[0] {
				return -1
			}
			return 1
		}
		if a[1] < b[1] {
			return -1
		}
		if a[1] > b[1] {
			return 1
		}
		return 0
	})
	return out
}
