// Package resolver maps a scanned or typed token to inventory items.
package resolver

import (
	"strings"

	"github.com/and161185/stock-keeper/internal/model"
)

// Outcome classifies a resolution.
type Outcome int

const (
	NotFound  Outcome = iota // nothing matched
	Confident                // exactly one item, Match is set
	Ambiguous                // several candidates, caller must pick
)

func (o Outcome) String() string {
	switch o {
	case Confident:
		return "confident"
	case Ambiguous:
		return "ambiguous"
	default:
		return "not_found"
	}
}

// Result of Resolve. Candidates is set only for Ambiguous.
type Result struct {
	Outcome    Outcome
	Match      model.Item
	Exact      bool
	Candidates []model.Item
}

// Resolve runs the exact pass (barcode or id equality) and, only when it finds
// nothing, the fuzzy pass (case-insensitive substring over name, category,
// supplier, barcode and notes). A linear scan: working sets are small.
func Resolve(items []model.Item, token string) Result {
	token = strings.TrimSpace(token)
	if token == "" {
		return Result{Outcome: NotFound}
	}

	var exact []model.Item
	for _, it := range items {
		if (it.Barcode != "" && it.Barcode == token) || it.ID == token {
			exact = append(exact, it)
		}
	}
	if len(exact) > 0 {
		r := decide(exact)
		r.Exact = true
		return r
	}

	needle := strings.ToLower(token)
	var fuzzy []model.Item
	for _, it := range items {
		if matches(it, needle) {
			fuzzy = append(fuzzy, it)
		}
	}
	return decide(fuzzy)
}

func decide(hits []model.Item) Result {
	switch len(hits) {
	case 0:
		return Result{Outcome: NotFound}
	case 1:
		return Result{Outcome: Confident, Match: hits[0]}
	default:
		return Result{Outcome: Ambiguous, Candidates: hits}
	}
}

func matches(it model.Item, needle string) bool {
	for _, f := range [...]string{it.Name, it.Category, it.Supplier, it.Barcode, it.Notes} {
		if f != "" && strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}
