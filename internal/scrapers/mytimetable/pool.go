package mytimetable

import (
	"context"
	"fmt"
)

type SuggestionSource interface {
	Suggestions(ctx context.Context) ([]string, error)
}

// Pool is a consumable list of suggestion labels. Labels are handed out in
// order and never twice within one fill.
type Pool struct {
	labels []string
}

func NewPool(labels []string) Pool {
	return Pool{labels: append([]string(nil), labels...)}
}

func (p Pool) Len() int {
	return len(p.labels)
}

// Next pops one label, refilling from src when the pool is exhausted. The
// receiver is never modified.
func (p Pool) Next(ctx context.Context, src SuggestionSource) (string, Pool, error) {
	if len(p.labels) == 0 {
		labels, err := src.Suggestions(ctx)
		if err != nil {
			return "", p, fmt.Errorf("refill suggestions: %w", err)
		}
		if len(labels) == 0 {
			return "", p, ErrNoSuggestions
		}
		p = NewPool(labels)
	}
	return p.labels[0], Pool{labels: p.labels[1:]}, nil
}
