package keyword

import (
	"fmt"
	"strings"

	"github.com/atikulmunna/syslens/internal/model"
)

// Conditions is an ordered filter chain. Every method returns a new slice
// and leaves the receiver unchanged.
type Conditions []model.Condition

// NewConditions returns a chain holding a single empty condition.
func NewConditions() Conditions {
	return Conditions{{Keyword: "", Operator: model.And}}
}

// Add appends an empty AND condition.
func (cs Conditions) Add() Conditions {
	return append(cs.clone(), model.Condition{Operator: model.And})
}

// Remove drops condition i. The last remaining condition is reset to an empty
// AND condition instead of being removed. Out-of-range indexes are ignored.
func (cs Conditions) Remove(i int) Conditions {
	out := cs.clone()
	if i < 0 || i >= len(out) {
		return out
	}
	if len(out) <= 1 {
		return NewConditions()
	}
	return append(out[:i], out[i+1:]...)
}

// SetKeyword replaces the keyword of condition i.
func (cs Conditions) SetKeyword(i int, keyword string) Conditions {
	out := cs.clone()
	if i >= 0 && i < len(out) {
		out[i].Keyword = keyword
	}
	return out
}

// SetOperator replaces the operator of condition i.
func (cs Conditions) SetOperator(i int, op model.Operator) Conditions {
	out := cs.clone()
	if i >= 0 && i < len(out) {
		out[i].Operator = op
	}
	return out
}

// Active reports whether any condition carries a non-blank keyword.
func (cs Conditions) Active() bool {
	for _, c := range cs {
		if strings.TrimSpace(c.Keyword) != "" {
			return true
		}
	}
	return false
}

// String renders the chain as "a AND b OR c", skipping blank keywords.
func (cs Conditions) String() string {
	var b strings.Builder
	for _, c := range cs {
		kw := strings.TrimSpace(c.Keyword)
		if kw == "" {
			continue
		}
		if b.Len() > 0 {
			fmt.Fprintf(&b, " %s ", c.Operator)
		}
		fmt.Fprintf(&b, "%q", kw)
	}
	return b.String()
}

func (cs Conditions) clone() Conditions {
	out := make(Conditions, len(cs))
	copy(out, cs)
	return out
}

// ParseCondition reads "OP:keyword" where OP is AND or OR. Text without a
// recognized prefix is an AND condition on the whole text.
func ParseCondition(s string) model.Condition {
	if op, kw, ok := strings.Cut(s, ":"); ok {
		if parsed, err := model.ParseOperator(op); err == nil && strings.TrimSpace(op) != "" {
			return model.Condition{Keyword: kw, Operator: parsed}
		}
	}
	return model.Condition{Keyword: s, Operator: model.And}
}
