package filter

import "github.com/vedantwpatil/tabletd/internal/geom"

// Chain is an immutable ordered set of filters, partitioned by stage.
// Replace a chain by building a new one; partial edits are not supported.
type Chain struct {
	all  []Filter
	pre  []Filter
	post []Filter
}

// NewChain partitions filters by stage, keeping their relative order.
func NewChain(filters []Filter) *Chain {
	c := &Chain{all: make([]Filter, 0, len(filters))}
	for _, f := range filters {
		if f == nil {
			continue
		}
		c.all = append(c.all, f)
		switch f.Stage() {
		case PreTranspose:
			c.pre = append(c.pre, f)
		case PostTranspose:
			c.post = append(c.post, f)
		}
	}
	return c
}

// All returns every installed filter in configured order.
func (c *Chain) All() []Filter { return clone(c.all) }

// Pre returns the pre-transpose filters in order.
func (c *Chain) Pre() []Filter { return clone(c.pre) }

// Post returns the post-transpose filters in order.
func (c *Chain) Post() []Filter { return clone(c.post) }

// Len returns the number of installed filters.
func (c *Chain) Len() int { return len(c.all) }

// ApplyPre runs p through the pre-transpose filters.
func (c *Chain) ApplyPre(p geom.Point) geom.Point {
	return apply(c.pre, p)
}

// ApplyPost runs p through the post-transpose filters.
func (c *Chain) ApplyPost(p geom.Point) geom.Point {
	return apply(c.post, p)
}

func apply(filters []Filter, p geom.Point) geom.Point {
	for _, f := range filters {
		p = guarded(f, p)
	}
	return p
}

// guarded runs one filter. A panic or a non-finite result passes the input
// through unchanged.
func guarded(f Filter, in geom.Point) (out geom.Point) {
	defer func() {
		if recover() != nil {
			out = in
		}
	}()
	out = f.Filter(in)
	if !out.IsFinite() {
		return in
	}
	return out
}

func clone(filters []Filter) []Filter {
	if len(filters) == 0 {
		return nil
	}
	out := make([]Filter, len(filters))
	copy(out, filters)
	return out
}
