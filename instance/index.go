// Package instance indexes named program entities by their byte ranges.
package instance

import (
	"sort"

	"github.com/viant/conformance/schema"
)

// Index holds the instances of a single location ordered by start offset
type Index struct {
	items []*schema.Instance
}

// Add inserts an instance keeping start order
func (x *Index) Add(instance *schema.Instance) {
	i := sort.Search(len(x.items), func(i int) bool {
		item := x.items[i]
		if item.Start != instance.Start {
			return item.Start > instance.Start
		}
		return item.ID > instance.ID
	})
	x.items = append(x.items, nil)
	copy(x.items[i+1:], x.items[i:])
	x.items[i] = instance
}

// Remove deletes an instance by id
func (x *Index) Remove(id schema.InstanceID) bool {
	for i, item := range x.items {
		if item.ID == id {
			x.items = append(x.items[:i], x.items[i+1:]...)
			return true
		}
	}
	return false
}

// Len returns number of instances
func (x *Index) Len() int {
	return len(x.items)
}

// Instances returns instances in start order
func (x *Index) Instances() []*schema.Instance {
	return x.items
}

// Containing returns every instance whose range contains offset, outermost first
func (x *Index) Containing(offset int) []*schema.Instance {
	upper := sort.Search(len(x.items), func(i int) bool { return x.items[i].Start > offset })
	var result []*schema.Instance
	for _, item := range x.items[:upper] {
		if item.Contains(offset) {
			result = append(result, item)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Width() > result[j].Width()
	})
	return result
}

// SmallestContaining returns the innermost instance containing offset
func (x *Index) SmallestContaining(offset int) (*schema.Instance, bool) {
	var best *schema.Instance
	upper := sort.Search(len(x.items), func(i int) bool { return x.items[i].Start > offset })
	for _, item := range x.items[:upper] {
		if !item.Contains(offset) {
			continue
		}
		if best == nil || innermost(item, best) {
			best = item
		}
	}
	return best, best != nil
}

// Enclosing returns the innermost instance covering the whole range
func (x *Index) Enclosing(r schema.Range) (*schema.Instance, bool) {
	var best *schema.Instance
	upper := sort.Search(len(x.items), func(i int) bool { return x.items[i].Start > r.Start })
	for _, item := range x.items[:upper] {
		if !item.Covers(r) {
			continue
		}
		if best == nil || innermost(item, best) {
			best = item
		}
	}
	return best, best != nil
}

func innermost(candidate, best *schema.Instance) bool {
	if candidate.Width() != best.Width() {
		return candidate.Width() < best.Width()
	}
	if candidate.Start != best.Start {
		return candidate.Start > best.Start
	}
	return candidate.ID > best.ID
}
