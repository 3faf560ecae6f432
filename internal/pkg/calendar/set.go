package calendar

import "sort"

// Set is a set of dates; use Sorted for ordered iteration.
type Set map[Date]struct{}

func NewSet(dates ...Date) Set {
	s := make(Set, len(dates))
	for _, d := range dates {
		s[d] = struct{}{}
	}
	return s
}

func (s Set) Has(d Date) bool {
	_, ok := s[d]
	return ok
}

// Difference returns the dates of s that are not in other, sorted.
func (s Set) Difference(other Set) []Date {
	var out []Date
	for d := range s {
		if !other.Has(d) {
			out = append(out, d)
		}
	}
	Sort(out)
	return out
}

// Sorted returns the members in ascending order.
func (s Set) Sorted() []Date {
	out := make([]Date, 0, len(s))
	for d := range s {
		out = append(out, d)
	}
	Sort(out)
	return out
}

// Sort sorts dates ascending in place.
func Sort(dates []Date) {
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
}

// Dedupe returns the distinct dates sorted ascending.
func Dedupe(dates []Date) []Date {
	return NewSet(dates...).Sorted()
}
