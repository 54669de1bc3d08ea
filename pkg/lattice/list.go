package lattice

import (
	"strings"

	"github.com/aretw0/nala/pkg/domain"
)

// Filter selects elements by hardware type, model or class. Every non-empty
// list must contain the element's value, compared case-insensitively. Short
// diagnostic names such as "BPM" match their full hardware type.
type Filter struct {
	Types   []string
	Models  []string
	Classes []string
}

// ByType is shorthand for a type filter.
func ByType(types ...string) Filter { return Filter{Types: types} }

// ByClass is shorthand for a class filter.
func ByClass(classes ...string) Filter { return Filter{Classes: classes} }

// Match reports whether the element passes the filter.
func (f Filter) Match(e *domain.Element) bool {
	if len(f.Types) > 0 && !matchAny(e.HardwareType, f.Types, domain.ResolveType) {
		return false
	}
	if len(f.Models) > 0 && !matchAny(e.HardwareModel, f.Models, nil) {
		return false
	}
	if len(f.Classes) > 0 && !matchAny(e.HardwareClass, f.Classes, nil) {
		return false
	}
	return true
}

func matchAny(value string, candidates []string, resolve func(string) string) bool {
	for _, c := range candidates {
		if resolve != nil {
			c = resolve(c)
		}
		if strings.EqualFold(value, c) {
			return true
		}
	}
	return false
}

// ElementList is an ordered collection of elements addressable by name.
type ElementList struct {
	elements []*domain.Element
	index    map[string]int
}

// NewElementList builds a list keeping the given order. A repeated name
// replaces the earlier element in place.
func NewElementList(elements ...*domain.Element) *ElementList {
	l := &ElementList{index: make(map[string]int, len(elements))}
	for _, e := range elements {
		l.Add(e)
	}
	return l
}

// Add appends an element or replaces the one with the same name.
func (l *ElementList) Add(e *domain.Element) {
	if i, ok := l.index[e.Name]; ok {
		l.elements[i] = e
		return
	}
	l.index[e.Name] = len(l.elements)
	l.elements = append(l.elements, e)
}

// Len is the number of elements.
func (l *ElementList) Len() int { return len(l.elements) }

// Get returns the element with the given name.
func (l *ElementList) Get(name string) (*domain.Element, bool) {
	i, ok := l.index[name]
	if !ok {
		return nil, false
	}
	return l.elements[i], true
}

// Index returns the position of name, or -1.
func (l *ElementList) Index(name string) int {
	if i, ok := l.index[name]; ok {
		return i
	}
	return -1
}

// Elements returns the elements in order.
func (l *ElementList) Elements() []*domain.Element {
	return append([]*domain.Element(nil), l.elements...)
}

// Names returns the element names in order.
func (l *ElementList) Names() []string {
	return names(l.elements)
}

// Filter returns the elements that pass f, in order.
func (l *ElementList) Filter(f Filter) *ElementList {
	out := NewElementList()
	for _, e := range l.elements {
		if f.Match(e) {
			out.Add(e)
		}
	}
	return out
}

func names(elements []*domain.Element) []string {
	out := make([]string, len(elements))
	for i, e := range elements {
		out[i] = e.Name
	}
	return out
}
