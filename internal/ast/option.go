// Package ast defines the parsed representation of a Ymir script: the
// Project/Router/Route node family and the recursive OptionValue sum type
// attached to middleware, auth, and render directives.
package ast

import (
	"fmt"
	"strings"

	"github.com/ymir-lang/ymir/internal/source"
)

// ValueKind discriminates the OptionValue sum type.
type ValueKind int

const (
	KindString ValueKind = iota
	KindNumber
	KindBool
	KindMap
	KindSequence
	KindGlobalVariable
)

func (k ValueKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindMap:
		return "map"
	case KindSequence:
		return "sequence"
	case KindGlobalVariable:
		return "global-variable"
	default:
		return "unknown"
	}
}

// GlobalVariable is a deferred lookup, e.g. `@env.PORT` -> Name:"env", Path:["PORT"].
type GlobalVariable struct {
	Name string
	Path []string
}

func (g GlobalVariable) String() string {
	return "@" + g.Name + "." + strings.Join(g.Path, ".")
}

// OptionValue is the recursive sum of what an option_value production in the
// grammar can produce: string | number | bool | ordered map | ordered
// sequence | GlobalVariable.
type OptionValue struct {
	Kind     ValueKind
	Str      string
	Num      float64
	Bool     bool
	Map      *OrderedMap
	Seq      []OptionValue
	Global   GlobalVariable
	Position source.Position
}

func StringValue(s string) OptionValue { return OptionValue{Kind: KindString, Str: s} }
func NumberValue(n float64) OptionValue { return OptionValue{Kind: KindNumber, Num: n} }
func BoolValue(b bool) OptionValue     { return OptionValue{Kind: KindBool, Bool: b} }
func MapValue(m *OrderedMap) OptionValue { return OptionValue{Kind: KindMap, Map: m} }
func SequenceValue(v []OptionValue) OptionValue { return OptionValue{Kind: KindSequence, Seq: v} }
func GlobalVariableValue(g GlobalVariable) OptionValue {
	return OptionValue{Kind: KindGlobalVariable, Global: g}
}

// AsString returns the value as a string if it holds one.
func (v OptionValue) AsString() (string, bool) {
	if v.Kind != KindString {
		return "", false
	}
	return v.Str, true
}

// AsBool returns the value as a bool if it holds one.
func (v OptionValue) AsBool() (bool, bool) {
	if v.Kind != KindBool {
		return false, false
	}
	return v.Bool, true
}

func (v OptionValue) String() string {
	switch v.Kind {
	case KindString:
		return fmt.Sprintf("%q", v.Str)
	case KindNumber:
		return fmt.Sprintf("%g", v.Num)
	case KindBool:
		return fmt.Sprintf("%t", v.Bool)
	case KindMap:
		return v.Map.String()
	case KindSequence:
		parts := make([]string, len(v.Seq))
		for i, e := range v.Seq {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindGlobalVariable:
		return v.Global.String()
	default:
		return "<invalid>"
	}
}

// OrderedMap is a string-keyed mapping that preserves first-occurrence
// insertion order, per spec.md's "ordered mapping ... keys unique,
// first-occurrence order preserved".
type OrderedMap struct {
	order  []string
	values map[string]OptionValue
}

// NewOrderedMap returns an empty OrderedMap.
func NewOrderedMap() *OrderedMap {
	return &OrderedMap{values: map[string]OptionValue{}}
}

// Set inserts or updates key. A new key is appended to the order; an
// existing key keeps its original position but gets the new value.
func (m *OrderedMap) Set(key string, value OptionValue) {
	if _, exists := m.values[key]; !exists {
		m.order = append(m.order, key)
	}
	m.values[key] = value
}

// Get looks up key.
func (m *OrderedMap) Get(key string) (OptionValue, bool) {
	if m == nil {
		return OptionValue{}, false
	}
	v, ok := m.values[key]
	return v, ok
}

// Keys returns keys in first-occurrence order.
func (m *OrderedMap) Keys() []string {
	if m == nil {
		return nil
	}
	return m.order
}

// Len returns the number of entries.
func (m *OrderedMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.order)
}

// Clone returns a deep-enough copy (keys/values copied, nested maps shared
// by reference since OptionValue trees are treated as immutable post-parse).
func (m *OrderedMap) Clone() *OrderedMap {
	out := NewOrderedMap()
	if m == nil {
		return out
	}
	for _, k := range m.order {
		out.Set(k, m.values[k])
	}
	return out
}

func (m *OrderedMap) String() string {
	if m == nil || len(m.order) == 0 {
		return "{}"
	}
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range m.order {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(m.values[k].String())
	}
	b.WriteByte('}')
	return b.String()
}
