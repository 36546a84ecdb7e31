// Package pframe models the external tabular-data service ("PFrame") that
// suggestion resolution reads from: column and axis specs, filter predicates,
// the four read operations of the driver contract, and helpers every driver
// implementation shares.
package pframe

import (
	"encoding/json"
	"strings"
)

// ObjectID identifies a column within a frame.
type ObjectID string

// Handle identifies a frame instance on the data service.
type Handle string

// ValueType is the element type of a column or axis.
type ValueType string

const (
	ValueTypeInt    ValueType = "Int"
	ValueTypeLong   ValueType = "Long"
	ValueTypeFloat  ValueType = "Float"
	ValueTypeDouble ValueType = "Double"
	ValueTypeString ValueType = "String"
	ValueTypeBytes  ValueType = "Bytes"
)

// KindPColumn is the Kind of a tabular column spec.
const KindPColumn = "PColumn"

// Well-known names.
const (
	LabelColumnName = "pl7.app/label"

	AnnotationLabel          = "pl7.app/label"
	AnnotationDiscreteValues = "pl7.app/discreteValues"
	AnnotationHideFromUI     = "pl7.app/hideDataFromUi"
	AnnotationHideFromGraphs = "pl7.app/hideDataFromGraphs"
)

// AxisSpec describes one indexing dimension of a column.
type AxisSpec struct {
	Type        ValueType         `json:"type" yaml:"type"`
	Name        string            `json:"name" yaml:"name"`
	Domain      map[string]string `json:"domain,omitempty" yaml:"domain,omitempty"`
	Annotations map[string]string `json:"annotations,omitempty" yaml:"annotations,omitempty"`
}

// ID returns the identity part of the axis (annotations are not identity).
func (a AxisSpec) ID() AxisID {
	return AxisID{Type: a.Type, Name: a.Name, Domain: a.Domain}
}

// AxisID is the canonical identity of an axis.
type AxisID struct {
	Type   ValueType         `json:"type"`
	Name   string            `json:"name"`
	Domain map[string]string `json:"domain,omitempty"`
}

// Canonical serialises the id as JSON with sorted keys. Two axis ids are
// equal iff their canonical forms are equal; the string is usable as a map key.
func (id AxisID) Canonical() string {
	m := map[string]any{
		"type": string(id.Type),
		"name": id.Name,
	}
	if len(id.Domain) > 0 {
		m["domain"] = id.Domain
	}
	// encoding/json sorts map keys, nested maps included
	b, err := json.Marshal(m)
	if err != nil {
		// map[string]string and strings always marshal
		panic(err)
	}
	return string(b)
}

// Equal reports whether both ids have the same canonical form.
func (id AxisID) Equal(other AxisID) bool {
	if id.Type != other.Type || id.Name != other.Name || len(id.Domain) != len(other.Domain) {
		return false
	}
	for k, v := range id.Domain {
		if ov, ok := other.Domain[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// ColumnSpec is the metadata of one column served by the data service.
type ColumnSpec struct {
	Kind        string            `json:"kind" yaml:"kind"`
	Name        string            `json:"name" yaml:"name"`
	ValueType   ValueType         `json:"valueType" yaml:"valueType"`
	Domain      map[string]string `json:"domain,omitempty" yaml:"domain,omitempty"`
	Annotations map[string]string `json:"annotations,omitempty" yaml:"annotations,omitempty"`
	AxesSpec    []AxisSpec        `json:"axesSpec" yaml:"axesSpec"`
}

// IsPColumn reports whether the spec describes a tabular column.
func (s *ColumnSpec) IsPColumn() bool {
	return s != nil && s.Kind == KindPColumn
}

// Annotation returns the annotation value for key.
func (s *ColumnSpec) Annotation(key string) (string, bool) {
	if s == nil || s.Annotations == nil {
		return "", false
	}
	v, ok := s.Annotations[key]
	return v, ok
}

// AxisIndex returns the position of the axis with the given id, or -1.
func (s *ColumnSpec) AxisIndex(id AxisID) int {
	for i, a := range s.AxesSpec {
		if a.ID().Equal(id) {
			return i
		}
	}
	return -1
}

// HasAxis reports whether the column is indexed by the given axis.
func (s *ColumnSpec) HasAxis(id AxisID) bool {
	return s.AxisIndex(id) >= 0
}

// Label is the display label of the column: its label annotation or its name.
func (s *ColumnSpec) Label() string {
	if v, ok := s.Annotation(AnnotationLabel); ok && v != "" {
		return v
	}
	return s.Name
}

// IsHiddenFromUI reports whether the column asks to be hidden from tables and pickers.
func (s *ColumnSpec) IsHiddenFromUI() bool {
	return annotationTrue(s, AnnotationHideFromUI)
}

// IsHiddenFromGraphs reports whether the column asks to be hidden from graphs.
func (s *ColumnSpec) IsHiddenFromGraphs() bool {
	return annotationTrue(s, AnnotationHideFromGraphs)
}

func annotationTrue(s *ColumnSpec, key string) bool {
	v, ok := s.Annotation(key)
	return ok && strings.EqualFold(v, "true")
}
