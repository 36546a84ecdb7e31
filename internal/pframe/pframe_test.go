package pframe

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/colsuggest/internal/errs"
)

var (
	sampleAxis = AxisSpec{Type: ValueTypeString, Name: "pl7.app/sampleId"}
	geneAxis   = AxisSpec{
		Type:        ValueTypeString,
		Name:        "pl7.app/rna-seq/geneId",
		Domain:      map[string]string{"pl7.app/species": "homo-sapiens"},
		Annotations: map[string]string{AnnotationLabel: "Gene"},
	}
)

func TestAxisID_Canonical(t *testing.T) {
	assert.Equal(t, `{"name":"pl7.app/sampleId","type":"String"}`, sampleAxis.ID().Canonical())
	assert.Equal(t,
		`{"domain":{"pl7.app/species":"homo-sapiens"},"name":"pl7.app/rna-seq/geneId","type":"String"}`,
		geneAxis.ID().Canonical(),
	)

	// annotations are not part of the identity
	plain := geneAxis
	plain.Annotations = nil
	assert.Equal(t, geneAxis.ID().Canonical(), plain.ID().Canonical())
	assert.True(t, geneAxis.ID().Equal(plain.ID()))

	other := geneAxis
	other.Domain = map[string]string{"pl7.app/species": "mus-musculus"}
	assert.False(t, geneAxis.ID().Equal(other.ID()))
	assert.False(t, geneAxis.ID().Equal(sampleAxis.ID()))
}

func TestColumnSpec_Helpers(t *testing.T) {
	spec := &ColumnSpec{
		Kind:      KindPColumn,
		Name:      "pl7.app/rna-seq/countMatrix",
		ValueType: ValueTypeDouble,
		Annotations: map[string]string{
			AnnotationHideFromUI: "True",
		},
		AxesSpec: []AxisSpec{sampleAxis, geneAxis},
	}

	assert.True(t, spec.IsPColumn())
	assert.Equal(t, 1, spec.AxisIndex(geneAxis.ID()))
	assert.False(t, spec.HasAxis(AxisID{Type: ValueTypeString, Name: "pl7.app/sc/cellId"}))
	assert.True(t, spec.IsHiddenFromUI())
	assert.False(t, spec.IsHiddenFromGraphs())
	assert.Equal(t, "pl7.app/rna-seq/countMatrix", spec.Label())

	spec.Annotations[AnnotationLabel] = "Counts"
	assert.Equal(t, "Counts", spec.Label())

	var nilSpec *ColumnSpec
	assert.False(t, nilSpec.IsPColumn())
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"abc", "abc"},
		{[]byte("raw"), "raw"},
		{int64(42), "42"},
		{int32(-7), "-7"},
		{3.0, "3"},
		{1.5, "1.5"},
		{float32(0.25), "0.25"},
		{1e20, "100000000000000000000"},
		{1e21, "1e+21"},
		{-2.5e22, "-2.5e+22"},
		{float32(1e22), "1e+22"},
		{json.Number("10"), "10"},
		{true, "true"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatValue(tt.in))
	}
}

func TestFilter_Match(t *testing.T) {
	f := StringIContains(ByColumn("label"), "CD4")

	ok, err := f.Match("t-cell cd4+")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.Match("CD8")
	require.NoError(t, err)
	assert.False(t, ok)

	num := StringIContains(ByAxis(sampleAxis.ID()), "12")
	ok, err = num.Match(int64(3120))
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = Filter{Target: ByColumn("x"), Predicate: Predicate{Operator: "Equal"}}.Match("x")
	assert.True(t, errs.IsInvalidInput(err))
}

func TestFilterTarget(t *testing.T) {
	col := ByColumn("c1")
	id, ok := col.Column()
	assert.True(t, ok)
	assert.Equal(t, ObjectID("c1"), id)
	_, ok = col.Axis()
	assert.False(t, ok)

	ax := ByAxis(sampleAxis.ID())
	assert.Equal(t, TargetAxis, ax.Kind())
	got, ok := ax.Axis()
	assert.True(t, ok)
	assert.True(t, got.Equal(sampleAxis.ID()))
}

func TestColumnFilter_Match(t *testing.T) {
	spec := &ColumnSpec{
		Kind:        KindPColumn,
		Name:        LabelColumnName,
		ValueType:   ValueTypeString,
		Annotations: map[string]string{"pl7.app/graph/isVirtual": "true", "pl7.app/description": "gene symbol"},
		AxesSpec:    []AxisSpec{geneAxis},
	}

	tests := []struct {
		name   string
		filter ColumnFilter
		want   bool
	}{
		{name: "empty filter", filter: ColumnFilter{}, want: true},
		{name: "name match", filter: ColumnFilter{Name: []string{LabelColumnName}}, want: true},
		{name: "name miss", filter: ColumnFilter{Name: []string{"pl7.app/other"}}, want: false},
		{name: "type miss", filter: ColumnFilter{Type: []ValueType{ValueTypeInt, ValueTypeLong}}, want: false},
		{name: "annotation value", filter: ColumnFilter{AnnotationValue: map[string]string{"pl7.app/graph/isVirtual": "true"}}, want: true},
		{name: "annotation value miss", filter: ColumnFilter{AnnotationValue: map[string]string{"pl7.app/graph/isVirtual": "false"}}, want: false},
		{name: "annotation not empty", filter: ColumnFilter{AnnotationPattern: map[string]string{"pl7.app/description": ".+"}}, want: true},
		{name: "annotation absent", filter: ColumnFilter{AnnotationPattern: map[string]string{"pl7.app/min": ".+"}}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.filter.Match(spec)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ColumnFilter{AnnotationPattern: map[string]string{"k": "("}}.Match(spec)
	assert.True(t, errs.IsInvalidInput(err))
}

func TestCompatible(t *testing.T) {
	cellAxis := AxisSpec{Type: ValueTypeString, Name: "pl7.app/sc/cellId"}
	spec := &ColumnSpec{Kind: KindPColumn, AxesSpec: []AxisSpec{sampleAxis, cellAxis}}

	assert.True(t, Compatible(spec, nil, true))
	assert.True(t, Compatible(spec, []AxisID{sampleAxis.ID()}, false))
	assert.False(t, Compatible(spec, []AxisID{sampleAxis.ID()}, true))
	assert.True(t, Compatible(spec, []AxisID{sampleAxis.ID(), cellAxis.ID(), geneAxis.ID()}, true))
	assert.False(t, Compatible(spec, []AxisID{geneAxis.ID()}, false))
}
