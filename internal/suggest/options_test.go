package suggest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/colsuggest/internal/errs"
	"github.com/koustreak/colsuggest/internal/pframe"
	"github.com/koustreak/colsuggest/internal/pframe/memframe"
)

func TestFilterOptions(t *testing.T) {
	chainAxis := pframe.AxisSpec{
		Type:        pframe.ValueTypeString,
		Name:        "pl7.app/vdj/chain",
		Annotations: map[string]string{pframe.AnnotationLabel: "Chain"},
	}
	hits := []pframe.ColumnIDAndSpec{
		{ColumnID: "gene-label", Spec: pcol(pframe.LabelColumnName, pframe.ValueTypeString,
			map[string]string{pframe.AnnotationLabel: "Gene symbol"}, geneAxis)},
		{ColumnID: "expr", Spec: pcol("pl7.app/expression", pframe.ValueTypeDouble,
			map[string]string{pframe.AnnotationLabel: "Expression"}, sampleAxis, clusterAxis, geneAxis)},
		{ColumnID: "vgene", Spec: pcol("pl7.app/vdj/vGene", pframe.ValueTypeString,
			nil, sampleAxis, clusterAxis, chainAxis, geneAxis)},
		{ColumnID: "cell", Spec: pcol("pl7.app/sc/cellType", pframe.ValueTypeString,
			map[string]string{pframe.AnnotationLabel: "Cell type"}, sampleAxis)},
		{ColumnID: "hidden", Spec: pcol("pl7.app/internal", pframe.ValueTypeString,
			map[string]string{pframe.AnnotationHideFromUI: "true"}, sampleAxis)},
	}

	opts := FilterOptions(hits, []pframe.AxisSpec{sampleAxis, clusterAxis})
	require.Len(t, opts, 3)

	assert.Equal(t, "Cell type", opts[0].Label)
	assert.Empty(t, opts[0].AxesToBeFixed)

	assert.Equal(t, "Expression", opts[1].Label)
	assert.Equal(t, []FixedAxis{{Idx: 2, Label: "Gene symbol"}}, opts[1].AxesToBeFixed)

	assert.Equal(t, pframe.ObjectID("vgene"), opts[2].ID)
	assert.Equal(t, "pl7.app/vdj/vGene", opts[2].Label)
	assert.Equal(t, []FixedAxis{{Idx: 2, Label: "Chain"}, {Idx: 3, Label: "Gene symbol"}}, opts[2].AxesToBeFixed)
}

func TestFilterOptions_AxisNameFallback(t *testing.T) {
	hits := []pframe.ColumnIDAndSpec{
		{ColumnID: "expr", Spec: pcol("expr", pframe.ValueTypeDouble, nil, sampleAxis, geneAxis)},
	}
	opts := FilterOptions(hits, []pframe.AxisSpec{sampleAxis})
	require.Len(t, opts, 1)
	assert.Equal(t, []FixedAxis{{Idx: 1, Label: geneAxis.Name}}, opts[0].AxesToBeFixed)
}

func TestFilterOptions_LabelOrder(t *testing.T) {
	col := func(id pframe.ObjectID, label string) pframe.ColumnIDAndSpec {
		return pframe.ColumnIDAndSpec{ColumnID: id, Spec: pcol(string(id), pframe.ValueTypeDouble,
			map[string]string{pframe.AnnotationLabel: label}, sampleAxis)}
	}
	hits := []pframe.ColumnIDAndSpec{
		col("c2", "Cluster 2"),
		col("c3", "cluster 3"),
		col("c10", "Cluster 10"),
	}

	opts := FilterOptions(hits, []pframe.AxisSpec{sampleAxis})
	var labels []string
	for _, o := range opts {
		labels = append(labels, o.Label)
	}
	assert.Equal(t, []string{"Cluster 10", "Cluster 2", "cluster 3"}, labels)

	items := itemsFromValues([]string{"Cluster 2", "Cluster 10"})
	assert.Equal(t, "Cluster 2", items[0].Label)
}

func TestAnchorFilterOptions(t *testing.T) {
	pc := testContext(t, append(clusterColumns(), cellTypeColumn(), memframe.Column{
		ID:   "per-cluster-sample",
		Spec: pcol("pl7.app/sc/fraction", pframe.ValueTypeDouble, nil, clusterAxis, sampleAxis),
	})...)
	r := NewResolver()

	opts, err := r.AnchorFilterOptions(context.Background(), pc, "cluster-size")
	require.NoError(t, err)

	var ids []pframe.ObjectID
	for _, o := range opts {
		ids = append(ids, o.ID)
	}
	assert.ElementsMatch(t, []pframe.ObjectID{"cluster-size", "per-cluster-sample"}, ids)
	for _, o := range opts {
		if o.ID == "per-cluster-sample" {
			assert.Equal(t, []FixedAxis{{Idx: 1, Label: sampleAxis.Name}}, o.AxesToBeFixed)
		}
	}

	_, err = r.AnchorFilterOptions(context.Background(), pc, "missing")
	assert.True(t, errs.IsNotFound(err))
}
