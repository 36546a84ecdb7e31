package memframe

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/colsuggest/internal/errs"
	"github.com/koustreak/colsuggest/internal/pframe"
)

var (
	sampleAxis  = pframe.AxisSpec{Type: pframe.ValueTypeString, Name: "pl7.app/sampleId"}
	clusterAxis = pframe.AxisSpec{Type: pframe.ValueTypeLong, Name: "pl7.app/sc/clusterId"}
)

func testFrame(t *testing.T) *Frame {
	t.Helper()
	f, err := NewFrame(
		Column{
			ID: "cluster",
			Spec: pframe.ColumnSpec{
				Kind: pframe.KindPColumn, Name: "pl7.app/sc/cluster", ValueType: pframe.ValueTypeString,
				AxesSpec: []pframe.AxisSpec{sampleAxis, clusterAxis},
			},
			Rows: []Row{
				{Keys: []any{"s1", int64(1)}, Value: "T cells"},
				{Keys: []any{"s1", int64(2)}, Value: "B cells"},
				{Keys: []any{"s2", int64(1)}, Value: "T cells"},
				{Keys: []any{"s2", int64(3)}, Value: nil},
			},
		},
		Column{
			ID: "cluster-label",
			Spec: pframe.ColumnSpec{
				Kind: pframe.KindPColumn, Name: pframe.LabelColumnName, ValueType: pframe.ValueTypeString,
				AxesSpec: []pframe.AxisSpec{clusterAxis},
			},
			Rows: []Row{
				{Keys: []any{int64(1)}, Value: "Cluster one"},
				{Keys: []any{int64(2)}, Value: "Cluster two"},
			},
		},
	)
	require.NoError(t, err)
	return f
}

func TestNewFrame_Validation(t *testing.T) {
	_, err := NewFrame(Column{ID: "bad", Spec: pframe.ColumnSpec{AxesSpec: []pframe.AxisSpec{sampleAxis}}, Rows: []Row{{Keys: nil}}})
	assert.True(t, errs.IsInvalidInput(err))

	_, err = NewFrame(Column{ID: "a"}, Column{ID: "a"})
	assert.True(t, errs.IsInvalidInput(err))
}

func TestDriver_GetColumnSpec(t *testing.T) {
	d := New()
	h := d.Add(testFrame(t))
	ctx := context.Background()

	spec, err := d.GetColumnSpec(ctx, h, "cluster")
	require.NoError(t, err)
	require.NotNil(t, spec)
	assert.Equal(t, "pl7.app/sc/cluster", spec.Name)

	spec, err = d.GetColumnSpec(ctx, h, "missing")
	require.NoError(t, err)
	assert.Nil(t, spec)

	_, err = d.GetColumnSpec(ctx, "no-such-frame", "cluster")
	assert.True(t, errs.IsNotFound(err))

	d.Remove(h)
	_, err = d.GetColumnSpec(ctx, h, "cluster")
	assert.True(t, errs.IsNotFound(err))
}

func TestDriver_GetUniqueValues(t *testing.T) {
	d := New()
	h := d.Add(testFrame(t))
	ctx := context.Background()

	resp, err := d.GetUniqueValues(ctx, h, pframe.UniqueValuesRequest{ColumnID: "cluster", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, []any{"T cells", "B cells"}, resp.Values.Data)
	assert.False(t, resp.Overflow)

	resp, err = d.GetUniqueValues(ctx, h, pframe.UniqueValuesRequest{ColumnID: "cluster", Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, []any{"T cells"}, resp.Values.Data)
	assert.True(t, resp.Overflow)

	axis := clusterAxis.ID()
	resp, err = d.GetUniqueValues(ctx, h, pframe.UniqueValuesRequest{
		ColumnID: "cluster",
		Axis:     &axis,
		Filters:  []pframe.Filter{pframe.StringIContains(pframe.ByColumn("cluster"), "t cell")},
		Limit:    10,
	})
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1)}, resp.Values.Data)
	assert.Equal(t, pframe.ValueTypeLong, resp.Values.Type)

	_, err = d.GetUniqueValues(ctx, h, pframe.UniqueValuesRequest{
		ColumnID: "cluster",
		Filters:  []pframe.Filter{pframe.StringIContains(pframe.ByColumn("cluster-label"), "x")},
		Limit:    10,
	})
	assert.True(t, errs.IsInvalidInput(err))
}

func TestDriver_CalculateTableData(t *testing.T) {
	d := New()
	h := d.Add(testFrame(t))

	cols, err := d.CalculateTableData(context.Background(), h, pframe.CalculateTableDataRequest{
		Source:  "cluster-label",
		Filters: []pframe.Filter{pframe.StringIContains(pframe.ByColumn("cluster-label"), "TWO")},
	})
	require.NoError(t, err)
	require.Len(t, cols, 2)

	assert.Equal(t, pframe.TableColumnAxis, cols[0].Spec.Type)
	assert.Equal(t, clusterAxis.Name, cols[0].Spec.Axis.Name)
	assert.Equal(t, []any{int64(2)}, cols[0].Data.Data)

	assert.Equal(t, pframe.TableColumnColumn, cols[1].Spec.Type)
	assert.Equal(t, []any{"Cluster two"}, cols[1].Data.Data)
}

func TestDriver_FindColumns(t *testing.T) {
	d := New()
	h := d.Add(testFrame(t))

	resp, err := d.FindColumns(context.Background(), h, pframe.FindColumnsRequest{
		ColumnFilter: pframe.ColumnFilter{Name: []string{pframe.LabelColumnName}},
	})
	require.NoError(t, err)
	require.Len(t, resp.Hits, 1)
	assert.Equal(t, pframe.ObjectID("cluster-label"), resp.Hits[0].ColumnID)

	resp, err = d.FindColumns(context.Background(), h, pframe.FindColumnsRequest{
		CompatibleWith:     []pframe.AxisID{clusterAxis.ID()},
		StrictlyCompatible: true,
	})
	require.NoError(t, err)
	require.Len(t, resp.Hits, 1)
	assert.Equal(t, pframe.ObjectID("cluster-label"), resp.Hits[0].ColumnID)
}

func TestDriver_Cancelled(t *testing.T) {
	d := New()
	h := d.Add(testFrame(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.GetColumnSpec(ctx, h, "cluster")
	assert.True(t, errs.IsTimeout(err))
}

func TestDriver_Handles(t *testing.T) {
	d := New()
	assert.Empty(t, d.Handles())

	h := d.Add(testFrame(t))
	d.Register("pbmc", testFrame(t))
	assert.ElementsMatch(t, []pframe.Handle{h, "pbmc"}, d.Handles())

	d.Remove("pbmc")
	assert.Equal(t, []pframe.Handle{h}, d.Handles())
}
