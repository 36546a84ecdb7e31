package suggest

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/colsuggest/internal/diag"
	"github.com/koustreak/colsuggest/internal/errs"
	"github.com/koustreak/colsuggest/internal/pframe"
)

// fakeDriver answers from scripted tables and records unique-value requests.
type fakeDriver struct {
	specs     map[pframe.ObjectID]*pframe.ColumnSpec
	specErr   error
	unique    map[pframe.ObjectID]*pframe.UniqueValuesResponse
	uniqueErr error
	findErr   error

	mu       sync.Mutex
	requests []pframe.UniqueValuesRequest
}

var _ pframe.Driver = (*fakeDriver)(nil)

func (f *fakeDriver) GetColumnSpec(_ context.Context, _ pframe.Handle, id pframe.ObjectID) (*pframe.ColumnSpec, error) {
	if f.specErr != nil {
		return nil, f.specErr
	}
	return f.specs[id], nil
}

func (f *fakeDriver) CalculateTableData(context.Context, pframe.Handle, pframe.CalculateTableDataRequest) ([]pframe.TableColumn, error) {
	return nil, errors.New("not scripted")
}

func (f *fakeDriver) GetUniqueValues(_ context.Context, _ pframe.Handle, req pframe.UniqueValuesRequest) (*pframe.UniqueValuesResponse, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if f.uniqueErr != nil {
		return nil, f.uniqueErr
	}
	resp, ok := f.unique[req.ColumnID]
	if !ok {
		return &pframe.UniqueValuesResponse{}, nil
	}
	return resp, nil
}

func (f *fakeDriver) FindColumns(_ context.Context, _ pframe.Handle, req pframe.FindColumnsRequest) (*pframe.FindColumnsResponse, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	resp := &pframe.FindColumnsResponse{}
	for id, spec := range f.specs {
		ok, err := req.ColumnFilter.Match(spec)
		if err != nil {
			return nil, err
		}
		if ok && pframe.Compatible(spec, req.CompatibleWith, req.StrictlyCompatible) {
			resp.Hits = append(resp.Hits, pframe.ColumnIDAndSpec{ColumnID: id, Spec: *spec})
		}
	}
	return resp, nil
}

func stringVector(values ...string) pframe.Vector {
	data := make([]any, len(values))
	for i, v := range values {
		data[i] = v
	}
	return pframe.Vector{Type: pframe.ValueTypeString, Data: data}
}

func fakeContext(d *fakeDriver) pframe.Context {
	return pframe.Context{Handle: "frame-1", Driver: d}
}

func geneColumns() map[pframe.ObjectID]*pframe.ColumnSpec {
	expr := pcol("pl7.app/expression", pframe.ValueTypeDouble, nil, sampleAxis, geneAxis)
	counts := pcol("pl7.app/counts", pframe.ValueTypeLong, nil, sampleAxis, geneAxis)
	cell := pcol("pl7.app/sc/cellType", pframe.ValueTypeString, nil, sampleAxis)
	return map[pframe.ObjectID]*pframe.ColumnSpec{"expr": &expr, "counts": &counts, "cell": &cell}
}

func TestResolve_ServiceReturnsMoreThanLimit(t *testing.T) {
	d := &fakeDriver{
		specs: geneColumns(),
		unique: map[pframe.ObjectID]*pframe.UniqueValuesResponse{
			"cell": {Values: stringVector("e", "d", "c", "b", "a")},
		},
	}

	res, err := NewResolver().Resolve(context.Background(), fakeContext(d), Request{ColumnID: "cell", Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"d", "e"}, itemValues(res.Values))
	assert.True(t, res.Overflow)

	require.Len(t, d.requests, 1)
	assert.Equal(t, 2, d.requests[0].Limit)
	assert.Nil(t, d.requests[0].Axis)
}

func TestResolve_DefaultLimitSentinel(t *testing.T) {
	d := &fakeDriver{specs: geneColumns()}

	_, err := NewResolver().Resolve(context.Background(), fakeContext(d), Request{ColumnID: "cell"})
	require.NoError(t, err)
	require.Len(t, d.requests, 1)
	assert.Equal(t, UniqueValuesLimit, d.requests[0].Limit)
}

func TestResolve_ColumnFilterTarget(t *testing.T) {
	d := &fakeDriver{specs: geneColumns()}

	_, err := NewResolver().Resolve(context.Background(), fakeContext(d), Request{ColumnID: "cell", SearchQueryValue: "T"})
	require.NoError(t, err)
	require.Len(t, d.requests, 1)
	require.Len(t, d.requests[0].Filters, 1)

	id, ok := d.requests[0].Filters[0].Target.Column()
	require.True(t, ok)
	assert.Equal(t, pframe.ObjectID("cell"), id)
	assert.Equal(t, "T", d.requests[0].Filters[0].Predicate.Substring)
}

func TestAxisUniqueValues_DedupAcrossParents(t *testing.T) {
	d := &fakeDriver{
		specs: geneColumns(),
		unique: map[pframe.ObjectID]*pframe.UniqueValuesResponse{
			"expr":   {Values: stringVector("CD4", "CD8A")},
			"counts": {Values: stringVector("CD8A", "MS4A1"), Overflow: true},
		},
	}
	rec := &diag.Recorder{}

	uv, err := NewResolver(WithSink(rec)).AxisUniqueValues(context.Background(), fakeContext(d), AxisParams{
		Axis:            geneAxis.ID(),
		ParentColumnIDs: []pframe.ObjectID{"expr", "counts", "cell", "missing"},
		Limit:           10,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"CD4", "CD8A", "MS4A1"}, uv.Values)
	assert.True(t, uv.Overflow)

	// cell lacks the axis and missing does not resolve
	assert.Len(t, d.requests, 2)
	for _, req := range d.requests {
		require.NotNil(t, req.Axis)
		assert.True(t, req.Axis.Equal(geneAxis.ID()))
		assert.Equal(t, 10, req.Limit)
	}
	assert.Zero(t, rec.Count(diag.LevelWarn))
}

func TestAxisUniqueValues_NoParents(t *testing.T) {
	d := &fakeDriver{specs: geneColumns()}
	rec := &diag.Recorder{}

	uv, err := NewResolver(WithSink(rec)).AxisUniqueValues(context.Background(), fakeContext(d), AxisParams{
		Axis:            geneAxis.ID(),
		ParentColumnIDs: []pframe.ObjectID{"cell", "missing"},
	})
	require.NoError(t, err)
	assert.Empty(t, uv.Values)
	assert.False(t, uv.Overflow)
	assert.Empty(t, d.requests)

	events := rec.Events()
	require.Len(t, events, 1)
	assert.Equal(t, diag.LevelWarn, events[0].Level)
	assert.Equal(t, OpAxisUniqueValues, events[0].Op)
}

func TestResolve_ErrorPropagation(t *testing.T) {
	tests := []struct {
		name   string
		driver *fakeDriver
		req    Request
		op     string
		kind   errs.ErrKind
	}{
		{
			name:   "spec lookup",
			driver: &fakeDriver{specErr: errs.New(errs.ErrKindConnectionFailed, "dial")},
			req:    Request{ColumnID: "cell"},
			op:     OpGetColumnSpec,
			kind:   errs.ErrKindConnectionFailed,
		},
		{
			name:   "column unique values",
			driver: &fakeDriver{specs: geneColumns(), uniqueErr: errors.New("boom")},
			req:    Request{ColumnID: "cell"},
			op:     OpGetUniqueValues,
			kind:   errs.ErrKindQueryFailed,
		},
		{
			name:   "axis unique values",
			driver: &fakeDriver{specs: geneColumns(), uniqueErr: errs.New(errs.ErrKindTimeout, "slow")},
			req:    Request{ColumnID: "expr", AxisIdx: axisIdx(1)},
			op:     OpGetUniqueValues,
			kind:   errs.ErrKindTimeout,
		},
		{
			name:   "label column lookup",
			driver: &fakeDriver{specs: geneColumns(), findErr: errors.New("index unavailable")},
			req:    Request{ColumnID: "expr", AxisIdx: axisIdx(1)},
			op:     OpFindColumns,
			kind:   errs.ErrKindQueryFailed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &diag.Recorder{}
			res, err := NewResolver(WithSink(rec)).Resolve(context.Background(), fakeContext(tt.driver), tt.req)
			require.Error(t, err)
			assert.Nil(t, res)
			assert.Equal(t, tt.op, errs.OpOf(err))
			assert.Equal(t, tt.kind, errs.KindOf(err))

			events := rec.Events()
			require.NotEmpty(t, events)
			assert.Equal(t, diag.LevelError, events[0].Level)
			assert.Equal(t, tt.op, events[0].Op)
			assert.Error(t, events[0].Err)
		})
	}
}

func TestSuggest_Lenient(t *testing.T) {
	rec := &diag.Recorder{}
	r := NewResolver(WithSink(rec))
	d := &fakeDriver{specs: geneColumns(), uniqueErr: errors.New("boom")}

	res := r.Suggest(context.Background(), fakeContext(d), Request{ColumnID: "cell"})
	assert.Empty(t, res.Values)
	assert.False(t, res.Overflow)
	require.Len(t, d.requests, 1)
	assert.Equal(t, DefaultSuggestLimit, d.requests[0].Limit)

	events := rec.Events()
	require.NotEmpty(t, events)
	assert.Equal(t, OpSuggest, events[len(events)-1].Op)

	res = r.Suggest(context.Background(), pframe.Context{}, Request{ColumnID: "cell"})
	assert.Empty(t, res.Values)
}

func TestSuggest_PassesThrough(t *testing.T) {
	d := &fakeDriver{
		specs: geneColumns(),
		unique: map[pframe.ObjectID]*pframe.UniqueValuesResponse{
			"cell": {Values: stringVector("T cells", "B cells")},
		},
	}

	res := NewResolver().Suggest(context.Background(), fakeContext(d), Request{ColumnID: "cell", Limit: 5})
	assert.Equal(t, []string{"B cells", "T cells"}, itemValues(res.Values))
	assert.Equal(t, 5, d.requests[0].Limit)
}

func TestFindColumns_AnnotationsNotEmpty(t *testing.T) {
	specs := geneColumns()
	specs["expr"].Annotations = map[string]string{"pl7.app/isScore": "true"}
	specs["counts"].Annotations = map[string]string{"pl7.app/isScore": ""}
	d := &fakeDriver{specs: specs}

	hits, err := NewResolver().FindColumns(context.Background(), fakeContext(d), FindParams{
		AnnotationsNotEmpty: []string{"pl7.app/isScore"},
	})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, pframe.ObjectID("expr"), hits[0].ColumnID)
}

func TestFindColumns_CompatibleWithSources(t *testing.T) {
	d := &fakeDriver{specs: geneColumns()}

	hits, err := NewResolver().FindColumns(context.Background(), fakeContext(d), FindParams{
		SelectedSources:    []pframe.ObjectID{"cell"},
		StrictlyCompatible: true,
	})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, pframe.ObjectID("cell"), hits[0].ColumnID)
}

func TestColumnUniqueValues(t *testing.T) {
	d := &fakeDriver{
		specs: geneColumns(),
		unique: map[pframe.ObjectID]*pframe.UniqueValuesResponse{
			"cell": {Values: stringVector("T cells", "B cells", "T cells"), Overflow: true},
		},
	}
	rec := &diag.Recorder{}
	r := NewResolver(WithSink(rec))
	ctx := context.Background()

	uv, err := r.ColumnUniqueValues(ctx, fakeContext(d), "missing", 0, nil)
	require.NoError(t, err)
	assert.Equal(t, &UniqueValues{Values: []string{}}, uv)
	assert.Empty(t, d.requests)

	uv, err = r.ColumnUniqueValues(ctx, fakeContext(d), "cell", 2, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"T cells", "B cells"}, uv.Values)
	assert.True(t, uv.Overflow)
	require.Len(t, d.requests, 1)
	assert.Equal(t, 2, d.requests[0].Limit)
	assert.Equal(t, 1, rec.Count(diag.LevelWarn))
}
