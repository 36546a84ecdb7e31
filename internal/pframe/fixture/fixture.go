// Package fixture loads frames for the in-memory driver from YAML (or JSON)
// documents, read from local files or from object storage.
//
// A document describes one frame:
//
//	handle: pbmc
//	columns:
//	  - id: cluster-label
//	    spec:
//	      kind: PColumn
//	      name: pl7.app/label
//	      valueType: String
//	      axesSpec: [{type: Long, name: pl7.app/sc/clusterId}]
//	    rows:
//	      - [1, "T cells"]   # axis keys, then the value
//	      - [2, "B cells"]
//
// A stream may hold several documents separated by "---".
package fixture

import (
	"context"
	"errors"
	"io"
	"os"
	"path"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/koustreak/colsuggest/internal/errs"
	"github.com/koustreak/colsuggest/internal/filestore"
	"github.com/koustreak/colsuggest/internal/pframe"
	"github.com/koustreak/colsuggest/internal/pframe/memframe"
)

// Document is one frame fixture. An empty Handle gets a random one on
// registration.
type Document struct {
	Handle  pframe.Handle `yaml:"handle"`
	Columns []Column      `yaml:"columns"`
}

// Column is one column of a fixture. Each row lists the axis keys in
// axis order followed by the value; null is NA.
type Column struct {
	ID   pframe.ObjectID   `yaml:"id"`
	Spec pframe.ColumnSpec `yaml:"spec"`
	Rows [][]any           `yaml:"rows"`
}

// Decode reads every document of a YAML stream. Empty documents are skipped.
func Decode(r io.Reader) ([]Document, error) {
	dec := yaml.NewDecoder(r)
	var docs []Document
	for {
		var doc Document
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			return docs, nil
		}
		if err != nil {
			return nil, errs.Wrap(errs.ErrKindInvalidInput, "decode fixture", err)
		}
		if doc.Handle == "" && len(doc.Columns) == 0 {
			continue
		}
		docs = append(docs, doc)
	}
}

// Frame converts the document into an in-memory frame. Values are
// normalised to the declared column and axis types.
func (d Document) Frame() (*memframe.Frame, error) {
	f, err := memframe.NewFrame()
	if err != nil {
		return nil, err
	}
	for _, c := range d.Columns {
		col, err := c.toMem()
		if err != nil {
			return nil, err
		}
		if err := f.Add(col); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func (c Column) toMem() (memframe.Column, error) {
	spec := c.Spec
	if spec.Kind == "" {
		spec.Kind = pframe.KindPColumn
	}
	nAxes := len(spec.AxesSpec)

	rows := make([]memframe.Row, len(c.Rows))
	for i, raw := range c.Rows {
		if len(raw) != nAxes+1 {
			return memframe.Column{}, errs.Newf(errs.ErrKindInvalidInput,
				"column %q row %d: want %d cells (keys and value), got %d", c.ID, i, nAxes+1, len(raw))
		}
		keys := make([]any, nAxes)
		for j, a := range spec.AxesSpec {
			v, err := normalize(raw[j], a.Type)
			if err != nil {
				return memframe.Column{}, errs.Wrap(errs.ErrKindInvalidInput,
					"column "+string(c.ID)+" axis "+a.Name, err)
			}
			keys[j] = v
		}
		v, err := normalize(raw[nAxes], spec.ValueType)
		if err != nil {
			return memframe.Column{}, errs.Wrap(errs.ErrKindInvalidInput, "column "+string(c.ID)+" value", err)
		}
		rows[i] = memframe.Row{Keys: keys, Value: v}
	}
	return memframe.Column{ID: c.ID, Spec: spec, Rows: rows}, nil
}

// normalize converts a decoded YAML scalar to the Go type drivers use for t:
// int64 for Int and Long, float64 for Float and Double, string otherwise.
func normalize(v any, t pframe.ValueType) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch t {
	case pframe.ValueTypeInt, pframe.ValueTypeLong:
		switch n := v.(type) {
		case int:
			return int64(n), nil
		case int64:
			return n, nil
		case uint64:
			return int64(n), nil
		case float64:
			if n == float64(int64(n)) {
				return int64(n), nil
			}
		}
		return nil, errs.Newf(errs.ErrKindInvalidInput, "%v is not an integer", v)
	case pframe.ValueTypeFloat, pframe.ValueTypeDouble:
		switch n := v.(type) {
		case int:
			return float64(n), nil
		case int64:
			return float64(n), nil
		case float64:
			return n, nil
		}
		return nil, errs.Newf(errs.ErrKindInvalidInput, "%v is not a number", v)
	case pframe.ValueTypeBytes:
		return []byte(pframe.FormatValue(v)), nil
	default:
		return pframe.FormatValue(v), nil
	}
}

// Register adds every document to d and returns the handles in order.
func Register(d *memframe.Driver, docs []Document) ([]pframe.Handle, error) {
	handles := make([]pframe.Handle, 0, len(docs))
	for _, doc := range docs {
		f, err := doc.Frame()
		if err != nil {
			return nil, err
		}
		if doc.Handle == "" {
			handles = append(handles, d.Add(f))
			continue
		}
		d.Register(doc.Handle, f)
		handles = append(handles, doc.Handle)
	}
	return handles, nil
}

// LoadFile decodes the fixture documents in a local file.
func LoadFile(name string) ([]Document, error) {
	f, err := os.Open(name)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.Wrap(errs.ErrKindNotFound, "fixture file "+name, err)
		}
		return nil, errs.Wrap(errs.ErrKindQueryFailed, "open fixture file "+name, err)
	}
	defer f.Close()
	return Decode(f)
}

// LoadObject decodes the fixture documents stored at key.
func LoadObject(ctx context.Context, store filestore.Store, bucket, key string) ([]Document, error) {
	obj, err := store.GetObject(ctx, bucket, key)
	if err != nil {
		return nil, err
	}
	defer obj.Close()

	docs, err := Decode(obj)
	if err != nil {
		return nil, errs.Wrap(errs.KindOf(err), "fixture object "+key, err)
	}
	return docs, nil
}

// LoadPrefix decodes every .yaml, .yml or .json object under prefix, in
// listing order.
func LoadPrefix(ctx context.Context, store filestore.Store, bucket, prefix string) ([]Document, error) {
	objs, err := store.ListObjects(ctx, bucket, filestore.ListOptions{Prefix: prefix, Recursive: true})
	if err != nil {
		return nil, err
	}

	var docs []Document
	for _, o := range objs {
		if o.IsDir || !isFixtureKey(o.Key) {
			continue
		}
		d, err := LoadObject(ctx, store, bucket, o.Key)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d...)
	}
	return docs, nil
}

func isFixtureKey(key string) bool {
	switch strings.ToLower(path.Ext(key)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}
