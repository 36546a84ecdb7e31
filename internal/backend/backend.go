// Package backend builds the pframe driver named by the configuration.
package backend

import (
	"context"

	"github.com/koustreak/colsuggest/internal/config"
	"github.com/koustreak/colsuggest/internal/database"
	"github.com/koustreak/colsuggest/internal/database/mysql"
	"github.com/koustreak/colsuggest/internal/database/postgres"
	"github.com/koustreak/colsuggest/internal/errs"
	"github.com/koustreak/colsuggest/internal/filestore"
	"github.com/koustreak/colsuggest/internal/filestore/minio"
	"github.com/koustreak/colsuggest/internal/logger"
	"github.com/koustreak/colsuggest/internal/pframe"
	"github.com/koustreak/colsuggest/internal/pframe/fixture"
	"github.com/koustreak/colsuggest/internal/pframe/memframe"
	"github.com/koustreak/colsuggest/internal/pframe/sqlframe"
)

// Backend is an open pframe driver plus whatever it holds open.
type Backend struct {
	Driver pframe.Driver

	// Handles lists the frames loaded into a memory backend. SQL backends
	// resolve handles against their catalog and leave it empty.
	Handles []pframe.Handle

	// DB is the pool of a SQL backend, nil for the memory backend.
	DB database.DB
}

// Close releases the database pool, if any.
func (b *Backend) Close() {
	if b.DB != nil {
		b.DB.Close()
	}
}

// Open builds the backend described by cfg.
func Open(ctx context.Context, cfg config.BackendConfig, log *logger.Logger) (*Backend, error) {
	if log == nil {
		log = logger.Nop()
	}
	switch cfg.Kind {
	case config.BackendMemory, "":
		var store filestore.Store
		if cfg.Store != nil {
			s, err := minio.New(ctx, cfg.Store)
			if err != nil {
				return nil, err
			}
			defer s.Close()
			store = s
		}
		return openMemory(ctx, cfg, store, log)
	case config.BackendPostgres, config.BackendMySQL:
		return openSQL(ctx, cfg, log)
	default:
		return nil, errs.Newf(errs.ErrKindInvalidInput, "unknown backend kind %q", cfg.Kind)
	}
}

// openMemory loads fixture files first, then fixtures under the store prefix.
func openMemory(ctx context.Context, cfg config.BackendConfig, store filestore.Store, log *logger.Logger) (*Backend, error) {
	d := memframe.New()
	b := &Backend{Driver: d}

	for _, name := range cfg.Fixtures {
		docs, err := fixture.LoadFile(name)
		if err != nil {
			return nil, err
		}
		handles, err := fixture.Register(d, docs)
		if err != nil {
			return nil, errs.Wrap(errs.KindOf(err), "fixture file "+name, err)
		}
		log.InfoWith("loaded fixtures", map[string]any{"file": name, "frames": len(handles)})
		b.Handles = append(b.Handles, handles...)
	}

	if store != nil {
		docs, err := fixture.LoadPrefix(ctx, store, cfg.Store.Bucket, cfg.Store.Prefix)
		if err != nil {
			return nil, err
		}
		handles, err := fixture.Register(d, docs)
		if err != nil {
			return nil, err
		}
		log.InfoWith("loaded fixtures", map[string]any{
			"bucket": cfg.Store.Bucket,
			"prefix": cfg.Store.Prefix,
			"frames": len(handles),
		})
		b.Handles = append(b.Handles, handles...)
	}
	return b, nil
}

func openSQL(ctx context.Context, cfg config.BackendConfig, log *logger.Logger) (*Backend, error) {
	dbCfg := cfg.Database()

	var (
		db  database.DB
		err error
	)
	if cfg.Kind == config.BackendMySQL {
		db, err = mysql.New(ctx, dbCfg)
	} else {
		db, err = postgres.New(ctx, dbCfg)
	}
	if err != nil {
		return nil, err
	}

	d, err := sqlframe.Open(ctx, db,
		sqlframe.WithCatalogTable(cfg.CatalogTable),
		sqlframe.WithQueryTimeout(cfg.QueryTimeout),
	)
	if err != nil {
		db.Close()
		return nil, err
	}
	log.InfoWith("opened sql backend", map[string]any{
		"kind":    string(cfg.Kind),
		"catalog": cfg.CatalogTable,
	})
	return &Backend{Driver: d, DB: db}, nil
}
