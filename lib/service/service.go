package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/counselhub/counselhub.go/common"
	"github.com/counselhub/counselhub.go/lib/metrics"
	"github.com/rs/zerolog"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

// RecordPublisher announces committed records to other systems.
type RecordPublisher interface {
	PublishRecord(ctx context.Context, entity, event string, id int64, record interface{}) error
}

type PracticeService struct {
	Config    *Config
	DB        *bun.DB
	Logger    zerolog.Logger
	Publisher RecordPublisher
	Metrics   *metrics.Metrics
}

func NewPracticeService(config *Config, db *bun.DB, logger zerolog.Logger, publisher RecordPublisher) *PracticeService {
	return &PracticeService{
		Config:    config,
		DB:        db,
		Logger:    logger,
		Publisher: publisher,
		Metrics:   metrics.New(),
	}
}

// published runs after a successful commit. Publishing problems never undo a
// write; they are logged and counted.
func (svc *PracticeService) published(ctx context.Context, entity string, id int64, record interface{}) {
	svc.Logger.Info().Str("entity", entity).Int64("id", id).Msg("record created")
	svc.Metrics.RecordsCreated.WithLabelValues(entity).Inc()
	if svc.Publisher == nil {
		return
	}
	if err := svc.Publisher.PublishRecord(ctx, entity, common.EventCreated, id, record); err != nil {
		svc.Logger.Error().Err(err).Str("entity", entity).Int64("id", id).Msg("failed to publish record")
		svc.Metrics.PublishFailures.WithLabelValues(entity).Inc()
	}
}

func (svc *PracticeService) inTx(ctx context.Context, fn func(ctx context.Context, tx bun.Tx) error) error {
	return svc.DB.RunInTx(ctx, &sql.TxOptions{}, fn)
}

// forUpdate locks the selected rows where the database supports it.
func (svc *PracticeService) forUpdate(q *bun.SelectQuery) *bun.SelectQuery {
	if svc.DB.Dialect().Name() == dialect.PG {
		return q.For("UPDATE")
	}
	return q
}

// load reads one row by id into model.
func load(ctx context.Context, db bun.IDB, model interface{}, id int64) error {
	return notFound(db.NewSelect().Model(model).Where("?TableAlias.id = ?", id).Limit(1).Scan(ctx))
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return common.ErrNotFound
	}
	return err
}

func idString(id int64) string {
	return strconv.FormatInt(id, 10)
}

// requireRef fails with ReferentialIntegrityError when the row model points at
// does not exist.
func requireRef(ctx context.Context, db bun.IDB, model interface{}, entity, field string, id int64) error {
	exists, err := db.NewSelect().Model(model).Where("?TableAlias.id = ?", id).Exists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		return &common.ReferentialIntegrityError{Entity: entity, Field: field, ID: id}
	}
	return nil
}

// updateVersioned writes columns of model only if the stored row still has
// version, then bumps the version. The new version travels as a plain column
// so every named column lands in the same SET clause.
func updateVersioned(ctx context.Context, db bun.IDB, model interface{}, entity string, id int64, version *int64, columns ...string) error {
	read := *version
	*version = read + 1
	res, err := db.NewUpdate().
		Model(model).
		Column(append(columns[:len(columns):len(columns)], "version")...).
		Where("id = ?", id).
		Where("version = ?", read).
		Exec(ctx)
	if err == nil {
		var n int64
		if n, err = res.RowsAffected(); err == nil && n == 0 {
			err = &common.ConcurrentUpdateError{Entity: entity, ID: id, Version: read}
		}
	}
	if err != nil {
		*version = read
		return err
	}
	return nil
}

// insert stores model and translates constraint failures. unique names the
// field and value reported on a duplicate key.
func insert(ctx context.Context, db bun.IDB, model interface{}, entity, field, value string) error {
	_, err := db.NewInsert().Model(model).Exec(ctx)
	switch {
	case err == nil:
		return nil
	case IsUniqueViolation(err):
		return &common.UniquenessViolation{Entity: entity, Field: field, Value: value}
	case IsForeignKeyViolation(err):
		return &common.ReferentialIntegrityError{Entity: entity, Field: field}
	}
	return fmt.Errorf("insert %s: %w", entity, err)
}
