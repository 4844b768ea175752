package dbkeeper

import (
	"context"
	"fmt"
	"time"

	"github.com/drstein77/istore/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type Log interface {
	Info(string, ...zap.Field)
	Error(string, ...zap.Field)
}

// DBKeeper mirrors the compiled-in catalog into Postgres for reporting.
// Prices are never read back.
type DBKeeper struct {
	pool *pgxpool.Pool
	log  Log
}

// NewDBKeeper connects to the database and applies migrations. It returns nil
// when the dsn is empty or the database cannot be prepared, and the service
// then runs without one.
func NewDBKeeper(ctx context.Context, dsn func() string, log Log) *DBKeeper {
	addr := dsn()
	if addr == "" {
		log.Info("database dsn is empty, catalog will not be published")
		return nil
	}

	config, err := pgxpool.ParseConfig(addr)
	if err != nil {
		log.Error("Unable to parse database DSN: ", zap.Error(err))
		return nil
	}

	if err := runMigrations(config.ConnConfig, log); err != nil {
		log.Error("Unable to apply migrations: ", zap.Error(err))
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		log.Error("Unable to connect to database: ", zap.Error(err))
		return nil
	}

	log.Info("Connected!")

	return &DBKeeper{
		pool: pool,
		log:  log,
	}
}

// SyncCatalog upserts every product by id in a single transaction.
func (kp *DBKeeper) SyncCatalog(ctx context.Context, products []models.Product) (err error) {
	if len(products) == 0 {
		return nil
	}

	if kp.pool == nil {
		return fmt.Errorf("database connection pool is nil")
	}

	tx, err := kp.pool.Begin(ctx)
	if err != nil {
		kp.log.Error("Failed to begin transaction", zap.Error(err))
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && rollbackErr != pgx.ErrTxClosed {
				kp.log.Error("Failed to rollback transaction", zap.Error(rollbackErr))
			}
		}
	}()

	stmt := `
		INSERT INTO catalog (id, name, category, price, image, description, synced_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			category = EXCLUDED.category,
			price = EXCLUDED.price,
			image = EXCLUDED.image,
			description = EXCLUDED.description,
			synced_at = EXCLUDED.synced_at
	`
	now := time.Now().UTC()
	batch := &pgx.Batch{}
	for _, p := range products {
		batch.Queue(stmt, p.ID, p.Name, p.Category, p.Price, p.Image, p.Description, now)
	}

	br := tx.SendBatch(ctx, batch)
	for range products {
		if _, execErr := br.Exec(); execErr != nil {
			br.Close()
			err = fmt.Errorf("failed to execute batch query: %w", execErr)
			return err
		}
	}
	if closeErr := br.Close(); closeErr != nil {
		err = fmt.Errorf("failed to close batch results: %w", closeErr)
		return err
	}

	if commitErr := tx.Commit(ctx); commitErr != nil {
		err = fmt.Errorf("failed to commit transaction: %w", commitErr)
		return err
	}

	kp.log.Info("Catalog published", zap.Int("count", len(products)))
	return nil
}

func (kp *DBKeeper) Ping(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := kp.pool.Ping(ctx); err != nil {
		kp.log.Error("Database ping failed", zap.Error(err))
		return false
	}

	return true
}

func (kp *DBKeeper) Close() bool {
	if kp.pool != nil {
		kp.pool.Close()
		kp.log.Info("Database connection pool closed")
		return true
	}
	kp.log.Info("Attempted to close a nil database connection pool")
	return false
}
