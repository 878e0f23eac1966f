package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/apolzek/neosearch/internal/models"
)

const registryColumns = "id, owner_id, url, description, tags, category, favorite, public, visit_count, content_hash, date_added, date_modified, date_deleted"

type PostgresStore struct {
	pool *pgxpool.Pool
	sb   squirrel.StatementBuilderType
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := runMigrations(dsn); err != nil {
		return nil, fmt.Errorf("migrations failed: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	log.Println("PostgreSQL store initialized successfully")

	return &PostgresStore{pool: pool,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)}, nil
}

func runMigrations(dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open database for migrations: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping database for migrations: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres", driver,
	)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}

	log.Println("Migrations applied successfully")
	return nil
}

func (p *PostgresStore) Get(ctx context.Context, id string) (models.Registry, error) {
	query, args, err := p.sb.
		Select(registryColumns).
		From("registries").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return models.Registry{}, fmt.Errorf("build query: %w", err)
	}

	reg, err := scanRegistry(p.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Registry{}, ErrNotFound
		}
		return models.Registry{}, fmt.Errorf("query row: %w", err)
	}
	return reg, nil
}

func (p *PostgresStore) ListActiveByOwner(ctx context.Context, ownerID string) ([]models.Registry, error) {
	query, args, err := p.sb.
		Select(registryColumns).
		From("registries").
		Where(squirrel.Eq{"owner_id": ownerID, "date_deleted": nil}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	return p.queryRegistries(ctx, query, args)
}

func (p *PostgresStore) ListAllPublicActive(ctx context.Context) ([]models.Registry, error) {
	query, args, err := p.sb.
		Select(registryColumns).
		From("registries").
		Where(squirrel.Eq{"public": true, "date_deleted": nil}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	return p.queryRegistries(ctx, query, args)
}

func (p *PostgresStore) queryRegistries(ctx context.Context, query string, args []interface{}) ([]models.Registry, error) {
	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query registries: %w", err)
	}
	defer rows.Close()

	result := make([]models.Registry, 0)
	for rows.Next() {
		reg, err := scanRegistry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		result = append(result, reg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return result, nil
}

func (p *PostgresStore) InsertBatch(ctx context.Context, regs []models.Registry) error {
	if len(regs) == 0 {
		return nil
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	insertBuilder := p.sb.
		Insert("registries").
		Columns("id", "owner_id", "url", "description", "tags", "category",
			"favorite", "public", "visit_count", "content_hash",
			"date_added", "date_modified")
	for _, reg := range regs {
		insertBuilder = insertBuilder.Values(reg.ID, reg.OwnerID, reg.URL,
			reg.Description, reg.Tags, reg.Category, reg.Favorite, reg.Public,
			reg.VisitCount, reg.ContentHash, reg.DateAdded, reg.DateModified)
	}

	query, args, err := insertBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("build insert query: %w", err)
	}

	if _, err := tx.Exec(ctx, query, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrConflict
		}
		return fmt.Errorf("execute insert: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (p *PostgresStore) Update(ctx context.Context, reg models.Registry) error {
	query, args, err := p.sb.
		Update("registries").
		Set("url", reg.URL).
		Set("description", reg.Description).
		Set("tags", reg.Tags).
		Set("category", reg.Category).
		Set("favorite", reg.Favorite).
		Set("public", reg.Public).
		Set("content_hash", reg.ContentHash).
		Set("date_modified", reg.DateModified).
		Where(squirrel.Eq{"id": reg.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update query: %w", err)
	}

	cmdTag, err := p.pool.Exec(ctx, query, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrConflict
		}
		return fmt.Errorf("execute update: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *PostgresStore) SoftDelete(ctx context.Context, id string, at time.Time) error {
	query, args, err := p.sb.
		Update("registries").
		Set("date_deleted", at).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete query: %w", err)
	}

	cmdTag, err := p.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("execute delete: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *PostgresStore) IncrementVisit(ctx context.Context, id string) error {
	// date_modified is deliberately untouched here.
	query, args, err := p.sb.
		Update("registries").
		Set("visit_count", squirrel.Expr("visit_count + 1")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build visit query: %w", err)
	}

	cmdTag, err := p.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("execute visit update: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *PostgresStore) Close() {
	p.pool.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRegistry(row rowScanner) (models.Registry, error) {
	var reg models.Registry
	err := row.Scan(&reg.ID, &reg.OwnerID, &reg.URL, &reg.Description,
		&reg.Tags, &reg.Category, &reg.Favorite, &reg.Public,
		&reg.VisitCount, &reg.ContentHash, &reg.DateAdded, &reg.DateModified,
		&reg.DateDeleted)
	if err != nil {
		return models.Registry{}, err
	}
	return reg, nil
}
