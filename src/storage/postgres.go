package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"stock-stream/src/helpers"
	"stock-stream/src/logger"
	"stock-stream/src/models"

	_ "github.com/lib/pq"
)

// -----------------------------------------------------------------------------

type PostgresStore struct {
	Config *models.MConfig
	DB     *sql.DB
	Schema string
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewPostgresStore(cfg *models.MConfig, log *logger.Logger) (*PostgresStore, error) {
	// Schema named after the executable so several deployments can share
	// one database.
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable name: %w", err)
	}
	name := filepath.Base(exe)
	name = strings.TrimSuffix(name, filepath.Ext(name))

	return &PostgresStore{
		Config: cfg,
		Schema: name,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresStore) Initialize() error {
	dsn := d.Config.Storage.DBConnectionString
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		return err
	}

	d.DB = db

	// Create Schema
	if _, err := d.DB.Exec(fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS "%s"`, d.Schema)); err != nil {
		return fmt.Errorf("failed to create schema %s: %w", d.Schema, err)
	}

	return d.createTables()
}

// -----------------------------------------------------------------------------

func (d *PostgresStore) createTables() error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS "%s".quotes (
			symbol TEXT PRIMARY KEY,
			price DOUBLE PRECISION,
			change DOUBLE PRECISION,
			change_percent DOUBLE PRECISION,
			volume DOUBLE PRECISION,
			timestamp BIGINT,
			fetched_at TIMESTAMPTZ
		);
	`, d.Schema)
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create quotes: %w", err)
	}

	query = fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS "%s".watchlists (
			user_id TEXT,
			symbol TEXT,
			added_at TIMESTAMPTZ DEFAULT NOW(),
			PRIMARY KEY (user_id, symbol)
		);
	`, d.Schema)
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create watchlists: %w", err)
	}

	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresStore) UpsertQuote(q models.MQuote) error {
	query := fmt.Sprintf(`
		INSERT INTO "%s".quotes (symbol, price, change, change_percent, volume, timestamp, fetched_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (symbol) DO UPDATE SET
			price = EXCLUDED.price,
			change = EXCLUDED.change,
			change_percent = EXCLUDED.change_percent,
			volume = EXCLUDED.volume,
			timestamp = EXCLUDED.timestamp,
			fetched_at = EXCLUDED.fetched_at
	`, d.Schema)

	_, err := d.DB.Exec(query, q.Symbol, q.Price, q.Change, q.ChangePercent, q.Volume, q.Timestamp, q.FetchedAt)
	if err != nil {
		return helpers.NewDatabaseError("upsert quote "+q.Symbol, err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresStore) DefaultWatchlistSymbols(userID string) ([]string, error) {
	query := fmt.Sprintf(`SELECT symbol FROM "%s".watchlists WHERE user_id = $1 ORDER BY added_at`, d.Schema)

	rows, err := d.DB.Query(query, userID)
	if err != nil {
		return nil, helpers.NewDatabaseError("load watchlist for "+userID, err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var sym string
		if err := rows.Scan(&sym); err != nil {
			return nil, err
		}
		symbols = append(symbols, sym)
	}
	return symbols, rows.Err()
}

// -----------------------------------------------------------------------------

func (d *PostgresStore) SaveWatchlist(userID string, symbols []string) error {
	tx, err := d.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(fmt.Sprintf(`DELETE FROM "%s".watchlists WHERE user_id = $1`, d.Schema), userID); err != nil {
		return err
	}

	stmt, err := tx.Prepare(fmt.Sprintf(`INSERT INTO "%s".watchlists (user_id, symbol) VALUES ($1, $2)`, d.Schema))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, sym := range models.CanonicalSymbols(symbols) {
		if _, err := stmt.Exec(userID, sym); err != nil {
			return helpers.NewDatabaseError("save watchlist for "+userID, err)
		}
	}

	return tx.Commit()
}

// -----------------------------------------------------------------------------

func (d *PostgresStore) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
