package storage

import (
	"database/sql"
	"fmt"

	"stock-stream/src/helpers"
	"stock-stream/src/logger"
	"stock-stream/src/models"

	_ "modernc.org/sqlite"
)

// -----------------------------------------------------------------------------

type SQLiteStore struct {
	Config *models.MConfig
	DB     *sql.DB
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewSQLiteStore(cfg *models.MConfig, log *logger.Logger) (*SQLiteStore, error) {
	return &SQLiteStore{
		Config: cfg,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteStore) Initialize() error {
	dsn := d.Config.Storage.DBPath

	// Open DB
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		return err
	}

	d.DB = db

	// PRAGMA optimizations
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		d.Logger.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		d.Logger.Warning("Failed to set synchronous mode: %v", err)
	}

	return d.createTables()
}

// -----------------------------------------------------------------------------

func (d *SQLiteStore) createTables() error {
	// SQLite types: INTEGER for int64, REAL for float64, TEXT for string.
	// Watchlists survive restarts, so tables are created, never recreated.
	query := `
		CREATE TABLE IF NOT EXISTS quotes (
			symbol TEXT PRIMARY KEY,
			price REAL,
			change REAL,
			change_percent REAL,
			volume REAL,
			timestamp INTEGER,
			fetched_at TIMESTAMP
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create quotes: %w", err)
	}

	query = `
		CREATE TABLE IF NOT EXISTS watchlists (
			user_id TEXT,
			symbol TEXT,
			added_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (user_id, symbol)
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create watchlists: %w", err)
	}

	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteStore) UpsertQuote(q models.MQuote) error {
	_, err := d.DB.Exec(`
		INSERT INTO quotes (symbol, price, change, change_percent, volume, timestamp, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (symbol) DO UPDATE SET
			price = excluded.price,
			change = excluded.change,
			change_percent = excluded.change_percent,
			volume = excluded.volume,
			timestamp = excluded.timestamp,
			fetched_at = excluded.fetched_at
	`, q.Symbol, q.Price, q.Change, q.ChangePercent, q.Volume, q.Timestamp, q.FetchedAt)
	if err != nil {
		return helpers.NewDatabaseError("upsert quote "+q.Symbol, err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteStore) DefaultWatchlistSymbols(userID string) ([]string, error) {
	rows, err := d.DB.Query(`SELECT symbol FROM watchlists WHERE user_id = ? ORDER BY added_at`, userID)
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

func (d *SQLiteStore) SaveWatchlist(userID string, symbols []string) error {
	tx, err := d.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM watchlists WHERE user_id = ?`, userID); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`INSERT INTO watchlists (user_id, symbol) VALUES (?, ?)`)
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

func (d *SQLiteStore) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
