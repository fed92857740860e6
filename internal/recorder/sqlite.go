package recorder

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"ETFDesk/internal/model"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists analyses to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	zap.L().Info("sqlite recorder opened", zap.String("path", dbPath))
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS analyses (
			id             TEXT PRIMARY KEY,
			timestamp      INTEGER NOT NULL,
			code           TEXT NOT NULL,
			market         TEXT NOT NULL,
			name           TEXT,
			price          REAL,
			bar_count      INTEGER,
			last_bar_date  TEXT,
			moving_average REAL,
			std_dev        REAL,
			upper_band     REAL,
			lower_band     REAL,
			band_window    INTEGER,
			band_k         REAL,
			sell_tier_1    REAL,
			sell_tier_2    REAL,
			sell_tier_3    REAL,
			buy_tier_1     REAL,
			buy_tier_2     REAL,
			signal         TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_analyses_ts ON analyses(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_analyses_code ON analyses(code, timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordAnalysis(a *model.Analysis) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var lastBar string
	if n := len(a.Bars); n > 0 {
		lastBar = a.Bars[n-1].Date.Format("2006-01-02")
	}
	_, err := r.db.Exec(`INSERT INTO analyses
		(id, timestamp, code, market, name, price, bar_count, last_bar_date,
		 moving_average, std_dev, upper_band, lower_band, band_window, band_k,
		 sell_tier_1, sell_tier_2, sell_tier_3, buy_tier_1, buy_tier_2, signal)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		a.ID, a.CreatedAt.Unix(), a.Instrument.Code, string(a.Instrument.Market), a.Instrument.Name,
		a.Quote.Price, len(a.Bars), lastBar,
		a.Bands.MovingAverage, a.Bands.StdDev, a.Bands.Upper, a.Bands.Lower, a.Bands.Window, a.Bands.K,
		a.Tiers.Sell[0].Price, a.Tiers.Sell[1].Price, a.Tiers.Sell[2].Price,
		a.Tiers.Buy[0].Price, a.Tiers.Buy[1].Price, string(a.Signal),
	)
	return err
}

// Prune deletes analyses recorded before the given time and returns how many were removed.
func (r *SQLiteRecorder) Prune(before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, err := r.db.Exec(`DELETE FROM analyses WHERE timestamp < ?`, before.Unix())
	if err != nil {
		return 0, fmt.Errorf("prune analyses: %w", err)
	}
	return res.RowsAffected()
}

// Count returns the number of journaled analyses for code, or all when code is empty.
func (r *SQLiteRecorder) Count(code string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int
	var err error
	if code == "" {
		err = r.db.QueryRow(`SELECT COUNT(*) FROM analyses`).Scan(&n)
	} else {
		err = r.db.QueryRow(`SELECT COUNT(*) FROM analyses WHERE code = ?`, code).Scan(&n)
	}
	return n, err
}

func (r *SQLiteRecorder) Close() error {
	zap.L().Info("closing sqlite recorder")
	return r.db.Close()
}
