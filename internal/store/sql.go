package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/phuslu/log"
	_ "modernc.org/sqlite"

	"OilTracker/internal/model"
)

func init() {
	// modernc registers as "sqlite", which sqlx does not know by default.
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// SQLStore persists to SQLite or PostgreSQL through a portable schema.
type SQLStore struct {
	db *sqlx.DB
	mu sync.Mutex // serialises writers; SQLite allows one at a time
}

// OpenSQL opens (or creates) the database and runs migrations.
func OpenSQL(driver, dsn string) (*SQLStore, error) {
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	if driver == "sqlite" {
		// WAL lets the API read while the scheduler writes.
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("set WAL mode: %w", err)
		}
	}

	s := &SQLStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("driver", driver).Msg("sql store opened")
	return s, nil
}

func (s *SQLStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS grades (
			id       INTEGER PRIMARY KEY,
			name     TEXT NOT NULL,
			region   TEXT NOT NULL DEFAULT '',
			ffa      TEXT NOT NULL DEFAULT '',
			moisture TEXT NOT NULL DEFAULT '',
			iv       TEXT NOT NULL DEFAULT '',
			dobi     TEXT NOT NULL DEFAULT ''
		)`,

		`CREATE TABLE IF NOT EXISTS market_data (
			id         TEXT PRIMARY KEY,
			grade_id   INTEGER NOT NULL,
			grade_name TEXT NOT NULL,
			date       TEXT NOT NULL,
			price_usd  NUMERIC(14,4) NOT NULL,
			usd_tnd    NUMERIC(10,4) NOT NULL DEFAULT 0,
			volume     TEXT NOT NULL DEFAULT '',
			change_24h DOUBLE PRECISION NOT NULL DEFAULT 0,
			created_at BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_market_grade_date ON market_data(grade_id, date)`,

		`CREATE TABLE IF NOT EXISTS fixings (
			id           TEXT PRIMARY KEY,
			date         TEXT NOT NULL,
			route        TEXT NOT NULL,
			grade        TEXT NOT NULL,
			volume       TEXT NOT NULL,
			price_usd    NUMERIC(14,4) NOT NULL,
			counterparty TEXT NOT NULL,
			vessel       TEXT NOT NULL DEFAULT '',
			currency     TEXT NOT NULL DEFAULT '',
			notes        TEXT NOT NULL DEFAULT '',
			created_at   BIGINT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS score_snapshots (
			id            TEXT PRIMARY KEY,
			grade_id      INTEGER NOT NULL,
			grade_name    TEXT NOT NULL,
			as_of         TEXT NOT NULL,
			score         INTEGER NOT NULL,
			bucket        TEXT NOT NULL,
			comment       TEXT NOT NULL,
			recorded_at   BIGINT NOT NULL,
			p_today       DOUBLE PRECISION,
			ma_20         DOUBLE PRECISION,
			bollinger_low DOUBLE PRECISION,
			forecast_min  DOUBLE PRECISION,
			forecast_max  DOUBLE PRECISION,
			volatility    DOUBLE PRECISION,
			trend_slope   DOUBLE PRECISION,
			forecast_1d   DOUBLE PRECISION,
			created_at    BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_grade_ts ON score_snapshots(grade_id, recorded_at)`,

		`CREATE TABLE IF NOT EXISTS vessels (
			id          TEXT PRIMARY KEY,
			name        TEXT NOT NULL,
			type        TEXT NOT NULL,
			dwt         INTEGER NOT NULL,
			status      TEXT NOT NULL,
			eta         TEXT NOT NULL DEFAULT '',
			origin      TEXT NOT NULL DEFAULT '',
			destination TEXT NOT NULL DEFAULT '',
			created_at  BIGINT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS knowledge (
			id         TEXT PRIMARY KEY,
			title      TEXT NOT NULL,
			link       TEXT NOT NULL DEFAULT '',
			tags       TEXT NOT NULL DEFAULT '[]',
			excerpt    TEXT NOT NULL DEFAULT '',
			content    TEXT NOT NULL DEFAULT '',
			updated_at BIGINT NOT NULL,
			created_at BIGINT NOT NULL
		)`,
	}

	for _, st := range stmts {
		if _, err := s.db.Exec(st); err != nil {
			return fmt.Errorf("exec %q: %w", st[:40], err)
		}
	}
	return nil
}

const (
	gradeColumns    = `id, name, region, ffa, moisture, iv, dobi`
	marketColumns   = `id, grade_id, grade_name, date, price_usd, usd_tnd, volume, change_24h`
	fixingColumns   = `id, date, route, grade, volume, price_usd, counterparty, vessel, currency, notes`
	snapshotColumns = `id, grade_id, grade_name, as_of, score, bucket, comment, recorded_at,
		p_today, ma_20, bollinger_low, forecast_min, forecast_max, volatility, trend_slope, forecast_1d`
	vesselColumns    = `id, name, type, dwt, status, eta, origin, destination`
	knowledgeColumns = `id, title, link, tags, excerpt, content, updated_at`
)

func (s *SQLStore) ListGrades(ctx context.Context) ([]model.Grade, error) {
	var out []model.Grade
	err := s.db.SelectContext(ctx, &out, `SELECT `+gradeColumns+` FROM grades ORDER BY id`)
	return out, err
}

func (s *SQLStore) GetGrade(ctx context.Context, id int) (*model.Grade, error) {
	var g model.Grade
	err := s.db.GetContext(ctx, &g, s.db.Rebind(`SELECT `+gradeColumns+` FROM grades WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("grade %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// CreateGrade assigns the next free ID when g.ID is zero.
func (s *SQLStore) CreateGrade(ctx context.Context, g *model.Grade) error {
	if err := check(g); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if g.ID == 0 {
		if err := tx.GetContext(ctx, &g.ID, `SELECT COALESCE(MAX(id), 0) + 1 FROM grades`); err != nil {
			return fmt.Errorf("next grade id: %w", err)
		}
	} else {
		var n int
		if err := tx.GetContext(ctx, &n, tx.Rebind(`SELECT COUNT(*) FROM grades WHERE id = ?`), g.ID); err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("grade %d: %w", g.ID, ErrDuplicate)
		}
	}

	if _, err := tx.NamedExecContext(ctx, `INSERT INTO grades (`+gradeColumns+`)
		VALUES (:id, :name, :region, :ffa, :moisture, :iv, :dobi)`, g); err != nil {
		return fmt.Errorf("insert grade: %w", err)
	}
	return tx.Commit()
}

func (s *SQLStore) ListMarketData(ctx context.Context) ([]model.MarketData, error) {
	var out []model.MarketData
	err := s.db.SelectContext(ctx, &out,
		`SELECT `+marketColumns+` FROM market_data ORDER BY date, created_at`)
	return out, err
}

func (s *SQLStore) MarketDataByGrade(ctx context.Context, gradeID int) ([]model.MarketData, error) {
	var out []model.MarketData
	err := s.db.SelectContext(ctx, &out, s.db.Rebind(
		`SELECT `+marketColumns+` FROM market_data WHERE grade_id = ? ORDER BY date, created_at`), gradeID)
	return out, err
}

// AddMarketData stores md under a fresh ID and copies the grade name from the grade.
func (s *SQLStore) AddMarketData(ctx context.Context, md *model.MarketData) error {
	if err := check(md); err != nil {
		return err
	}
	g, err := s.GetGrade(ctx, md.GradeID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	md.ID = uuid.New().String()
	md.GradeName = g.Name
	_, err = s.db.ExecContext(ctx, s.db.Rebind(`INSERT INTO market_data
		(`+marketColumns+`, created_at)
		VALUES (?,?,?,?,?,?,?,?,?)`),
		md.ID, md.GradeID, md.GradeName, md.Date, md.PriceUSD, md.USDTND,
		md.Volume, md.Change24h, time.Now().UnixNano(),
	)
	return err
}

func (s *SQLStore) ListFixings(ctx context.Context) ([]model.Fixing, error) {
	var out []model.Fixing
	err := s.db.SelectContext(ctx, &out,
		`SELECT `+fixingColumns+` FROM fixings ORDER BY date DESC, created_at`)
	return out, err
}

func (s *SQLStore) GetFixing(ctx context.Context, id string) (*model.Fixing, error) {
	var f model.Fixing
	err := s.db.GetContext(ctx, &f, s.db.Rebind(`SELECT `+fixingColumns+` FROM fixings WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("fixing %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *SQLStore) CreateFixing(ctx context.Context, f *model.Fixing) error {
	if err := check(f); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	f.ID = uuid.New().String()
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`INSERT INTO fixings
		(`+fixingColumns+`, created_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`),
		f.ID, f.Date, f.Route, f.Grade, f.Volume, f.PriceUSD, f.Counterparty,
		f.Vessel, f.Currency, f.Notes, time.Now().UnixNano(),
	)
	return err
}

func (s *SQLStore) RecordScore(ctx context.Context, snap *model.ScoreSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if snap.ID == "" {
		snap.ID = uuid.New().String()
	}
	ind := snap.Indicators
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`INSERT INTO score_snapshots
		(`+snapshotColumns+`, created_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`),
		snap.ID, snap.GradeID, snap.GradeName, snap.AsOf, snap.Score, string(snap.Bucket),
		snap.Comment, snap.RecordedAt,
		ind.PToday, ind.MA20, ind.BollingerLow, ind.ForecastMin, ind.ForecastMax,
		ind.Volatility, ind.TrendSlope, ind.Forecast1d,
		time.Now().UnixNano(),
	)
	return err
}

// ScoreHistory returns up to limit snapshots of a grade, newest first. limit <= 0 means all.
func (s *SQLStore) ScoreHistory(ctx context.Context, gradeID, limit int) ([]model.ScoreSnapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM score_snapshots
		WHERE grade_id = ? ORDER BY recorded_at DESC, created_at DESC`
	args := []interface{}{gradeID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	var out []model.ScoreSnapshot
	err := s.db.SelectContext(ctx, &out, s.db.Rebind(query), args...)
	return out, err
}

func (s *SQLStore) ListVessels(ctx context.Context) ([]model.Vessel, error) {
	var out []model.Vessel
	err := s.db.SelectContext(ctx, &out, `SELECT `+vesselColumns+` FROM vessels ORDER BY created_at`)
	return out, err
}

func (s *SQLStore) CreateVessel(ctx context.Context, v *model.Vessel) error {
	if err := check(v); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	v.ID = uuid.New().String()
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`INSERT INTO vessels
		(`+vesselColumns+`, created_at)
		VALUES (?,?,?,?,?,?,?,?,?)`),
		v.ID, v.Name, v.Type, v.DWT, v.Status, v.ETA, v.Origin, v.Destination,
		time.Now().UnixNano(),
	)
	return err
}

// likeEscaper makes user input literal inside a LIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (s *SQLStore) ListKnowledge(ctx context.Context, query string) ([]model.KnowledgeItem, error) {
	q := `SELECT ` + knowledgeColumns + ` FROM knowledge`
	var args []interface{}
	if term := strings.ToLower(strings.TrimSpace(query)); term != "" {
		q += ` WHERE LOWER(title) LIKE ? ESCAPE '\' OR LOWER(tags) LIKE ? ESCAPE '\'
			OR LOWER(excerpt) LIKE ? ESCAPE '\' OR LOWER(content) LIKE ? ESCAPE '\'`
		pattern := "%" + likeEscaper.Replace(term) + "%"
		args = []interface{}{pattern, pattern, pattern, pattern}
	}
	q += ` ORDER BY updated_at DESC, created_at DESC`
	var out []model.KnowledgeItem
	err := s.db.SelectContext(ctx, &out, s.db.Rebind(q), args...)
	return out, err
}

// CreateKnowledge stamps UpdatedAt with the current time when it is unset.
func (s *SQLStore) CreateKnowledge(ctx context.Context, k *model.KnowledgeItem) error {
	if err := check(k); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	k.ID = uuid.New().String()
	if k.UpdatedAt == 0 {
		k.UpdatedAt = now.UnixMilli()
	}
	if k.Tags == nil {
		k.Tags = model.Tags{}
	}
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`INSERT INTO knowledge
		(`+knowledgeColumns+`, created_at)
		VALUES (?,?,?,?,?,?,?,?)`),
		k.ID, k.Title, k.Link, k.Tags, k.Excerpt, k.Content, k.UpdatedAt, now.UnixNano(),
	)
	return err
}

func (s *SQLStore) Close() error {
	log.Info().Msg("closing sql store")
	return s.db.Close()
}
