package repository

import (
	"context"
	"database/sql"
	"fmt"

	"vitals-app/internal/domain"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{dbPath: path}
}

// NewSQLiteStoreWithDB wraps an already opened database. Init only creates
// the schema.
func NewSQLiteStoreWithDB(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Init() error {
	var err error

	if s.db == nil {
		s.db, err = sql.Open("sqlite3", s.dbPath)
		if err != nil {
			return fmt.Errorf("error opening database: %w", err)
		}
	}

	if err = s.db.Ping(); err != nil {
		return fmt.Errorf("error connecting to database: %w", err)
	}

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS vitals_reports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp INTEGER NOT NULL,
		page TEXT NOT NULL DEFAULT '',
		navigation_type TEXT NOT NULL DEFAULT '',
		lcp REAL,
		fid REAL,
		cls REAL,
		fcp REAL,
		ttfb REAL,
		inp REAL,
		score REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_vitals_reports_timestamp ON vitals_reports(timestamp);`

	_, err = s.db.Exec(createTableSQL)
	if err != nil {
		return fmt.Errorf("error creating table: %w", err)
	}
	return nil
}

func (s *SQLiteStore) StoreReport(ctx context.Context, report domain.Report) (int64, error) {
	stmt, err := s.db.PrepareContext(ctx, `INSERT INTO vitals_reports(timestamp, page, navigation_type, lcp, fid, cls, fcp, ttfb, inp, score)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("error preparing insert statement: %w", err)
	}
	defer stmt.Close()

	res, err := stmt.ExecContext(ctx, report.Timestamp, report.Page, report.NavigationType,
		nullable(report.LCP), nullable(report.FID), nullable(report.CLS),
		nullable(report.FCP), nullable(report.TTFB), nullable(report.INP),
		report.Score)
	if err != nil {
		return 0, fmt.Errorf("error inserting report: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("error reading report id: %w", err)
	}
	return id, nil
}

func (s *SQLiteStore) GetReports(ctx context.Context, startTime, endTime int64, limit, offset int) ([]domain.Report, error) {
	query := `SELECT id, timestamp, page, navigation_type, lcp, fid, cls, fcp, ttfb, inp, score
		FROM vitals_reports WHERE timestamp >= ? AND timestamp <= ? ORDER BY timestamp ASC, id ASC`
	args := []interface{}{startTime, endTime}

	if limit <= 0 {
		limit = -1
	}
	query += " LIMIT ?"
	args = append(args, limit)

	if offset < 0 {
		offset = 0
	}
	query += " OFFSET ?"
	args = append(args, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying database: %w", err)
	}
	defer rows.Close()

	var reports []domain.Report

	for rows.Next() {
		var (
			r                             domain.Report
			lcp, fid, cls, fcp, ttfb, inp sql.NullFloat64
		)
		if err := rows.Scan(&r.ID, &r.Timestamp, &r.Page, &r.NavigationType,
			&lcp, &fid, &cls, &fcp, &ttfb, &inp, &r.Score); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		r.Snapshot = snapshotOf(lcp, fid, cls, fcp, ttfb, inp)
		reports = append(reports, r)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration: %w", err)
	}
	return reports, nil
}

// GetSummary averages each metric over the reports that carry it.
func (s *SQLiteStore) GetSummary(ctx context.Context, startTime, endTime int64) (domain.Summary, error) {
	summary := domain.Summary{Start: startTime, End: endTime}

	row := s.db.QueryRowContext(ctx, `SELECT COUNT(*), AVG(lcp), AVG(fid), AVG(cls), AVG(fcp), AVG(ttfb), AVG(inp)
		FROM vitals_reports WHERE timestamp >= ? AND timestamp <= ?`, startTime, endTime)

	var lcp, fid, cls, fcp, ttfb, inp sql.NullFloat64
	if err := row.Scan(&summary.Count, &lcp, &fid, &cls, &fcp, &ttfb, &inp); err != nil {
		return domain.Summary{}, fmt.Errorf("error querying summary: %w", err)
	}
	summary.Averages = snapshotOf(lcp, fid, cls, fcp, ttfb, inp)
	return summary, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func nullable(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func snapshotOf(lcp, fid, cls, fcp, ttfb, inp sql.NullFloat64) domain.Snapshot {
	var snap domain.Snapshot
	for _, col := range []struct {
		name domain.MetricName
		v    sql.NullFloat64
	}{
		{domain.LCP, lcp}, {domain.FID, fid}, {domain.CLS, cls},
		{domain.FCP, fcp}, {domain.TTFB, ttfb}, {domain.INP, inp},
	} {
		if col.v.Valid {
			snap = snap.With(col.name, col.v.Float64)
		}
	}
	return snap
}
