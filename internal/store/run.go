package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/stlc/internal/compiler"
	"github.com/roach88/stlc/internal/ir"
)

// ErrRunNotFound is returned by GetRun for an unknown id.
var ErrRunNotFound = errors.New("compile run not found")

// Run is one recorded compile run.
type Run struct {
	ID              string                `json:"id"`
	Seq             int64                 `json:"seq"`
	ProfilePath     string                `json:"profile_path"`
	ProfileHash     string                `json:"profile_hash"`
	CompilerVersion string                `json:"compiler_version"`
	OK              bool                  `json:"ok"`
	StreamCount     int                   `json:"stream_count"`
	AllContinuous   bool                  `json:"all_continuous"`
	Factor          float64               `json:"factor"`
	MaxPPS          *float64              `json:"max_pps,omitempty"`
	MaxBPS          *float64              `json:"max_bps,omitempty"`
	Errors          []compiler.Diagnostic `json:"errors"`
	Warnings        []compiler.Diagnostic `json:"warnings"`
	CreatedAt       time.Time             `json:"created_at"`
}

// NewRun summarizes a compilation. prog is nil for a failed compilation.
// Peak rates are left unset; callers fill them from a rate graph.
func NewRun(profilePath, profileHash string, factor float64, prog *ir.Program, diags compiler.Diagnostics) Run {
	r := Run{
		ProfilePath:     profilePath,
		ProfileHash:     profileHash,
		CompilerVersion: ir.CompilerVersion,
		OK:              prog != nil && diags.OK(),
		Factor:          factor,
		Errors:          derefDiagnostics(diags.Errors),
		Warnings:        derefDiagnostics(diags.Warnings),
	}
	if prog != nil {
		r.StreamCount = prog.Len()
		r.AllContinuous = prog.AllContinuous
		r.Factor = prog.Factor
	}
	return r
}

func derefDiagnostics(in []*compiler.Diagnostic) []compiler.Diagnostic {
	out := make([]compiler.Diagnostic, len(in))
	for i, d := range in {
		out[i] = *d
	}
	return out
}

// SetPeak records peak rates.
func (r *Run) SetPeak(pps, bps float64) {
	r.MaxPPS = &pps
	r.MaxBPS = &bps
}

// RecordRun stores a run. ID, Seq and CreatedAt are assigned by the store
// and returned in the stored copy.
func (s *Store) RecordRun(ctx context.Context, run Run) (Run, error) {
	errorsJSON, err := marshalDiagnostics(run.Errors)
	if err != nil {
		return Run{}, fmt.Errorf("record run: %w", err)
	}
	warningsJSON, err := marshalDiagnostics(run.Warnings)
	if err != nil {
		return Run{}, fmt.Errorf("record run: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("record run: begin: %w", err)
	}
	defer tx.Rollback()

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM compile_runs`).Scan(&seq); err != nil {
		return Run{}, fmt.Errorf("record run: next seq: %w", err)
	}

	run.ID = s.ids.Generate()
	run.Seq = seq
	run.CreatedAt = s.clock.Now().UTC().Truncate(time.Second)

	_, err = tx.ExecContext(ctx, `
		INSERT INTO compile_runs
		(id, seq, profile_path, profile_hash, compiler_version, ok, stream_count,
		 all_continuous, factor, max_pps, max_bps, errors, warnings, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.Seq,
		run.ProfilePath,
		run.ProfileHash,
		run.CompilerVersion,
		run.OK,
		run.StreamCount,
		run.AllContinuous,
		run.Factor,
		nullFloat(run.MaxPPS),
		nullFloat(run.MaxBPS),
		errorsJSON,
		warningsJSON,
		run.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return Run{}, fmt.Errorf("record run: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("record run: commit: %w", err)
	}
	return run, nil
}

const selectRun = `
	SELECT id, seq, profile_path, profile_hash, compiler_version, ok, stream_count,
	       all_continuous, factor, max_pps, max_bps, errors, warnings, created_at
	FROM compile_runs
`

// GetRun returns a run by id.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, selectRun+` WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return run, err
}

// ListRuns returns the most recent runs, newest first.
// limit <= 0 means no limit.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	return s.queryRuns(ctx, selectRun+` ORDER BY seq DESC, id COLLATE BINARY ASC LIMIT ?`, limit)
}

// RunsForProfile returns every run of one profile hash, oldest first.
func (s *Store) RunsForProfile(ctx context.Context, profileHash string) ([]Run, error) {
	return s.queryRuns(ctx, selectRun+` WHERE profile_hash = ? ORDER BY seq ASC, id COLLATE BINARY ASC`, profileHash)
}

func (s *Store) queryRuns(ctx context.Context, query string, args ...any) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run                  Run
		maxPPS, maxBPS       sql.NullFloat64
		errorsJSON, warnJSON string
		createdAt            string
	)
	err := row.Scan(
		&run.ID,
		&run.Seq,
		&run.ProfilePath,
		&run.ProfileHash,
		&run.CompilerVersion,
		&run.OK,
		&run.StreamCount,
		&run.AllContinuous,
		&run.Factor,
		&maxPPS,
		&maxBPS,
		&errorsJSON,
		&warnJSON,
		&createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}

	if maxPPS.Valid {
		run.MaxPPS = &maxPPS.Float64
	}
	if maxBPS.Valid {
		run.MaxBPS = &maxBPS.Float64
	}
	if run.Errors, err = unmarshalDiagnostics(errorsJSON); err != nil {
		return Run{}, err
	}
	if run.Warnings, err = unmarshalDiagnostics(warnJSON); err != nil {
		return Run{}, err
	}
	if run.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return Run{}, fmt.Errorf("scan run: created_at: %w", err)
	}
	return run, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
