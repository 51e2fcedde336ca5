// Package history answers questions about persisted decisions by querying
// the store's parquet batches through DuckDB.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2"
)

// DB is an in-memory DuckDB with a `decisions` view over every parquet file
// below its roots. Files in tmp/ directories are unpublished and skipped.
type DB struct {
	db *sql.DB
}

func Open(roots ...string) (*DB, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	_, _ = db.Exec("PRAGMA threads=4")

	globs := make([]string, 0, len(roots))
	for _, root := range roots {
		root = strings.TrimSpace(root)
		if root == "" || !hasParquet(root) {
			continue
		}
		glob := filepath.Join(root, "**", "*.parquet")
		globs = append(globs, "'"+escapeSQLString(glob)+"'")
	}

	view := `CREATE OR REPLACE VIEW decisions AS
		SELECT * FROM (
			SELECT
				NULL::VARCHAR AS game_id,
				NULL::INTEGER AS turn,
				NULL::VARCHAR AS you_id,
				NULL::VARCHAR AS source,
				NULL::VARCHAR AS move,
				NULL::VARCHAR[] AS candidates,
				NULL::VARCHAR[] AS survivors,
				NULL::INTEGER AS depth,
				NULL::BOOLEAN AS fallback,
				NULL::BIGINT AS nodes,
				NULL::BIGINT AS elapsed_us,
				NULL::VARCHAR AS actual,
				NULL::BOOLEAN AS died_next,
				NULL::VARCHAR AS filename
		) WHERE 1=0`
	if len(globs) > 0 {
		view = `CREATE OR REPLACE VIEW decisions AS
			SELECT * FROM read_parquet([` + strings.Join(globs, ",") + `], filename=true, union_by_name=true)
			WHERE NOT contains(filename, '/tmp/')`
	}
	if _, err := db.Exec(view); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create decisions view: %w", err)
	}
	return &DB{db: db}, nil
}

func (d *DB) Close() error { return d.db.Close() }

// hasParquet reports whether a published parquet file exists below root.
// read_parquet fails on a glob with no matches.
func hasParquet(root string) bool {
	found := false
	_ = filepath.WalkDir(root, func(path string, e fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if e.IsDir() && e.Name() == "tmp" {
			return filepath.SkipDir
		}
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".parquet") {
			found = true
			return filepath.SkipAll
		}
		return nil
	})
	return found
}

func escapeSQLString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

type MoveCount struct {
	Move  string
	Count int64
}

// MoveCounts is the histogram of chosen moves, optionally for one source.
func (d *DB) MoveCounts(ctx context.Context, source string) ([]MoveCount, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT move, count(*) AS n
		FROM decisions
		WHERE ? = '' OR source = ?
		GROUP BY move
		ORDER BY n DESC, move`, source, source)
	if err != nil {
		return nil, fmt.Errorf("query move counts: %w", err)
	}
	defer rows.Close()

	var out []MoveCount
	for rows.Next() {
		var mc MoveCount
		if err := rows.Scan(&mc.Move, &mc.Count); err != nil {
			return nil, fmt.Errorf("scan move count: %w", err)
		}
		out = append(out, mc)
	}
	return out, rows.Err()
}

// Decision is one stored decision, without the raw state.
type Decision struct {
	Turn      int32
	YouID     string
	Move      string
	Survivors []string
	Depth     int32
	Fallback  bool
	Nodes     int64
	Actual    string
	DiedNext  bool
}

// GameDecisions lists a game's decisions in turn order.
func (d *DB) GameDecisions(ctx context.Context, gameID string) ([]Decision, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT turn, you_id, move, array_to_string(survivors, ','), depth, fallback, nodes,
			coalesce(actual, ''), died_next
		FROM decisions
		WHERE game_id = ?
		ORDER BY turn, you_id`, gameID)
	if err != nil {
		return nil, fmt.Errorf("query game %s: %w", gameID, err)
	}
	defer rows.Close()

	var out []Decision
	for rows.Next() {
		var (
			dec       Decision
			survivors sql.NullString
		)
		if err := rows.Scan(&dec.Turn, &dec.YouID, &dec.Move, &survivors, &dec.Depth,
			&dec.Fallback, &dec.Nodes, &dec.Actual, &dec.DiedNext); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		if survivors.String != "" {
			dec.Survivors = strings.Split(survivors.String, ",")
		}
		out = append(out, dec)
	}
	return out, rows.Err()
}

// Summary aggregates search health over all decisions.
type Summary struct {
	Decisions int64
	Games     int64
	Fallbacks int64
	// Deaths counts decisions followed by the snake's elimination, and
	// DeathsFlagged those where the search had already fallen back.
	Deaths        int64
	DeathsFlagged int64
	AvgDepth      float64
	AvgNodes      float64
}

func (s Summary) FallbackRate() float64 {
	if s.Decisions == 0 {
		return 0
	}
	return float64(s.Fallbacks) / float64(s.Decisions)
}

func (d *DB) Summary(ctx context.Context) (Summary, error) {
	var s Summary
	err := d.db.QueryRowContext(ctx, `
		SELECT
			count(*),
			count(DISTINCT game_id),
			count(*) FILTER (WHERE fallback),
			count(*) FILTER (WHERE died_next),
			count(*) FILTER (WHERE died_next AND fallback),
			coalesce(avg(depth), 0),
			coalesce(avg(nodes), 0)
		FROM decisions`).Scan(&s.Decisions, &s.Games, &s.Fallbacks, &s.Deaths,
		&s.DeathsFlagged, &s.AvgDepth, &s.AvgNodes)
	if err != nil {
		return Summary{}, fmt.Errorf("query summary: %w", err)
	}
	return s, nil
}
