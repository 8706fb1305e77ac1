package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/vibe-bed/internal/cache"
	"github.com/inodb/vibe-bed/internal/engine"
	"github.com/inodb/vibe-bed/internal/interval"
	"github.com/inodb/vibe-bed/internal/selector"
)

// ErrSessionNotFound is returned when loading an unknown session ID.
var ErrSessionNotFound = errors.New("session not found")

// SessionInfo summarises a stored session.
type SessionInfo struct {
	ID       string
	Assembly cache.Assembly
	Created  time.Time
	Records  int
	Pending  int
}

// SaveSession writes the session's current snapshot, pending selections and
// no-data list, replacing any earlier copy of the same session.
func (s *Store) SaveSession(sess *engine.Session) error {
	noData, err := json.Marshal(sess.NoData)
	if err != nil {
		return fmt.Errorf("encode no-data list: %w", err)
	}
	pending, err := json.Marshal(sess.Pending())
	if err != nil {
		return fmt.Errorf("encode pending selections: %w", err)
	}

	ctx := context.Background()
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "BEGIN TRANSACTION"); err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := saveSession(ctx, conn, sess, string(noData), string(pending)); err != nil {
		if _, rbErr := conn.ExecContext(ctx, "ROLLBACK"); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}
	if _, err := conn.ExecContext(ctx, "COMMIT"); err != nil {
		return fmt.Errorf("commit session %s: %w", sess.ID, err)
	}
	return nil
}

// saveSession replaces the session row and its records on conn, which must
// be inside a transaction.
func saveSession(ctx context.Context, conn *sql.Conn, sess *engine.Session, noData, pending string) error {
	if _, err := conn.ExecContext(ctx, `INSERT OR REPLACE INTO sessions (id, assembly, created_at, no_data, pending)
		VALUES (?, ?, ?, ?, ?)`,
		sess.ID, sess.Assembly.String(), sess.Created, noData, pending); err != nil {
		return fmt.Errorf("save session %s: %w", sess.ID, err)
	}
	if _, err := conn.ExecContext(ctx, `DELETE FROM session_records WHERE session_id = ?`, sess.ID); err != nil {
		return fmt.Errorf("clear session records: %w", err)
	}
	return writeRecords(conn, sess.ID, sess.Snapshot().Records())
}

// writeRecords batch-inserts base records using the Appender API.
func writeRecords(conn *sql.Conn, sessionID string, records []interval.Record) error {
	if len(records) == 0 {
		return nil
	}

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "session_records")
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}

	for i, r := range records {
		if err := appender.AppendRow(
			sessionID, int64(i), r.Chrom, r.Start, r.End,
			r.ExonID, int64(r.ExonNumber), r.Biotype, r.Accession, r.Gene, r.GeneID,
			int64(r.Strand), boundValue(r.FivePrimeUTREnd), boundValue(r.ThreePrimeUTRStart),
			r.ManeStatus, r.Status, r.Alert, r.Warning, r.IsSNP, r.Source, int64(r.Index),
		); err != nil {
			appender.Close()
			return fmt.Errorf("append session record: %w", err)
		}
	}

	if err := appender.Close(); err != nil {
		return fmt.Errorf("flush session records: %w", err)
	}
	return nil
}

// LoadSession restores a stored session.
func (s *Store) LoadSession(id string) (*engine.Session, error) {
	var (
		asm              string
		created          time.Time
		noDataJSON, pend string
	)
	err := s.db.QueryRow(`SELECT assembly, created_at, no_data, pending FROM sessions WHERE id = ?`, id).
		Scan(&asm, &created, &noDataJSON, &pend)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("query session %s: %w", id, err)
	}

	var noData []string
	if err := json.Unmarshal([]byte(noDataJSON), &noData); err != nil {
		return nil, fmt.Errorf("decode no-data list: %w", err)
	}
	var pending []*selector.Selection
	if err := json.Unmarshal([]byte(pend), &pending); err != nil {
		return nil, fmt.Errorf("decode pending selections: %w", err)
	}

	records, err := s.readRecords(id)
	if err != nil {
		return nil, err
	}
	return engine.Restore(id, cache.Assembly(asm), created, records, pending, noData), nil
}

func (s *Store) readRecords(sessionID string) ([]interval.Record, error) {
	rows, err := s.db.Query(`SELECT
		chrom, start_pos, end_pos, exon_id, exon_number, biotype, accession, gene, gene_id,
		strand, five_prime_utr_end, three_prime_utr_start,
		mane_status, status, alert, warning, is_snp, source, idx
		FROM session_records WHERE session_id = ? ORDER BY seq`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query session records: %w", err)
	}
	defer rows.Close()

	var records []interval.Record
	for rows.Next() {
		var (
			r                 interval.Record
			exonNumber, index int64
			strand            int64
			five, three       sql.NullInt64
		)
		if err := rows.Scan(
			&r.Chrom, &r.Start, &r.End, &r.ExonID, &exonNumber, &r.Biotype, &r.Accession, &r.Gene, &r.GeneID,
			&strand, &five, &three,
			&r.ManeStatus, &r.Status, &r.Alert, &r.Warning, &r.IsSNP, &r.Source, &index,
		); err != nil {
			return nil, fmt.Errorf("scan session record: %w", err)
		}
		r.ExonNumber = int(exonNumber)
		r.Index = int(index)
		r.Strand = int8(strand)
		r.FivePrimeUTREnd = interval.Bound{Pos: five.Int64, Valid: five.Valid}
		r.ThreePrimeUTRStart = interval.Bound{Pos: three.Int64, Valid: three.Valid}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session records: %w", err)
	}
	return records, nil
}

// Sessions lists stored sessions, newest first.
func (s *Store) Sessions() ([]SessionInfo, error) {
	rows, err := s.db.Query(`SELECT s.id, s.assembly, s.created_at, s.pending,
		(SELECT count(*) FROM session_records r WHERE r.session_id = s.id)
		FROM sessions s ORDER BY s.created_at DESC, s.id`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionInfo
	for rows.Next() {
		var (
			info    SessionInfo
			asm     string
			pending string
			count   int64
		)
		if err := rows.Scan(&info.ID, &asm, &info.Created, &pending, &count); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		var sels []*selector.Selection
		if err := json.Unmarshal([]byte(pending), &sels); err != nil {
			return nil, fmt.Errorf("decode pending selections: %w", err)
		}
		info.Assembly = cache.Assembly(asm)
		info.Records = int(count)
		info.Pending = len(sels)
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return out, nil
}

// LatestSessionID returns the most recently created session.
func (s *Store) LatestSessionID() (string, error) {
	var id string
	err := s.db.QueryRow(`SELECT id FROM sessions ORDER BY created_at DESC LIMIT 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrSessionNotFound
	}
	if err != nil {
		return "", fmt.Errorf("query latest session: %w", err)
	}
	return id, nil
}

func boundValue(b interval.Bound) any {
	if !b.Valid {
		return nil
	}
	return b.Pos
}
