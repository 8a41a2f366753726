// Package candidates stores finalized screening records, deduplicated by
// candidate email.
package candidates

import (
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/talentscout/screener/internal/ai"
	"github.com/talentscout/screener/internal/interview"
)

// Store is the SQLite persistence gateway for candidate records. It
// implements interview.Recorder.
type Store struct {
	db *sql.DB
}

// NewStore opens the SQLite database at dbPath and creates the schema if it
// does not exist yet.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := createTables(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func createTables(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS candidates (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT NOT NULL UNIQUE,
		full_name TEXT NOT NULL,
		phone TEXT,
		experience_years INTEGER NOT NULL,
		tech_stack TEXT NOT NULL,
		session_id TEXT NOT NULL,
		question_count INTEGER NOT NULL,
		answer_count INTEGER NOT NULL,
		completion REAL NOT NULL,
		status TEXT NOT NULL,
		notes TEXT,
		transcript TEXT,
		interviewed_at DATETIME NOT NULL
	);
	`
	_, err := db.Exec(schema)
	return err
}

// Upsert inserts the record, or replaces the existing row for the same
// email. Calling it twice with the same record leaves exactly one row.
func (s *Store) Upsert(ctx context.Context, rec *interview.Record) error {
	if rec.Profile.Email == "" {
		return errors.New("record has no email")
	}

	techStack, err := json.Marshal(rec.Profile.TechStack)
	if err != nil {
		return fmt.Errorf("encode tech stack: %w", err)
	}
	transcript, err := json.Marshal(rec.Transcript)
	if err != nil {
		return fmt.Errorf("encode transcript: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO candidates (
			email, full_name, phone, experience_years, tech_stack,
			session_id, question_count, answer_count, completion,
			status, notes, transcript, interviewed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(email) DO UPDATE SET
			full_name = excluded.full_name,
			phone = excluded.phone,
			experience_years = excluded.experience_years,
			tech_stack = excluded.tech_stack,
			session_id = excluded.session_id,
			question_count = excluded.question_count,
			answer_count = excluded.answer_count,
			completion = excluded.completion,
			status = excluded.status,
			notes = excluded.notes,
			transcript = excluded.transcript,
			interviewed_at = excluded.interviewed_at`,
		rec.Profile.Email, rec.Profile.FullName, rec.Profile.Phone,
		rec.Profile.ExperienceYears, string(techStack),
		rec.SessionID, rec.QuestionCount, rec.AnswerCount, rec.Completion,
		rec.Status, rec.Notes, string(transcript), rec.InterviewedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert candidate: %w", err)
	}

	return nil
}

// FindByEmail retrieves a record by candidate email. Unknown emails return
// (nil, nil).
func (s *Store) FindByEmail(ctx context.Context, email string) (*interview.Record, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE email = ?`,
		strings.ToLower(strings.TrimSpace(email)))

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ListAll returns every stored record, most recent screening first.
func (s *Store) ListAll(ctx context.Context) ([]*interview.Record, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+` ORDER BY interviewed_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query candidates: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []*interview.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return records, nil
}

const selectColumns = `SELECT email, full_name, phone, experience_years, tech_stack,
	session_id, question_count, answer_count, completion,
	status, notes, transcript, interviewed_at
FROM candidates`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*interview.Record, error) {
	var (
		rec        interview.Record
		techStack  string
		transcript string
	)
	err := row.Scan(
		&rec.Profile.Email, &rec.Profile.FullName, &rec.Profile.Phone,
		&rec.Profile.ExperienceYears, &techStack,
		&rec.SessionID, &rec.QuestionCount, &rec.AnswerCount, &rec.Completion,
		&rec.Status, &rec.Notes, &transcript, &rec.InterviewedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan candidate: %w", err)
	}

	if err := json.Unmarshal([]byte(techStack), &rec.Profile.TechStack); err != nil {
		return nil, fmt.Errorf("decode tech stack: %w", err)
	}
	if transcript != "" {
		if err := json.Unmarshal([]byte(transcript), &rec.Transcript); err != nil {
			return nil, fmt.Errorf("decode transcript: %w", err)
		}
	}

	return &rec, nil
}

// Stats summarizes the stored pool.
type Stats struct {
	Total             int
	Completed         int
	AverageCompletion float64
	ByLevel           map[ai.Level]int
	TopTechnologies   []TechCount
}

// TechCount is one technology and how many candidates listed it.
type TechCount struct {
	Technology string
	Count      int
}

// Stats aggregates the candidate pool: totals, completion and the most
// common technologies.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	records, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Stats{ByLevel: make(map[ai.Level]int)}

	techCounts := make(map[string]int)
	var completionSum float64

	for _, rec := range records {
		stats.Total++
		if rec.Status == interview.StatusCompleted {
			stats.Completed++
		}
		completionSum += rec.Completion
		stats.ByLevel[ai.LevelForYears(rec.Profile.ExperienceYears)]++
		for _, tech := range rec.Profile.TechStack {
			techCounts[strings.ToLower(tech)]++
		}
	}

	if stats.Total > 0 {
		stats.AverageCompletion = completionSum / float64(stats.Total)
	}

	for tech, count := range techCounts {
		stats.TopTechnologies = append(stats.TopTechnologies, TechCount{Technology: tech, Count: count})
	}
	sort.Slice(stats.TopTechnologies, func(i, j int) bool {
		if stats.TopTechnologies[i].Count != stats.TopTechnologies[j].Count {
			return stats.TopTechnologies[i].Count > stats.TopTechnologies[j].Count
		}
		return stats.TopTechnologies[i].Technology < stats.TopTechnologies[j].Technology
	})
	if len(stats.TopTechnologies) > 10 {
		stats.TopTechnologies = stats.TopTechnologies[:10]
	}

	return stats, nil
}

// ExportCSV writes the given records as CSV, one row per candidate.
// The transcript is omitted.
func ExportCSV(w io.Writer, records []*interview.Record) error {
	cw := csv.NewWriter(w)

	header := []string{
		"email", "full_name", "phone", "experience_years", "tech_stack",
		"questions", "answers", "completion", "status", "interviewed_at",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, rec := range records {
		row := []string{
			rec.Profile.Email,
			rec.Profile.FullName,
			rec.Profile.Phone,
			strconv.Itoa(rec.Profile.ExperienceYears),
			strings.Join(rec.Profile.TechStack, "; "),
			strconv.Itoa(rec.QuestionCount),
			strconv.Itoa(rec.AnswerCount),
			strconv.FormatFloat(rec.Completion, 'f', 1, 64),
			rec.Status,
			rec.InterviewedAt.Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
