package jobstorage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/veedubyou/stemsplit-be/src/shared/job/entity"
	"github.com/veedubyou/stemsplit-be/src/shared/lib/errors/mark"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS separation_jobs (
	id TEXT PRIMARY KEY,
	dedupe_key TEXT NOT NULL,
	status TEXT NOT NULL,
	payload TEXT NOT NULL,
	started_at INTEGER,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS separation_jobs_live_key
	ON separation_jobs(dedupe_key) WHERE status != 'error';
CREATE INDEX IF NOT EXISTS separation_jobs_status_started
	ON separation_jobs(status, started_at);
`

var _ jobentity.Store = &SQLiteDB{}

// SQLiteDB is a single file job store. The partial unique index refuses a second live job per dedupe key.
type SQLiteDB struct {
	db *sql.DB
}

func OpenSQLiteDB(path string) (*SQLiteDB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "Failed to create the job database directory")
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to open the job database")
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "Failed to apply the job database schema")
	}

	return &SQLiteDB{db: db}, nil
}

func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func startedAtColumn(job jobentity.Job) sql.NullInt64 {
	if job.StartedAt == nil {
		return sql.NullInt64{}
	}

	return sql.NullInt64{Int64: job.StartedAt.UnixNano(), Valid: true}
}

func (s *SQLiteDB) CreateJob(ctx context.Context, job jobentity.Job) error {
	if job.ID == "" {
		return mark.Message(DefaultErrorMark, "Job ID is not defined")
	}

	payload, err := json.Marshal(job)
	if err != nil {
		return mark.Wrap(err, MarshalMark, "Failed to marshal the job")
	}

	now := time.Now().UnixNano()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO separation_jobs (id, dedupe_key, status, payload, started_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.DedupeKey, string(job.Status), string(payload), startedAtColumn(job), job.CreatedAt.UnixNano(), now)
	if err != nil {
		if isUniqueViolation(err) {
			return mark.Wrap(err, JobConflict, "An equivalent job already exists")
		}
		return mark.Wrap(err, DefaultErrorMark, "Failed to insert the job")
	}

	return nil
}

func (s *SQLiteDB) GetJob(ctx context.Context, jobID string) (jobentity.Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT payload FROM separation_jobs WHERE id = ?`, jobID)

	var payload string
	err := row.Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return jobentity.Job{}, mark.Wrap(err, JobNotFound, "Job is not found")
		}
		return jobentity.Job{}, mark.Wrap(err, DefaultErrorMark, "Failed to fetch job")
	}

	return unmarshalPayload(payload)
}

func unmarshalPayload(payload string) (jobentity.Job, error) {
	job := jobentity.Job{}
	if err := json.Unmarshal([]byte(payload), &job); err != nil {
		return jobentity.Job{}, mark.Wrap(err, UnmarshalMark, "Failed to unmarshal the job payload")
	}

	return job, nil
}

func (s *SQLiteDB) queryJobs(ctx context.Context, query string, args ...any) ([]jobentity.Job, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mark.Wrap(err, DefaultErrorMark, "Failed to query jobs")
	}
	defer rows.Close()

	jobs := []jobentity.Job{}
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, mark.Wrap(err, DefaultErrorMark, "Failed to scan job row")
		}

		job, err := unmarshalPayload(payload)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}

	if err := rows.Err(); err != nil {
		return nil, mark.Wrap(err, DefaultErrorMark, "Failed to iterate job rows")
	}

	return jobs, nil
}

func (s *SQLiteDB) FindJobsByKey(ctx context.Context, dedupeKey string) ([]jobentity.Job, error) {
	return s.queryJobs(ctx,
		`SELECT payload FROM separation_jobs WHERE dedupe_key = ? ORDER BY created_at`, dedupeKey)
}

func (s *SQLiteDB) FindStaleJobs(ctx context.Context, activeBefore time.Time) ([]jobentity.Job, error) {
	cutoff := activeBefore.UnixNano()
	return s.queryJobs(ctx,
		`SELECT payload FROM separation_jobs
		WHERE (status = ? AND created_at <= ?) OR (status = ? AND started_at <= ?)
		ORDER BY created_at`,
		string(jobentity.QueuedStatus), cutoff, string(jobentity.InProgressStatus), cutoff)
}

func (s *SQLiteDB) UpdateJob(ctx context.Context, jobID string, updater jobentity.JobUpdater) (jobentity.Job, error) {
	job, err := s.GetJob(ctx, jobID)
	if err != nil {
		return jobentity.Job{}, err
	}

	updatedJob, err := updater(job)
	if err != nil {
		return jobentity.Job{}, errors.Wrap(err, "The updater failed to make changes to the job")
	}

	payload, err := json.Marshal(updatedJob)
	if err != nil {
		return jobentity.Job{}, mark.Wrap(err, MarshalMark, "Failed to marshal the job")
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE separation_jobs SET status = ?, payload = ?, started_at = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		string(updatedJob.Status), string(payload), startedAtColumn(updatedJob), time.Now().UnixNano(),
		jobID, string(job.Status))
	if err != nil {
		if isUniqueViolation(err) {
			return jobentity.Job{}, mark.Wrap(err, JobConflict, "An equivalent job already exists")
		}
		return jobentity.Job{}, mark.Wrap(err, DefaultErrorMark, "Failed to update the job")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return jobentity.Job{}, mark.Wrap(err, DefaultErrorMark, "Failed to read the update result")
	}

	if affected == 0 {
		return jobentity.Job{}, mark.Message(StatusChanged, "The job changed status before the update was written")
	}

	return updatedJob, nil
}

func (s *SQLiteDB) DeleteJob(ctx context.Context, jobID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM separation_jobs WHERE id = ?`, jobID)
	if err != nil {
		return mark.Wrap(err, DefaultErrorMark, "Failed to delete the job")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return mark.Wrap(err, DefaultErrorMark, "Failed to read the delete result")
	}

	if affected == 0 {
		return mark.Message(JobNotFound, "Job is not found")
	}

	return nil
}
