package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// JobRecord is a stored job document.
type JobRecord struct {
	ID         string
	Project    string
	Status     string
	Strategy   string
	SpecJSON   string
	ResultJSON string
	Warnings   []string
	Error      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ProjectRecord is a stored project document.
type ProjectRecord struct {
	Name              string
	RepoURL           string
	LastSuccessfulJob string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// LogEntry is one stored progress line for a job.
type LogEntry struct {
	JobID    string
	Seq      int
	Stage    string
	Message  string
	LoggedAt time.Time
}

// Store performs database operations on jobs and projects.
type Store struct {
	db *sql.DB
}

// CreateJob inserts a new job record.
func (s *Store) CreateJob(ctx context.Context, id, project, status, specJSON string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO jobs (id, project, status, spec_json) VALUES (?, ?, ?, ?)",
		id, project, status, specJSON)
	if err != nil {
		return fmt.Errorf("failed to create job %s: %w", id, err)
	}
	return nil
}

// UpdateJobStatus moves a job to a new status.
func (s *Store) UpdateJobStatus(ctx context.Context, id, status string) error {
	return s.updateJob(ctx, id, "status = ?", status)
}

// SetJobStrategy records which generation strategy produced the result.
func (s *Store) SetJobStrategy(ctx context.Context, id, strategy string) error {
	return s.updateJob(ctx, id, "strategy = ?", strategy)
}

// FinishJob records the terminal state of a job in one update: status,
// result document, accumulated warnings, and error message if any.
func (s *Store) FinishJob(ctx context.Context, id, status, resultJSON string, warnings []string, errMsg string) error {
	if warnings == nil {
		warnings = []string{}
	}
	warningsJSON, err := json.Marshal(warnings)
	if err != nil {
		return fmt.Errorf("failed to encode warnings: %w", err)
	}
	result, err := s.db.ExecContext(ctx,
		"UPDATE jobs SET status = ?, result_json = ?, warnings = ?, error = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		status, resultJSON, string(warningsJSON), errMsg, id)
	if err != nil {
		return fmt.Errorf("failed to finish job %s: %w", id, err)
	}
	return requireRow(result, id)
}

func (s *Store) updateJob(ctx context.Context, id, setClause string, value any) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE jobs SET "+setClause+", updated_at = CURRENT_TIMESTAMP WHERE id = ?", value, id)
	if err != nil {
		return fmt.Errorf("failed to update job %s: %w", id, err)
	}
	return requireRow(result, id)
}

func requireRow(result sql.Result, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update of job %s: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("job %s not found", id)
	}
	return nil
}

// GetJob loads one job.
func (s *Store) GetJob(ctx context.Context, id string) (*JobRecord, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, project, status, strategy, spec_json, result_json, warnings, error, created_at, updated_at FROM jobs WHERE id = ?", id)

	var rec JobRecord
	var warningsJSON string
	err := row.Scan(&rec.ID, &rec.Project, &rec.Status, &rec.Strategy, &rec.SpecJSON,
		&rec.ResultJSON, &warningsJSON, &rec.Error, &rec.CreatedAt, &rec.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("job %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load job %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(warningsJSON), &rec.Warnings); err != nil {
		return nil, fmt.Errorf("failed to decode warnings for job %s: %w", id, err)
	}
	return &rec, nil
}

// ListJobs returns the jobs for one project, newest first.
func (s *Store) ListJobs(ctx context.Context, project string) ([]JobRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, project, status, strategy, spec_json, result_json, warnings, error, created_at, updated_at FROM jobs WHERE project = ? ORDER BY created_at DESC", project)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs for %s: %w", project, err)
	}
	defer func() { _ = rows.Close() }()

	var jobs []JobRecord
	for rows.Next() {
		var rec JobRecord
		var warningsJSON string
		if err := rows.Scan(&rec.ID, &rec.Project, &rec.Status, &rec.Strategy, &rec.SpecJSON,
			&rec.ResultJSON, &warningsJSON, &rec.Error, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan job row: %w", err)
		}
		if err := json.Unmarshal([]byte(warningsJSON), &rec.Warnings); err != nil {
			return nil, fmt.Errorf("failed to decode warnings: %w", err)
		}
		jobs = append(jobs, rec)
	}
	return jobs, rows.Err()
}

// AppendJobLog stores one progress line. Sequence numbers come from
// the event publisher and are unique per job.
func (s *Store) AppendJobLog(ctx context.Context, jobID string, seq int, stage, message string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO job_logs (job_id, seq, stage, message) VALUES (?, ?, ?, ?)",
		jobID, seq, stage, message)
	if err != nil {
		return fmt.Errorf("failed to append log for job %s: %w", jobID, err)
	}
	return nil
}

// JobLogs returns a job's progress lines in sequence order.
func (s *Store) JobLogs(ctx context.Context, jobID string) ([]LogEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT job_id, seq, stage, message, logged_at FROM job_logs WHERE job_id = ? ORDER BY seq", jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to load logs for job %s: %w", jobID, err)
	}
	defer func() { _ = rows.Close() }()

	var entries []LogEntry
	for rows.Next() {
		var entry LogEntry
		if err := rows.Scan(&entry.JobID, &entry.Seq, &entry.Stage, &entry.Message, &entry.LoggedAt); err != nil {
			return nil, fmt.Errorf("failed to scan log row: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// UpsertProject creates the project if missing and bumps its updated
// timestamp either way.
func (s *Store) UpsertProject(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (name) VALUES (?)
		ON CONFLICT(name) DO UPDATE SET updated_at = CURRENT_TIMESTAMP`, name)
	if err != nil {
		return fmt.Errorf("failed to upsert project %s: %w", name, err)
	}
	return nil
}

// SetProjectRepo records the project's canonical repository URL.
func (s *Store) SetProjectRepo(ctx context.Context, name, repoURL string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE projects SET repo_url = ?, updated_at = CURRENT_TIMESTAMP WHERE name = ?", repoURL, name)
	if err != nil {
		return fmt.Errorf("failed to set repo for project %s: %w", name, err)
	}
	return nil
}

// RecordProjectSuccess points the project at its most recent
// successful job.
func (s *Store) RecordProjectSuccess(ctx context.Context, name, jobID string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE projects SET last_successful_job = ?, updated_at = CURRENT_TIMESTAMP WHERE name = ?", jobID, name)
	if err != nil {
		return fmt.Errorf("failed to record success for project %s: %w", name, err)
	}
	return nil
}

// GetProject loads one project.
func (s *Store) GetProject(ctx context.Context, name string) (*ProjectRecord, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT name, repo_url, last_successful_job, created_at, updated_at FROM projects WHERE name = ?", name)

	var rec ProjectRecord
	err := row.Scan(&rec.Name, &rec.RepoURL, &rec.LastSuccessfulJob, &rec.CreatedAt, &rec.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("project %s not found", name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load project %s: %w", name, err)
	}
	return &rec, nil
}
