package persistence

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	require.NoError(t, Reset())
	require.NoError(t, Initialize(filepath.Join(t.TempDir(), "test.db")))
	t.Cleanup(func() { _ = Reset() })
	return NewStore()
}

func TestJobLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertProject(ctx, "notes"))
	require.NoError(t, store.CreateJob(ctx, "job-1", "notes", "pending", `{"nodes":[]}`))
	require.NoError(t, store.UpdateJobStatus(ctx, "job-1", "running"))
	require.NoError(t, store.SetJobStrategy(ctx, "job-1", "constrained"))
	require.NoError(t, store.FinishJob(ctx, "job-1", "completed_with_warnings",
		`{"files":3}`, []string{"deploy trigger failed"}, ""))

	job, err := store.GetJob(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, "completed_with_warnings", job.Status)
	assert.Equal(t, "constrained", job.Strategy)
	assert.Equal(t, []string{"deploy trigger failed"}, job.Warnings)
	assert.Empty(t, job.Error)
}

func TestUpdateMissingJobFails(t *testing.T) {
	store := newTestStore(t)
	err := store.UpdateJobStatus(context.Background(), "nope", "running")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestJobLogsOrderedBySequence(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertProject(ctx, "notes"))
	require.NoError(t, store.CreateJob(ctx, "job-1", "notes", "pending", ""))
	require.NoError(t, store.AppendJobLog(ctx, "job-1", 1, "translate", "translated 3 components"))
	require.NoError(t, store.AppendJobLog(ctx, "job-1", 2, "critique", "no blocking issues"))

	entries, err := store.JobLogs(ctx, "job-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "translate", entries[0].Stage)
	assert.Equal(t, 2, entries[1].Seq)
}

func TestProjectRepoAndSuccessTracking(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertProject(ctx, "notes"))
	require.NoError(t, store.SetProjectRepo(ctx, "notes", "https://github.com/acme/notes.git"))
	require.NoError(t, store.RecordProjectSuccess(ctx, "notes", "job-9"))

	project, err := store.GetProject(ctx, "notes")
	require.NoError(t, err)
	assert.Equal(t, "https://github.com/acme/notes.git", project.RepoURL)
	assert.Equal(t, "job-9", project.LastSuccessfulJob)

	// Upsert on an existing project keeps its data.
	require.NoError(t, store.UpsertProject(ctx, "notes"))
	again, err := store.GetProject(ctx, "notes")
	require.NoError(t, err)
	assert.Equal(t, project.RepoURL, again.RepoURL)
}

func TestListJobsNewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertProject(ctx, "notes"))
	require.NoError(t, store.CreateJob(ctx, "job-a", "notes", "pending", ""))
	require.NoError(t, store.CreateJob(ctx, "job-b", "notes", "pending", ""))

	jobs, err := store.ListJobs(ctx, "notes")
	require.NoError(t, err)
	require.Len(t, jobs, 2)
}
