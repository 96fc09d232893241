package models_test

import (
	"testing"

	"github.com/kiranshivaraju/clarus/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func job(id, status string, rows int) models.Job {
	return models.Job{ID: id, Status: status, Summary: models.Summary{TotalRows: rows}}
}

func TestNewJobList_DropsDuplicateIDs(t *testing.T) {
	l := models.NewJobList([]models.Job{
		job("a", models.JobStatusDone, 1),
		job("b", models.JobStatusRunning, 2),
		job("a", models.JobStatusFailed, 3),
	})

	assert.Equal(t, []string{"a", "b"}, l.IDs())
	a, ok := l.Get("a")
	require.True(t, ok)
	assert.Equal(t, models.JobStatusDone, a.Status)
}

func TestPrepend_PutsNewestFirst(t *testing.T) {
	l := models.NewJobList([]models.Job{job("a", models.JobStatusDone, 1)})

	l = l.Prepend(job("b", models.JobStatusQueued, 0))

	assert.Equal(t, []string{"b", "a"}, l.IDs())
}

func TestPrepend_ExistingIDStaysUnique(t *testing.T) {
	l := models.NewJobList([]models.Job{
		job("a", models.JobStatusDone, 1),
		job("b", models.JobStatusDone, 2),
	})

	l = l.Prepend(job("b", models.JobStatusQueued, 0))

	assert.Equal(t, []string{"b", "a"}, l.IDs())
	b, _ := l.Get("b")
	assert.Equal(t, models.JobStatusQueued, b.Status)
}

func TestReconcile_ReplacesInPlace(t *testing.T) {
	l := models.NewJobList([]models.Job{
		job("a", models.JobStatusRunning, 0),
		job("b", models.JobStatusRunning, 0),
		job("c", models.JobStatusRunning, 0),
	})

	l = l.Reconcile(job("b", models.JobStatusDone, 42))

	assert.Equal(t, []string{"a", "b", "c"}, l.IDs())
	b, _ := l.Get("b")
	assert.Equal(t, models.JobStatusDone, b.Status)
	assert.Equal(t, 42, b.Summary.TotalRows)
	a, _ := l.Get("a")
	assert.Equal(t, models.JobStatusRunning, a.Status)
}

func TestReconcile_Idempotent(t *testing.T) {
	l := models.NewJobList([]models.Job{
		job("a", models.JobStatusRunning, 0),
		job("b", models.JobStatusQueued, 0),
	})
	snap := job("a", models.JobStatusDone, 7)

	once := l.Reconcile(snap)
	twice := once.Reconcile(snap)

	assert.Equal(t, once.IDs(), twice.IDs())
	assert.Equal(t, once.Items(), twice.Items())
}

func TestReconcile_UnknownIDIgnored(t *testing.T) {
	l := models.NewJobList([]models.Job{job("a", models.JobStatusRunning, 0)})

	out := l.Reconcile(job("zzz", models.JobStatusDone, 1))

	assert.Equal(t, l.Items(), out.Items())
}

func TestJobList_OperationsLeaveReceiverUntouched(t *testing.T) {
	l := models.NewJobList([]models.Job{job("a", models.JobStatusRunning, 0)})

	_ = l.Reconcile(job("a", models.JobStatusDone, 9))
	_ = l.Prepend(job("b", models.JobStatusQueued, 0))

	assert.Equal(t, []string{"a"}, l.IDs())
	a, _ := l.Get("a")
	assert.Equal(t, models.JobStatusRunning, a.Status)
}

func TestItems_ReturnsCopy(t *testing.T) {
	l := models.NewJobList([]models.Job{job("a", models.JobStatusRunning, 0)})

	items := l.Items()
	items[0].Status = models.JobStatusFailed

	a, _ := l.Get("a")
	assert.Equal(t, models.JobStatusRunning, a.Status)
}

func TestEmptyJobList(t *testing.T) {
	var l models.JobList

	assert.Equal(t, 0, l.Len())
	assert.Empty(t, l.Items())
	_, ok := l.Get("a")
	assert.False(t, ok)

	l = l.Prepend(job("a", models.JobStatusQueued, 0))
	assert.Equal(t, 1, l.Len())
}
