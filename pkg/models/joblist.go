package models

// JobList is an insertion-ordered sequence of job snapshots, unique by ID.
// A JobList value is never modified after construction: Prepend and
// Reconcile return a new list and leave the receiver intact.
type JobList struct {
	jobs []Job
}

// NewJobList builds a list from jobs, keeping the first occurrence of each ID.
func NewJobList(jobs []Job) JobList {
	seen := make(map[string]bool, len(jobs))
	out := make([]Job, 0, len(jobs))
	for _, j := range jobs {
		if seen[j.ID] {
			continue
		}
		seen[j.ID] = true
		out = append(out, j)
	}
	return JobList{jobs: out}
}

// Prepend puts job at the front. An existing entry with the same ID is
// dropped so the list stays unique.
func (l JobList) Prepend(job Job) JobList {
	out := make([]Job, 0, len(l.jobs)+1)
	out = append(out, job)
	for _, j := range l.jobs {
		if j.ID != job.ID {
			out = append(out, j)
		}
	}
	return JobList{jobs: out}
}

// Reconcile replaces the entry with job's ID by job. Order is preserved and
// IDs not already in the list are ignored.
func (l JobList) Reconcile(job Job) JobList {
	out := make([]Job, len(l.jobs))
	for i, j := range l.jobs {
		if j.ID == job.ID {
			out[i] = job
			continue
		}
		out[i] = j
	}
	return JobList{jobs: out}
}

// Get returns the snapshot stored for id.
func (l JobList) Get(id string) (Job, bool) {
	for _, j := range l.jobs {
		if j.ID == id {
			return j, true
		}
	}
	return Job{}, false
}

// Items returns a copy of the snapshots in list order.
func (l JobList) Items() []Job {
	out := make([]Job, len(l.jobs))
	copy(out, l.jobs)
	return out
}

// IDs returns job IDs in list order.
func (l JobList) IDs() []string {
	ids := make([]string, len(l.jobs))
	for i, j := range l.jobs {
		ids[i] = j.ID
	}
	return ids
}

func (l JobList) Len() int { return len(l.jobs) }
