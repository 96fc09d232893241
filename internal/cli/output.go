package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/kiranshivaraju/clarus/internal/app"
	"github.com/kiranshivaraju/clarus/pkg/models"
)

const dash = "—"

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatPct renders a ratio in [0,1] as a percentage with two decimals.
func formatPct(x float64) string {
	return fmt.Sprintf("%.2f%%", x*100)
}

func formatTime(t *time.Time) string {
	if t == nil {
		return dash
	}
	return t.Local().Format("2006-01-02 15:04")
}

// formatCreated shows the unparsed value when the backend sends a layout we
// do not recognize.
func formatCreated(j models.Job) string {
	if t, ok := j.CreatedTime(); ok {
		return formatTime(&t)
	}
	if j.CreatedAt != nil && *j.CreatedAt != "" {
		return *j.CreatedAt
	}
	return dash
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return dash
	}
	return *s
}

func statusLabel(status string) string {
	if status == "" {
		return "unknown"
	}
	return status
}

func printJobsTable(w io.Writer, jobs []models.Job) {
	if len(jobs) == 0 {
		_, _ = fmt.Fprintln(w, "No jobs yet. Upload a CSV to start.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	defer func() { _ = tw.Flush() }()

	_, _ = fmt.Fprintln(tw, "JOB ID\tSTATUS\tCREATED\tFILE\tROWS\tATTACKS\tTOP CLASS")
	for _, j := range jobs {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
			j.ID,
			statusLabel(j.Status),
			formatCreated(j),
			orDash(j.OriginalFilename),
			j.Summary.TotalRows,
			j.Summary.AttackRows,
			orDash(j.Summary.TopClass),
		)
	}
}

func printJob(w io.Writer, j models.Job, jobError string) {
	_, _ = fmt.Fprintf(w, "job_id=%s\n", j.ID)
	_, _ = fmt.Fprintf(w, "status=%s\n", statusLabel(j.Status))
	if j.OriginalFilename != nil {
		_, _ = fmt.Fprintf(w, "file=%s\n", *j.OriginalFilename)
	}
	if j.CreatedAt != nil {
		_, _ = fmt.Fprintf(w, "created=%s\n", formatCreated(j))
	}
	_, _ = fmt.Fprintf(w, "rows=%d\n", j.Summary.TotalRows)
	_, _ = fmt.Fprintf(w, "attacks=%d (%s)\n", j.Summary.AttackRows, formatPct(j.Summary.AttackRatio))
	_, _ = fmt.Fprintf(w, "top_class=%s\n", orDash(j.Summary.TopClass))
	if j.Summary.TopClassShare != nil {
		_, _ = fmt.Fprintf(w, "top_class_share=%s\n", formatPct(*j.Summary.TopClassShare))
	}
	if jobError != "" {
		_, _ = fmt.Fprintf(w, "error=%s\n", jobError)
	}
}

func printSubscription(w io.Writer, sub *models.SubscriptionStatus, subErr string) {
	if subErr != "" {
		_, _ = fmt.Fprintf(w, "error=%s\n", subErr)
	}
	if sub == nil {
		_, _ = fmt.Fprintln(w, "Subscription status not available.")
		return
	}
	state := "inactive"
	if sub.HasActive {
		state = "active"
	}
	_, _ = fmt.Fprintf(w, "status=%s\n", state)
	_, _ = fmt.Fprintf(w, "remaining_days=%d\n", sub.RemainingDays)
	_, _ = fmt.Fprintf(w, "ends_at=%s\n", formatTime(sub.EndsAt))
}

// progressPrinter prints one line each time the watched job's status or
// job-level error changes.
type progressPrinter struct {
	w io.Writer

	mu       sync.Mutex
	lastLine string
}

func newProgressPrinter(w io.Writer) *progressPrinter {
	return &progressPrinter{w: w}
}

func (p *progressPrinter) Observe(s app.Snapshot) {
	if s.CurrentJob == nil || s.CurrentJob.Status == "" {
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", s.CurrentJob.ID, s.CurrentJob.Status)
	if s.JobError != "" {
		fmt.Fprintf(&b, " (%s)", s.JobError)
	}
	line := b.String()

	p.mu.Lock()
	defer p.mu.Unlock()
	if line == p.lastLine {
		return
	}
	p.lastLine = line
	_, _ = fmt.Fprintln(p.w, line)
}
