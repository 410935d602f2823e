package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/domicilios-tipovia/internal/normalize"
	"github.com/domicilios-tipovia/internal/pipeline"
)

// MaxReportedIDs caps the changed ids written into a report.
const MaxReportedIDs = 100000

// Report is the JSON record of one run, written next to the export so a run
// can be audited after the fact.
type Report struct {
	RunID        string                   `json:"run_id"`
	Target       string                   `json:"target"`
	DryRun       bool                     `json:"dry_run"`
	Status       string                   `json:"status"`
	Error        string                   `json:"error,omitempty"`
	Scanned      int                      `json:"scanned"`
	Changed      int                      `json:"changed"`
	Committed    int                      `json:"committed"`
	Batches      int                      `json:"batches"`
	Backup       *pipeline.BackupSnapshot `json:"backup,omitempty"`
	Export       *pipeline.ExportSummary  `json:"export,omitempty"`
	Preview      []normalize.MutationPlan `json:"preview,omitempty"`
	ChangedIDs   []string                 `json:"changed_ids"`
	IDsTruncated bool                     `json:"changed_ids_truncated,omitempty"`
	StartedAt    time.Time                `json:"started_at"`
	FinishedAt   time.Time                `json:"finished_at"`
	DurationMS   int64                    `json:"duration_ms"`
}

// Status values.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// FromResult builds a report for target from a run result and the error the
// run returned, if any.
func FromResult(target string, res *pipeline.Result, runErr error) *Report {
	r := &Report{Target: target, Status: StatusOK, ChangedIDs: []string{}}
	if runErr != nil {
		r.Status = StatusFailed
		r.Error = runErr.Error()
	}
	if res == nil {
		return r
	}

	r.RunID = res.RunID
	r.DryRun = res.DryRun
	r.Scanned = res.Scanned
	r.Changed = res.Changed
	r.Committed = res.Committed
	r.Batches = res.Batches
	r.Backup = res.Backup
	r.Export = res.Export
	r.Preview = res.Preview
	r.StartedAt = res.StartedAt
	r.FinishedAt = res.FinishedAt
	if !res.FinishedAt.IsZero() {
		r.DurationMS = res.FinishedAt.Sub(res.StartedAt).Milliseconds()
	}

	ids := res.ChangeSet.IDs()
	if len(ids) > MaxReportedIDs {
		ids = ids[:MaxReportedIDs]
		r.IDsTruncated = true
	}
	if ids != nil {
		r.ChangedIDs = ids
	}
	return r
}

// WriteFile writes the report as indented JSON.
func (r *Report) WriteFile(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write report %s: %w", path, err)
	}
	return nil
}
