package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/domicilios-tipovia/internal/flatfile"
	"github.com/domicilios-tipovia/internal/normalize"
	"github.com/domicilios-tipovia/internal/pipeline"
)

// printPlans renders plans as a before/after table
func printPlans(w io.Writer, plans []normalize.MutationPlan) {
	if len(plans) == 0 {
		return
	}

	table := tablewriter.NewWriter(w)
	table.Header("ID", "TIPO_VIA", "CALLE", "→ TIPO_VIA", "→ CALLE")
	for _, p := range plans {
		_ = table.Append([]string{p.ID, p.OldType, p.OldName, p.NewType, p.NewName})
	}
	_ = table.Render()
}

// printRules renders the rule table in precedence order
func printRules(w io.Writer, rules []normalize.TypeRule) {
	table := tablewriter.NewWriter(w)
	table.Header("#", "CANONICAL", "PATTERN")
	for i, r := range rules {
		_ = table.Append([]string{fmt.Sprint(i + 1), r.Canonical, r.Pattern})
	}
	_ = table.Render()
}

func printRunSummary(w io.Writer, res *pipeline.Result) {
	fmt.Fprintf(w, "Records scanned: %d\n", res.Scanned)
	if !res.DryRun {
		fmt.Fprintf(w, "Records committed: %d in %d batch(es)\n", res.Committed, res.Batches)
	}
	if res.Backup != nil {
		fmt.Fprintf(w, "%s %s (%d rows)\n", color.CyanString("Backup created:"), res.Backup.Name, res.Backup.RowCount)
	}
	if res.Export != nil {
		fmt.Fprintf(w, "%s %s (%d rows, %s)\n", color.CyanString("CSV exported:"), res.Export.Path, res.Export.Rows, res.Export.Mode)
	}

	if res.DryRun {
		fmt.Fprintln(w, color.YellowString("records changed: %d (dry-run)", res.Changed))
		fmt.Fprintln(w, color.YellowString("dry-run: nothing was written, the read snapshot was rolled back"))
		return
	}
	fmt.Fprintln(w, color.GreenString("records changed: %d", res.Changed))
}

// printRunFailure tells the user what stays committed after an aborted run
func printRunFailure(w io.Writer, res *pipeline.Result) {
	if res == nil {
		return
	}
	fmt.Fprintln(w, color.RedString("run aborted after %d records scanned", res.Scanned))
	if res.Committed > 0 {
		fmt.Fprintf(w, "%d records in %d committed batch(es) remain updated\n", res.Committed, res.Batches)
	}
	if res.Backup != nil {
		fmt.Fprintf(w, "backup table: %s\n", res.Backup.Name)
	}
}

func printFileSummary(w io.Writer, res *flatfile.Result) {
	fmt.Fprintf(w, "Rows read: %d (%s)\n", res.Rows, res.Encoding)
	fmt.Fprintf(w, "%s %s\n", color.CyanString("CSV exported:"), res.Output)
	fmt.Fprintln(w, color.GreenString("records changed: %d", res.Changed))
}
