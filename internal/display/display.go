// Package display renders the resolution summary and final run report
// using github.com/pterm/pterm, the way the pack's arthur-debert-dodot
// repo colors CLI status output (§7, SUPPLEMENTED FEATURES).
package display

import (
	"fmt"
	"io"

	"github.com/pterm/pterm"

	"github.com/arclang/arc/internal/executor"
	"github.com/arclang/arc/internal/model"
)

// PrintResolution prints the resolved system set and, per system, the
// effective task list — unconditionally, before execution, not gated on
// --dry-run (SUPPLEMENTED FEATURES: "arc list-style dry enumeration").
func PrintResolution(w io.Writer, systems []string, effective map[string][]*model.Task) {
	pterm.DefaultSection.WithWriter(w).Println("Resolution")

	if len(systems) == 0 {
		pterm.Warning.WithWriter(w).Println("no systems matched the given filters")
		return
	}

	for _, sys := range systems {
		tasks := effective[sys]
		header := fmt.Sprintf("%s (%d task(s))", sys, len(tasks))
		pterm.Info.WithWriter(w).Println(header)

		if len(tasks) == 0 {
			continue
		}
		items := make([]pterm.BulletListItem, 0, len(tasks))
		for _, t := range tasks {
			items = append(items, pterm.BulletListItem{Level: 0, Text: t.Name})
		}
		_ = pterm.DefaultBulletList.WithWriter(w).WithItems(items).Render()
	}
}

// PrintReport renders the final per-system outcome report after a run
// completes (§7: "the run summary enumerates per-system outcomes").
func PrintReport(w io.Writer, systems []string, reg *model.Registry, effective map[string][]*model.Task, outcome executor.Outcome) {
	pterm.DefaultSection.WithWriter(w).Println("Run report")

	for _, sys := range systems {
		printSystemReport(w, sys, effective[sys])
		if outcome.Aborted && outcome.AbortedSystem == sys {
			pterm.Error.WithWriter(w).Printfln("aborted on %q: task %q failed with on_fail=abort", sys, outcome.AbortedTask)
			break
		}
	}
}

func printSystemReport(w io.Writer, sys string, tasks []*model.Task) {
	rows := [][]string{{"task", "state", "detail"}}
	for _, t := range tasks {
		detail := ""
		switch t.State {
		case model.StateFailed:
			detail = t.Err
		case model.StateSuccess:
			if !t.Result.IsNull() {
				detail = fmt.Sprintf("%v", t.Result.Native())
			}
		}
		rows = append(rows, []string{t.Name, styledState(t.State), detail})
	}

	pterm.Info.WithWriter(w).Println(sys)
	_ = pterm.DefaultTable.WithWriter(w).WithHasHeader().WithData(rows).Render()
}

func styledState(s model.TaskState) string {
	switch s {
	case model.StateSuccess:
		return pterm.FgGreen.Sprint(string(s))
	case model.StateFailed:
		return pterm.FgRed.Sprint(string(s))
	case model.StateSkipped:
		return pterm.FgYellow.Sprint(string(s))
	default:
		return string(s)
	}
}
