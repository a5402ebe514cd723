package reporting

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/acarl005/stripansi"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ethereum-optimism/infra/procbench/types"
)

// Console prints progress and results of a batch for a human reader.
type Console struct {
	out        io.Writer
	showOutput bool
	stripANSI  bool
}

// NewConsole creates a console reporter writing to out. When showOutput is
// set, the captured output of every run is echoed.
func NewConsole(out io.Writer, showOutput, stripANSI bool) *Console {
	return &Console{out: out, showOutput: showOutput, stripANSI: stripANSI}
}

// RunStarted announces a run.
func (c *Console) RunStarted(index, total int) {
	fmt.Fprintf(c.out, "Starting run number %d of %d\n", index, total)
}

// RunCompleted prints the captured output and the measurements of a run, or
// the reason it failed.
func (c *Console) RunCompleted(outcome types.RunOutcome) {
	if !outcome.Succeeded() {
		fmt.Fprintf(c.out, "Run %d failed: %s\n", outcome.Index, outcome.Reason())
		return
	}
	r := outcome.Result
	if c.showOutput {
		fmt.Fprintln(c.out, "Standard Output:")
		fmt.Fprintln(c.out, c.clean(r.Stdout))
		fmt.Fprintln(c.out, "Standard Error:")
		fmt.Fprintln(c.out, c.clean(r.Stderr))
	}
	fmt.Fprintf(c.out, "Total processor time (s): %s\n", formatFloat(r.CPUSeconds))
	fmt.Fprintf(c.out, "Peak working set (kb): %s\n", formatFloat(r.PeakWorkingSetKB))
	fmt.Fprintf(c.out, "Peak page file usage (kb): %s\n", formatFloat(r.PeakPageFileKB))
	if r.ExitCode != 0 {
		fmt.Fprintf(c.out, "Exit code: %d\n", r.ExitCode)
	}
}

func (c *Console) clean(s string) string {
	if c.stripANSI {
		s = stripansi.Strip(s)
	}
	return strings.TrimSuffix(s, "\n")
}

// BatchCompleted prints a table of all runs followed by the aggregates.
func (c *Console) BatchCompleted(result *types.BatchResult) {
	fmt.Fprintln(c.out, "\nAll runs complete.")
	c.printRunsTable(result)

	if result.Summary == nil {
		fmt.Fprintf(c.out, "No aggregate could be computed: none of the %d runs succeeded.\n", len(result.Outcomes))
		return
	}
	c.printSummaryTable(result.Summary)
}

func (c *Console) printRunsTable(result *types.BatchResult) {
	t := table.NewWriter()
	t.SetOutputMirror(c.out)
	t.SetTitle(fmt.Sprintf("Runs of batch %s (%s)", result.RunID, result.Duration.Round(time.Millisecond)))
	t.AppendHeader(table.Row{"Run", "Status", "CPU (s)", "Peak WS (kb)", "Peak PF (kb)", "Exit", "Duration", "Error"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Run", Align: text.AlignRight},
		{Name: "CPU (s)", Align: text.AlignRight},
		{Name: "Peak WS (kb)", Align: text.AlignRight},
		{Name: "Peak PF (kb)", Align: text.AlignRight},
		{Name: "Exit", Align: text.AlignRight},
		{Name: "Duration", Align: text.AlignRight},
		{Name: "Error", WidthMax: 60, WidthMaxEnforcer: text.WrapSoft},
	})

	for _, o := range result.Outcomes {
		if !o.Succeeded() {
			t.AppendRow(table.Row{o.Index, "failed", "-", "-", "-", "-", "-", o.Reason()})
			continue
		}
		r := o.Result
		t.AppendRow(table.Row{
			o.Index,
			"ok",
			strconv.FormatFloat(r.CPUSeconds, 'f', 3, 64),
			strconv.FormatFloat(r.PeakWorkingSetKB, 'f', 0, 64),
			strconv.FormatFloat(r.PeakPageFileKB, 'f', 0, 64),
			r.ExitCode,
			r.Duration.Round(time.Millisecond).String(),
			"",
		})
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d ok / %d failed", result.Succeeded, result.Failed)})
	t.Render()
}

func (c *Console) printSummaryTable(s *types.BatchSummary) {
	t := table.NewWriter()
	t.SetOutputMirror(c.out)
	t.SetTitle(fmt.Sprintf("Summary (%s)", s.RunID))
	t.AppendHeader(table.Row{"Statistic", "Value"})
	t.SetColumnConfigs([]table.ColumnConfig{{Name: "Value", Align: text.AlignRight}})

	values := []float64{s.MeanCPU, s.StddevCPU, s.MeanWSS, s.StddevWSS, s.MeanPF, s.StddevPF}
	for i, v := range values {
		t.AppendRow(table.Row{Header[i], formatFloat(v)})
	}
	t.Render()
}
