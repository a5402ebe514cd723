package reporting

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ethereum-optimism/infra/procbench/types"
)

// Separator is placed between CSV fields.
const Separator = ", "

// Header names the columns of the summary log, in row order.
var Header = []string{
	"Average total processor time (s)",
	"Standard deviation of total processor time (s)",
	"Average peak working set (kb)",
	"Standard deviation of peak working set (kb)",
	"Average peak page file usage (kb)",
	"Standard deviation of peak page file usage (kb)",
	"Run ID",
}

// SummarySink persists batch summaries.
type SummarySink interface {
	Name() string
	AppendSummary(ctx context.Context, summary *types.BatchSummary) error
}

var _ SummarySink = (*CSVWriter)(nil)

// CSVWriter appends batch summaries to an append-only CSV log. It assumes a
// single writer per file.
type CSVWriter struct {
	path string
}

// NewCSVWriter creates a writer for the log at path.
func NewCSVWriter(path string) *CSVWriter {
	return &CSVWriter{path: path}
}

func (w *CSVWriter) Name() string {
	return "csv:" + w.path
}

func (w *CSVWriter) AppendSummary(_ context.Context, summary *types.BatchSummary) error {
	return AppendSummary(w.path, summary)
}

// AppendSummary appends one row for summary to the log at path. When the
// file does not exist yet it is created and the header is written first.
// Existing content is never rewritten.
func AppendSummary(path string, summary *types.BatchSummary) (err error) {
	if summary == nil {
		return errors.New("summary cannot be nil")
	}

	f, created, err := openForAppend(path)
	if err != nil {
		return fmt.Errorf("failed to open results file %q: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close results file %q: %w", path, cerr)
		}
	}()

	var b strings.Builder
	if created {
		b.WriteString(strings.Join(Header, Separator))
		b.WriteByte('\n')
	}
	b.WriteString(FormatRow(summary))
	b.WriteByte('\n')

	if _, err := f.WriteString(b.String()); err != nil {
		return fmt.Errorf("failed to append to results file %q: %w", path, err)
	}
	return nil
}

// openForAppend opens path for appending and reports whether this call
// created the file.
func openForAppend(path string) (*os.File, bool, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE|os.O_EXCL, 0o644)
	if err == nil {
		return f, true, nil
	}
	if !errors.Is(err, os.ErrExist) {
		return nil, false, err
	}
	f, err = os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, false, err
	}
	return f, false, nil
}

// FormatRow renders the data row of summary, without a line terminator.
func FormatRow(summary *types.BatchSummary) string {
	fields := []string{
		formatFloat(summary.MeanCPU),
		formatFloat(summary.StddevCPU),
		formatFloat(summary.MeanWSS),
		formatFloat(summary.StddevWSS),
		formatFloat(summary.MeanPF),
		formatFloat(summary.StddevPF),
		summary.RunID,
	}
	return strings.Join(fields, Separator)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
