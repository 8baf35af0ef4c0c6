// Package report summarizes a pipeline run.
package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/lehigh-university-libraries/booklist/internal/fsutil"
	"gopkg.in/yaml.v3"
)

// FileName is the report written into an issue's meta directory
const FileName = "report.yaml"

// CategoryStats counts what happened to the rows of one category
type CategoryStats struct {
	Name      string         `yaml:"name"`
	Heading   string         `yaml:"heading,omitempty"`
	Rows      int            `yaml:"rows"`
	Malformed int            `yaml:"malformed"`
	Skipped   map[string]int `yaml:"skipped,omitempty"` // by dedupe reason
	Failed    int            `yaml:"failed"`
	Written   int            `yaml:"written"`
	Error     string         `yaml:"error,omitempty"`
}

// SkippedTotal sums the skipped rows over all reasons
func (c CategoryStats) SkippedTotal() int {
	total := 0
	for _, n := range c.Skipped {
		total += n
	}
	return total
}

// CacheStats mirrors the catalog service counters
type CacheStats struct {
	Hits   int64 `yaml:"hits"`
	Misses int64 `yaml:"misses"`
}

// FailureStats counts the failure log entries
type FailureStats struct {
	Data  int `yaml:"data"`
	Cover int `yaml:"cover"`
}

// Report is the summary of one run
type Report struct {
	RunID      string          `yaml:"runid"`
	Command    string          `yaml:"command"`
	Issue      string          `yaml:"issue"`
	Timestamp  string          `yaml:"timestamp"`
	Duration   string          `yaml:"duration,omitempty"`
	Categories []CategoryStats `yaml:"categories"`
	Cache      CacheStats      `yaml:"cache"`
	Failures   FailureStats    `yaml:"failures"`
}

// New starts a report for a run of command on issue
func New(command, issue string, started time.Time) *Report {
	return &Report{
		RunID:      uuid.NewString(),
		Command:    command,
		Issue:      issue,
		Timestamp:  started.Format(time.RFC3339),
		Categories: []CategoryStats{},
	}
}

// Save writes the report as YAML
func (r *Report) Save(path string) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if err := fsutil.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// Load reads a saved report
func Load(data []byte) (*Report, error) {
	var r Report
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return &r, nil
}

// Render writes the per-category numbers as a table
func (r *Report) Render(w io.Writer) error {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle(fmt.Sprintf("%s %s", r.Command, r.Issue))
	tw.AppendHeader(table.Row{"Category", "Rows", "Malformed", "Skipped", "Failed", "Written", "Status"})

	var totals CategoryStats
	for _, c := range r.Categories {
		status := "ok"
		if c.Error != "" {
			status = "error"
		}
		tw.AppendRow(table.Row{c.Name, c.Rows, c.Malformed, skippedCell(c.Skipped), c.Failed, c.Written, status})

		totals.Rows += c.Rows
		totals.Malformed += c.Malformed
		totals.Failed += c.Failed
		totals.Written += c.Written
		for reason, n := range c.Skipped {
			if totals.Skipped == nil {
				totals.Skipped = make(map[string]int)
			}
			totals.Skipped[reason] += n
		}
	}

	tw.AppendFooter(table.Row{"total", totals.Rows, totals.Malformed, totals.SkippedTotal(), totals.Failed, totals.Written,
		fmt.Sprintf("cache %d/%d", r.Cache.Hits, r.Cache.Hits+r.Cache.Misses)})

	configs := []table.ColumnConfig{{Number: 1, Align: text.AlignLeft}}
	for i := 2; i <= 6; i++ {
		configs = append(configs, table.ColumnConfig{Number: i, Align: text.AlignRight, AlignHeader: text.AlignLeft})
	}
	tw.SetColumnConfigs(configs)

	_, err := fmt.Fprintln(w, tw.Render())
	return err
}

func skippedCell(skipped map[string]int) string {
	if len(skipped) == 0 {
		return "0"
	}

	reasons := make([]string, 0, len(skipped))
	for reason := range skipped {
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)

	total := 0
	for _, n := range skipped {
		total += n
	}

	cell := strconv.Itoa(total) + " ("
	for i, reason := range reasons {
		if i > 0 {
			cell += ", "
		}
		cell += fmt.Sprintf("%s %d", reason, skipped[reason])
	}
	return cell + ")"
}
