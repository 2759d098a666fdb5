// Package report renders validation results for the console.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/sawpanic/tickgate/internal/ingest"
	"github.com/sawpanic/tickgate/internal/tick"
)

// Format selects the output style
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

// Writer prints one line per result and a closing summary
type Writer struct {
	out    io.Writer
	format Format
	tiers  map[tick.Quality]*color.Color
	dim    *color.Color
}

// New creates a writer. Colors are used only when out is a terminal.
func New(out io.Writer, format Format) *Writer {
	return NewWithColor(out, format, isTerminal(out))
}

// NewWithColor creates a writer with colors forced on or off
func NewWithColor(out io.Writer, format Format, useColor bool) *Writer {
	w := &Writer{
		out:    out,
		format: format,
		tiers: map[tick.Quality]*color.Color{
			tick.QualityVerified: color.New(color.FgGreen),
			tick.QualitySuspect:  color.New(color.FgYellow),
			tick.QualityRejected: color.New(color.FgRed, color.Bold),
		},
		dim: color.New(color.Faint),
	}
	for _, c := range append(tierColors(w.tiers), w.dim) {
		if useColor {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return w
}

func tierColors(m map[tick.Quality]*color.Color) []*color.Color {
	out := make([]*color.Color, 0, len(m))
	for _, c := range m {
		out = append(out, c)
	}
	return out
}

func isTerminal(out io.Writer) bool {
	f, ok := out.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Header prints the column header in table mode
func (w *Writer) Header() error {
	if w.format == FormatJSON {
		return nil
	}
	_, err := fmt.Fprintf(w.out, "%-6s %-10s %-10s %s\n%s\n", "SYM", "PRICE", "QUAL", "NOTES", strings.Repeat("-", 60))
	return err
}

type jsonRow struct {
	Raw    tick.Raw      `json:"raw"`
	Result ingest.Result `json:"result"`
}

// Result prints one processed record
func (w *Writer) Result(raw tick.Raw, res ingest.Result) error {
	if w.format == FormatJSON {
		return json.NewEncoder(w.out).Encode(jsonRow{Raw: raw, Result: res})
	}

	symbol := display(raw[tick.FieldSymbol])
	if res.Tick != nil {
		symbol = res.Tick.Symbol
	}

	qual := fmt.Sprintf("%-10s", res.Quality)
	if c, ok := w.tiers[res.Quality]; ok {
		qual = c.Sprint(qual)
	}

	_, err := fmt.Fprintf(w.out, "%-6s %-10s %s %s\n", symbol, display(raw[tick.FieldPrice]), qual, w.notes(res))
	return err
}

func (w *Writer) notes(res ingest.Result) string {
	parts := make([]string, 0, len(res.Violations)+len(res.Advisories))
	for _, v := range res.Violations {
		parts = append(parts, fmt.Sprintf("%s: %s", v.Rule, v.Message))
	}
	for _, a := range res.Advisories {
		parts = append(parts, w.dim.Sprint(a.Message))
	}
	if len(parts) == 0 {
		return "OK"
	}
	return strings.Join(parts, "; ")
}

func display(v interface{}) string {
	if v == nil {
		return "N/A"
	}
	s := fmt.Sprint(v)
	if len(s) > 10 {
		return s[:9] + "~"
	}
	return s
}

// Summary prints the statistics snapshot
func (w *Writer) Summary(stats ingest.Statistics) error {
	if w.format == FormatJSON {
		return json.NewEncoder(w.out).Encode(map[string]interface{}{"statistics": stats.Map()})
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\nprocessed %d records\n", stats.TotalProcessed)
	for _, q := range tick.Qualities {
		label := fmt.Sprintf("%-10s", q)
		if c, ok := w.tiers[q]; ok {
			label = c.Sprint(label)
		}
		fmt.Fprintf(&b, "  %s %d\n", label, stats.Count(q))
	}

	if len(stats.RuleViolations) > 0 {
		rules := make([]string, 0, len(stats.RuleViolations))
		for r := range stats.RuleViolations {
			rules = append(rules, r)
		}
		sort.Strings(rules)
		b.WriteString("violations by rule\n")
		for _, r := range rules {
			fmt.Fprintf(&b, "  %-32s %d\n", r, stats.RuleViolations[r])
		}
	}

	fmt.Fprintf(&b, "sequence gaps %d, dead-letter queue %d\n", stats.SequenceGaps, stats.DeadLetters)
	_, err := io.WriteString(w.out, b.String())
	return err
}
