// Package render prints mix analysis reports for people and for machines.
package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/muesli/termenv"

	"github.com/RyanBlaney/sonido-mix/algorithms/common"
	"github.com/RyanBlaney/sonido-mix/mixfit/config"
	"github.com/RyanBlaney/sonido-mix/mixfit/model"
	"github.com/RyanBlaney/sonido-mix/store"
)

// Options controls text rendering.
type Options struct {
	// Bands labels the band columns. Index labels are used when it does not
	// match the report's band count.
	Bands []config.Band

	// NoColor strips all styling, even on a terminal.
	NoColor bool

	// Now is used for relative timestamps; time.Now when zero.
	Now time.Time
}

// Theme is the report colour scheme.
type Theme struct {
	Primary lipgloss.Color
	Warn    lipgloss.Color
	Dim     lipgloss.Color
}

// DefaultTheme matches the CLI accent colours.
var DefaultTheme = Theme{
	Primary: lipgloss.Color("#00ff9f"),
	Warn:    lipgloss.Color("#ffb86c"),
	Dim:     lipgloss.Color("#6e7681"),
}

type styles struct {
	title  lipgloss.Style
	label  lipgloss.Style
	border lipgloss.Style
	warn   lipgloss.Style
	dim    lipgloss.Style
	cell   lipgloss.Style
}

func newStyles(r *lipgloss.Renderer, t Theme) styles {
	return styles{
		title:  r.NewStyle().Bold(true).Foreground(t.Primary),
		label:  r.NewStyle().Bold(true).Foreground(t.Primary),
		border: r.NewStyle().Foreground(t.Dim),
		warn:   r.NewStyle().Foreground(t.Warn),
		dim:    r.NewStyle().Foreground(t.Dim),
		cell:   r.NewStyle().Padding(0, 1),
	}
}

// Text writes a human-readable report: the mix profile, then every stem's
// features, band energies and suggestions, then any failed stems.
func Text(w io.Writer, report *model.Report, opts Options) error {
	r := lipgloss.NewRenderer(w)
	if opts.NoColor {
		r.SetColorProfile(termenv.Ascii)
	}
	s := newStyles(r, DefaultTheme)

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	labels := bandLabels(opts.Bands, len(report.MixProfile))

	var b strings.Builder

	b.WriteString(s.title.Render("Mix analysis: " + report.SourceFileName))
	b.WriteString("\n")
	if report.ID != "" {
		meta := "report " + report.ID
		if !report.CreatedAt.IsZero() {
			meta += ", " + humanize.RelTime(report.CreatedAt, now, "ago", "from now")
		}
		b.WriteString(s.dim.Render(meta))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(s.label.Render("Estimated mix profile"))
	b.WriteString("\n")
	b.WriteString(energyTable(s, labels, report.MixProfile))
	b.WriteString("\n\n")

	for _, stem := range report.Stems {
		writeStem(&b, s, labels, stem)
	}

	if len(report.Failures) > 0 {
		b.WriteString(s.warn.Render(fmt.Sprintf("%d stem(s) failed", len(report.Failures))))
		b.WriteString("\n")
		for _, f := range report.Failures {
			fmt.Fprintf(&b, "  %s: %s\n", f.Name, f.Error)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "%s across %s\n",
		plural(report.SuggestionCount(), "suggestion"),
		plural(len(report.Stems), "stem"))

	_, err := io.WriteString(w, b.String())
	return err
}

func writeStem(b *strings.Builder, s styles, labels []string, stem model.StemResult) {
	a := stem.Analysis

	b.WriteString(s.label.Render(stem.Name))
	b.WriteString(s.dim.Render(" [" + string(stem.Role) + "]"))
	b.WriteString("\n")

	fmt.Fprintf(b, "  centroid %s  rolloff %s  rms %.4f\n",
		formatHz(a.Centroid), formatHz(a.Rolloff), a.RMS)

	b.WriteString(energyTable(s, labels, a.BandEnergies))
	b.WriteString("\n")

	if len(stem.Suggestions) == 0 {
		b.WriteString(s.dim.Render("  no suggestions"))
		b.WriteString("\n\n")
		return
	}

	for _, sg := range stem.Suggestions {
		b.WriteString("  ")
		b.WriteString(s.warn.Render(fmt.Sprintf("%-6s", sg.Kind.String())))
		fmt.Fprintf(b, " %5d Hz", sg.FrequencyHz)
		if sg.Q != nil {
			fmt.Fprintf(b, "  Q %.1f", *sg.Q)
		}
		if sg.GainDB != nil {
			fmt.Fprintf(b, "  %+.1f dB", *sg.GainDB)
		}
		b.WriteString("  " + sg.Reason + "\n")
	}
	b.WriteString("\n")
}

// energyTable renders one row of band energies in dB under the band labels.
func energyTable(s styles, labels []string, energies []float64) string {
	row := make([]string, len(labels))
	for i := range labels {
		if i < len(energies) {
			row[i] = fmt.Sprintf("%.1f dB", common.PowerToDB(energies[i]))
		}
	}

	return newTable(s).Headers(labels...).Row(row...).String()
}

// History writes the report history as a table, newest first.
func History(w io.Writer, summaries []store.ReportSummary, opts Options) error {
	r := lipgloss.NewRenderer(w)
	if opts.NoColor {
		r.SetColorProfile(termenv.Ascii)
	}
	s := newStyles(r, DefaultTheme)

	if len(summaries) == 0 {
		_, err := io.WriteString(w, s.dim.Render("no reports yet")+"\n")
		return err
	}

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	t := newTable(s).Headers("id", "mix", "created", "stems", "suggestions")

	for _, sum := range summaries {
		t.Row(sum.ID, sum.MixFile,
			humanize.RelTime(sum.CreatedAt, now, "ago", "from now"),
			humanize.Comma(int64(sum.Stems)),
			humanize.Comma(int64(sum.Suggestions)))
	}

	_, err := io.WriteString(w, t.String()+"\n")
	return err
}

func newTable(s styles) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(s.border).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return s.cell.Bold(true)
			}
			return s.cell
		})
}

func bandLabels(bands []config.Band, n int) []string {
	labels := make([]string, n)
	for i := range labels {
		if len(bands) == n {
			labels[i] = bands[i].Label()
		} else {
			labels[i] = fmt.Sprintf("band %d", i+1)
		}
	}
	return labels
}

func formatHz(hz float64) string {
	if hz < 1000 {
		return fmt.Sprintf("%.0f Hz", hz)
	}
	return humanize.SIWithDigits(hz, 2, "Hz")
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return humanize.Comma(int64(n)) + " " + word + "s"
}
