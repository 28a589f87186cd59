package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"streamscout/internal/media"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230")).Background(lipgloss.Color("62")).Padding(0, 1)
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("105"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	typeStyle    = lipgloss.NewStyle().Faint(true)
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	faintStyle   = lipgloss.NewStyle().Faint(true)
)

// Printer writes human-readable results. Styling is applied only when the
// destination is a terminal.
type Printer struct {
	w      io.Writer
	styled bool
}

// NewPrinter returns a printer for f, styled when f is a terminal.
func NewPrinter(f *os.File) *Printer {
	return &Printer{w: f, styled: term.IsTerminal(int(f.Fd()))}
}

// NewPlainPrinter returns a printer that never emits escape codes.
func NewPlainPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

func (p *Printer) render(s lipgloss.Style, text string) string {
	if !p.styled {
		return text
	}
	return s.Render(text)
}

// Result prints sources and subtitles under a title line. A result carrying
// an error prints only the error.
func (p *Printer) Result(title string, res media.ExtractionResult) {
	fmt.Fprintln(p.w, p.render(titleStyle, title))
	if res.HasError() {
		p.Error(res.ErrorString())
		return
	}
	p.Sources(res.Sources)
	p.Subtitles(res.Subtitles)
}

// Sources prints a numbered source list.
func (p *Printer) Sources(sources []media.SourceRecord) {
	fmt.Fprintln(p.w, p.render(headingStyle, fmt.Sprintf("Sources (%d)", len(sources))))
	if len(sources) == 0 {
		fmt.Fprintln(p.w, "  "+p.render(faintStyle, "none found"))
		return
	}
	for i, s := range sources {
		fmt.Fprintf(p.w, "  %d. %s %s  %s\n", i+1,
			p.render(labelStyle, "["+s.Label+"]"),
			p.render(typeStyle, string(s.Type)),
			s.URL)
	}
}

// Subtitles prints a numbered subtitle list. Nothing is printed for none.
func (p *Printer) Subtitles(subs []media.SubtitleRecord) {
	if len(subs) == 0 {
		return
	}
	fmt.Fprintln(p.w, p.render(headingStyle, fmt.Sprintf("Subtitles (%d)", len(subs))))
	for i, s := range subs {
		fmt.Fprintf(p.w, "  %d. %s  %s\n", i+1, p.render(labelStyle, s.Label), s.URL)
	}
}

// Lines prints a heading followed by one indented line per item.
func (p *Printer) Lines(heading string, lines []string) {
	fmt.Fprintln(p.w, p.render(headingStyle, heading))
	for _, l := range lines {
		fmt.Fprintln(p.w, "  "+l)
	}
}

// Error prints an error message.
func (p *Printer) Error(msg string) {
	fmt.Fprintln(p.w, p.render(errorStyle, "error: "+msg))
}
