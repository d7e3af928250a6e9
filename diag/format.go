package diag

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	colorReset  = "\x1b[0m"
	colorBold   = "\x1b[1m"
	colorRed    = "\x1b[31m"
	colorYellow = "\x1b[33m"
	colorCyan   = "\x1b[36m"
)

// Printer writes diagnostics either as "path:line:col: severity: message"
// text with an optional source excerpt, or as one JSON object per line.
type Printer struct {
	w       io.Writer
	JSON    bool
	Color   bool
	Context bool
}

// NewPrinter returns a printer for f configured from the environment:
// GEN_JSON_DIAG=1 selects JSON lines, and colour is used only when f is a
// terminal and NO_COLOR is unset.
func NewPrinter(f *os.File) *Printer {
	p := &Printer{w: f, Context: true}
	if os.Getenv("GEN_JSON_DIAG") == "1" {
		p.JSON = true
		p.Context = false
		return p
	}
	if os.Getenv("NO_COLOR") == "" && isTerminal(f.Fd()) {
		p.Color = true
	}
	return p
}

// NewTextPrinter returns a plain text printer writing to w.
func NewTextPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// NewJSONPrinter returns a JSON lines printer writing to w.
func NewJSONPrinter(w io.Writer) *Printer {
	return &Printer{w: w, JSON: true}
}

type jsonDiagnostic struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	Col      int    `json:"col"`
	EndLine  int    `json:"end_line"`
	EndCol   int    `json:"end_col"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// Print writes a single diagnostic.
func (p *Printer) Print(d *Diagnostic) error {
	if p.JSON {
		pos := d.Span.Pos()
		msg := d.Message
		if len(d.Notes) > 0 {
			msg += "\n" + strings.Join(d.Notes, "\n")
		}
		data, err := json.Marshal(jsonDiagnostic{
			File:     pos.File,
			Line:     pos.Line,
			Col:      pos.Col,
			EndLine:  pos.EndLine,
			EndCol:   pos.EndCol,
			Severity: string(d.Severity),
			Message:  msg,
		})
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(p.w, "%s\n", data)
		return err
	}

	var b strings.Builder
	if d.Span.IsValid() {
		b.WriteString(p.paint(colorBold, d.Span.Pos().String()+":"))
		b.WriteByte(' ')
	}
	b.WriteString(p.paint(severityColor(d.Severity), string(d.Severity)+":"))
	b.WriteByte(' ')
	b.WriteString(d.Message)
	b.WriteByte('\n')
	if p.Context && d.Span.IsValid() {
		p.writeExcerpt(&b, d)
	}
	for _, note := range d.Notes {
		fmt.Fprintf(&b, "\t%s %s\n", p.paint(colorCyan, "note:"), note)
	}
	_, err := io.WriteString(p.w, b.String())
	return err
}

// PrintAll writes every diagnostic of the sink.
func (p *Printer) PrintAll(s *Sink) error {
	for _, d := range s.All() {
		if err := p.Print(d); err != nil {
			return err
		}
	}
	return nil
}

func (p *Printer) writeExcerpt(b *strings.Builder, d *Diagnostic) {
	pos := d.Span.Pos()
	line := d.Span.Source().LineText(pos.Line)
	if line == "" {
		return
	}
	width := 1
	if pos.EndLine == pos.Line && pos.EndCol > pos.Col {
		width = pos.EndCol - pos.Col
	}
	var pad strings.Builder
	for i := 0; i < pos.Col-1 && i < len(line); i++ {
		if line[i] == '\t' {
			pad.WriteByte('\t')
		} else {
			pad.WriteByte(' ')
		}
	}
	marker := "^" + strings.Repeat("~", width-1)
	fmt.Fprintf(b, "%5d | %s\n      | %s%s\n", pos.Line, line, pad.String(), p.paint(severityColor(d.Severity), marker))
}

func (p *Printer) paint(color, text string) string {
	if !p.Color || color == "" {
		return text
	}
	return color + text + colorReset
}

func severityColor(s Severity) string {
	switch s {
	case SeverityError:
		return colorRed
	case SeverityWarning:
		return colorYellow
	case SeverityNote:
		return colorCyan
	}
	return ""
}
