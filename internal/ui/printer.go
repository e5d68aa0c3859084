package ui

import (
	"fmt"
	"io"
	"os"
)

// Printer writes panels to a writer, styled when it is a terminal.
type Printer struct {
	out   io.Writer
	width int
	plain bool
}

// NewPrinter creates a Printer for w. A nil w means stdout, styled only
// when stdout is a terminal.
func NewPrinter(w io.Writer) *Printer {
	if w == nil {
		return &Printer{out: os.Stdout, width: GetTerminalWidth(), plain: !IsInteractive()}
	}
	return &Printer{out: w, width: MinTerminalWidth, plain: true}
}

// Width returns the width panels are rendered at.
func (p *Printer) Width() int {
	return p.width
}

// PrintPanel writes a panel.
func (p *Printer) PrintPanel(panel *Panel) {
	if p.plain {
		_, _ = fmt.Fprint(p.out, panel.Plain())
		return
	}
	panel.Width = p.width
	_, _ = fmt.Fprintln(p.out, panel.Render())
}

// PrintError writes a failure box, or plain lines when not styled.
func (p *Printer) PrintError(title string, err error, hint string) {
	if p.plain {
		_, _ = fmt.Fprintf(p.out, "%s: %v\n", title, err)
		if hint != "" {
			_, _ = fmt.Fprintln(p.out, hint)
		}
		return
	}
	_, _ = fmt.Fprintln(p.out, RenderErrorBox(title, err, hint, p.width))
}
