package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/apled/internal/discovery"
	"github.com/muurk/apled/internal/render"
)

// Detail is one key/value row in a panel. Rows render in slice order.
type Detail struct {
	Key   string
	Value string
}

// Panel is a bordered box with a title line and detail rows.
type Panel struct {
	Title    string
	Subtitle string
	Details  []Detail
	Border   lipgloss.Color
	Width    int
}

// Render returns the styled panel.
func (p *Panel) Render() string {
	width := p.Width
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}

	lines := []string{TitleStyle.Render(p.Title)}
	if p.Subtitle != "" {
		lines = append(lines, SubtitleStyle.Render(p.Subtitle))
	}
	if len(p.Details) > 0 {
		lines = append(lines, RenderHorizontalDivider(width-6))
		for _, d := range p.Details {
			lines = append(lines, KeyStyle.Render(d.Key+":")+" "+ValueStyle.Render(d.Value))
		}
	}

	border := p.Border
	if border == "" {
		border = PrimaryColor
	}
	return BoxStyle(width, border).Render(strings.Join(lines, "\n"))
}

// Plain renders the panel without styling, one "key: value" per line.
func (p *Panel) Plain() string {
	var b strings.Builder
	b.WriteString(p.Title)
	b.WriteByte('\n')
	for _, d := range p.Details {
		fmt.Fprintf(&b, "%s: %s\n", d.Key, d.Value)
	}
	return b.String()
}

// StatusDetails lists the status document fields in document order.
func StatusDetails(doc *render.StatusDocument) []Detail {
	return []Detail{
		{"LED", LEDBadge(doc.LEDState)},
		{"Uptime", FormatUptime(doc.Uptime)},
		{"Free heap", FormatBytes(doc.FreeHeap)},
		{"Min free heap", FormatBytes(doc.MinFreeHeap)},
		{"Chip", doc.ChipModel},
		{"Cores", fmt.Sprintf("%d", doc.Cores)},
		{"Features", doc.Features},
	}
}

// StatusPanel builds the panel shown by apled-ctl status.
func StatusPanel(addr string, doc *render.StatusDocument, width int) *Panel {
	return &Panel{
		Title:    "apled device",
		Subtitle: addr,
		Details:  StatusDetails(doc),
		Width:    width,
	}
}

// StatePanel builds the panel shown after on, off or toggle.
func StatePanel(action, addr string, on bool, width int) *Panel {
	border := MutedColor
	if on {
		border = SuccessColor
	}
	return &Panel{
		Title:    action,
		Subtitle: addr,
		Details:  []Detail{{"LED", LEDBadge(on)}},
		Border:   border,
		Width:    width,
	}
}

// DevicesPanel lists devices found by an mDNS scan.
func DevicesPanel(devices []*discovery.Device, width int) *Panel {
	p := &Panel{
		Title: fmt.Sprintf("Found %d device(s)", len(devices)),
		Width: width,
	}
	for _, d := range devices {
		value := d.BaseURL()
		if v := d.GetMetadata("version"); v != "" {
			value += "  (" + v + ")"
		}
		p.Details = append(p.Details, Detail{d.Instance, value})
	}
	return p
}

// RenderErrorBox renders a failure with its troubleshooting hint.
func RenderErrorBox(title string, err error, hint string, width int) string {
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}

	lines := []string{ErrorTitleStyle.Render(FailureMarker + "  " + title)}
	if err != nil {
		lines = append(lines, "", ErrorMessageStyle.Render("Error: "+err.Error()))
	}
	if hint != "" {
		lines = append(lines, "", HintStyle.Render(hint))
	}
	return BoxStyle(width, ErrorColor).Render(strings.Join(lines, "\n"))
}

// FormatUptime renders whole seconds as e.g. "2h03m07s".
func FormatUptime(seconds uint64) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm%02ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

// FormatBytes renders a byte count with a binary unit.
func FormatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for v := n / unit; v >= unit && exp < 3; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGT"[exp])
}
