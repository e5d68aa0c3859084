// Package ui renders apled-ctl output with Lipgloss and runs the Bubble Tea
// watch view.
//
// One-shot commands (status, on, off, toggle, scan) print a styled box and
// exit. The watch command runs WatchModel, which polls the device and
// accepts e/d/t key presses to drive it.
//
// When stdout is not a terminal, Printer falls back to plain key: value
// lines so the output stays scriptable.
//
// Logging is controlled by APLED_LOG_LEVEL and is silent by default, so zap
// output does not interleave with the rendered boxes.
package ui
