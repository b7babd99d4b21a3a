// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ux renders vata results for the terminal.
//
// A Printer has two modes. ModeRich uses colour, icons and boxes and is
// picked when stdout is a terminal. ModePlain writes stable, tab-free text
// for pipes and tests. NO_COLOR forces plain output.
package ux

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Palette.
var (
	ColorHuman   = lipgloss.Color("#2CD7C7")
	ColorMixed   = lipgloss.Color("#F4D03F")
	ColorMachine = lipgloss.Color("#E67E22")
	ColorError   = lipgloss.Color("#E74C3C")
	ColorAccent  = lipgloss.Color("#20B9B4")
	ColorBorder  = lipgloss.Color("#16858E")
	ColorMuted   = lipgloss.Color("#5D7A84")
)

// Styles are the shared lipgloss styles.
var Styles = struct {
	Title   lipgloss.Style
	Bold    lipgloss.Style
	Muted   lipgloss.Style
	Human   lipgloss.Style
	Mixed   lipgloss.Style
	Machine lipgloss.Style
	Error   lipgloss.Style
	Box     lipgloss.Style
	Header  lipgloss.Style
}{
	Title:   lipgloss.NewStyle().Bold(true).Foreground(ColorAccent),
	Bold:    lipgloss.NewStyle().Bold(true),
	Muted:   lipgloss.NewStyle().Foreground(ColorMuted),
	Human:   lipgloss.NewStyle().Foreground(ColorHuman),
	Mixed:   lipgloss.NewStyle().Foreground(ColorMixed),
	Machine: lipgloss.NewStyle().Foreground(ColorMachine),
	Error:   lipgloss.NewStyle().Foreground(ColorError),
	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Padding(0, 1),
	Header: lipgloss.NewStyle().Bold(true).Underline(true),
}

// Icon is a status glyph.
type Icon string

const (
	IconSuccess Icon = "✓"
	IconWarning Icon = "⚠"
	IconError   Icon = "✗"
	IconBullet  Icon = "•"
	IconArrow   Icon = "→"
)

// Render colours the icon.
func (i Icon) Render() string {
	switch i {
	case IconSuccess:
		return Styles.Human.Render(string(i))
	case IconWarning:
		return Styles.Mixed.Render(string(i))
	case IconError:
		return Styles.Error.Render(string(i))
	default:
		return string(i)
	}
}

// plain is the ASCII stand-in used in ModePlain.
func (i Icon) plain() string {
	switch i {
	case IconSuccess:
		return "OK"
	case IconWarning:
		return "WARN"
	case IconError:
		return "ERROR"
	case IconArrow:
		return "->"
	default:
		return "-"
	}
}

// Mode selects rich or plain output.
type Mode int

const (
	ModePlain Mode = iota
	ModeRich
)

// DetectMode returns ModeRich when f is a terminal and NO_COLOR is unset.
func DetectMode(f *os.File) Mode {
	if os.Getenv("NO_COLOR") != "" || f == nil {
		return ModePlain
	}
	fd := f.Fd()
	if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
		return ModeRich
	}
	return ModePlain
}

// Printer writes styled output to w.
//
// Thread Safety: Not safe for concurrent use.
type Printer struct {
	w    io.Writer
	mode Mode
}

// NewPrinter creates a Printer.
func NewPrinter(w io.Writer, mode Mode) *Printer {
	return &Printer{w: w, mode: mode}
}

// Stdout returns a Printer on os.Stdout with the detected mode.
func Stdout() *Printer {
	return NewPrinter(os.Stdout, DetectMode(os.Stdout))
}

// Mode returns the printer mode.
func (p *Printer) Mode() Mode { return p.mode }

// Writer returns the underlying writer.
func (p *Printer) Writer() io.Writer { return p.w }

func (p *Printer) rich() bool { return p.mode == ModeRich }

func (p *Printer) println(s string) {
	fmt.Fprintln(p.w, s)
}

// Title prints a heading.
func (p *Printer) Title(text string) {
	if p.rich() {
		p.println(Styles.Title.Render(text))
		return
	}
	p.println(text)
}

// Status prints a line prefixed with icon.
func (p *Printer) Status(icon Icon, text string) {
	if p.rich() {
		p.println(icon.Render() + " " + text)
		return
	}
	p.println(icon.plain() + ": " + text)
}

// Success prints a success line.
func (p *Printer) Success(text string) { p.Status(IconSuccess, text) }

// Warning prints a warning line.
func (p *Printer) Warning(text string) { p.Status(IconWarning, text) }

// Error prints an error line.
func (p *Printer) Error(text string) { p.Status(IconError, text) }

// Muted prints de-emphasised text.
func (p *Printer) Muted(text string) {
	if p.rich() {
		p.println(Styles.Muted.Render(text))
		return
	}
	p.println(text)
}

// Field prints "label: value".
func (p *Printer) Field(label, value string) {
	if p.rich() {
		p.println(Styles.Bold.Render(label+":") + " " + value)
		return
	}
	p.println(label + ": " + value)
}

// Bullets prints one item per line.
func (p *Printer) Bullets(items []string) {
	for _, item := range items {
		if p.rich() {
			p.println("  " + IconBullet.Render() + " " + item)
		} else {
			p.println("  - " + item)
		}
	}
}

// Box prints content under a title, boxed in rich mode.
func (p *Printer) Box(title, content string) {
	content = strings.TrimRight(content, "\n")
	if p.rich() {
		p.println(Styles.Box.Render(Styles.Title.Render(title) + "\n" + content))
		return
	}
	p.println("== " + title + " ==")
	if content != "" {
		p.println(content)
	}
}

// Table prints rows in aligned columns. Cell widths are measured after
// styling so coloured cells still line up.
func (p *Printer) Table(headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i := range min(len(row), len(widths)) {
			widths[i] = max(widths[i], lipgloss.Width(row[i]))
		}
	}

	render := func(cells []string, header bool) string {
		var b strings.Builder
		for i := range widths {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			if header && p.rich() {
				cell = Styles.Header.Render(cell)
			}
			b.WriteString(cell)
			if i < len(widths)-1 {
				b.WriteString(strings.Repeat(" ", widths[i]-lipgloss.Width(cell)+2))
			}
		}
		return strings.TrimRight(b.String(), " ")
	}

	p.println(render(headers, true))
	for _, row := range rows {
		p.println(render(row, false))
	}
}
