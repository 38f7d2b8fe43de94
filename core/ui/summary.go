// Package ui - Headline summary box
package ui

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Summary renders headline figures in a box followed by a confidence line
type Summary struct {
	w          *Writer
	Title      string
	Lines      []SummaryLine
	Confidence float64
	Warnings   int
}

// SummaryLine is one label/value pair in the box
type SummaryLine struct {
	Label string
	Value string
}

// NewSummary creates a summary box
func (w *Writer) NewSummary(title string) *Summary {
	return &Summary{w: w, Title: title}
}

// Add appends a line
func (s *Summary) Add(label, value string) {
	s.Lines = append(s.Lines, SummaryLine{Label: label, Value: value})
}

// Render prints the summary
func (s *Summary) Render() {
	s.w.Header(s.Title)

	labelWidth, valueWidth := 0, 0
	for _, l := range s.Lines {
		if n := utf8.RuneCountInString(l.Label) + 1; n > labelWidth {
			labelWidth = n
		}
		if n := utf8.RuneCountInString(l.Value); n > valueWidth {
			valueWidth = n
		}
	}
	inner := labelWidth + valueWidth + 6

	if len(s.Lines) > 0 {
		s.w.Println("%s", s.w.Color(Bold, "╭"+strings.Repeat("─", inner)+"╮"))
		for _, l := range s.Lines {
			text := fmt.Sprintf("  %-*s  %*s  ", labelWidth, l.Label+":", valueWidth, l.Value)
			text += strings.Repeat(" ", inner-utf8.RuneCountInString(text))
			s.w.Println("%s%s%s", s.w.Color(Bold, "│"), s.w.Color(Green, text), s.w.Color(Bold, "│"))
		}
		s.w.Println("%s", s.w.Color(Bold, "╰"+strings.Repeat("─", inner)+"╯"))
		s.w.Println("")
	}

	confColor := Green
	confIcon := "●"
	if s.Confidence < 0.8 {
		confColor = Yellow
		confIcon = "◐"
	}
	if s.Confidence < 0.5 {
		confColor = Red
		confIcon = "○"
	}
	s.w.Println("%s", s.w.Color(confColor, fmt.Sprintf("%s Confidence: %.0f%%", confIcon, s.Confidence*100)))
	if s.Warnings > 0 {
		s.w.Warning("%d assumptions applied", s.Warnings)
	}
}
