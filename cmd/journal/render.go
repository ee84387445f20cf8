package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"

	"journal/internal/domain"
)

var (
	label    = color.New(color.FgCyan, color.Bold).SprintFunc()
	positive = color.New(color.FgGreen).SprintFunc()
	negative = color.New(color.FgRed).SprintFunc()
)

func renderSentiment(w io.Writer, rec domain.SentimentRecord) {
	swatch := lipgloss.NewStyle().Background(lipgloss.Color(rec.Color)).Render("      ")
	score := fmt.Sprintf("%+g", rec.SentimentScore)
	if rec.SentimentScore < 0 {
		score = negative(score)
	} else {
		score = positive(score)
	}

	fmt.Fprintf(w, "%s %s\n", label("Mood:"), rec.Mood)
	fmt.Fprintf(w, "%s %s\n", label("Subject:"), rec.Subject)
	fmt.Fprintf(w, "%s %t\n", label("Negative:"), rec.Negative)
	fmt.Fprintf(w, "%s %s\n", label("Summary:"), rec.Summary)
	fmt.Fprintf(w, "%s %s %s\n", label("Color:"), rec.Color, swatch)
	fmt.Fprintf(w, "%s %s\n", label("Score:"), score)
}

func renderAnswer(w io.Writer, rec domain.AnswerRecord) {
	dates := "none"
	if len(rec.RelevantDates) > 0 {
		dates = strings.Join(rec.RelevantDates, ", ")
	}
	fmt.Fprintf(w, "%s %s\n", label("Answer:"), rec.Answer)
	fmt.Fprintf(w, "%s %s\n", label("Relevant dates:"), dates)
	fmt.Fprintf(w, "%s %.0f%%\n", label("Confidence:"), rec.Confidence*100)
}
