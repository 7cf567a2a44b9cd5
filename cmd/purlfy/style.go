package main

import (
	"fmt"
	"os"

	"go_purlfy/internal/domain/services"

	"github.com/charmbracelet/lipgloss"
)

var (
	styleArrow   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	styleURL     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	styleSuccess = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	styleError   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	styleInfo    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	styleDim     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func renderResult(input string, res *services.PurifyResult) string {
	return fmt.Sprintf("%s %s %s %s", input, styleArrow.Render("=>"), styleURL.Render(res.URL),
		styleDim.Render("("+res.Rule+")"))
}

func renderCase(r caseResult) string {
	if r.Pass {
		return fmt.Sprintf("* Mode: %s, Match: %s", r.Mode, styleSuccess.Render("ok"))
	}
	return fmt.Sprintf("* Mode: %s, Match: %s, Input: %q, Expected: %q, Output: %q",
		r.Mode, styleError.Render("FAIL"), r.Input, r.Output, r.Actual)
}

func printError(err error) {
	fmt.Fprintln(os.Stderr, styleError.Render("Error: "+err.Error()))
}
