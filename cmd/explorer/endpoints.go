package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Sternrassler/graphql-explorer/internal/config"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F15BB5")).Bold(true)
	nameStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#9B5DE5")).Bold(true)
	uriStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#00B4D8"))
	defaultStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00D26A"))
)

func newEndpointsCmd(cfg func() *config.AppConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "endpoints",
		Short: "List the configured GraphQL endpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), renderEndpoints(cfg()))
			return nil
		},
	}
}

// renderEndpoints formats the registry as a table, default first.
func renderEndpoints(cfg *config.AppConfig) string {
	all := cfg.Endpoints.All()

	nameWidth := len("Name")
	for _, ep := range all {
		nameWidth = max(nameWidth, len(ep.Name))
	}

	pad := func(s string, width int) string {
		return s + strings.Repeat(" ", max(0, width-len(s)))
	}

	var sb strings.Builder
	sb.WriteString(headerStyle.Render(pad("#", 3) + " " + pad("Name", nameWidth) + " URI"))
	for i, ep := range all {
		sb.WriteString("\n")
		sb.WriteString(pad(strconv.Itoa(i+1), 3) + " ")
		sb.WriteString(nameStyle.Render(pad(ep.Name, nameWidth)) + " ")
		sb.WriteString(uriStyle.Render(ep.URI))
		if i == 0 {
			sb.WriteString(" " + defaultStyle.Render("(default)"))
		}
	}
	return sb.String()
}
