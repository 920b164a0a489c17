package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	enhancerHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("62"))

	enabledStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	disabledStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	orderStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("141"))
)

var enhancersCmd = &cobra.Command{
	Use:   "enhancers",
	Short: "List registered enhancers and the resolved execution order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Registry == nil {
			return fmt.Errorf("pipeline not initialized")
		}

		var b strings.Builder

		b.WriteString(enhancerHeaderStyle.Render("Registered enhancers"))
		b.WriteString("\n\n")
		b.WriteString(fmt.Sprintf("  %-18s %-8s %-9s %-22s %s\n", "NAME", "PRIORITY", "ENABLED", "DEPENDENCIES", "DESCRIPTION"))
		for _, e := range Registry.Enhancers() {
			md := e.Metadata()
			state := enabledStyle.Render("yes")
			if !md.Enabled {
				state = disabledStyle.Render("no")
			}
			deps := strings.Join(md.Dependencies, ", ")
			if deps == "" {
				deps = "-"
			}
			b.WriteString(fmt.Sprintf("  %-18s %-8d %-9s %-22s %s\n", md.Name, md.Priority, state, deps, md.Description))
		}

		order, err := Registry.ResolveOrder()
		if err != nil {
			b.WriteString("\n")
			b.WriteString(fmt.Sprintf("  order resolution failed: %s\n", err))
			fmt.Print(b.String())
			return nil
		}

		names := make([]string, len(order))
		for i, e := range order {
			names[i] = e.Name()
		}
		b.WriteString("\n")
		b.WriteString(enhancerHeaderStyle.Render("Execution order"))
		b.WriteString("\n\n  ")
		b.WriteString(orderStyle.Render(strings.Join(names, " -> ")))
		b.WriteString("\n")

		stats := Registry.Stats()
		b.WriteString(fmt.Sprintf("\n  %d registered, %d enabled, pipeline length %d\n",
			stats.Registered, stats.Enabled, stats.PipelineLength))

		fmt.Print(b.String())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(enhancersCmd)
}
