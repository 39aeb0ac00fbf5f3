package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kb-labs/plugins/internal/layout"
)

var listCmd = &cobra.Command{
	Use:     "list [query]",
	Aliases: []string{"ls"},
	Short:   "List installed plugins",
	Long: `List the plugins installed in the target root with their install kind
and versions. An optional query fuzzy-filters by publisher/name.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}

	installed, err := layout.Scan(layout.OS, s.target)
	if err != nil {
		return err
	}
	if len(args) > 0 {
		installed = layout.Match(installed, args[0])
	}

	fmt.Println()
	if len(installed) == 0 {
		fmt.Printf("  no plugins installed in %s\n\n", s.target)
		return nil
	}
	fmt.Printf("  %s %s\n\n", labelStyle.Render("Target:"), valStyle.Render(s.target))
	for _, p := range installed {
		fmt.Printf("    %s %-32s %-10s %s\n", okStyle.Render("●"), p.ID(), dimStyle.Render(p.State.Kind.String()), describeState(p.State))
	}
	fmt.Println()
	return nil
}

func describeState(st layout.State) string {
	switch st.Kind {
	case layout.Symlinked:
		return "-> " + st.Target
	case layout.Versioned:
		if len(st.Versions) == 0 {
			return warnStyle.Render("no installed version")
		}
		return strings.Join(st.Versions, ", ")
	}
	return ""
}
