package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var linkCmd = &cobra.Command{
	Use:   "link <dir>...",
	Short: "Symlink local plugin builds into the target root",
	Long: `Link points <target>/<publisher>/<name> at the dist directory of a local
plugin. The plugin must already be built and its "main" must be index.js.
Any existing install of the plugin is replaced; linking again is a no-op.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLink,
}

func init() {
	rootCmd.AddCommand(linkCmd)
}

func runLink(cmd *cobra.Command, args []string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}
	log := openLog()
	defer log.Close()

	ins, err := s.installer(log)
	if err != nil {
		return err
	}

	fmt.Println()
	err = runEach(os.Stdout, log, args, func(dir string) error {
		res, err := ins.Link(s.target, dir)
		if err != nil {
			return err
		}
		fmt.Printf("  %s %s  %s -> %s\n", okStyle.Render("✓"), res.Plugin.ID(),
			valStyle.Render(res.BasePath), dimStyle.Render(res.Target))
		return nil
	})
	fmt.Println()
	return err
}
