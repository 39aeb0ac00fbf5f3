package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kb-labs/plugins/internal/installer"
	"github.com/kb-labs/plugins/internal/layout"
)

var installCmd = &cobra.Command{
	Use:   "install <package>...",
	Short: "Install plugins",
	Long: `Install one or more plugins into the target root.

A package is a registry name (name, name@range, @scope/name@tag), a git
reference (github:owner/repo#ref, git+https://host/repo.git, owner/repo),
a local directory or a local .tgz. Packages without a built entry point are
built with npm or pnpm first.

Each plugin lands in <target>/<publisher>/<name>/<version>/index.js, or
<target>/<publisher>/<name>/index.js with --dev.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runInstall,
}

var flagDev bool

func init() {
	rootCmd.AddCommand(installCmd)
	installCmd.Flags().BoolVar(&flagDev, "dev", false, "install without a version directory, replacing any existing install")
}

func runInstall(cmd *cobra.Command, args []string) error {
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
	err = runBatch(os.Stdout, log, args, func(ws *installer.Workspace, id string) error {
		sp := newSpinner(useSpinner())
		sp.attach(ins)
		sp.setLabel("Installing " + id)
		sp.start()
		res, err := ins.Install(cmd.Context(), ws, s.target, id, flagDev)
		sp.stop(err)
		if err != nil {
			return err
		}
		printInstalled(res)
		return nil
	})
	fmt.Println()
	return err
}

func printInstalled(r *installer.Result) {
	fmt.Printf("    %s %s\n", r.Plugin, valStyle.Render(r.Path))
	switch r.Replaced {
	case layout.Symlinked:
		fmt.Printf("    %s\n", dimStyle.Render("replaced dev-link"))
	case layout.Flat:
		fmt.Printf("    %s\n", dimStyle.Render("replaced flat install"))
	case layout.Versioned:
		if r.Path == r.BasePath {
			fmt.Printf("    %s\n", dimStyle.Render("replaced all installed versions"))
		} else {
			fmt.Printf("    %s\n", dimStyle.Render("reinstalled over the same version"))
		}
	}
}
