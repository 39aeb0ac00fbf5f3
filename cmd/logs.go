package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/kb-labs/plugins/internal/logger"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show run logs",
	Long: `Show the most recent run log.
Use --follow to stream new lines as they are written, switching to newer
runs as they start.`,
	Args: cobra.NoArgs,
	RunE: runLogs,
}

var flagFollow bool

func init() {
	rootCmd.AddCommand(logsCmd)
	logsCmd.Flags().BoolVarP(&flagFollow, "follow", "f", false, "follow log output (like tail -f)")
}

func runLogs(cmd *cobra.Command, args []string) error {
	dir := logger.DefaultDir()
	logPath := logger.LatestLogPath(dir)
	if logPath == "" {
		return fmt.Errorf("no run logs found in %s", filepath.Join(dir, "logs"))
	}

	f, err := os.Open(logPath)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer func() { _ = f.Close() }()

	// Print existing content.
	if _, err := io.Copy(os.Stdout, f); err != nil {
		return err
	}

	if !flagFollow {
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	return followLogs(ctx, os.Stdout, filepath.Dir(logPath), f)
}

// followLogs copies whatever is appended to f and switches to any run log
// created later in dir. It returns when ctx is done.
func followLogs(ctx context.Context, out io.Writer, dir string, f *os.File) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch logs: %w", err)
	}
	defer func() { _ = w.Close() }()

	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	current := f
	defer func() {
		if current != f {
			_ = current.Close()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			switch {
			case ev.Has(fsnotify.Write) && ev.Name == current.Name():
				if _, err := io.Copy(out, current); err != nil {
					return err
				}
			case ev.Has(fsnotify.Create) && strings.HasPrefix(filepath.Base(ev.Name), "run-"):
				next, err := os.Open(ev.Name)
				if err != nil {
					continue
				}
				// Drain the old run before switching.
				_, _ = io.Copy(out, current)
				if current != f {
					_ = current.Close()
				}
				current = next
				fmt.Fprintf(out, "\n==> %s <==\n", filepath.Base(ev.Name))
				if _, err := io.Copy(out, current); err != nil {
					return err
				}
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch logs: %w", err)
		}
	}
}
