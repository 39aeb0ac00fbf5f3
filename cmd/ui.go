package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/kb-labs/plugins/internal/installer"
)

var (
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	badStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	valStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	labelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("8"))
)

// ── spinner ───────────────────────────────────────────────────────────────────

// spinner renders a rotating indicator with a label and a detail line
// that updates in-place while an identifier is processed. A disabled
// spinner only prints the final status line.
type spinner struct {
	mu      sync.Mutex
	label   string
	detail  string
	done    chan struct{}
	enabled bool
}

func newSpinner(enabled bool) *spinner {
	return &spinner{done: make(chan struct{}), enabled: enabled}
}

// attach routes installer progress to the spinner.
func (s *spinner) attach(ins *installer.Installer) {
	ins.OnStep = func(step, total int, label string) {
		s.setLabel(fmt.Sprintf("[%d/%d] %s", step, total, label))
	}
	ins.OnLine = s.setDetail
}

func (s *spinner) setLabel(l string) {
	s.mu.Lock()
	s.label = l
	s.mu.Unlock()
}

func (s *spinner) setDetail(d string) {
	s.mu.Lock()
	s.detail = truncate(d, 72)
	s.mu.Unlock()
}

// start launches the render loop in a goroutine.
func (s *spinner) start() {
	if !s.enabled {
		return
	}
	frames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

	go func() {
		i := 0
		for {
			select {
			case <-s.done:
				return
			case <-time.After(80 * time.Millisecond):
				s.mu.Lock()
				label := s.label
				detail := s.detail
				s.mu.Unlock()

				frame := frames[i%len(frames)]
				i++

				// \r returns to column 0; \033[K clears to end of line.
				fmt.Printf("\r\033[K  %s %s\n\r\033[K    %s",
					frame,
					label,
					dimStyle.Render(detail),
				)
				// Move cursor up one line so next tick overwrites both lines.
				fmt.Print("\033[1A")
			}
		}
	}()
}

// stop halts the spinner and prints a final status line.
func (s *spinner) stop(err error) {
	close(s.done)
	if s.enabled {
		time.Sleep(90 * time.Millisecond) // let last frame finish
		// Clear both lines used by the spinner.
		fmt.Print("\r\033[K\033[1B\r\033[K\033[1A")
	}

	s.mu.Lock()
	label := s.label
	s.mu.Unlock()

	if err == nil {
		fmt.Printf("  %s %s\n", okStyle.Render("✓"), label)
	} else {
		fmt.Printf("  %s %s\n", badStyle.Render("✗"), label)
	}
}

// truncate shortens long npm lines to n runes so they fit on one terminal
// line.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func isTerminal() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

// useSpinner is true when the animated spinner would not fight with other
// output.
func useSpinner() bool {
	return !flagVerbose && isTerminal()
}

func confirm(prompt string) bool {
	fmt.Print(prompt)
	r := bufio.NewReader(os.Stdin)
	line, _ := r.ReadString('\n')
	line = strings.TrimSpace(strings.ToLower(line))
	return line == "" || line == "y" || line == "yes"
}
