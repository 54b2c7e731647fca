package sink

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/sprocket78/ai-battle-app/core"
)

// ConsoleOptions configures a Console.
type ConsoleOptions struct {
	// Names maps each side to the display name used in error lines.
	Names map[core.Side]string
	// ShowProgress prints a line per progress event.
	ShowProgress bool
}

type consoleStyles struct {
	sideA    lipgloss.Style
	sideB    lipgloss.Style
	system   lipgloss.Style
	followup lipgloss.Style
	err      lipgloss.Style
	muted    lipgloss.Style
	rule     lipgloss.Style
}

// Console renders events as styled text lines. Colors are only emitted when
// w is a terminal that supports them.
type Console struct {
	mu      sync.Mutex
	w       io.Writer
	opts    ConsoleOptions
	styles  consoleStyles
	lastRun string
}

// NewConsole creates a console sink writing to w.
func NewConsole(w io.Writer, optFns ...func(o *ConsoleOptions)) *Console {
	opts := ConsoleOptions{
		Names:        map[core.Side]string{core.SideA: "A", core.SideB: "B"},
		ShowProgress: true,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	r := lipgloss.NewRenderer(w)
	blue := lipgloss.Color("#01cdfe")
	pink := lipgloss.Color("#ff71ce")
	mint := lipgloss.Color("#05ffa1")
	muted := lipgloss.Color("#9ca3d8")

	return &Console{
		w:    w,
		opts: opts,
		styles: consoleStyles{
			sideA:    r.NewStyle().Foreground(blue).Bold(true),
			sideB:    r.NewStyle().Foreground(mint).Bold(true),
			system:   r.NewStyle().Foreground(muted).Bold(true),
			followup: r.NewStyle().Italic(true),
			err:      r.NewStyle().Foreground(pink).Bold(true),
			muted:    r.NewStyle().Foreground(muted),
			rule:     r.NewStyle().Foreground(muted).Faint(true),
		},
	}
}

// Notify implements core.Sink.
func (c *Console) Notify(ev core.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ev.RunID != "" && ev.RunID != c.lastRun {
		if c.lastRun != "" {
			fmt.Fprintln(c.w)
		}
		fmt.Fprintln(c.w, c.styles.rule.Render(strings.Repeat("─", 12)+" battle "+shortID(ev.RunID)+" "+strings.Repeat("─", 12)))
		c.lastRun = ev.RunID
	}

	switch ev.Kind {
	case core.EventResponseChunk:
		c.writeResponse(ev)
	case core.EventError:
		fmt.Fprintln(c.w, c.styles.err.Render(c.name(ev.Side)+" error:")+" "+ev.Message)
	case core.EventProgress:
		if !c.opts.ShowProgress {
			return
		}
		label := fmt.Sprintf("Progress: %.0f%%", ev.Percent)
		if ev.Percent >= 100 {
			label = "Progress: complete"
		}
		fmt.Fprintln(c.w, c.styles.muted.Render(label))
	case core.EventRunCompleted:
		line := fmt.Sprintf("Battle %s after %d exchanges.", ev.Outcome, len(ev.Transcript))
		fmt.Fprintln(c.w, c.styles.muted.Render(line))
		if ev.ExportPath != "" {
			fmt.Fprintln(c.w, c.styles.muted.Render("Saved to "+ev.ExportPath))
		}
	}
}

func (c *Console) writeResponse(ev core.Event) {
	style := c.styles.sideA
	switch {
	case ev.Stopped:
		style = c.styles.system
	case ev.Side == core.SideB:
		style = c.styles.sideB
	}

	label := ev.Speaker
	if ev.IsFollowup {
		label = fmt.Sprintf("Round %d %s", ev.Round, ev.Speaker)
	}
	head := fmt.Sprintf("[%s] %s:", ev.Timestamp.Format("2006-01-02 15:04:05"), label)

	if ev.IsFollowup && !ev.Stopped {
		style = style.Inherit(c.styles.followup)
	}
	fmt.Fprintln(c.w, style.Render(head)+" "+ev.Text)
}

func (c *Console) name(side core.Side) string {
	if n, ok := c.opts.Names[side]; ok && n != "" {
		return n
	}
	return string(side)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
