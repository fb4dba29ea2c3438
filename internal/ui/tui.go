package ui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// TUIRenderer draws an animated progress panel using bubbletea. It does not
// read from stdin, which may carry the lines being clustered.
type TUIRenderer struct {
	mu      sync.Mutex
	cfg     Config
	program *tea.Program
	model   *clusterModel
	tracker *ProgressTracker
	started bool
	done    chan struct{}
}

// NewTUIRenderer creates a TUI renderer.
// Returns an error if the output is not a terminal.
func NewTUIRenderer(cfg Config) (*TUIRenderer, error) {
	if !IsTTY(cfg.Output) {
		return nil, errors.New("output is not a TTY")
	}

	tracker := NewProgressTracker()
	model := newClusterModel(tracker, cfg.Source)
	if cfg.NoColor || DetectNoColor() {
		model.styles = NoColorStyles()
	}

	return &TUIRenderer{
		cfg:     cfg,
		tracker: tracker,
		model:   model,
		done:    make(chan struct{}),
	}, nil
}

// Start implements Renderer.
func (r *TUIRenderer) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return nil
	}

	opts := []tea.ProgramOption{
		tea.WithContext(ctx),
		tea.WithInput(nil),
		tea.WithoutSignalHandler(),
	}
	if f, ok := r.cfg.Output.(*os.File); ok {
		opts = append(opts, tea.WithOutput(f))
	}

	r.program = tea.NewProgram(r.model, opts...)
	r.started = true

	go func() {
		defer close(r.done)
		_, _ = r.program.Run()
	}()
	return nil
}

// UpdateProgress implements Renderer.
func (r *TUIRenderer) UpdateProgress(event ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if event.Stage != r.tracker.Stats().Stage {
		r.tracker.SetStage(event.Stage, event.Total)
	}
	r.tracker.Update(event.Current)

	if r.program != nil {
		r.program.Send(progressUpdateMsg(event))
	}
}

// Complete implements Renderer.
func (r *TUIRenderer) Complete(stats CompletionStats) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tracker.SetStage(StageComplete, 0)
	if r.program != nil {
		r.program.Send(completeMsg(stats))
	}
}

// Stop implements Renderer.
func (r *TUIRenderer) Stop() error {
	r.mu.Lock()
	program := r.program
	r.mu.Unlock()

	if program == nil {
		return nil
	}
	program.Quit()

	// An unresponsive program must not hang the command.
	select {
	case <-r.done:
	case <-time.After(2 * time.Second):
	}
	return nil
}

type progressUpdateMsg ProgressEvent
type completeMsg CompletionStats
type tickMsg time.Time

// clusterModel is the bubbletea model for clustering progress.
type clusterModel struct {
	tracker     *ProgressTracker
	width       int
	complete    bool
	stats       CompletionStats
	spinner     spinner.Model
	progressBar progress.Model
	styles      Styles
	source      string
}

func newClusterModel(tracker *ProgressTracker, source string) *clusterModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorLime))

	p := progress.New(
		progress.WithSolidFill(ColorLime),
		progress.WithWidth(40),
		progress.WithoutPercentage(),
	)

	return &clusterModel{
		tracker:     tracker,
		spinner:     s,
		progressBar: p,
		styles:      DefaultStyles(),
		width:       80,
		source:      source,
	}
}

// Init implements tea.Model.
func (m *clusterModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickCmd())
}

func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model.
func (m *clusterModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progressBar.Width = msg.Width - 30
		if m.progressBar.Width < 20 {
			m.progressBar.Width = 20
		}

	case progressUpdateMsg:
		// The tracker was updated by the renderer.
		return m, nil

	case completeMsg:
		m.complete = true
		m.stats = CompletionStats(msg)
		return m, tea.Quit

	case tickMsg:
		return m, tickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m *clusterModel) View() string {
	if m.complete {
		return m.renderComplete()
	}

	title := "patclust"
	if m.source != "" {
		title = fmt.Sprintf("patclust • %s", m.source)
	}

	return strings.Join([]string{
		m.styles.Header.Render(title),
		m.renderStages(),
		m.renderProgress(),
	}, "\n") + "\n"
}

func (m *clusterModel) renderStages() string {
	current := m.tracker.Stats().Stage

	var parts []string
	for _, s := range []Stage{StageReading, StageAutomata, StageClustering} {
		var icon string
		var style lipgloss.Style
		switch {
		case s < current:
			icon, style = "●", m.styles.Success
		case s == current:
			icon, style = m.spinner.View(), m.styles.Active
		default:
			icon, style = "○", m.styles.Dim
		}
		parts = append(parts, style.Render(icon+" "+s.String()))
	}
	return strings.Join(parts, m.styles.Dim.Render(" → "))
}

func (m *clusterModel) renderProgress() string {
	stats := m.tracker.Stats()
	if stats.Total == 0 {
		return m.styles.Dim.Render(stats.Stage.String() + "...")
	}

	line := fmt.Sprintf("%s  %s  %s",
		m.progressBar.ViewAs(stats.Progress),
		m.styles.Active.Render(fmt.Sprintf("%3.0f%%", stats.Progress*100)),
		m.styles.Label.Render(fmt.Sprintf("%d / %d lines", stats.Current, stats.Total)))
	if stats.ETA > 0 {
		line += m.styles.Label.Render("  ETA " + formatDuration(stats.ETA))
	}
	return line
}

func (m *clusterModel) renderComplete() string {
	return fmt.Sprintf("%s %s\n",
		m.styles.Success.Render("✓"),
		m.styles.Label.Render(fmt.Sprintf("%d lines, %d clusters in %s",
			m.stats.Lines, m.stats.Clusters, formatDuration(m.stats.Duration))))
}

// formatDuration formats a duration in a human-friendly way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		if s == 0 {
			return fmt.Sprintf("%dm", m)
		}
		return fmt.Sprintf("%dm %ds", m, s)
	}
	return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
}

var _ Renderer = (*TUIRenderer)(nil)
var _ Renderer = (*PlainRenderer)(nil)
