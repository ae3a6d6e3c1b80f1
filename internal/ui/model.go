package ui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tourmaster/tourctl/internal/api"
	"github.com/tourmaster/tourctl/internal/backoff"
	"github.com/tourmaster/tourctl/internal/worker"
)

// Model is the export progress UI state.
type Model struct {
	// Progress tracking
	totalJobs    int
	completed    int
	failed       int
	totalRecords int

	// Worker tracking
	workers       []worker.WorkerStatus
	numWorkers    int
	workerUpdates <-chan worker.WorkerStatus

	// Backoff state (polled on tick)
	bo               *backoff.GlobalBackoff
	isBackingOff     bool
	backoffRemaining time.Duration

	overallProgress progress.Model

	resultsCh <-chan worker.JobResult

	// Recent results for display
	recentResults []resultInfo
	maxRecent     int

	errors []string

	// Fatal error: session expired or similar; stops counting but keeps the
	// UI visible so the reason can be read.
	fatalError string

	width  int
	height int

	quitting   bool
	done       bool
	startTime  time.Time
	finishTime time.Time

	onQuit func()
}

type resultInfo struct {
	collection string
	records    int
	success    bool
	errorMsg   string
}

// Message types
type ResultMsg worker.JobResult
type WorkerStatusMsg worker.WorkerStatus
type TickMsg time.Time
type DoneMsg struct{}

// NewModel creates the export UI model.
func NewModel(
	totalJobs int,
	numWorkers int,
	resultsCh <-chan worker.JobResult,
	workerUpdates <-chan worker.WorkerStatus,
	bo *backoff.GlobalBackoff,
	onQuit func(),
) Model {
	prog := progress.New(
		progress.WithGradient(ProgressGradientStart, ProgressGradientEnd),
		progress.WithWidth(40),
	)

	workers := make([]worker.WorkerStatus, numWorkers)
	for i := range workers {
		workers[i] = worker.WorkerStatus{WorkerID: i, State: worker.WorkerStateIdle}
	}

	return Model{
		totalJobs:       totalJobs,
		numWorkers:      numWorkers,
		workers:         workers,
		workerUpdates:   workerUpdates,
		bo:              bo,
		overallProgress: prog,
		resultsCh:       resultsCh,
		recentResults:   make([]resultInfo, 0, 10),
		maxRecent:       5,
		errors:          make([]string, 0),
		startTime:       time.Now(),
		onQuit:          onQuit,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		waitForResult(m.resultsCh),
		waitForWorkerStatus(m.workerUpdates),
	)
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			if m.onQuit != nil {
				m.onQuit()
			}
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.overallProgress.Width = max(msg.Width-30, 20)
		return m, nil

	case ResultMsg:
		result := worker.JobResult(msg)
		name := result.Job.Collection.Name

		if result.Error != nil {
			m.failed++
			m.addRecentResult(resultInfo{
				collection: name,
				success:    false,
				errorMsg:   result.Error.Error(),
			})
			m.errors = append(m.errors, fmt.Sprintf("%s: %v", name, result.Error))

			var apiErr *api.APIError
			if errors.As(result.Error, &apiErr) && apiErr.Fatal && m.fatalError == "" {
				m.fatalError = result.Error.Error()
			}
		} else {
			m.completed++
			m.totalRecords += result.Records
			m.addRecentResult(resultInfo{
				collection: name,
				records:    result.Records,
				success:    true,
			})
		}

		if m.completed+m.failed >= m.totalJobs && m.finishTime.IsZero() {
			m.finishTime = time.Now()
		}
		return m, waitForResult(m.resultsCh)

	case WorkerStatusMsg:
		status := worker.WorkerStatus(msg)
		if status.WorkerID >= 0 && status.WorkerID < len(m.workers) {
			m.workers[status.WorkerID] = status
		}
		return m, waitForWorkerStatus(m.workerUpdates)

	case TickMsg:
		if m.bo != nil {
			m.isBackingOff = m.bo.IsBackingOff()
			m.backoffRemaining = m.bo.Remaining()
		}
		return m, tickCmd()

	case DoneMsg:
		m.done = true
		if m.finishTime.IsZero() {
			m.finishTime = time.Now()
		}
		return m, nil

	case progress.FrameMsg:
		progressModel, cmd := m.overallProgress.Update(msg)
		m.overallProgress = progressModel.(progress.Model)
		return m, cmd
	}

	return m, nil
}

func (m *Model) addRecentResult(r resultInfo) {
	m.recentResults = append(m.recentResults, r)
	if len(m.recentResults) > m.maxRecent {
		m.recentResults = m.recentResults[1:]
	}
}

// View renders the UI
func (m Model) View() string {
	if m.quitting {
		return m.renderFinalSummary()
	}

	var b strings.Builder

	b.WriteString(TitleStyle.Render(" Tour Master Export ") + "\n\n")

	if m.fatalError != "" {
		bannerWidth := m.width - 6
		if bannerWidth < 40 {
			bannerWidth = 80
		}
		banner := lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("1")).
			Padding(0, 1).
			Width(bannerWidth).
			Render(fmt.Sprintf("FATAL ERROR: %s", m.fatalError))
		b.WriteString(banner + "\n\n")
	}

	// Overall progress
	finished := m.completed + m.failed
	pct := 0.0
	if m.totalJobs > 0 {
		pct = float64(finished) / float64(m.totalJobs)
	}
	b.WriteString(fmt.Sprintf("Progress: %s %d/%d collections\n\n",
		m.overallProgress.ViewAs(pct), finished, m.totalJobs))

	// Stats
	var elapsed time.Duration
	if m.finishTime.IsZero() {
		elapsed = time.Since(m.startTime).Round(time.Second)
	} else {
		elapsed = m.finishTime.Sub(m.startTime).Round(time.Second)
	}
	stats := fmt.Sprintf("Completed: %s  Failed: %s  Records: %s  Elapsed: %s",
		SuccessStyle.Render(fmt.Sprintf("%d", m.completed)),
		ErrorStyle.Render(fmt.Sprintf("%d", m.failed)),
		HighlightStyle.Render(fmt.Sprintf("%d", m.totalRecords)),
		elapsed)
	b.WriteString(stats + "\n\n")

	// Workers status
	b.WriteString(MutedStyle.Render("Workers:") + "\n")
	for _, w := range m.workers {
		var statusStr string
		switch w.State {
		case worker.WorkerStateWorking:
			statusStr = WorkerWorkingStyle.Render(fmt.Sprintf("  [%2d] %s", w.WorkerID, w.Collection))
		case worker.WorkerStateBackingOff:
			statusStr = WorkerBackoffStyle.Render(fmt.Sprintf("  [%2d] %s (backing off)", w.WorkerID, w.Collection))
		default:
			statusStr = WorkerIdleStyle.Render(fmt.Sprintf("  [%2d] idle", w.WorkerID))
		}
		b.WriteString(statusStr + "\n")
	}

	// Backoff indicator
	if m.isBackingOff {
		b.WriteString("\n" + WarningStyle.Render(
			fmt.Sprintf("Rate limited - backing off for %s", m.backoffRemaining.Round(time.Second))) + "\n")
	}

	// Recent results
	if len(m.recentResults) > 0 {
		b.WriteString("\n" + MutedStyle.Render("Recent:") + "\n")
		for _, r := range m.recentResults {
			var line string
			if r.success {
				line = SuccessStyle.Render(fmt.Sprintf("  ✓ %s (%d records)", r.collection, r.records))
			} else {
				errMsg := r.errorMsg
				if len(errMsg) > 60 {
					errMsg = errMsg[:57] + "..."
				}
				line = ErrorStyle.Render(fmt.Sprintf("  ✗ %s: %s", r.collection, errMsg))
			}
			b.WriteString(line + "\n")
		}
	}

	b.WriteString("\n" + FooterStyle.Render("Press 'q' to quit"))

	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

func (m Model) renderFinalSummary() string {
	var b strings.Builder

	elapsed := time.Since(m.startTime).Round(time.Second)

	b.WriteString("\n")
	b.WriteString(TitleStyle.Render(" Export Complete ") + "\n\n")
	b.WriteString(fmt.Sprintf("Collections:   %d\n", m.totalJobs))
	b.WriteString(fmt.Sprintf("Completed:     %s\n", SuccessStyle.Render(fmt.Sprintf("%d", m.completed))))
	b.WriteString(fmt.Sprintf("Failed:        %s\n", ErrorStyle.Render(fmt.Sprintf("%d", m.failed))))
	b.WriteString(fmt.Sprintf("Total records: %s\n", HighlightStyle.Render(fmt.Sprintf("%d", m.totalRecords))))
	b.WriteString(fmt.Sprintf("Duration:      %s\n", elapsed))

	if len(m.errors) > 0 {
		shown := m.errors
		if len(shown) > 10 {
			b.WriteString("\n" + ErrorStyle.Render(fmt.Sprintf("Errors: %d (showing first 10)", len(m.errors))) + "\n")
			shown = shown[:10]
		} else {
			b.WriteString("\n" + ErrorStyle.Render("Errors:") + "\n")
		}
		for _, err := range shown {
			b.WriteString(fmt.Sprintf("  - %s\n", err))
		}
	}

	b.WriteString("\n")
	return b.String()
}

// Helper commands
func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func waitForResult(ch <-chan worker.JobResult) tea.Cmd {
	return func() tea.Msg {
		result, ok := <-ch
		if !ok {
			return DoneMsg{}
		}
		return ResultMsg(result)
	}
}

func waitForWorkerStatus(ch <-chan worker.WorkerStatus) tea.Cmd {
	return func() tea.Msg {
		status, ok := <-ch
		if !ok {
			return nil
		}
		return WorkerStatusMsg(status)
	}
}
