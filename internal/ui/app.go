package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tourmaster/tourctl/internal/backoff"
	"github.com/tourmaster/tourctl/internal/worker"
)

// App wraps the Bubble Tea program
type App struct {
	program *tea.Program
	model   Model
	onQuit  func()
}

// NewApp creates the export progress UI.
func NewApp(
	totalJobs int,
	numWorkers int,
	resultsCh <-chan worker.JobResult,
	workerUpdates <-chan worker.WorkerStatus,
	bo *backoff.GlobalBackoff,
	onQuit func(),
) *App {
	model := NewModel(totalJobs, numWorkers, resultsCh, workerUpdates, bo, onQuit)
	return &App{
		model:  model,
		onQuit: onQuit,
	}
}

// Run starts the UI and blocks until it exits.
func (a *App) Run() error {
	a.program = tea.NewProgram(a.model, tea.WithAltScreen())

	if _, err := a.program.Run(); err != nil {
		return fmt.Errorf("UI error: %w", err)
	}

	return nil
}

// Send sends a message to the UI
func (a *App) Send(msg tea.Msg) {
	if a.program != nil {
		a.program.Send(msg)
	}
}

// Quit quits the UI
func (a *App) Quit() {
	if a.program != nil {
		a.program.Quit()
	}
}

// RunSimple prints plain line-per-result output for non-interactive runs.
func RunSimple(totalJobs int, resultsCh <-chan worker.JobResult) {
	completed := 0
	failed := 0
	totalRecords := 0

	fmt.Printf("Exporting %d collections...\n\n", totalJobs)

	for result := range resultsCh {
		name := result.Job.Collection.Name
		if result.Error != nil {
			failed++
			fmt.Printf("✗ %s: %v\n", name, result.Error)
		} else {
			completed++
			totalRecords += result.Records
			fmt.Printf("✓ %s: %d records -> %s\n", name, result.Records, result.OutputFile)
		}
	}

	fmt.Printf("\nComplete: %d succeeded, %d failed, %d total records\n",
		completed, failed, totalRecords)
}
