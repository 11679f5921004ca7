package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/surgeproj/surge/pkg/model"
)

type State int

const (
	StateRunning State = iota
	StateSummary
)

// MainModel owns only presentation. The orchestrator runs the workers and
// pushes merged aggregator snapshots on snapshots, then the final report on
// done; MainModel never touches a Runner or the Aggregator directly.
type MainModel struct {
	state    State
	cfg      model.RunnerConfig
	start    time.Time
	quitting bool

	snapshots <-chan *model.Report
	done      <-chan *model.Report

	dashModel *DashModel
	sumModel  *SummaryModel
	final     *model.Report
}

// Report returns the final merged report once the run has finished, or nil
// if the program exited before one arrived (e.g. ctrl+c during warmup).
func (m MainModel) Report() *model.Report {
	return m.final
}

func NewModel(cfg model.RunnerConfig, snapshots <-chan *model.Report, done <-chan *model.Report) MainModel {
	return MainModel{
		state:     StateRunning,
		cfg:       cfg,
		start:     time.Now(),
		snapshots: snapshots,
		done:      done,
		dashModel: NewDashModel(cfg),
	}
}

func (m MainModel) Init() tea.Cmd {
	return tea.Batch(m.waitSnapshot(), m.waitDone())
}

type snapshotMsg *model.Report
type finishedMsg *model.Report

func (m MainModel) waitSnapshot() tea.Cmd {
	ch := m.snapshots
	return func() tea.Msg {
		r, ok := <-ch
		if !ok {
			return nil
		}
		return snapshotMsg(r)
	}
}

func (m MainModel) waitDone() tea.Cmd {
	ch := m.done
	return func() tea.Msg {
		r, ok := <-ch
		if !ok {
			return nil
		}
		return finishedMsg(r)
	}
}

func (m MainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "ctrl+c" {
		m.quitting = true
		return m, tea.Quit
	}

	switch msg := msg.(type) {
	case snapshotMsg:
		if m.state == StateRunning {
			var dm tea.Model
			dm, _ = m.dashModel.Update((*model.Report)(msg))
			m.dashModel = dm.(*DashModel)
			return m, m.waitSnapshot()
		}
	case finishedMsg:
		m.state = StateSummary
		m.final = (*model.Report)(msg)
		m.sumModel = NewSummaryModel(m.final, time.Since(m.start))
	}

	return m, nil
}

func (m MainModel) View() string {
	if m.quitting {
		return "Exiting...\n"
	}
	switch m.state {
	case StateRunning:
		return m.dashModel.View()
	case StateSummary:
		return m.sumModel.View()
	default:
		return "Unknown state"
	}
}
