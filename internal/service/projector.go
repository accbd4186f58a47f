package service

import (
	"time"

	"shopfloor_dashboard/internal/models"
	"shopfloor_dashboard/internal/store"
)

// Defaults shown for workflows whose triage verdict left these blank.
const (
	defaultSeverity = "S4"
	defaultCategory = "Unknown"
)

// Projector exposes a read-only view of every store to the presentation layer.
type Projector struct {
	state *store.State
	coord *Coordinator
	now   func() time.Time
}

// NewProjector builds a projector over state and the coordinator's sync status.
func NewProjector(state *store.State, coord *Coordinator) *Projector {
	return &Projector{
		state: state,
		coord: coord,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// View copies the current state of every store.
func (p *Projector) View() models.DashboardView {
	snap := p.state.Snapshot()
	return models.DashboardView{
		Version:         snap.Version,
		Machines:        snap.Machines,
		Orders:          snap.Orders,
		SafetyIncidents: snap.Safety,
		Workflows:       snap.Workflows,
		Logs:            snap.Logs,
		Sources:         p.coord.Sources(),
		Stream:          p.coord.Stream(),
		Triage:          summarizeTriage(snap.Workflows),
		GeneratedAt:     p.now(),
	}
}

// Version returns the store mutation counter; it changes whenever View would.
func (p *Projector) Version() uint64 {
	return p.state.Version()
}

// summarizeTriage counts workflows by severity and category.
func summarizeTriage(workflows []models.WorkflowRecord) models.TriageSummary {
	sum := models.TriageSummary{
		Total:      len(workflows),
		BySeverity: make(map[string]int),
		ByCategory: make(map[string]int),
	}
	for _, wf := range workflows {
		sev := wf.Triage.Severity
		if sev == "" {
			sev = defaultSeverity
		}
		cat := wf.Triage.Category
		if cat == "" {
			cat = defaultCategory
		}
		sum.BySeverity[sev]++
		sum.ByCategory[cat]++
	}
	return sum
}
