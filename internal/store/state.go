// Package store holds the dashboard's entity stores and their merge rules.
//
// Machines and orders are only ever replaced wholesale. Safety incidents are
// replaced wholesale by snapshots and patched in place by id. Logs and
// workflows are bounded newest-first deques fed by the event stream (logs
// can additionally be replaced by a snapshot).
//
// Every mutation is serialized through one mutex so whichever write is
// applied last wins for the fields it touches.
package store

import (
	"sync"

	"shopfloor_dashboard/internal/models"
)

// Default capacities for each store.
const (
	DefaultMachinesCap  = 1000
	DefaultOrdersCap    = 1000
	DefaultSafetyCap    = 1000
	DefaultLogsCap      = 500
	DefaultWorkflowsCap = 50
)

// Limits caps the number of records retained per store.
type Limits struct {
	Machines  int
	Orders    int
	Safety    int
	Logs      int
	Workflows int
}

// DefaultLimits returns the stock capacities.
func DefaultLimits() Limits {
	return Limits{
		Machines:  DefaultMachinesCap,
		Orders:    DefaultOrdersCap,
		Safety:    DefaultSafetyCap,
		Logs:      DefaultLogsCap,
		Workflows: DefaultWorkflowsCap,
	}
}

// withDefaults fills non-positive limits with the stock capacities.
func (l Limits) withDefaults() Limits {
	d := DefaultLimits()
	if l.Machines <= 0 {
		l.Machines = d.Machines
	}
	if l.Orders <= 0 {
		l.Orders = d.Orders
	}
	if l.Safety <= 0 {
		l.Safety = d.Safety
	}
	if l.Logs <= 0 {
		l.Logs = d.Logs
	}
	if l.Workflows <= 0 {
		l.Workflows = d.Workflows
	}
	return l
}

// Snapshot is a point-in-time copy of every store.
type Snapshot struct {
	Version   uint64
	Machines  []models.Machine
	Orders    []models.Order
	Safety    []models.SafetyIncident
	Logs      []models.LogEntry
	Workflows []models.WorkflowRecord
}

// State owns the five entity stores.
type State struct {
	mu        sync.RWMutex
	limits    Limits
	machines  []models.Machine
	orders    []models.Order
	safety    []models.SafetyIncident
	logs      *Bounded[models.LogEntry]
	workflows *Bounded[models.WorkflowRecord]
	version   uint64 // bumped on every effective mutation
}

// New returns empty stores bounded by limits.
func New(limits Limits) *State {
	limits = limits.withDefaults()
	return &State{
		limits:    limits,
		machines:  []models.Machine{},
		orders:    []models.Order{},
		safety:    []models.SafetyIncident{},
		logs:      NewBounded[models.LogEntry](limits.Logs),
		workflows: NewBounded[models.WorkflowRecord](limits.Workflows),
	}
}

// Limits returns the effective capacities.
func (s *State) Limits() Limits { return s.limits }

// ReplaceMachines swaps the machines store for in. Returns the retained count.
func (s *State) ReplaceMachines(in []models.Machine) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.machines = truncateCopy(in, s.limits.Machines)
	s.version++
	return len(s.machines)
}

// ReplaceOrders swaps the orders store for in. Returns the retained count.
func (s *State) ReplaceOrders(in []models.Order) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = truncateCopy(in, s.limits.Orders)
	s.version++
	return len(s.orders)
}

// ReplaceSafety swaps the safety store for in, discarding any status set by
// earlier patches. Returns the retained count.
func (s *State) ReplaceSafety(in []models.SafetyIncident) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.safety = truncateCopy(in, s.limits.Safety)
	s.version++
	return len(s.safety)
}

// ReplaceLogs swaps the logs store for in (newest-first). Returns the retained count.
func (s *State) ReplaceLogs(in []models.LogEntry) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs.Replace(in)
	s.version++
	return s.logs.Len()
}

// PrependLog adds e as the newest log entry. Reports whether the oldest entry was evicted.
func (s *State) PrependLog(e models.LogEntry) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.version++
	return s.logs.Prepend(e)
}

// PrependWorkflow adds w as the newest workflow record. Reports whether the oldest was evicted.
func (s *State) PrependWorkflow(w models.WorkflowRecord) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.version++
	return s.workflows.Prepend(w)
}

// ResolveSafety marks the incident with the given id resolved, leaving every
// other field untouched. It reports whether the id was found; an unknown id
// leaves the store unchanged.
func (s *State) ResolveSafety(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.safety {
		if s.safety[i].ID != id {
			continue
		}
		if s.safety[i].Status != models.SafetyResolved {
			s.safety[i].Status = models.SafetyResolved
			s.version++
		}
		return true
	}
	return false
}

// SafetyIncident looks up an incident by id.
func (s *State) SafetyIncident(id string) (models.SafetyIncident, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, inc := range s.safety {
		if inc.ID == id {
			return inc, true
		}
	}
	return models.SafetyIncident{}, false
}

// Version returns the mutation counter.
func (s *State) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Counts returns the number of records per collection.
func (s *State) Counts() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]int{
		models.CollectionMachines:  len(s.machines),
		models.CollectionOrders:    len(s.orders),
		models.CollectionSafety:    len(s.safety),
		models.CollectionLogs:      s.logs.Len(),
		models.CollectionWorkflows: s.workflows.Len(),
	}
}

// Snapshot copies every store.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Version:   s.version,
		Machines:  truncateCopy(s.machines, 0),
		Orders:    truncateCopy(s.orders, 0),
		Safety:    truncateCopy(s.safety, 0),
		Logs:      s.logs.Items(),
		Workflows: s.workflows.Items(),
	}
}

// truncateCopy copies at most limit leading elements of in (limit <= 0 means all).
// The result is never nil.
func truncateCopy[T any](in []T, limit int) []T {
	n := len(in)
	if limit > 0 && n > limit {
		n = limit
	}
	out := make([]T, n)
	copy(out, in[:n])
	return out
}
