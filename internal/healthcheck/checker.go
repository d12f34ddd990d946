package healthcheck

import "context"

const (
	// StatusHealthy indicates the dependency answered its probe.
	StatusHealthy = "healthy"
	// StatusUnhealthy indicates the dependency is configured but unreachable.
	StatusUnhealthy = "unhealthy"
	// StatusConfigured indicates a dependency that only needs credentials and
	// has them.
	StatusConfigured = "configured"
	// StatusNotConfigured indicates the dependency was never set up. It does
	// not degrade the overall report.
	StatusNotConfigured = "not_configured"
)

// Checker probes one named dependency.
type Checker interface {
	Name() string
	Check(ctx context.Context) string
}

// Report is the aggregate health answer served to operators.
type Report struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services"`
}

// CheckFunc adapts a probe function to the Checker interface.
type CheckFunc struct {
	name string
	fn   func(ctx context.Context) string
}

func NewCheck(name string, fn func(ctx context.Context) string) CheckFunc {
	return CheckFunc{name: name, fn: fn}
}

func (c CheckFunc) Name() string { return c.name }

func (c CheckFunc) Check(ctx context.Context) string { return c.fn(ctx) }

// BoolCheck maps a yes/no probe onto healthy/unhealthy.
func BoolCheck(name string, fn func(ctx context.Context) bool) CheckFunc {
	return NewCheck(name, func(ctx context.Context) string {
		if fn(ctx) {
			return StatusHealthy
		}
		return StatusUnhealthy
	})
}

// ConfigCheck maps a credentials probe onto configured/not_configured.
func ConfigCheck(name string, fn func() bool) CheckFunc {
	return NewCheck(name, func(context.Context) string {
		if fn() {
			return StatusConfigured
		}
		return StatusNotConfigured
	})
}

// Registry evaluates a fixed set of checkers into one Report.
type Registry struct {
	checkers []Checker
}

func NewRegistry(checkers ...Checker) *Registry {
	return &Registry{checkers: checkers}
}

// Evaluate runs every checker. The report is "healthy" only when no probe
// answers unhealthy; unconfigured dependencies do not degrade it.
func (r *Registry) Evaluate(ctx context.Context) Report {
	report := Report{Status: StatusHealthy, Services: make(map[string]string, len(r.checkers))}
	for _, c := range r.checkers {
		status := c.Check(ctx)
		report.Services[c.Name()] = status
		if status == StatusUnhealthy {
			report.Status = "degraded"
		}
	}
	return report
}
