package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates a non-critical component failed.
	Degraded Status = "degraded"
	// Unhealthy indicates a storage component failed and retrieval cannot run.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names reported in Report.Checks.
const (
	ComponentDatabase    = "database"
	ComponentVectorIndex = "vector_index"
	ComponentEmbedding   = "embedding"
	ComponentBudgetStore = "budget_store"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

type probe struct {
	name     string
	critical bool
	check    func(ctx context.Context) error
}

// Service coordinates health checks.
type Service struct {
	probes []probe
}

// Option adds an optional component to the health report.
type Option func(*Service)

// WithVectorIndex checks a vector index that lives outside the database.
func WithVectorIndex(p Pinger) Option {
	return func(s *Service) {
		s.probes = append(s.probes, probe{name: ComponentVectorIndex, critical: true, check: p.Ping})
	}
}

// WithEmbedding checks the embedding provider.
func WithEmbedding(c EmbeddingChecker) Option {
	return func(s *Service) {
		s.probes = append(s.probes, probe{name: ComponentEmbedding, check: c.HealthCheck})
	}
}

// WithBudgetStore checks the token budget persistence backend.
func WithBudgetStore(p Pinger) Option {
	return func(s *Service) {
		s.probes = append(s.probes, probe{name: ComponentBudgetStore, check: p.Ping})
	}
}

// New creates a Service. The database check is always present.
func New(db Pinger, opts ...Option) *Service {
	s := &Service{probes: []probe{{name: ComponentDatabase, critical: true, check: db.Ping}}}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Check runs every probe. A failing critical probe makes the report Unhealthy,
// any other failure makes it Degraded.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult, len(s.probes))
	status := Healthy

	for _, p := range s.probes {
		if err := p.check(ctx); err != nil {
			checks[p.name] = CheckError
			if p.critical {
				status = Unhealthy
			} else if status == Healthy {
				status = Degraded
			}
			continue
		}
		checks[p.name] = CheckOK
	}

	return Report{Status: status, Checks: checks}
}
