package bootstrap

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/kbukum/injectkit/di"
)

// InfrastructureInfo describes a piece of infrastructure started with the app.
type InfrastructureInfo struct {
	Name    string
	Type    string // "http", "otlp"
	Status  string
	Details string
	Port    int
	Healthy bool
}

// RouteInfo represents a served HTTP route.
type RouteInfo struct {
	Method  string
	Path    string
	Handler string
}

// Summary tracks and displays the application bootstrap process.
type Summary struct {
	serviceName     string
	version         string
	startupDuration time.Duration
	infrastructure  []InfrastructureInfo
	routes          []RouteInfo
	out             io.Writer
}

// NewSummary creates a summary that writes to stdout.
func NewSummary(serviceName, version string) *Summary {
	return &Summary{
		serviceName:    serviceName,
		version:        version,
		infrastructure: make([]InfrastructureInfo, 0),
		routes:         make([]RouteInfo, 0),
		out:            os.Stdout,
	}
}

// SetOutput redirects the summary to w.
func (s *Summary) SetOutput(w io.Writer) {
	s.out = w
}

// SetStartupDuration records the total startup time.
func (s *Summary) SetStartupDuration(d time.Duration) {
	s.startupDuration = d
}

// TrackInfrastructure adds an infrastructure component with detailed metadata.
func (s *Summary) TrackInfrastructure(name, infraType, status, details string, port int, healthy bool) {
	s.infrastructure = append(s.infrastructure, InfrastructureInfo{
		Name:    name,
		Type:    infraType,
		Status:  status,
		Details: details,
		Port:    port,
		Healthy: healthy,
	})
}

// TrackRoute records an HTTP route.
func (s *Summary) TrackRoute(method, path, handler string) {
	s.routes = append(s.routes, RouteInfo{
		Method:  method,
		Path:    path,
		Handler: handler,
	})
}

// DisplaySummary prints the bootstrap summary including every registration
// currently held by reg.
func (s *Summary) DisplaySummary(reg *di.Registry) {
	w := s.out
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "🚀 %s v%s started in %.2fs\n\n",
		s.serviceName, s.version, s.startupDuration.Seconds())

	if len(s.infrastructure) > 0 {
		fmt.Fprintf(w, "📊 Infrastructure\n")
		for i, inf := range s.infrastructure {
			details := inf.Details
			if inf.Port > 0 {
				details = fmt.Sprintf("%s (:%d)", details, inf.Port)
			}
			fmt.Fprintf(w, "   %s %s %s: %s\n",
				treePrefix(i, len(s.infrastructure)), statusIcon(inf.Status, inf.Healthy), inf.Name, details)
		}
		fmt.Fprintf(w, "\n")
	}

	var regs []di.RegistrationInfo
	if reg != nil {
		regs = reg.Registrations()
	}
	if len(regs) > 0 {
		initialized := 0
		fmt.Fprintf(w, "📦 Registrations (%d)\n", len(regs))
		for i, r := range regs {
			status := "deferred"
			if r.Initialized {
				status = "initialized"
				initialized++
			}
			fmt.Fprintf(w, "   %s %s %s [%s] (%s)\n",
				treePrefix(i, len(regs)), strategyIcon(r.Strategy), r.Key, r.Strategy, status)
		}
		fmt.Fprintf(w, "\n✅ %d/%d registrations hold a value\n", initialized, len(regs))
	} else {
		fmt.Fprintf(w, "📦 Registrations\n")
		fmt.Fprintf(w, "   └── No registrations\n")
	}

	if len(s.routes) > 0 {
		fmt.Fprintf(w, "\n🌐 Routes (%d)\n", len(s.routes))
		for i, r := range s.routes {
			fmt.Fprintf(w, "   %s %-7s %s → %s\n", treePrefix(i, len(s.routes)), r.Method, r.Path, r.Handler)
		}
	}

	fmt.Fprintf(w, "\n")
}

func treePrefix(i, n int) string {
	if i == n-1 {
		return "└──"
	}
	return "├──"
}

func statusIcon(status string, healthy bool) string {
	if !healthy {
		return "❌"
	}
	switch status {
	case "active", "initialized", "connected", "healthy":
		return "✅"
	case "inactive", "disabled":
		return "⏸️"
	case "error", "failed":
		return "❌"
	default:
		return "⚠️"
	}
}

func strategyIcon(s di.Strategy) string {
	switch s {
	case di.StrategySingleton:
		return "🔒"
	case di.StrategyLazy:
		return "⚡"
	case di.StrategyFactory:
		return "🏭"
	default:
		return "📌"
	}
}
