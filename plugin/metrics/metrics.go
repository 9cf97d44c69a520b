// Package metrics is a Gatehouse plugin that exports guard decisions and
// write-path activity as Prometheus metrics.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xraph/gatehouse"
	"github.com/xraph/gatehouse/entitlement"
	"github.com/xraph/gatehouse/grant"
	"github.com/xraph/gatehouse/module"
	"github.com/xraph/gatehouse/plugin"
	"github.com/xraph/gatehouse/subscription"
)

// Compile-time hook checks.
var (
	_ plugin.Plugin               = (*Plugin)(nil)
	_ plugin.AfterGuard           = (*Plugin)(nil)
	_ plugin.GrantsReplaced       = (*Plugin)(nil)
	_ plugin.EntitlementsReplaced = (*Plugin)(nil)
	_ plugin.SubscriptionChanged  = (*Plugin)(nil)
	_ plugin.ModuleCreated        = (*Plugin)(nil)
	_ plugin.ModuleDeleted        = (*Plugin)(nil)
)

// Plugin holds all Prometheus metrics.
type Plugin struct {
	registry *prometheus.Registry

	GuardDecisionsTotal *prometheus.CounterVec
	GuardDuration       *prometheus.HistogramVec
	GrantReplacements   prometheus.Counter
	GrantedModules      prometheus.Histogram
	EntitlementChanges  prometheus.Counter
	SubscriptionChanges *prometheus.CounterVec
	CatalogChangesTotal *prometheus.CounterVec
}

// New creates the metrics and registers them with registry. A nil registry
// gets a fresh one.
func New(registry *prometheus.Registry) *Plugin {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	p := &Plugin{
		registry: registry,
		GuardDecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gatehouse_guard_decisions_total",
				Help: "Total number of guard chain verdicts",
			},
			[]string{"decision", "reason", "stage"},
		),
		GuardDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gatehouse_guard_duration_seconds",
				Help:    "Guard chain evaluation time in seconds",
				Buckets: prometheus.ExponentialBuckets(0.00001, 4, 8),
			},
			[]string{"decision"},
		),
		GrantReplacements: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "gatehouse_grant_replacements_total",
				Help: "Total number of module permission replacements",
			},
		),
		GrantedModules: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "gatehouse_granted_modules",
				Help:    "Number of active grants written per replacement",
				Buckets: prometheus.LinearBuckets(0, 5, 8),
			},
		),
		EntitlementChanges: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "gatehouse_entitlement_replacements_total",
				Help: "Total number of tenant entitlement replacements",
			},
		),
		SubscriptionChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gatehouse_subscription_changes_total",
				Help: "Total number of subscription writes by status",
			},
			[]string{"status"},
		),
		CatalogChangesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gatehouse_catalog_changes_total",
				Help: "Total number of module catalog changes",
			},
			[]string{"operation"},
		),
	}

	registry.MustRegister(
		p.GuardDecisionsTotal,
		p.GuardDuration,
		p.GrantReplacements,
		p.GrantedModules,
		p.EntitlementChanges,
		p.SubscriptionChanges,
		p.CatalogChangesTotal,
	)
	return p
}

// Name implements plugin.Plugin.
func (p *Plugin) Name() string { return "metrics" }

// Registry returns the registry the metrics are registered with.
func (p *Plugin) Registry() *prometheus.Registry { return p.registry }

// Handler serves the registry in the Prometheus exposition format.
func (p *Plugin) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// OnAfterGuard counts the verdict by decision, reason and stage.
func (p *Plugin) OnAfterGuard(_ context.Context, _, _, verdict any) error {
	v, ok := verdict.(*gatehouse.Verdict)
	if !ok || v == nil {
		return nil
	}
	decision := string(v.Decision())
	stage := ""
	if !v.Allowed {
		stage = v.Stage.String()
	}
	p.GuardDecisionsTotal.WithLabelValues(decision, string(v.Reason), stage).Inc()
	p.GuardDuration.WithLabelValues(decision).Observe(float64(v.EvalTimeNs) / 1e9)
	return nil
}

// OnGrantsReplaced counts a module permission replacement.
func (p *Plugin) OnGrantsReplaced(_ context.Context, _ string, grants []*grant.Grant) error {
	p.GrantReplacements.Inc()
	p.GrantedModules.Observe(float64(len(grants)))
	return nil
}

// OnEntitlementsReplaced counts an entitlement replacement.
func (p *Plugin) OnEntitlementsReplaced(_ context.Context, _ string, _ []*entitlement.Entitlement) error {
	p.EntitlementChanges.Inc()
	return nil
}

// OnSubscriptionChanged counts a subscription write by its stored status.
func (p *Plugin) OnSubscriptionChanged(_ context.Context, s *subscription.Subscription) error {
	if s == nil {
		return nil
	}
	p.SubscriptionChanges.WithLabelValues(string(s.Status)).Inc()
	return nil
}

// OnModuleCreated counts a catalog addition.
func (p *Plugin) OnModuleCreated(_ context.Context, _ *module.Module) error {
	p.CatalogChangesTotal.WithLabelValues("create").Inc()
	return nil
}

// OnModuleDeleted counts a catalog removal.
func (p *Plugin) OnModuleDeleted(_ context.Context, _ string) error {
	p.CatalogChangesTotal.WithLabelValues("delete").Inc()
	return nil
}
