package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcomes recorded for each dynamic tax evaluation.
const (
	DynamicTaxApplied   = "applied"
	DynamicTaxInactive  = "inactive"
	DynamicTaxNoMatch   = "no_match"
	DynamicTaxMalformed = "malformed"
)

var (
	domainOnce sync.Once

	// DynamicTaxEvaluations counts fee calculator passes by outcome.
	DynamicTaxEvaluations *prometheus.CounterVec
	// CartFeeRecalculations counts fired cart fee recalculation events.
	CartFeeRecalculations prometheus.Counter
	// SettingsWrites counts admin settings writes by operation and result.
	SettingsWrites *prometheus.CounterVec
	// RateLimitDecisions counts limiter verdicts per policy.
	RateLimitDecisions *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		DynamicTaxEvaluations = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dyntax_rule_evaluations_total",
			Help:      "Count of dynamic tax rule evaluations by outcome.",
		}, []string{"result"})
		CartFeeRecalculations = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_fee_recalculations_total",
			Help:      "Total number of cart fee recalculation events fired.",
		})
		SettingsWrites = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settings_writes_total",
			Help:      "Count of admin settings writes by operation and result.",
		}, []string{"operation", "result"})
		RateLimitDecisions = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ratelimit_decisions_total",
			Help:      "Rate limiter verdicts by policy: allowed, limited or error.",
		}, []string{"policy", "decision"})

		mustRegisterCollector(reg, DynamicTaxEvaluations, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				DynamicTaxEvaluations = v
			}
		})
		mustRegisterCollector(reg, CartFeeRecalculations, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				CartFeeRecalculations = v
			}
		})
		mustRegisterCollector(reg, SettingsWrites, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				SettingsWrites = v
			}
		})
		mustRegisterCollector(reg, RateLimitDecisions, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				RateLimitDecisions = v
			}
		})
	})
}

// ObserveDynamicTax records one evaluation outcome. No-op until metrics are registered.
func ObserveDynamicTax(result string) {
	if DynamicTaxEvaluations == nil {
		return
	}
	DynamicTaxEvaluations.WithLabelValues(result).Inc()
}

// ObserveCartFeeRecalculation records one fired recalculation event.
func ObserveCartFeeRecalculation() {
	if CartFeeRecalculations == nil {
		return
	}
	CartFeeRecalculations.Inc()
}

// ObserveSettingsWrite records a settings write outcome.
func ObserveSettingsWrite(operation string, err error) {
	if SettingsWrites == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	SettingsWrites.WithLabelValues(operation, result).Inc()
}

// ObserveRateLimit records a limiter verdict for policy.
func ObserveRateLimit(policy, decision string) {
	if RateLimitDecisions == nil {
		return
	}
	RateLimitDecisions.WithLabelValues(policy, decision).Inc()
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
