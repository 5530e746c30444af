// Package metrics exposes prometheus counters for the access-control core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AccessDenials = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clubcore_access_denials_total",
		Help: "Access decisions resolved to deny, by reason.",
	}, []string{"reason"})

	ImpersonationSessions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clubcore_impersonation_sessions_total",
		Help: "Impersonation session lifecycle events.",
	}, []string{"event"})

	SecurityAlerts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clubcore_security_alerts_total",
		Help: "Security alerts recorded, by severity.",
	}, []string{"severity"})

	Logins = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clubcore_logins_total",
		Help: "Login attempts by scope and outcome.",
	}, []string{"scope", "outcome"})
)
