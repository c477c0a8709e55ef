// Package metrics описывает прикладные метрики Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Результаты попытки входа.
const (
	LoginSuccess = "success"
	LoginFailed  = "failed"
	LoginLocked  = "locked"
)

// Metrics — счётчики сервиса.
type Metrics struct {
	LoginAttempts *prometheus.CounterVec
	AccountLocks  prometheus.Counter
	Reactions     *prometheus.CounterVec
	CacheLookups  *prometheus.CounterVec
}

// New регистрирует счётчики в reg. Для тестов передаётся отдельный
// prometheus.NewRegistry(), для сервиса — prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		LoginAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "buzznet",
			Name:      "login_attempts_total",
			Help:      "Login attempts by result.",
		}, []string{"result"}),
		AccountLocks: f.NewCounter(prometheus.CounterOpts{
			Namespace: "buzznet",
			Name:      "account_locks_total",
			Help:      "Accounts locked after too many failed logins.",
		}),
		Reactions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "buzznet",
			Name:      "reactions_total",
			Help:      "Reaction toggles by requested kind and resulting state.",
		}, []string{"kind", "state"}),
		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "buzznet",
			Name:      "post_cache_lookups_total",
			Help:      "Post cache lookups by outcome.",
		}, []string{"outcome"}),
	}
}

// Nop возвращает метрики, не привязанные к глобальному реестру.
func Nop() *Metrics {
	return New(prometheus.NewRegistry())
}
