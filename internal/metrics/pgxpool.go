package metrics

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// RegisterPgxPoolMetrics exposes connection pool stats as gauges. Pool
// saturation is the usual first suspect when detection latency climbs.
func RegisterPgxPoolMetrics(pool *pgxpool.Pool) {
	gauges := []struct {
		name string
		help string
		stat func(*pgxpool.Stat) float64
	}{
		{"portal_pgxpool_acquired_conns", "Connections currently checked out of the pool",
			func(s *pgxpool.Stat) float64 { return float64(s.AcquiredConns()) }},
		{"portal_pgxpool_idle_conns", "Idle connections held by the pool",
			func(s *pgxpool.Stat) float64 { return float64(s.IdleConns()) }},
		{"portal_pgxpool_total_conns", "Total connections managed by the pool",
			func(s *pgxpool.Stat) float64 { return float64(s.TotalConns()) }},
		{"portal_pgxpool_max_conns", "Configured pool ceiling",
			func(s *pgxpool.Stat) float64 { return float64(s.MaxConns()) }},
	}
	for _, g := range gauges {
		statFn := g.stat
		prometheus.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: g.name,
			Help: g.help,
		}, func() float64 {
			return statFn(pool.Stat())
		}))
	}
}
