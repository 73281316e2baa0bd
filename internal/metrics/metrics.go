// Package metrics exposes Prometheus counters for bot activity.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	InteractionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ridemaker_interactions_total",
		Help: "Discord interactions handled, by interaction kind.",
	}, []string{"kind"})

	RidesCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ridemaker_rides_created_total",
		Help: "Rides created, by ride type.",
	}, []string{"ride_type"})

	ReactionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ridemaker_reactions_total",
		Help: "Participation reactions applied, by action.",
	}, []string{"action"})

	RemindersSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ridemaker_reminders_sent_total",
		Help: "Reminder batches delivered, by tier.",
	}, []string{"tier"})

	WeatherCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ridemaker_weather_cache_total",
		Help: "Weather cache lookups, by result.",
	}, []string{"result"})
)
