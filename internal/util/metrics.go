package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	tournamentsCreatedCounter   prometheus.Counter
	levelEndedCounter           prometheus.Counter
	seatMovesCounter            prometheus.Counter
	stateSavesCounter           prometheus.Counter
	activeTournamentsCountGauge prometheus.Gauge
}

func (m *metrics) TournamentCreated() {
	m.tournamentsCreatedCounter.Inc()
}

func (m *metrics) LevelEnded() {
	m.levelEndedCounter.Inc()
}

func (m *metrics) SeatMoves(count int) {
	m.seatMovesCounter.Add(float64(count))
}

func (m *metrics) StateSaved() {
	m.stateSavesCounter.Inc()
}

func (m *metrics) SetActiveTournamentsCount(count int) {
	m.activeTournamentsCountGauge.Set(float64(count))
}

var Metrics = &metrics{
	tournamentsCreatedCounter: promauto.NewCounter(prometheus.CounterOpts{
		Name: "tournaments_created_total",
		Help: "Total number of tournaments created",
	}),
	levelEndedCounter: promauto.NewCounter(prometheus.CounterOpts{
		Name: "blind_levels_ended_total",
		Help: "Total number of blind levels ended by the clock",
	}),
	seatMovesCounter: promauto.NewCounter(prometheus.CounterOpts{
		Name: "seat_moves_total",
		Help: "Total number of player seat moves (balance, break, redraw)",
	}),
	stateSavesCounter: promauto.NewCounter(prometheus.CounterOpts{
		Name: "tournament_state_saves_total",
		Help: "Total number of tournament state writes to the persist store",
	}),
	activeTournamentsCountGauge: promauto.NewGauge(prometheus.GaugeOpts{
		Name: "active_tournaments_count",
		Help: "Count of the entries in the tournament manager active map",
	}),
}
