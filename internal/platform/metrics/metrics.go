package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the settlement engine. All
// methods are safe to call on a nil *Metrics.
type Metrics struct {
	PointsPurchased     prometheus.Counter
	PointsStaked        prometheus.Counter
	Settlements         *prometheus.CounterVec
	PointsSettled       *prometheus.CounterVec
	VotesCast           prometheus.Counter
	InvariantViolations prometheus.Counter
	SweepTransitions    *prometheus.CounterVec
	RatingMuDelta       prometheus.Histogram
	PayoutsDelivered    prometheus.Counter
}

// New creates the collectors and registers them with reg. Pass
// prometheus.DefaultRegisterer in binaries and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		PointsPurchased: factory.NewCounter(prometheus.CounterOpts{
			Name: "civicstake_points_purchased_total",
			Help: "Total points purchased into wallets",
		}),
		PointsStaked: factory.NewCounter(prometheus.CounterOpts{
			Name: "civicstake_points_staked_total",
			Help: "Total points moved from wallets into question escrows",
		}),
		Settlements: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "civicstake_settlements_total",
			Help: "Escrow finalizations by outcome",
		}, []string{"outcome"}),
		PointsSettled: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "civicstake_points_settled_total",
			Help: "Points leaving escrow by outcome",
		}, []string{"outcome"}),
		VotesCast: factory.NewCounter(prometheus.CounterOpts{
			Name: "civicstake_votes_cast_total",
			Help: "Votes recorded on answers, including changed votes",
		}),
		InvariantViolations: factory.NewCounter(prometheus.CounterOpts{
			Name: "civicstake_invariant_violations_total",
			Help: "Mutations rejected because they would break a ledger invariant",
		}),
		SweepTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "civicstake_sweep_transitions_total",
			Help: "Deadline driven transitions applied by the sweeper",
		}, []string{"transition"}),
		RatingMuDelta: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "civicstake_rating_mu_delta",
			Help:    "Change of politician mu per rating update",
			Buckets: prometheus.LinearBuckets(-5, 1, 11),
		}),
		PayoutsDelivered: factory.NewCounter(prometheus.CounterOpts{
			Name: "civicstake_charity_payouts_delivered_total",
			Help: "Charity payouts handed to the sink",
		}),
	}
}

func (m *Metrics) AddPurchased(points int64) {
	if m == nil {
		return
	}
	m.PointsPurchased.Add(float64(points))
}

func (m *Metrics) AddStaked(points int64) {
	if m == nil {
		return
	}
	m.PointsStaked.Add(float64(points))
}

func (m *Metrics) ObserveSettlement(outcome string, points int64) {
	if m == nil {
		return
	}
	m.Settlements.WithLabelValues(outcome).Inc()
	m.PointsSettled.WithLabelValues(outcome).Add(float64(points))
}

func (m *Metrics) IncrementVotes() {
	if m == nil {
		return
	}
	m.VotesCast.Inc()
}

func (m *Metrics) IncrementInvariantViolations() {
	if m == nil {
		return
	}
	m.InvariantViolations.Inc()
}

func (m *Metrics) IncrementSweepTransition(transition string) {
	if m == nil {
		return
	}
	m.SweepTransitions.WithLabelValues(transition).Inc()
}

func (m *Metrics) ObserveMuDelta(delta float64) {
	if m == nil {
		return
	}
	m.RatingMuDelta.Observe(delta)
}

func (m *Metrics) IncrementPayoutsDelivered() {
	if m == nil {
		return
	}
	m.PayoutsDelivered.Inc()
}
