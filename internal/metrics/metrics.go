package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BetsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dindin_bets_total",
		Help: "Bets accepted.",
	})

	BetAmountTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dindin_bet_amount_total",
		Help: "Total stake accepted, in currency units.",
	})

	PayoutTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dindin_payouts_total",
		Help: "Total winnings credited, in currency units.",
	})

	RoundsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dindin_rounds_total",
		Help: "Rounds completed.",
	})

	ConnectedClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dindin_ws_clients",
		Help: "Currently connected websocket clients.",
	})

	BetRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dindin_bet_rejections_total",
		Help: "Bets rejected, by reason.",
	}, []string{"reason"})
)
