package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	CandlesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "candles_total", Help: "Count of candles ingested"},
		[]string{"symbol"},
	)
	SignalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "signals_total", Help: "MACD cross events emitted, by outcome"},
		[]string{"symbol","direction"},
	)
	ConfirmationScore = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "confirmation_score",
			Help:    "Confirmation score of scored cross events",
			Buckets: prometheus.LinearBuckets(0, 10, 12),
		},
		[]string{"direction"},
	)
	ScanErrors = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "scan_errors_total", Help: "Candles skipped after a recovered evaluation failure"},
	)
	TradesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "trades_total", Help: "Ledger fills"},
		[]string{"symbol","side"},
	)
	LedgerRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "ledger_rejections_total", Help: "Events the ledger refused"},
		[]string{"reason"},
	)
	OrdersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "orders_total", Help: "Orders submitted"},
		[]string{"symbol","side"},
	)
	PaperCash = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "paper_cash", Help: "Paper account cash balance"},
	)
)

func init() {
	prometheus.MustRegister(CandlesTotal, SignalsTotal, ConfirmationScore, ScanErrors, TradesTotal, LedgerRejections, OrdersTotal, PaperCash)
}

func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{ Addr: addr, Handler: mux }
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
