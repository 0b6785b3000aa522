package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		codesIssuedTotal,
		codesRedeemedTotal,
		redemptionLookupsTotal,
		modeTogglesTotal,
	)
}

var (
	codesIssuedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "promo_codes_issued_total",
			Help: "Total number of promo codes issued.",
		},
	)

	codesRedeemedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "promo_codes_redeemed_total",
			Help: "Total number of promo codes marked used.",
		},
	)

	redemptionLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promo_redemption_lookups_total",
			Help: "Redemption lookups by outcome.",
		},
		[]string{"outcome"},
	)

	modeTogglesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "operator_mode_toggles_total",
			Help: "Operator checking-mode toggles by direction.",
		},
		[]string{"direction"},
	)
)

func IncCodesIssued() {
	codesIssuedTotal.Inc()
}

func IncCodesRedeemed() {
	codesRedeemedTotal.Inc()
}

// IncRedemptionLookup records a lookup outcome:
// redeemed | already_used | not_subscribed | not_found.
func IncRedemptionLookup(outcome string) {
	redemptionLookupsTotal.WithLabelValues(outcome).Inc()
}

func IncModeToggle(on bool) {
	direction := "off"
	if on {
		direction = "on"
	}
	modeTogglesTotal.WithLabelValues(direction).Inc()
}
