package derivation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var totalDerivations = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "derivation_total_derivations",
	Help: "Total child keys derived, by algorithm family",
}, []string{"family"})
