package signer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var totalSignatures = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "signer_total_signatures",
	Help: "Total raw signatures produced, by algorithm family",
}, []string{"family"})
