package recovery

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	totalSharesDecrypted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recovery_total_shares_decrypted",
		Help: "Total key shares decrypted, by share origin",
	}, []string{"origin"})
	totalKeysRecovered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recovery_total_keys_recovered",
		Help: "Total private keys reconstructed and verified against metadata",
	}, []string{"algorithm"})
	totalPublicKeyMismatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recovery_total_public_key_mismatches",
		Help: "Total reconstructed keys dropped because the public key did not match metadata",
	}, []string{"algorithm"})
	totalWalletMastersRecovered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "recovery_total_wallet_masters_recovered",
		Help: "Total non-custodial wallet master keys recovered",
	})
	totalWalletSharesDerived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "recovery_total_wallet_shares_derived",
		Help: "Total non-custodial wallet cosigner shares derived",
	})
)
