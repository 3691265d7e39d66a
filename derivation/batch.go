package derivation

import (
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// MaxRangeSize bounds the number of addresses derived by one DeriveRange call.
const MaxRangeSize = 10000

// DeriveRange derives addresses indexStart..indexEnd inclusive for the
// account and change index of in.Path. Results are ordered by index.
func (e *Engine) DeriveRange(in Input, indexStart, indexEnd uint32) ([]*Wallet, error) {
	if indexEnd < indexStart {
		return nil, fmt.Errorf("%w: %d > %d", ErrInvalidRange, indexStart, indexEnd)
	}
	n := int(indexEnd-indexStart) + 1
	if n > MaxRangeSize {
		return nil, fmt.Errorf("%w: %d indices exceeds %d", ErrInvalidRange, n, MaxRangeSize)
	}
	wallets := make([]*Wallet, n)

	var eg errgroup.Group
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for i := 0; i < n; i++ {
		i := i
		req := in
		req.Path.AddressIndex = indexStart + uint32(i)
		eg.Go(func() error {
			w, err := e.Derive(req)
			if err != nil {
				return err
			}
			wallets[i] = w
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		for _, w := range wallets {
			if w != nil {
				w.Wipe()
			}
		}
		return nil, err
	}
	return wallets, nil
}
