package crypto

import (
	"math/big"
	"sync"
)

// bigIntPool recycles big.Int allocations for the hot VDF loops where millions of
// intermediate values would otherwise be discarded to the garbage collector
type bigIntPool struct{ pool sync.Pool }

// bip is the shared big.Int pool for this package
var bip = &bigIntPool{pool: sync.Pool{New: func() any { return new(big.Int) }}}

// New() takes a zeroed big.Int from the pool
func (b *bigIntPool) New() *big.Int { return b.pool.Get().(*big.Int).SetInt64(0) }

// Recycle() returns big.Ints to the pool once the caller is done with them
func (b *bigIntPool) Recycle(ints ...*big.Int) {
	for _, i := range ints {
		b.pool.Put(i)
	}
}
