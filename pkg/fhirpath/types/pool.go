package types

import "sync"

// Collection allocation is on the hot path of every evaluation: a simple
// literal like `5` still allocates a one-element Collection to carry its
// result through the tree walk, and a path expression over a resource with
// hundreds of elements allocates one per step. This file amortizes that
// cost two ways: a sync.Pool for the slice backing arrays of intermediate
// collections (GetCollection/PutCollection), and precomputed singletons for
// the handful of values every evaluation touches regardless of input
// (true, false, small integers, the empty collection).

var collectionSlicePool = sync.Pool{
	New: func() interface{} {
		c := make(Collection, 0, collectionPoolInitialCap)
		return &c
	},
}

// collectionPoolInitialCap is sized for the common case: most FHIRPath
// sub-expressions produce a handful of elements, not hundreds.
const collectionPoolInitialCap = 4

// GetCollection borrows a zero-length Collection from the pool. Callers that
// know they're done with it should return it via PutCollection; callers
// that hand it onward (e.g. as a function result) should not, since pool
// reuse would then race with whoever reads the returned value afterward.
func GetCollection() *Collection {
	return collectionSlicePool.Get().(*Collection)
}

// PutCollection returns c to the pool, truncated to length 0 so the next
// borrower starts clean but reuses the backing array.
func PutCollection(c *Collection) {
	if c == nil {
		return
	}
	*c = (*c)[:0]
	collectionSlicePool.Put(c)
}

// NewCollectionWithCap allocates a Collection sized for an expected element
// count, bypassing the pool — useful when the caller needs to keep the
// result around past the current evaluation step (pooled buffers are only
// safe for strictly scoped, return-before-reuse lifetimes).
func NewCollectionWithCap(capacity int) Collection {
	return make(Collection, 0, capacity)
}

// SingletonCollection wraps a single Value as a one-element Collection.
func SingletonCollection(v Value) Collection {
	return Collection{v}
}

// EmptyCollection is the shared representation of FHIRPath's empty
// collection ({}). It is never mutated; every caller that needs an empty
// result can reuse this instead of allocating.
var EmptyCollection = Collection{}

// cachedBool backs GetBoolean/TrueCollection/FalseCollection: both FHIRPath
// booleans, allocated once.
var cachedBool = [2]Boolean{
	false: {value: false},
	true:  {value: true},
}

// GetBoolean returns the shared Boolean instance for b.
func GetBoolean(b bool) Boolean {
	return cachedBool[boolIndex(b)]
}

func boolIndex(b bool) int {
	if b {
		return 1
	}
	return 0
}

// TrueCollection and FalseCollection are the singleton collections every
// boolean-returning function (exists(), contains(), the comparison
// operators) can return without allocating.
var (
	TrueCollection  = Collection{cachedBool[1]}
	FalseCollection = Collection{cachedBool[0]}
)

// smallIntegerRange covers the values small-number literals and indexing
// arithmetic (`$index`, substring positions) produce overwhelmingly more
// often than anything outside it.
const (
	smallIntegerMin = -128
	smallIntegerMax = 127
)

var smallIntegers = func() [smallIntegerMax - smallIntegerMin + 1]Integer {
	var cache [smallIntegerMax - smallIntegerMin + 1]Integer
	for i := range cache {
		cache[i] = Integer{value: int64(i + smallIntegerMin)}
	}
	return cache
}()

// GetInteger returns the cached Integer for n when it falls within
// [smallIntegerMin, smallIntegerMax], otherwise allocates a fresh one.
func GetInteger(n int64) Integer {
	if n >= smallIntegerMin && n <= smallIntegerMax {
		return smallIntegers[n-smallIntegerMin]
	}
	return Integer{value: n}
}
