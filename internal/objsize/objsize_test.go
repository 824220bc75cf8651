package objsize

import (
	"testing"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestOfScalar(t *testing.T) {
	if Of(42) == 0 {
		t.Fatalf("expected non-zero size for an int")
	}
}

func TestOfSliceGrowsWithElements(t *testing.T) {
	small := Of([]int{1, 2, 3})
	large := make([]int, 1000)
	if Of(large) <= small {
		t.Fatalf("expected a larger slice to report a larger size")
	}
}

func TestOfLargeSliceUsesWorkerPoolAndLeavesNoGoroutines(t *testing.T) {
	defer goleak.VerifyNone(t)

	large := make([][]byte, parallelThreshold*4)
	for i := range large {
		large[i] = make([]byte, 128)
	}
	if Of(large) == 0 {
		t.Fatalf("expected non-zero size for a large slice sized via the worker pool")
	}
}

func TestOfHandlesSharedPointerWithoutInfiniteLoop(t *testing.T) {
	type node struct {
		next *node
		val  int
	}
	n := &node{val: 1}
	n.next = n // self-referential payload must not hang sizing.

	size := Of(n)
	if size == 0 {
		t.Fatalf("expected non-zero size for a self-referential struct")
	}
}

func TestOfMapAndStruct(t *testing.T) {
	type pair struct {
		K string
		V int
	}
	m := map[string]int{"a": 1, "b": 2}
	if Of(m) == 0 {
		t.Fatalf("expected non-zero size for a map")
	}
	if Of(pair{K: "x", V: 1}) == 0 {
		t.Fatalf("expected non-zero size for a struct")
	}
}
