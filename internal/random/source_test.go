package random

import (
	"math"
	"sync"
	"testing"
)

func TestBetweenStaysInBounds(t *testing.T) {
	src := NewSource(42)
	tcs := []struct {
		low  int
		high int
	}{
		{low: 1, high: 1},
		{low: 1, high: 6},
		{low: -10, high: 10},
		{low: 3, high: 3},
		{low: math.MinInt, high: math.MaxInt},
		{low: -1, high: math.MaxInt},
	}

	for _, tc := range tcs {
		for i := 0; i < 200; i++ {
			got := src.Between(tc.low, tc.high)
			if got < tc.low || got > tc.high {
				t.Fatalf("Between(%d, %d) = %d", tc.low, tc.high, got)
			}
		}
	}
}

func TestBetweenCoversRange(t *testing.T) {
	src := NewSource(7)
	seen := map[int]bool{}
	for i := 0; i < 1000; i++ {
		seen[src.Between(1, 6)] = true
	}
	for face := 1; face <= 6; face++ {
		if !seen[face] {
			t.Fatalf("face %d never rolled", face)
		}
	}
}

func TestBetweenIsDeterministicForSeed(t *testing.T) {
	first := NewSource(12345)
	second := NewSource(12345)
	for i := 0; i < 50; i++ {
		a := first.Between(1, 20)
		b := second.Between(1, 20)
		if a != b {
			t.Fatalf("draw %d differs: %d vs %d", i, a, b)
		}
	}
	if first.Seed() != 12345 {
		t.Fatalf("Seed() = %d, want 12345", first.Seed())
	}
}

func TestBetweenPanicsOnInvertedBounds(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	NewSource(1).Between(2, 1)
}

func TestBetweenConcurrentUse(t *testing.T) {
	src := NewSource(9)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if got := src.Between(1, 12); got < 1 || got > 12 {
					t.Errorf("Between(1, 12) = %d", got)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestResolveSeed(t *testing.T) {
	seed, err := ResolveSeed(99)
	if err != nil || seed != 99 {
		t.Fatalf("ResolveSeed(99) = %d, %v", seed, err)
	}
	if _, err := ResolveSeed(0); err != nil {
		t.Fatalf("ResolveSeed(0) error = %v", err)
	}
}

func TestNewSeeded(t *testing.T) {
	src, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if got := src.Between(1, 4); got < 1 || got > 4 {
		t.Fatalf("Between(1, 4) = %d", got)
	}
}
