package id

import (
	"sync"
	"testing"
)

func TestGenerateIsUnique(t *testing.T) {
	a, b := Generate(), Generate()
	if a == b {
		t.Errorf("Generate returned %q twice", a)
	}
	if len(GenerateShort()) != 8 {
		t.Errorf("len(GenerateShort()) = %d, want 8", len(GenerateShort()))
	}
}

func TestNewSequence(t *testing.T) {
	next := NewSequence("col")
	if got := next(); got != "col-1" {
		t.Errorf("first id = %q, want col-1", got)
	}
	if got := next(); got != "col-2" {
		t.Errorf("second id = %q, want col-2", got)
	}
}

func TestNewSequenceConcurrent(t *testing.T) {
	next := NewScoped("node")
	var mu sync.Mutex
	seen := make(map[string]bool)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				v := next()
				mu.Lock()
				seen[v] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if len(seen) != 800 {
		t.Errorf("got %d distinct ids, want 800", len(seen))
	}
}
