package vm

import (
	"errors"
	"sync"
	"testing"
)

func TestAnalysisCacheReuse(t *testing.T) {
	cache := NewAnalysisCache()

	code, err := ParseCode(mustHex(t, "ef0001 01 0004 02 0001 0001 04 0000 00 00800000 00"))
	if err != nil {
		t.Fatal(err)
	}

	a1, err := cache.Validate(code)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	a2, err := cache.Validate(code)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if a1 != a2 {
		t.Error("second validation did not reuse the cached analysis")
	}
	if cache.Len() != 1 {
		t.Errorf("cache holds %d verdicts, want 1", cache.Len())
	}
	if !cache.Has(code.Hash()) {
		t.Error("cache should report the hash as recorded")
	}
}

func TestAnalysisCacheRejection(t *testing.T) {
	cache := NewAnalysisCache()

	code, err := ParseCode(mustHex(t, "ef0001 01 0008 02 0002 0003 0001 04 0000 00 00800000 00000000 e50001 e4"))
	if err != nil {
		t.Fatal(err)
	}

	_, err1 := cache.Validate(code)
	_, err2 := cache.Validate(code)
	if !errors.Is(err1, ErrInvalidNonReturningFlag) {
		t.Fatalf("got %v, want %v", err1, ErrInvalidNonReturningFlag)
	}
	if !errors.Is(err2, err1) && err1.Error() != err2.Error() {
		t.Errorf("cached rejection differs: %v vs %v", err1, err2)
	}
}

func TestAnalysisCacheLegacy(t *testing.T) {
	cache := NewAnalysisCache()

	code, err := ParseCode(mustHex(t, "600056"))
	if err != nil {
		t.Fatal(err)
	}

	a, err := cache.Validate(code)
	if err != nil {
		t.Fatalf("legacy code should not be validated: %v", err)
	}
	if a != nil {
		t.Error("legacy code should have no analysis")
	}
	if cache.Len() != 0 {
		t.Error("legacy code should not occupy the cache")
	}
}

func TestAnalysisCacheConcurrent(t *testing.T) {
	cache := NewAnalysisCache()

	code, err := ParseCode(mustHex(t, "ef0001 01 0004 02 0001 0001 04 0000 00 00800000 00"))
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	results := make([]*Analysis, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, err := cache.Validate(code)
			if err != nil {
				t.Errorf("Validate failed: %v", err)
				return
			}
			results[i] = a
		}(i)
	}
	wg.Wait()

	if cache.Len() != 1 {
		t.Fatalf("cache holds %d verdicts, want 1", cache.Len())
	}
	for i, a := range results {
		if a == nil {
			t.Fatalf("goroutine %d got nil analysis", i)
		}
		if a != results[0] {
			t.Fatalf("goroutine %d got a different analysis pointer", i)
		}
	}
}
