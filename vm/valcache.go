package vm

import "sync"

// ---------------------------------------------------------------------------
// Validation cache

// verdict is one cached validation outcome. Exactly one of analysis and
// err is set.
type verdict struct {
	analysis *Analysis
	err      error
}

// AnalysisCache memoizes container validation verdicts by code hash.
// Entries are write-once, read-many: concurrent callers may race to
// validate the same hash, but validation is deterministic so the verdicts
// are identical and the first write wins.
type AnalysisCache struct {
	mu       sync.RWMutex
	verdicts map[Hash]verdict
}

// NewAnalysisCache creates an empty cache.
func NewAnalysisCache() *AnalysisCache {
	return &AnalysisCache{verdicts: make(map[Hash]verdict)}
}

// Validate returns the validation verdict for code, computing and
// recording it on first use. Legacy code has no static validator and
// always yields a nil analysis with no error.
func (c *AnalysisCache) Validate(code *Code) (*Analysis, error) {
	if !code.IsEOF() {
		return nil, nil
	}

	h := code.Hash()
	c.mu.RLock()
	v, ok := c.verdicts[h]
	c.mu.RUnlock()
	if ok {
		return v.analysis, v.err
	}

	analysis, err := ValidateContainer(code.Container())

	c.mu.Lock()
	if prev, ok := c.verdicts[h]; ok {
		v = prev
	} else {
		v = verdict{analysis: analysis, err: err}
		c.verdicts[h] = v
	}
	c.mu.Unlock()
	return v.analysis, v.err
}

// Has reports whether a verdict for the hash is already recorded.
func (c *AnalysisCache) Has(h Hash) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.verdicts[h]
	return ok
}

// Len returns the number of recorded verdicts.
func (c *AnalysisCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.verdicts)
}
