package api

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/mmbarrys/navigara/internal/analyzer"
	"github.com/mmbarrys/navigara/internal/layout"
	"github.com/mmbarrys/navigara/internal/metrics"
	"github.com/mmbarrys/navigara/internal/orgraph"
)

// snapshotCache memoizes rendered snapshots by dataset content. Cached
// snapshots are shared between requests and must never be modified.
type snapshotCache struct {
	entries *lru.Cache[string, *layout.Snapshot]
	metrics *metrics.Registry
}

func newSnapshotCache(size int, m *metrics.Registry) (*snapshotCache, error) {
	entries, err := lru.New[string, *layout.Snapshot](size)
	if err != nil {
		return nil, fmt.Errorf("creating snapshot cache: %w", err)
	}
	return &snapshotCache{entries: entries, metrics: m}, nil
}

func datasetKey(ds orgraph.Dataset) (string, error) {
	data, err := json.Marshal(ds)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// render returns the snapshot of ds, analyzing it on a miss.
func (c *snapshotCache) render(source string, ds orgraph.Dataset) (*layout.Snapshot, error) {
	key, err := datasetKey(ds)
	if err != nil {
		return nil, fmt.Errorf("hashing dataset: %w", err)
	}

	if snap, ok := c.entries.Get(key); ok {
		c.metrics.RecordCacheLookup(true)
		return snap, nil
	}
	c.metrics.RecordCacheLookup(false)

	result := analyzer.Analyze(ds.Employees, ds.Edges)
	c.metrics.RecordAnalysis(source, result.Metrics.TotalEmployees, result.Metrics.SiloCount, result.Metrics.AverageEffectiveness)

	snap := layout.Render(ds, result)
	c.entries.Add(key, snap)

	return snap, nil
}

func (c *snapshotCache) Len() int { return c.entries.Len() }
