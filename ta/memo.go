package ta

import (
	"hash/fnv"
	"math"
)

// MemoTable caches computed indicator series keyed by indicator name, period
// and a hash of the input series. It is owned by its caller and carries no
// synchronization: concurrent backtest runs each allocate their own table.
type MemoTable struct {
	entries map[memoKey][]float64
}

type memoKey struct {
	indicator string
	period    int
	hash      uint64
}

// NewMemoTable allocates an empty memo table.
func NewMemoTable() *MemoTable {
	return &MemoTable{entries: make(map[memoKey][]float64)}
}

// GetOrCompute returns the cached series for (indicator, period, series) or
// runs compute and caches its result. Compute errors are not cached.
func (m *MemoTable) GetOrCompute(indicator string, period int, series []float64, compute func() ([]float64, error)) ([]float64, error) {
	key := memoKey{indicator: indicator, period: period, hash: hashSeries(series)}
	if cached, ok := m.entries[key]; ok {
		return cached, nil
	}
	out, err := compute()
	if err != nil {
		return nil, err
	}
	m.entries[key] = out
	return out, nil
}

func hashSeries(series []float64) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	for _, v := range series {
		bits := math.Float64bits(v)
		for i := 0; i < 8; i++ {
			buf[i] = byte(bits >> (8 * i))
		}
		h.Write(buf[:])
	}
	return h.Sum64()
}
