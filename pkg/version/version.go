package version

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// Ledger hands out a strictly increasing counter per lineage key.
// Implementations must be atomic: two concurrent calls never get the same value.
type Ledger interface {
	Next(ctx context.Context, lineageKey string) (int64, error)
}

// Format maps the n-th issuance to "major.minor": 1 -> "1.0", 10 -> "1.9", 11 -> "2.0".
func Format(n int64) string {
	if n < 1 {
		n = 1
	}
	return fmt.Sprintf("%d.%d", (n-1)/10+1, (n-1)%10)
}

// Parse is the inverse of Format. It returns 0 for strings Format never produces.
func Parse(v string) int64 {
	major, minor, ok := strings.Cut(strings.TrimSpace(v), ".")
	if !ok {
		return 0
	}
	ma, err1 := strconv.ParseInt(major, 10, 64)
	mi, err2 := strconv.ParseInt(minor, 10, 64)
	if err1 != nil || err2 != nil || ma < 1 || mi < 0 || mi > 9 {
		return 0
	}
	return (ma-1)*10 + mi + 1
}

// Next issues the next formatted version for lineageKey.
func Next(ctx context.Context, l Ledger, lineageKey string) (string, error) {
	n, err := l.Next(ctx, lineageKey)
	if err != nil {
		return "", fmt.Errorf("version ledger: %w", err)
	}
	return Format(n), nil
}

// CoverLetterKey is the lineage key of cover letters generated for one optimized resume.
func CoverLetterKey(optimizedResumeID string) string {
	return "cover-letter:" + optimizedResumeID
}

// MemoryLedger keeps counters in process memory (tests, single-instance dev).
type MemoryLedger struct {
	mu       sync.Mutex
	counters map[string]int64
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{counters: make(map[string]int64)}
}

func (m *MemoryLedger) Next(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[key]++
	return m.counters[key], nil
}
