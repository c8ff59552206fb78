package reorgdetector

import (
	"sort"

	"github.com/ethereum/go-ethereum/common"
)

type header struct {
	Num  uint64
	Hash common.Hash
}

// headersList is the set of blocks tracked for a subscriber. It is not safe for
// concurrent use, callers hold ReorgDetector.trackedBlocksLock
type headersList struct {
	headers map[uint64]header
}

func newHeadersList(headers ...header) *headersList {
	l := &headersList{headers: make(map[uint64]header, len(headers))}
	for _, h := range headers {
		l.add(h)
	}

	return l
}

func (l *headersList) len() int {
	return len(l.headers)
}

func (l *headersList) isEmpty() bool {
	return len(l.headers) == 0
}

// add inserts the header, replacing the one tracked at the same number
func (l *headersList) add(h header) {
	l.headers[h.Num] = h
}

func (l *headersList) get(num uint64) (header, bool) {
	h, ok := l.headers[num]
	return h, ok
}

// getSorted returns the headers in ascending order
func (l *headersList) getSorted() []header {
	sorted := make([]header, 0, len(l.headers))
	for _, h := range l.headers {
		sorted = append(sorted, h)
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Num < sorted[j].Num
	})

	return sorted
}

// removeMatching drops the given headers, unless another hash is tracked at their number
func (l *headersList) removeMatching(hdrs ...header) {
	for _, h := range hdrs {
		if tracked, ok := l.headers[h.Num]; ok && tracked.Hash == h.Hash {
			delete(l.headers, h.Num)
		}
	}
}

// removeUpTo drops the headers with number <= num
func (l *headersList) removeUpTo(num uint64) {
	for n := range l.headers {
		if n <= num {
			delete(l.headers, n)
		}
	}
}
