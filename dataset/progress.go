package dataset

import (
	"io"
	"sync"
)

// ProgressFunc receives the bytes received so far and the bytes expected
// across all fetches started so far.
type ProgressFunc func(completed, total int64)

// Progress aggregates download progress over concurrent fetches. Callbacks
// are serialised and completed never decreases.
type Progress struct {
	mu        sync.Mutex
	completed int64
	total     int64
	fn        ProgressFunc
}

func NewProgress(fn ProgressFunc) *Progress {
	return &Progress{fn: fn}
}

// Expect adds the size of a fetch that has just started.
func (p *Progress) Expect(size int64) {
	p.mu.Lock()
	p.total += size
	p.mu.Unlock()
}

// Add records n received bytes of a fetch whose size was announced via
// Expect.
func (p *Progress) Add(n int64) {
	p.advance(n, 0)
}

// AddUnsized records n received bytes of a fetch of unknown size, growing
// the expected total by the same amount.
func (p *Progress) AddUnsized(n int64) {
	p.advance(n, n)
}

func (p *Progress) advance(completed, total int64) {
	if completed <= 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	p.completed += completed
	p.total += total
	if p.fn != nil {
		p.fn(p.completed, p.total)
	}
}

func (p *Progress) Snapshot() (completed, total int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.completed, p.total
}

type progressReader struct {
	r     io.Reader
	p     *Progress
	sized bool
}

func (pr *progressReader) Read(b []byte) (int, error) {
	n, err := pr.r.Read(b)
	if n > 0 {
		if pr.sized {
			pr.p.Add(int64(n))
		} else {
			pr.p.AddUnsized(int64(n))
		}
	}
	return n, err
}
