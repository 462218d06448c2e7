package player

import (
	"io"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNotifyDropsStaleSnapshots(t *testing.T) {
	var got []int
	p := NewPoller(nil, WithLogger(log.New(io.Discard)), WithOnChange(func(s Snapshot) {
		got = append(got, s.ProgressMs)
	}))

	p.mu.Lock()
	p.snap.ProgressMs = 1000
	first, firstSeq := p.publishLocked()
	p.snap.ProgressMs = 2000
	second, secondSeq := p.publishLocked()
	p.mu.Unlock()

	// the later snapshot wins the race to the callback
	p.notify(second, secondSeq)
	p.notify(first, firstSeq)

	if len(got) != 1 || got[0] != 2000 {
		t.Errorf("delivered = %v, want [2000]", got)
	}
}

func TestNotifyDeliveriesNeverGoBackwards(t *testing.T) {
	var (
		mu   sync.Mutex
		last = -1
		bad  int
	)
	p := NewPoller(nil, WithLogger(log.New(io.Discard)), WithOnChange(func(s Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		if s.ProgressMs < last {
			bad++
		}
		last = s.ProgressMs
	}))

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.mu.Lock()
			p.snap.ProgressMs++
			snap, seq := p.publishLocked()
			p.mu.Unlock()
			p.notify(snap, seq)
		}()
	}
	wg.Wait()

	if bad != 0 {
		t.Errorf("%d deliveries went backwards", bad)
	}
}
