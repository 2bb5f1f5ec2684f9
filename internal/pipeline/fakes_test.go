package pipeline

import (
	"context"
	"sync"
)

type fakeRoster struct {
	mu      sync.Mutex
	classes map[string][]Student
	err     error
	calls   int
	// gate, when set, blocks FetchRoster until it is closed
	gate    chan struct{}
	started chan struct{}
}

func (f *fakeRoster) FetchRoster(ctx context.Context, classID string) ([]Student, error) {
	f.mu.Lock()
	f.calls++
	gate, started, err := f.gate, f.started, f.err
	students := f.classes[classID]
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	out := make([]Student, len(students))
	copy(out, students)
	return out, nil
}

func (f *fakeRoster) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

type fakeStore struct {
	mu      sync.Mutex
	batches []Batch
	err     error
	gate    chan struct{}
	started chan struct{}
}

func (f *fakeStore) SubmitBatch(ctx context.Context, batch Batch) (Receipt, error) {
	f.mu.Lock()
	gate, started, err := f.gate, f.started, f.err
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return Receipt{}, ctx.Err()
		}
	}
	if err != nil {
		return Receipt{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, batch)
	return Receipt{BatchID: "batch", Recorded: len(batch.Marks)}, nil
}

func (f *fakeStore) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeStore) submitted() []Batch {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Batch, len(f.batches))
	copy(out, f.batches)
	return out
}
