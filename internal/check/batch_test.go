package check

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"testing"
)

func TestRunBatchAllSucceed(t *testing.T) {
	launcher := &fakeLauncher{}
	opener := &fakeOpener{newSession: func(string) *fakeSession {
		return &fakeSession{screenshot: []byte("png")}
	}}
	runner := newTestRunner(opener, launcher, &scriptedProber{})

	outcomes := RunBatch(context.Background(), 3, runner)
	if len(outcomes) != 3 {
		t.Fatalf("got %d outcomes", len(outcomes))
	}
	indexes := make([]int, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Kind != KindSuccess {
			t.Fatalf("task %d: %s (%v)", o.Index, o.Kind, o.Err)
		}
		indexes = append(indexes, o.Index)
	}
	sort.Ints(indexes)
	if fmt.Sprint(indexes) != "[0 1 2]" {
		t.Fatalf("indexes = %v", indexes)
	}
	drivers := launcher.drivers()
	if len(drivers) != 3 {
		t.Fatalf("launched %d drivers", len(drivers))
	}
	for i, d := range drivers {
		if got := d.stops.Load(); got != 1 {
			t.Fatalf("driver %d stopped %d times", i, got)
		}
	}
}

func TestRunBatchIsolatesMismatch(t *testing.T) {
	launcher := &fakeLauncher{}
	var calls atomic.Int32
	opener := &fakeOpener{newSession: func(string) *fakeSession {
		if calls.Add(1) == 2 {
			return &fakeSession{reportURL: "http://localhost:9999", screenshot: []byte("png")}
		}
		return &fakeSession{screenshot: []byte("png")}
	}}
	runner := newTestRunner(opener, launcher, &scriptedProber{})

	outcomes := RunBatch(context.Background(), DefaultSessions, runner)
	tally := Summary(outcomes)
	if tally.Total != DefaultSessions || tally.Failed != 1 || tally.Succeeded != DefaultSessions-1 {
		t.Fatalf("unexpected tally %+v", tally)
	}
	if tally.ByKind[KindMismatch] != 1 {
		t.Fatalf("expected one mismatch, got %+v", tally.ByKind)
	}
	for _, o := range outcomes {
		if o.Kind == KindMismatch && !strings.Contains(o.Err.Error(), "localhost:9999") {
			t.Fatalf("mismatch error should name the observed URL: %v", o.Err)
		}
	}
}

type panicky struct {
	inner Checker
	at    int
}

func (p panicky) Check(ctx context.Context, index int) Outcome {
	if index == p.at {
		panic("boom")
	}
	return p.inner.Check(ctx, index)
}

func TestRunBatchRecoversPanics(t *testing.T) {
	opener := &fakeOpener{newSession: func(string) *fakeSession {
		return &fakeSession{screenshot: []byte("png")}
	}}
	runner := newTestRunner(opener, &fakeLauncher{}, &scriptedProber{})

	outcomes := RunBatch(context.Background(), 4, panicky{inner: runner, at: 1})
	if len(outcomes) != 4 {
		t.Fatalf("got %d outcomes", len(outcomes))
	}
	for _, o := range outcomes {
		want := KindSuccess
		if o.Index == 1 {
			want = KindInternalFault
		}
		if o.Kind != want {
			t.Fatalf("task %d: Kind = %s, want %s (%v)", o.Index, o.Kind, want, o.Err)
		}
	}
}

func TestRunBatchEmpty(t *testing.T) {
	if got := RunBatch(context.Background(), 0, &Runner{}); len(got) != 0 {
		t.Fatalf("expected no outcomes, got %d", len(got))
	}
}
