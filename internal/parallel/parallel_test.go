package parallel

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"
)

func TestRun_Success(t *testing.T) {
	tasks := []Task[int]{
		{Name: "one", Fn: func(context.Context) (int, error) { return 1, nil }},
		{Name: "two", Fn: func(context.Context) (int, error) { return 2, nil }},
		{Name: "three", Fn: func(context.Context) (int, error) { return 3, nil }},
	}

	results := Run(context.Background(), tasks, 4)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, r := range results {
		if !r.OK() {
			t.Errorf("task %s should be OK", r.Name)
		}
		if r.Value != i+1 {
			t.Errorf("task %s: expected %d, got %d", r.Name, i+1, r.Value)
		}
	}
}

func TestRun_WithErrors(t *testing.T) {
	tasks := []Task[string]{
		{Name: "ok", Fn: func(context.Context) (string, error) { return "copied", nil }},
		{Name: "fail", Fn: func(context.Context) (string, error) { return "", fmt.Errorf("simulated failure") }},
	}

	results := Run(context.Background(), tasks, 4)
	if !results[0].OK() {
		t.Error("first task should be OK")
	}
	if results[1].OK() {
		t.Error("second task should have failed")
	}
	if failed := Failed(results); len(failed) != 1 || failed[0].Name != "fail" {
		t.Errorf("Failed() = %+v", failed)
	}
}

func TestRun_Concurrency(t *testing.T) {
	var maxConcurrent int64
	var current int64

	tasks := make([]Task[struct{}], 10)
	for i := range tasks {
		tasks[i] = Task[struct{}]{
			Name: fmt.Sprintf("task-%d", i),
			Fn: func(context.Context) (struct{}, error) {
				c := atomic.AddInt64(&current, 1)
				for {
					old := atomic.LoadInt64(&maxConcurrent)
					if c <= old || atomic.CompareAndSwapInt64(&maxConcurrent, old, c) {
						break
					}
				}
				time.Sleep(20 * time.Millisecond)
				atomic.AddInt64(&current, -1)
				return struct{}{}, nil
			},
		}
	}

	results := Run(context.Background(), tasks, 2)
	if len(results) != 10 {
		t.Fatalf("expected 10 results, got %d", len(results))
	}
	if maxConcurrent > 2 {
		t.Errorf("max concurrent should be <= 2, got %d", maxConcurrent)
	}
}

func TestRun_DefaultConcurrency(t *testing.T) {
	tasks := []Task[int]{
		{Name: "test", Fn: func(context.Context) (int, error) { return 0, nil }},
	}
	if results := Run(context.Background(), tasks, 0); len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran int64
	tasks := []Task[int]{
		{Name: "skipped", Fn: func(context.Context) (int, error) {
			atomic.AddInt64(&ran, 1)
			return 0, nil
		}},
	}
	results := Run(ctx, tasks, 1)
	if results[0].Err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", results[0].Err)
	}
	if ran != 0 {
		t.Error("task should not run after cancellation")
	}
}

func TestRun_TimingTracked(t *testing.T) {
	tasks := []Task[int]{
		{Name: "slow", Fn: func(context.Context) (int, error) {
			time.Sleep(30 * time.Millisecond)
			return 0, nil
		}},
	}
	results := Run(context.Background(), tasks, 1)
	if results[0].Elapsed < 30*time.Millisecond {
		t.Errorf("expected elapsed >= 30ms, got %v", results[0].Elapsed)
	}
}
