package event

import (
	"testing"
)

func TestQueue_DrainRunsInOrder(t *testing.T) {
	q := NewQueue()
	var order []int
	for i := 0; i < 3; i++ {
		i := i
		q.Schedule(func() { order = append(order, i) })
	}

	if got := q.Drain(); got != 3 {
		t.Fatalf("Drain ran %d tasks, want 3", got)
	}
	for i, v := range order {
		if v != i {
			t.Errorf("task order %v", order)
			break
		}
	}
}

func TestQueue_TasksScheduledDuringDrainDeferred(t *testing.T) {
	q := NewQueue()
	ran := false
	q.Schedule(func() {
		q.Schedule(func() { ran = true })
	})

	if got := q.Drain(); got != 1 {
		t.Fatalf("first Drain ran %d tasks, want 1", got)
	}
	if ran {
		t.Fatal("nested task ran in the same cycle")
	}
	if q.Len() != 1 {
		t.Fatalf("pending = %d, want 1", q.Len())
	}

	if got := q.Drain(); got != 1 {
		t.Fatalf("second Drain ran %d tasks, want 1", got)
	}
	if !ran {
		t.Error("nested task did not run on the next cycle")
	}
}

func TestQueue_SelfReschedulingTaskTerminates(t *testing.T) {
	q := NewQueue()
	runs := 0
	var fn func()
	fn = func() {
		runs++
		q.Schedule(fn)
	}
	q.Schedule(fn)

	// Each cycle runs the task exactly once; the reschedule waits for
	// the next cycle instead of keeping the drain spinning.
	for i := 0; i < 3; i++ {
		if got := q.Drain(); got != 1 {
			t.Fatalf("Drain ran %d tasks, want 1", got)
		}
	}
	if runs != 3 {
		t.Errorf("task ran %d times, want 3", runs)
	}
	if q.Len() != 1 {
		t.Errorf("pending = %d, want 1", q.Len())
	}
}

func TestQueue_DrainEmpty(t *testing.T) {
	q := NewQueue()
	if got := q.Drain(); got != 0 {
		t.Errorf("Drain on empty queue ran %d tasks", got)
	}
}

func TestCoalesce(t *testing.T) {
	tests := []struct {
		name string
		in   []ViewChange
		want []ViewChange
	}{
		{
			"disjoint",
			[]ViewChange{{0, 1}, {5, 6}},
			[]ViewChange{{0, 1}, {5, 6}},
		},
		{
			"overlapping",
			[]ViewChange{{0, 4}, {2, 8}},
			[]ViewChange{{0, 8}},
		},
		{
			"adjacent",
			[]ViewChange{{0, 2}, {3, 5}},
			[]ViewChange{{0, 5}},
		},
		{
			"unsorted input",
			[]ViewChange{{10, 12}, {0, 1}, {11, 15}},
			[]ViewChange{{0, 1}, {10, 15}},
		},
		{
			"contained",
			[]ViewChange{{0, 10}, {2, 3}},
			[]ViewChange{{0, 10}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Coalesce(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("got %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}

func TestNotifier_FlushCoalescesAndDelivers(t *testing.T) {
	n := NewNotifier()
	var got []ViewChange
	n.Subscribe(func(changes []ViewChange) { got = changes })

	n.Changed(3, 5)
	n.Changed(5, 9)
	n.Changed(20, 21)
	n.Flush()

	want := []ViewChange{{3, 9}, {20, 21}}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got %v, want %v", got, want)
			break
		}
	}
}

func TestNotifier_FlushEmptyDeliversNothing(t *testing.T) {
	n := NewNotifier()
	called := false
	n.Subscribe(func([]ViewChange) { called = true })
	n.Flush()
	if called {
		t.Error("handler called with nothing pending")
	}
}

func TestNotifier_ReversedRangeNormalized(t *testing.T) {
	n := NewNotifier()
	var got []ViewChange
	n.Subscribe(func(changes []ViewChange) { got = changes })

	n.Changed(9, 3)
	n.Flush()

	if len(got) != 1 || got[0] != (ViewChange{3, 9}) {
		t.Errorf("got %v, want [{3 9}]", got)
	}
}
