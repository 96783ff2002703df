package corelet_test

import (
	"fmt"
	"runtime"
	"testing"

	"github.com/joeycumines/go-coroio/internal/corelet"
)

func ExampleSpawn() {
	resume := corelet.Spawn(func(block func()) {
		for i := 1; i <= 3; i++ {
			fmt.Println("coroutine:", i)
			block()
		}
		fmt.Println("coroutine: done")
	}, nil)

	fmt.Println("not started yet")
	for resume() {
		fmt.Println("blocked")
	}
	fmt.Println("returned")

	// Output:
	// not started yet
	// coroutine: 1
	// blocked
	// coroutine: 2
	// blocked
	// coroutine: 3
	// blocked
	// coroutine: done
	// returned
}

func TestSpawnPanicRecovered(t *testing.T) {
	recovered := make(chan any, 1)

	resume := corelet.Spawn(func(block func()) {
		panic("boom")
	}, func(r any) {
		recovered <- r
	})

	alive := resume()
	if alive {
		t.Fatalf("resume() reported alive after a panicking body")
	}

	select {
	case r := <-recovered:
		if r != "boom" {
			t.Fatalf("onPanic got %v, want %q", r, "boom")
		}
	default:
		t.Fatalf("onPanic was never called")
	}
}

// TestSpawnLeakDetection exercises corelet's finalizer-based leak
// detection: resuming a coroutine that then never resumes again must not
// deadlock the caller forever once its Resume func is garbage collected.
func TestSpawnLeakDetection(t *testing.T) {
	leaked := make(chan any, 1)

	func() {
		resume := corelet.Spawn(func(block func()) {
			defer func() {
				if r := recover(); r != nil {
					leaked <- r
					panic(r)
				}
			}()
			block()
		}, nil)
		resume()
		// resume (and thus the only reference keeping its handoff channel
		// reachable) goes out of scope here.
	}()

	for {
		runtime.GC()
		select {
		case r := <-leaked:
			if r == nil {
				t.Fatalf("expected a non-nil leak panic value")
			}
			return
		default:
		}
	}
}
