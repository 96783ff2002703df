package coroio

import "testing"

func TestSourceSlabInsertGetRemove(t *testing.T) {
	s := NewSourceSlab(4)

	tok, err := s.Insert(func(tok Token) EventSource {
		return EventSource{token: tok}
	})
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	src, ok := s.Get(tok)
	if !ok {
		t.Fatalf("Get(%d) not found after Insert", tok)
	}
	if src.token != tok {
		t.Fatalf("stored token = %d, want %d", src.token, tok)
	}

	if _, ok := s.Remove(tok); !ok {
		t.Fatalf("Remove(%d) failed", tok)
	}
	if _, ok := s.Get(tok); ok {
		t.Fatalf("Get(%d) still found after Remove", tok)
	}
}

func TestSourceSlabCapacityExhausted(t *testing.T) {
	s := NewSourceSlab(2)

	for i := 0; i < 2; i++ {
		if _, err := s.Insert(func(tok Token) EventSource { return EventSource{token: tok} }); err != nil {
			t.Fatalf("Insert #%d failed: %v", i, err)
		}
	}

	if _, err := s.Insert(func(tok Token) EventSource { return EventSource{token: tok} }); err != ErrSlabFull {
		t.Fatalf("Insert on full slab: got err %v, want ErrSlabFull", err)
	}
}

// TestSourceSlabQuarantineDeferral verifies a removed token is not reused
// until the next Tick, narrowing the token-reuse spurious-wake window
// (spec §9).
func TestSourceSlabQuarantineDeferral(t *testing.T) {
	s := NewSourceSlab(1)

	tok, err := s.Insert(func(tok Token) EventSource { return EventSource{token: tok} })
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	if _, ok := s.Remove(tok); !ok {
		t.Fatalf("Remove failed")
	}

	if _, err := s.Insert(func(tok Token) EventSource { return EventSource{token: tok} }); err != ErrSlabFull {
		t.Fatalf("Insert before Tick: got err %v, want ErrSlabFull (token should still be quarantined)", err)
	}

	s.Tick()

	tok2, err := s.Insert(func(tok Token) EventSource { return EventSource{token: tok} })
	if err != nil {
		t.Fatalf("Insert after Tick failed: %v", err)
	}
	if tok2 != tok {
		t.Fatalf("reused token = %d, want %d (the only freed slot)", tok2, tok)
	}
}

func TestSourceSlabLen(t *testing.T) {
	s := NewSourceSlab(4)
	if s.Len() != 0 {
		t.Fatalf("Len() on empty slab = %d, want 0", s.Len())
	}

	tok, _ := s.Insert(func(tok Token) EventSource { return EventSource{token: tok} })
	if s.Len() != 1 {
		t.Fatalf("Len() after one Insert = %d, want 1", s.Len())
	}

	s.Remove(tok)
	if s.Len() != 0 {
		t.Fatalf("Len() after Remove = %d, want 0", s.Len())
	}
}
