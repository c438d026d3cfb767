package persistence

import (
	"context"
	"testing"
)

func TestMemoryStateStore_roundTrip(t *testing.T) {
	s := NewMemoryStateStore()
	ctx := context.Background()

	if _, ok, err := s.Load(ctx, "evidence"); err != nil || ok {
		t.Fatalf("Load on empty store = ok=%v err=%v, want absent", ok, err)
	}

	if err := s.Save(ctx, "evidence", []byte(`{"artifacts":[]}`)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	state, ok, err := s.Load(ctx, "evidence")
	if err != nil || !ok {
		t.Fatalf("Load = ok=%v err=%v, want present", ok, err)
	}
	if string(state) != `{"artifacts":[]}` {
		t.Errorf("state = %s", state)
	}
}

func TestMemoryStateStore_saveReplaces(t *testing.T) {
	s := NewMemoryStateStore()
	ctx := context.Background()

	_ = s.Save(ctx, "setup", []byte(`{"visited":[]}`))
	_ = s.Save(ctx, "setup", []byte(`{"visited":["rasci"]}`))

	state, _, _ := s.Load(ctx, "setup")
	if string(state) != `{"visited":["rasci"]}` {
		t.Errorf("state = %s, want second snapshot", state)
	}
}

func TestMemoryStateStore_loadCopies(t *testing.T) {
	s := NewMemoryStateStore()
	ctx := context.Background()

	_ = s.Save(ctx, "org", []byte(`abc`))
	state, _, _ := s.Load(ctx, "org")
	state[0] = 'x'

	again, _, _ := s.Load(ctx, "org")
	if string(again) != "abc" {
		t.Errorf("stored snapshot mutated through returned slice: %s", again)
	}
}
