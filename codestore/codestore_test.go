package codestore

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/chazu/ember/vm"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "verdicts.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutGet(t *testing.T) {
	s := openTestStore(t)
	hash := vm.Keccak256([]byte{0xef, 0x00, 0x01})

	want := &Verdict{Valid: false, Exception: "invalid non-returning flag", Fork: "osaka"}
	if err := s.Put(hash, want); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := s.Get(hash)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Valid != want.Valid {
		t.Errorf("got valid=%t, want %t", got.Valid, want.Valid)
	}
	if got.Exception != want.Exception {
		t.Errorf("got exception %q, want %q", got.Exception, want.Exception)
	}
	if got.Fork != want.Fork {
		t.Errorf("got fork %q, want %q", got.Fork, want.Fork)
	}
	if got.CreatedAt == 0 {
		t.Errorf("got created_at 0, want a stamped time")
	}
}

func TestGetMissing(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Get(vm.Keccak256([]byte("absent")))
	if !errors.Is(err, ErrVerdictNotFound) {
		t.Errorf("got %v, want %v", err, ErrVerdictNotFound)
	}
}

func TestPutReplaces(t *testing.T) {
	s := openTestStore(t)
	hash := vm.Keccak256([]byte("code"))

	if err := s.Put(hash, &Verdict{Valid: false, Exception: "truncated container"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Put(hash, &Verdict{Valid: true}); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := s.Get(hash)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.Valid {
		t.Errorf("got valid=false, want replacement verdict")
	}
	if got.Exception != "" {
		t.Errorf("got exception %q, want empty", got.Exception)
	}
}

func TestDelete(t *testing.T) {
	s := openTestStore(t)
	hash := vm.Keccak256([]byte("code"))

	if err := s.Put(hash, &Verdict{Valid: true}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Delete(hash); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(hash); !errors.Is(err, ErrVerdictNotFound) {
		t.Errorf("got %v, want %v", err, ErrVerdictNotFound)
	}

	// Deleting again is a no-op.
	if err := s.Delete(hash); err != nil {
		t.Errorf("delete absent: %v", err)
	}
}

func TestStats(t *testing.T) {
	s := openTestStore(t)

	verdicts := []struct {
		code  string
		valid bool
	}{
		{"a", true},
		{"b", true},
		{"c", false},
	}
	for _, v := range verdicts {
		if err := s.Put(vm.Keccak256([]byte(v.code)), &Verdict{Valid: v.valid}); err != nil {
			t.Fatalf("put %q: %v", v.code, err)
		}
	}

	got, err := s.Stats()
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if got.Total != 3 || got.Valid != 2 || got.Invalid != 1 {
		t.Errorf("got total=%d valid=%d invalid=%d, want 3/2/1", got.Total, got.Valid, got.Invalid)
	}
}

func TestReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "verdicts.db")
	hash := vm.Keccak256([]byte("persists"))

	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Put(hash, &Verdict{Valid: true, Fork: "osaka"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	got, err := s.Get(hash)
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	if !got.Valid || got.Fork != "osaka" {
		t.Errorf("got valid=%t fork=%q, want true/osaka", got.Valid, got.Fork)
	}
}
