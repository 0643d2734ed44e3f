package registry

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPutGetRoundTrip(t *testing.T) {
	r, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	in := &Entry{
		ID:        "0123456789abcdef",
		Signature: "demo.sum<>(kotlin.Int;kotlin.Int;)kotlin.Int",
		Package:   "demo",
		Context:   "$Context$0123456789abcdef",
		Backing:   []string{"$$a$$", "$$b$$"},
		Session:   "s1",
	}
	if err := r.Put(in); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok, err := r.Get(in.ID)
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if got.Context != in.Context || got.Signature != in.Signature || len(got.Backing) != 2 || got.Backing[1] != "$$b$$" {
		t.Fatalf("unexpected entry: %+v", got)
	}
	if got.Created == 0 {
		t.Fatalf("creation time not recorded")
	}
}

func TestGetMissing(t *testing.T) {
	r, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, ok, err := r.Get("ffffffffffffffff"); ok || err != nil {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
}

func TestCorruptEntryIsAnError(t *testing.T) {
	r, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	p := r.pathFor("abcd")
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte{0xc1}, 0o600); err != nil {
		t.Fatal(err)
	}
	if _, _, err := r.Get("abcd"); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestDropAll(t *testing.T) {
	r, err := Open(filepath.Join(t.TempDir(), "reg"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := r.Put(&Entry{ID: "aa00"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := r.DropAll(); err != nil {
		t.Fatalf("DropAll: %v", err)
	}
	if _, ok, _ := r.Get("aa00"); ok {
		t.Fatalf("entry survived DropAll")
	}
}

func TestNilRegistryIsInert(t *testing.T) {
	var r *Registry
	if err := r.Put(&Entry{ID: "x"}); err != nil {
		t.Fatalf("nil Put: %v", err)
	}
	if _, ok, err := r.Get("x"); ok || err != nil {
		t.Fatalf("nil Get: ok=%v err=%v", ok, err)
	}
}

func TestDelete(t *testing.T) {
	r, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := r.Put(&Entry{ID: "abcdef", Context: "Ctx"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := r.Delete("abcdef"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, err := r.Get("abcdef"); ok || err != nil {
		t.Fatalf("entry survived Delete: ok=%v err=%v", ok, err)
	}
	// повторное удаление не ошибка
	if err := r.Delete("abcdef"); err != nil {
		t.Fatalf("second Delete: %v", err)
	}
}
