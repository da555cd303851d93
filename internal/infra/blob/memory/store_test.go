package memory

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"strings"
	"testing"

	"injectcore/internal/blob/core"
)

func TestPutGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := New()

	info, err := store.Put(ctx, "reports/a.json", strings.NewReader(`{"ok":true}`), core.PutOptions{ContentType: "application/json", Metadata: map[string]string{"kind": "advisory"}})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != int64(len(`{"ok":true}`)) || info.ETag == "" {
		t.Fatalf("unexpected info: %+v", info)
	}

	got, rc, err := store.Get(ctx, "reports/a.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != `{"ok":true}` {
		t.Fatalf("payload mismatch: %s", data)
	}
	if got.ContentType != "application/json" || got.Metadata["kind"] != "advisory" {
		t.Fatalf("metadata mismatch: %+v", got)
	}
}

func TestPutIsCreateOnly(t *testing.T) {
	ctx := context.Background()
	store := New()
	if _, err := store.Put(ctx, "k", strings.NewReader("one"), core.PutOptions{}); err != nil {
		t.Fatalf("first put: %v", err)
	}
	if _, err := store.Put(ctx, "k", strings.NewReader("two"), core.PutOptions{}); err == nil {
		t.Fatalf("second put must fail")
	}
	if _, err := store.Put(ctx, "  ", strings.NewReader("x"), core.PutOptions{}); err == nil {
		t.Fatalf("blank key must fail")
	}
}

func TestMissingKeys(t *testing.T) {
	ctx := context.Background()
	store := New()
	if _, _, err := store.Get(ctx, "nope"); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected fs.ErrNotExist, got %v", err)
	}
	if _, err := store.Head(ctx, "nope"); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected fs.ErrNotExist, got %v", err)
	}
	existed, err := store.Delete(ctx, "nope")
	if err != nil || existed {
		t.Fatalf("delete missing: existed=%v err=%v", existed, err)
	}
}

func TestListByPrefixSorted(t *testing.T) {
	ctx := context.Background()
	store := New()
	for _, key := range []string{"b/2", "a/1", "b/1"} {
		if _, err := store.Put(ctx, key, strings.NewReader(key), core.PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}
	infos, err := store.List(ctx, "b/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 2 || infos[0].Key != "b/1" || infos[1].Key != "b/2" {
		t.Fatalf("unexpected listing: %+v", infos)
	}
	all, err := store.List(ctx, "")
	if err != nil || len(all) != 3 {
		t.Fatalf("full listing: %v %+v", err, all)
	}
}

func TestDeleteRemovesBlob(t *testing.T) {
	ctx := context.Background()
	store := New()
	if _, err := store.Put(ctx, "gone", strings.NewReader("x"), core.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	existed, err := store.Delete(ctx, "gone")
	if err != nil || !existed {
		t.Fatalf("delete: existed=%v err=%v", existed, err)
	}
	if _, err := store.Head(ctx, "gone"); err == nil {
		t.Fatalf("blob should be gone")
	}
}
