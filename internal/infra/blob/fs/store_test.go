package fs

import (
	"context"
	"io"
	"strings"
	"testing"

	"injectcore/internal/blob/core"
)

func TestPutGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	payload := `{"report":"weekly"}`
	info, err := store.Put(ctx, "advisory/2026/w09.json", strings.NewReader(payload), core.PutOptions{ContentType: "application/json"})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != int64(len(payload)) || info.ETag == "" {
		t.Fatalf("unexpected info: %+v", info)
	}

	got, rc, err := store.Get(ctx, "advisory/2026/w09.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != payload {
		t.Fatalf("payload mismatch: %s", data)
	}
	if got.ContentType != "application/json" || got.ETag != info.ETag {
		t.Fatalf("metadata mismatch: %+v vs %+v", got, info)
	}

	head, err := store.Head(ctx, "advisory/2026/w09.json")
	if err != nil || head.Size != info.Size {
		t.Fatalf("head: %v %+v", err, head)
	}
}

func TestPutRejectsExistingAndBadKeys(t *testing.T) {
	ctx := context.Background()
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if _, err := store.Put(ctx, "k", strings.NewReader("one"), core.PutOptions{}); err != nil {
		t.Fatalf("first put: %v", err)
	}
	if _, err := store.Put(ctx, "k", strings.NewReader("two"), core.PutOptions{}); err == nil {
		t.Fatalf("duplicate key must fail")
	}
	for _, key := range []string{"", "../escape", "/absolute", "a/../../b"} {
		if _, err := store.Put(ctx, key, strings.NewReader("x"), core.PutOptions{}); err == nil {
			t.Fatalf("key %q must be rejected", key)
		}
	}
}

func TestListAndDelete(t *testing.T) {
	ctx := context.Background()
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	for _, key := range []string{"advisory/a.json", "advisory/b.json", "other/c.json"} {
		if _, err := store.Put(ctx, key, strings.NewReader(key), core.PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}
	infos, err := store.List(ctx, "advisory/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 2 || infos[0].Key != "advisory/a.json" {
		t.Fatalf("unexpected listing: %+v", infos)
	}

	existed, err := store.Delete(ctx, "advisory/a.json")
	if err != nil || !existed {
		t.Fatalf("delete: existed=%v err=%v", existed, err)
	}
	existed, err = store.Delete(ctx, "advisory/a.json")
	if err != nil || existed {
		t.Fatalf("double delete: existed=%v err=%v", existed, err)
	}
	infos, err = store.List(ctx, "advisory/")
	if err != nil || len(infos) != 1 {
		t.Fatalf("post-delete listing: %v %+v", err, infos)
	}
}
