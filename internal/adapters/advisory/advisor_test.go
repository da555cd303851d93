package advisory

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"injectcore/internal/blob"
	"injectcore/internal/core"
)

// mapArchive is a minimal blob.Store used to observe archived reports.
type mapArchive struct {
	blobs map[string][]byte
}

func newMapArchive() *mapArchive { return &mapArchive{blobs: map[string][]byte{}} }

func (a *mapArchive) Put(_ context.Context, key string, r io.Reader, _ blob.PutOptions) (blob.Info, error) {
	if _, exists := a.blobs[key]; exists {
		return blob.Info{}, errors.New("already exists")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return blob.Info{}, err
	}
	a.blobs[key] = data
	return blob.Info{Key: key, Size: int64(len(data))}, nil
}

func (a *mapArchive) Get(_ context.Context, key string) (blob.Info, io.ReadCloser, error) {
	data, ok := a.blobs[key]
	if !ok {
		return blob.Info{}, nil, errors.New("not found")
	}
	return blob.Info{Key: key, Size: int64(len(data))}, io.NopCloser(strings.NewReader(string(data))), nil
}

func (a *mapArchive) Head(_ context.Context, key string) (blob.Info, error) {
	data, ok := a.blobs[key]
	if !ok {
		return blob.Info{}, errors.New("not found")
	}
	return blob.Info{Key: key, Size: int64(len(data))}, nil
}

func (a *mapArchive) Delete(_ context.Context, key string) (bool, error) {
	if _, ok := a.blobs[key]; !ok {
		return false, nil
	}
	delete(a.blobs, key)
	return true, nil
}

func (a *mapArchive) List(_ context.Context, prefix string) ([]blob.Info, error) {
	var infos []blob.Info
	for key, data := range a.blobs {
		if strings.HasPrefix(key, prefix) {
			infos = append(infos, blob.Info{Key: key, Size: int64(len(data))})
		}
	}
	return infos, nil
}

func (a *mapArchive) Driver() blob.Driver { return blob.DriverMemory }

type stubGenerator struct {
	text string
	err  error
}

func (g stubGenerator) Summarize(context.Context, core.FieldSnapshot) (string, error) {
	return g.text, g.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAdviseReturnsGeneratorText(t *testing.T) {
	advisor := NewAdvisor(stubGenerator{text: "all good"}, nil, time.Second, quietLogger())
	got := advisor.Advise(context.Background(), core.FieldSnapshot{})
	if got != "all good" {
		t.Fatalf("expected generator text, got %q", got)
	}
}

func TestAdviseFallsBackOnFailure(t *testing.T) {
	cases := []struct {
		name      string
		generator Generator
	}{
		{"nil generator", nil},
		{"generator error", stubGenerator{err: errors.New("upstream down")}},
		{"empty response", stubGenerator{text: ""}},
	}
	for _, tc := range cases {
		advisor := NewAdvisor(tc.generator, nil, time.Second, quietLogger())
		got := advisor.Advise(context.Background(), core.FieldSnapshot{})
		if got != FallbackText {
			t.Fatalf("%s: expected fallback, got %q", tc.name, got)
		}
	}
}

func TestAdviseArchivesSuccessfulReports(t *testing.T) {
	archive := newMapArchive()
	advisor := NewAdvisor(stubGenerator{text: "summary"}, archive, time.Second, quietLogger())

	advisor.Advise(context.Background(), core.FieldSnapshot{TotalWells: 2})

	infos, err := archive.List(context.Background(), "advisory/")
	if err != nil {
		t.Fatalf("list archive: %v", err)
	}
	if len(infos) != 1 {
		t.Fatalf("expected 1 archived report, got %d", len(infos))
	}
	_, rc, err := archive.Get(context.Background(), infos[0].Key)
	if err != nil {
		t.Fatalf("get report: %v", err)
	}
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !strings.Contains(string(data), `"summary"`) || !strings.Contains(string(data), `"total_wells": 2`) {
		t.Fatalf("report payload incomplete: %s", data)
	}
}

func TestAdviseSkipsArchiveOnFallback(t *testing.T) {
	archive := newMapArchive()
	advisor := NewAdvisor(stubGenerator{err: errors.New("nope")}, archive, time.Second, quietLogger())
	advisor.Advise(context.Background(), core.FieldSnapshot{})

	infos, err := archive.List(context.Background(), "")
	if err != nil || len(infos) != 0 {
		t.Fatalf("fallback must not archive: %v %+v", err, infos)
	}
}

func TestStaticGeneratorSummary(t *testing.T) {
	snapshot := core.FieldSnapshot{
		TotalWells:         2,
		TotalTanks:         3,
		ActiveAssociations: 1,
		Details: []core.AssociationDetail{
			{Status: core.StatusActive},
			{Status: core.StatusInactive},
		},
	}
	text, err := StaticGenerator{}.Summarize(context.Background(), snapshot)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if !strings.Contains(text, "2 wells") || !strings.Contains(text, "1 active") {
		t.Fatalf("summary missing totals: %q", text)
	}
	if !strings.Contains(text, "1 associations are inactive") {
		t.Fatalf("summary missing idle count: %q", text)
	}
}

func TestNewOpenAIGeneratorRequiresKey(t *testing.T) {
	if _, err := NewOpenAIGenerator("", "gpt-4o-mini"); err == nil {
		t.Fatalf("expected error without api key")
	}
}
