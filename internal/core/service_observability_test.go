package core

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type capturingAudit struct {
	mu      sync.Mutex
	entries []AuditEntry
}

func (c *capturingAudit) Record(_ context.Context, entry AuditEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, entry)
}

func (c *capturingAudit) all() []AuditEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]AuditEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

func TestServiceEmitsAuditEntries(t *testing.T) {
	ctx := context.Background()
	audit := &capturingAudit{}
	svc := NewInMemoryService(NewDefaultRulesEngine(), WithAuditRecorder(audit))

	site, _, err := svc.CreateSite(ctx, Site{Name: "audited"})
	if err != nil {
		t.Fatalf("create site: %v", err)
	}
	if _, _, err := svc.CreateAssociation(ctx, AssociationInput{WellID: "missing", TankID: "missing", PumpID: "p", TargetPPM: 1}); err == nil {
		t.Fatalf("expected rejection")
	}

	entries := audit.all()
	if len(entries) != 2 {
		t.Fatalf("expected 2 audit entries, got %d", len(entries))
	}
	first := entries[0]
	if first.Operation != "create_site" || first.Status != AuditStatusSuccess {
		t.Fatalf("unexpected first entry: %+v", first)
	}
	if first.EntityID != site.ID {
		t.Fatalf("create audit must report the assigned id, got %q", first.EntityID)
	}
	second := entries[1]
	if second.Operation != "create_association" || second.Status != AuditStatusError {
		t.Fatalf("unexpected second entry: %+v", second)
	}
	if second.Error == "" {
		t.Fatalf("error entry must carry the message")
	}
}

func TestServiceObservesMetricsAndTraces(t *testing.T) {
	ctx := context.Background()
	metrics := NewExpvarMetricsRecorder("")
	var traceBuf bytes.Buffer
	tracer := NewJSONTracer(&traceBuf)
	svc := NewInMemoryService(NewDefaultRulesEngine(), WithMetricsRecorder(metrics), WithTracer(tracer))

	if _, _, err := svc.CreateSite(ctx, Site{Name: "observed"}); err != nil {
		t.Fatalf("create site: %v", err)
	}
	if _, err := svc.DeleteSite(ctx, "missing"); err == nil {
		t.Fatalf("expected delete failure")
	}

	snap := metrics.Snapshot()
	if snap.Results["create_site"]["success"] != 1 {
		t.Fatalf("expected create_site success count, got %+v", snap.Results)
	}
	if snap.Results["delete_site"]["error"] != 1 {
		t.Fatalf("expected delete_site error count, got %+v", snap.Results)
	}

	entries := tracer.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 trace spans, got %d", len(entries))
	}
	if entries[0].Operation != "create_site" || entries[0].Status != "success" {
		t.Fatalf("unexpected span: %+v", entries[0])
	}
	if entries[1].Status != "error" || entries[1].Error == "" {
		t.Fatalf("failed span must carry error: %+v", entries[1])
	}
	if !strings.Contains(traceBuf.String(), "create_site") {
		t.Fatalf("tracer should serialize spans to the writer")
	}
}

func TestPrometheusMetricsRecorder(t *testing.T) {
	registry := prometheus.NewRegistry()
	rec, err := NewPrometheusMetricsRecorder(registry)
	if err != nil {
		t.Fatalf("new recorder: %v", err)
	}
	rec.Observe(context.Background(), "create_tank", true, 25*time.Millisecond)
	rec.Observe(context.Background(), "create_tank", false, 5*time.Millisecond)
	rec.Observe(context.Background(), "", true, time.Millisecond)

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	byName := map[string]bool{}
	for _, mf := range families {
		byName[mf.GetName()] = true
	}
	if !byName["injectcore_service_operations_total"] {
		t.Fatalf("operations counter not registered: %v", byName)
	}
	if !byName["injectcore_service_operation_duration_seconds"] {
		t.Fatalf("duration histogram not registered: %v", byName)
	}

	// Registering the same collectors twice must surface the conflict.
	if _, err := NewPrometheusMetricsRecorder(registry); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
}

func TestSlogAuditRecorderLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	rec := NewSlogAuditRecorder(logger)

	rec.Record(context.Background(), AuditEntry{Operation: "create_site", Status: AuditStatusSuccess, EntityID: "s1"})
	rec.Record(context.Background(), AuditEntry{Operation: "create_association", Status: AuditStatusError, Error: "blocked"})

	out := buf.String()
	if !strings.Contains(out, "create_site") || !strings.Contains(out, "s1") {
		t.Fatalf("success entry missing fields: %s", out)
	}
	if !strings.Contains(out, "WARN") || !strings.Contains(out, "blocked") {
		t.Fatalf("error entry should log at warn with the message: %s", out)
	}
}
