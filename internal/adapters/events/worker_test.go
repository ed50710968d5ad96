package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/hackdao/governance-service/internal/adapters/memory"
	"github.com/hackdao/governance-service/internal/application"
	"github.com/hackdao/governance-service/internal/contracts"
	"github.com/hackdao/governance-service/internal/domain"
)

func newWorkerFixture(t *testing.T) (*Worker, *MemoryConsumer, *MemoryDLQPublisher, *memory.Repositories) {
	t.Helper()
	repos := memory.NewRepositories()
	directory := memory.NewDirectory()
	service := application.NewService(application.Dependencies{
		Config:        application.Config{EnableDomainEventConsumption: true},
		Proposals:     repos.Proposals,
		Votes:         repos.Votes,
		Royalties:     repos.Royalties,
		Snapshots:     repos.Snapshots,
		Audit:         repos.Audit,
		Idempotency:   repos.Idempotency,
		EventDedup:    repos.EventDedup,
		Outbox:        repos.Outbox,
		Members:       directory,
		Teams:         directory,
		Contributions: directory,
		DomainEvents:  NewMemoryDomainPublisher(),
		DLQ:           NewLoggingDLQPublisher(),
	})
	consumer := NewMemoryConsumer()
	dlq := NewMemoryDLQPublisher()
	worker := NewWorker(slog.Default(), consumer, dlq, service, time.Millisecond)
	return worker, consumer, dlq, repos
}

func contributionVerifiedEvent(t *testing.T, eventID string) contracts.EventEnvelope {
	t.Helper()
	occurredAt := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	data, err := json.Marshal(contracts.ContributionVerifiedPayload{
		ContributionID: "contrib-1",
		TeamID:         "team-1",
		MemberID:       "alice",
		Type:           "code",
		Score:          8,
		RecordedAt:     occurredAt.Format(time.RFC3339),
		VerifiedAt:     occurredAt.Format(time.RFC3339),
	})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return contracts.EventEnvelope{
		EventID:          eventID,
		EventType:        domain.EventContributionVerified,
		EventClass:       domain.CanonicalEventClassDomain,
		OccurredAt:       occurredAt,
		PartitionKeyPath: "data.contribution_id",
		PartitionKey:     "contrib-1",
		SourceService:    "contribution-service",
		TraceID:          "trace-1",
		SchemaVersion:    "v1",
		Data:             data,
	}
}

func runWorkerBriefly(t *testing.T, worker *Worker) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if err := worker.Run(ctx); err != nil {
		t.Fatalf("worker run error: %v", err)
	}
}

func TestWorker_ConsumesEventIntoSnapshot(t *testing.T) {
	worker, consumer, dlq, repos := newWorkerFixture(t)
	consumer.Seed([]contracts.EventEnvelope{contributionVerifiedEvent(t, "evt-1")})

	runWorkerBriefly(t, worker)

	snapshots, err := repos.Snapshots.ListByTeam(context.Background(), "team-1")
	if err != nil {
		t.Fatalf("ListByTeam error: %v", err)
	}
	if len(snapshots) != 1 || snapshots[0].ContributionID != "contrib-1" {
		t.Fatalf("expected consumed snapshot, got %+v", snapshots)
	}
	if records := dlq.Records(); len(records) != 0 {
		t.Fatalf("unexpected dlq traffic: %+v", records)
	}
}

func TestWorker_RoutesBadEventToDLQ(t *testing.T) {
	worker, consumer, dlq, repos := newWorkerFixture(t)
	bad := contributionVerifiedEvent(t, "evt-bad")
	bad.PartitionKey = "contrib-other"
	consumer.Seed([]contracts.EventEnvelope{bad})

	runWorkerBriefly(t, worker)

	records := dlq.Records()
	if len(records) != 1 {
		t.Fatalf("expected 1 dlq record, got %d", len(records))
	}
	if records[0].OriginalEvent.EventID != "evt-bad" || records[0].ErrorSummary == "" {
		t.Fatalf("unexpected dlq record: %+v", records[0])
	}
	snapshots, err := repos.Snapshots.ListByTeam(context.Background(), "team-1")
	if err != nil {
		t.Fatalf("ListByTeam error: %v", err)
	}
	if len(snapshots) != 0 {
		t.Fatalf("bad event must not produce a snapshot: %+v", snapshots)
	}
}

type countingHandler struct {
	handled int
	flushed int
	fail    error
}

func (h *countingHandler) HandleDomainEvent(_ context.Context, _ contracts.EventEnvelope) error {
	h.handled++
	return h.fail
}

func (h *countingHandler) FlushOutbox(_ context.Context) error {
	h.flushed++
	return nil
}

// The worker sees the application only through ports.DomainEventHandler;
// any handler implementation must be drivable without the service wiring.
func TestWorker_DrivesHandlerThroughPort(t *testing.T) {
	consumer := NewMemoryConsumer()
	consumer.Seed([]contracts.EventEnvelope{contributionVerifiedEvent(t, "evt-1")})
	handler := &countingHandler{}
	worker := NewWorker(slog.Default(), consumer, NewMemoryDLQPublisher(), handler, time.Millisecond)

	runWorkerBriefly(t, worker)

	if handler.handled != 1 {
		t.Fatalf("handled = %d, want 1", handler.handled)
	}
	if handler.flushed == 0 {
		t.Fatal("outbox never flushed")
	}
}

func TestWorker_StopsOnContextCancel(t *testing.T) {
	worker, _, _, _ := newWorkerFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := worker.Run(ctx); err != nil {
		t.Fatalf("cancelled run should return nil, got %v", err)
	}
}
