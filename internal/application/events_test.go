package application

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hackdao/governance-service/internal/contracts"
	"github.com/hackdao/governance-service/internal/domain"
)

func verifiedEnvelope(t *testing.T, eventID, contributionID string, occurredAt time.Time) contracts.EventEnvelope {
	t.Helper()
	data, err := json.Marshal(contracts.ContributionVerifiedPayload{
		ContributionID: contributionID,
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
		PartitionKey:     contributionID,
		SourceService:    "contribution-service",
		TraceID:          "trace-1",
		SchemaVersion:    "v1",
		Data:             data,
	}
}

func TestHandleDomainEvent_VerifiedUpsertsSnapshot(t *testing.T) {
	f := newFixture(t)
	event := verifiedEnvelope(t, "evt-1", "contrib-1", f.now.Add(-time.Hour))

	if err := f.svc.HandleDomainEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleDomainEvent error: %v", err)
	}
	snapshots, err := f.repos.Snapshots.ListByTeam(context.Background(), "team-1")
	if err != nil {
		t.Fatalf("ListByTeam error: %v", err)
	}
	if len(snapshots) != 1 {
		t.Fatalf("expected 1 snapshot, got %d", len(snapshots))
	}
	got := snapshots[0]
	if got.ContributionID != "contrib-1" || !got.Verified || got.Score != 8 {
		t.Fatalf("unexpected snapshot: %+v", got)
	}
}

func TestHandleDomainEvent_DuplicateEventIgnored(t *testing.T) {
	f := newFixture(t)
	event := verifiedEnvelope(t, "evt-1", "contrib-1", f.now.Add(-time.Hour))

	if err := f.svc.HandleDomainEvent(context.Background(), event); err != nil {
		t.Fatalf("first delivery error: %v", err)
	}
	if err := f.repos.Snapshots.Remove(context.Background(), "contrib-1"); err != nil {
		t.Fatalf("Remove error: %v", err)
	}
	// Redelivery of a processed event must be a no-op.
	if err := f.svc.HandleDomainEvent(context.Background(), event); err != nil {
		t.Fatalf("redelivery error: %v", err)
	}
	snapshots, err := f.repos.Snapshots.ListByTeam(context.Background(), "team-1")
	if err != nil {
		t.Fatalf("ListByTeam error: %v", err)
	}
	if len(snapshots) != 0 {
		t.Fatalf("redelivery recreated the snapshot: %+v", snapshots)
	}
}

func TestHandleDomainEvent_RevokedRemovesSnapshot(t *testing.T) {
	f := newFixture(t)
	if err := f.svc.HandleDomainEvent(context.Background(), verifiedEnvelope(t, "evt-1", "contrib-1", f.now.Add(-time.Hour))); err != nil {
		t.Fatalf("verified delivery error: %v", err)
	}

	data, err := json.Marshal(contracts.ContributionRevokedPayload{
		ContributionID: "contrib-1",
		TeamID:         "team-1",
		MemberID:       "alice",
		Reason:         "plagiarism review",
		RevokedAt:      f.now.Format(time.RFC3339),
	})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	revoked := contracts.EventEnvelope{
		EventID:          "evt-2",
		EventType:        domain.EventContributionRevoked,
		EventClass:       domain.CanonicalEventClassDomain,
		OccurredAt:       f.now,
		PartitionKeyPath: "data.contribution_id",
		PartitionKey:     "contrib-1",
		SourceService:    "contribution-service",
		TraceID:          "trace-2",
		SchemaVersion:    "v1",
		Data:             data,
	}
	if err := f.svc.HandleDomainEvent(context.Background(), revoked); err != nil {
		t.Fatalf("revoked delivery error: %v", err)
	}
	snapshots, err := f.repos.Snapshots.ListByTeam(context.Background(), "team-1")
	if err != nil {
		t.Fatalf("ListByTeam error: %v", err)
	}
	if len(snapshots) != 0 {
		t.Fatalf("revoked contribution still present: %+v", snapshots)
	}
}

func TestHandleDomainEvent_PartitionKeyMismatchRejected(t *testing.T) {
	f := newFixture(t)
	event := verifiedEnvelope(t, "evt-1", "contrib-1", f.now)
	event.PartitionKey = "contrib-other"

	err := f.svc.HandleDomainEvent(context.Background(), event)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestHandleDomainEvent_MissingEnvelopeFieldsRejected(t *testing.T) {
	f := newFixture(t)
	event := verifiedEnvelope(t, "evt-1", "contrib-1", f.now)
	event.TraceID = ""

	err := f.svc.HandleDomainEvent(context.Background(), event)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestHandleDomainEvent_UnsupportedTypeRejected(t *testing.T) {
	f := newFixture(t)
	event := verifiedEnvelope(t, "evt-1", "contrib-1", f.now)
	event.EventType = "member.updated"

	err := f.svc.HandleDomainEvent(context.Background(), event)
	if !errors.Is(err, domain.ErrUnsupportedEventType) {
		t.Fatalf("expected ErrUnsupportedEventType, got %v", err)
	}
}

func TestHandleDomainEvent_UnsupportedClassRejected(t *testing.T) {
	f := newFixture(t)
	event := verifiedEnvelope(t, "evt-1", "contrib-1", f.now)
	event.EventClass = "integration"

	err := f.svc.HandleDomainEvent(context.Background(), event)
	if !errors.Is(err, domain.ErrUnsupportedEventClass) {
		t.Fatalf("expected ErrUnsupportedEventClass, got %v", err)
	}
}

func TestHandleDomainEvent_ConsumptionDisabled(t *testing.T) {
	f := newFixture(t)
	f.svc.cfg.EnableDomainEventConsumption = false
	event := verifiedEnvelope(t, "evt-1", "contrib-1", f.now)

	if err := f.svc.HandleDomainEvent(context.Background(), event); err != nil {
		t.Fatalf("disabled consumption should drop silently, got %v", err)
	}
	snapshots, err := f.repos.Snapshots.ListByTeam(context.Background(), "team-1")
	if err != nil {
		t.Fatalf("ListByTeam error: %v", err)
	}
	if len(snapshots) != 0 {
		t.Fatalf("event processed while consumption disabled: %+v", snapshots)
	}
}

func TestSnapshotFeedsVoteWeight(t *testing.T) {
	f := newFixture(t)
	f.seedTeam()
	// Ten verified snapshots add the maximum-capped 0.2 contribution bonus.
	for i := 0; i < 10; i++ {
		event := verifiedEnvelope(t, "evt-"+string(rune('a'+i)), "contrib-"+string(rune('a'+i)), f.now.Add(-time.Hour))
		raw := map[string]interface{}{}
		if err := json.Unmarshal(event.Data, &raw); err != nil {
			t.Fatalf("unmarshal payload: %v", err)
		}
		raw["member_id"] = "carol"
		data, err := json.Marshal(raw)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		event.Data = data
		if err := f.svc.HandleDomainEvent(context.Background(), event); err != nil {
			t.Fatalf("HandleDomainEvent error: %v", err)
		}
	}

	proposal := f.createProposal(t, "idem-1")
	vote := f.vote(t, proposal.ProposalID, "carol", domain.VoteFor)
	if vote.Weight != 1.2 {
		t.Fatalf("carol weight = %v, want 1.2", vote.Weight)
	}
}
