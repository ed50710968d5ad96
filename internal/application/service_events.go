package application

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hackdao/governance-service/internal/contracts"
	"github.com/hackdao/governance-service/internal/domain"
	"github.com/hackdao/governance-service/internal/ports"
)

// HandleDomainEvent consumes contribution-ledger events into the local
// snapshot store that feeds royalty calculation and vote-weight bonuses.
func (s *Service) HandleDomainEvent(ctx context.Context, event contracts.EventEnvelope) error {
	if !s.cfg.EnableDomainEventConsumption {
		return nil
	}
	if !isSupportedEventType(event.EventType) {
		return domain.ErrUnsupportedEventType
	}
	if event.EventClass != "" && event.EventClass != domain.CanonicalEventClassDomain {
		return domain.ErrUnsupportedEventClass
	}
	if err := validateDomainEventEnvelope(event, "data.contribution_id", "contribution_id"); err != nil {
		return err
	}

	now := s.nowFn()
	dup, err := s.eventDedup.IsDuplicate(ctx, event.EventID, now)
	if err != nil {
		return err
	}
	if dup {
		return nil
	}

	switch event.EventType {
	case domain.EventContributionVerified:
		var payload contracts.ContributionVerifiedPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return fmt.Errorf("decode contribution.verified payload: %w", err)
		}
		recordedAt := now
		if parsed, parseErr := time.Parse(time.RFC3339, payload.RecordedAt); parseErr == nil {
			recordedAt = parsed
		}
		if err := s.snapshots.Upsert(ctx, domain.Contribution{
			ContributionID: payload.ContributionID,
			TeamID:         payload.TeamID,
			MemberID:       payload.MemberID,
			Type:           payload.Type,
			Score:          payload.Score,
			Verified:       true,
			RecordedAt:     recordedAt,
		}); err != nil {
			return err
		}
	case domain.EventContributionRevoked:
		var payload contracts.ContributionRevokedPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return fmt.Errorf("decode contribution.revoked payload: %w", err)
		}
		if err := s.snapshots.Remove(ctx, payload.ContributionID); err != nil {
			return err
		}
	}

	return s.eventDedup.MarkProcessed(ctx, event.EventID, event.EventType, now.Add(s.cfg.EventDedupTTL))
}

func (s *Service) FlushOutbox(ctx context.Context) error {
	pending, err := s.outbox.ListPending(ctx, s.cfg.OutboxFlushBatchSize)
	if err != nil {
		return err
	}
	for _, record := range pending {
		if record.EventClass != domain.CanonicalEventClassDomain {
			continue
		}
		if err := s.domainEvents.PublishDomain(ctx, record.Envelope); err != nil {
			return err
		}
		if err := s.outbox.MarkSent(ctx, record.RecordID, s.nowFn()); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) enqueueDomainEvent(ctx context.Context, eventType, partitionField, partitionKey string, occurredAt time.Time, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return s.outbox.Enqueue(ctx, ports.OutboxRecord{
		RecordID:   uuid.NewString(),
		EventClass: domain.CanonicalEventClassDomain,
		Envelope: contracts.EventEnvelope{
			EventID:          uuid.NewString(),
			EventType:        eventType,
			EventClass:       domain.CanonicalEventClassDomain,
			OccurredAt:       occurredAt,
			PartitionKeyPath: "data." + partitionField,
			PartitionKey:     partitionKey,
			SourceService:    s.cfg.ServiceName,
			TraceID:          uuid.NewString(),
			SchemaVersion:    "v1",
			Data:             data,
		},
		CreatedAt: s.nowFn(),
	})
}

func (s *Service) enqueueProposalCreated(ctx context.Context, proposal domain.Proposal) error {
	return s.enqueueDomainEvent(ctx, domain.EventProposalCreated, "proposal_id", proposal.ProposalID, proposal.CreatedAt, contracts.ProposalCreatedPayload{
		ProposalID: proposal.ProposalID,
		Type:       string(proposal.Type),
		TeamID:     proposal.TeamID,
		ProposedBy: proposal.ProposedBy,
		ExpiresAt:  proposal.ExpiresAt.Format(time.RFC3339),
		CreatedAt:  proposal.CreatedAt.Format(time.RFC3339),
	})
}

func (s *Service) enqueueVoteCast(ctx context.Context, proposal domain.Proposal, vote domain.Vote) error {
	return s.enqueueDomainEvent(ctx, domain.EventVoteCast, "proposal_id", proposal.ProposalID, vote.CastAt, contracts.VoteCastPayload{
		ProposalID:   proposal.ProposalID,
		VoteID:       vote.VoteID,
		VoterID:      vote.VoterID,
		Option:       string(vote.Option),
		Weight:       vote.Weight,
		VotesFor:     proposal.VotesFor,
		VotesAgainst: proposal.VotesAgainst,
		VotesAbstain: proposal.VotesAbstain,
		CastAt:       vote.CastAt.Format(time.RFC3339),
	})
}

func (s *Service) enqueueProposalFinalized(ctx context.Context, proposal domain.Proposal, finalizedAt time.Time) error {
	eventType := domain.EventProposalExpired
	switch proposal.Status {
	case domain.ProposalStatusPassed:
		eventType = domain.EventProposalPassed
	case domain.ProposalStatusRejected:
		eventType = domain.EventProposalRejected
	}
	return s.enqueueDomainEvent(ctx, eventType, "proposal_id", proposal.ProposalID, finalizedAt, contracts.ProposalFinalizedPayload{
		ProposalID:         proposal.ProposalID,
		TeamID:             proposal.TeamID,
		Status:             string(proposal.Status),
		VotesFor:           proposal.VotesFor,
		VotesAgainst:       proposal.VotesAgainst,
		VotesAbstain:       proposal.VotesAbstain,
		ApprovalPercentage: proposal.ApprovalPercentage(),
		FinalizedAt:        finalizedAt.Format(time.RFC3339),
	})
}

func (s *Service) enqueueProposalExecuted(ctx context.Context, proposal domain.Proposal, targetID string, executedAt time.Time) error {
	return s.enqueueDomainEvent(ctx, domain.EventProposalExecuted, "proposal_id", proposal.ProposalID, executedAt, contracts.ProposalExecutedPayload{
		ProposalID: proposal.ProposalID,
		Type:       string(proposal.Type),
		TeamID:     proposal.TeamID,
		TargetID:   targetID,
		ExecutedAt: executedAt.Format(time.RFC3339),
	})
}

func (s *Service) enqueueRoyaltyPoolCreated(ctx context.Context, pool domain.RoyaltyPool) error {
	return s.enqueueDomainEvent(ctx, domain.EventRoyaltyPoolCreated, "pool_id", pool.PoolID, pool.CreatedAt, contracts.RoyaltyPoolCreatedPayload{
		PoolID:      pool.PoolID,
		TeamID:      pool.TeamID,
		TotalAmount: pool.TotalAmount,
		Currency:    pool.Currency,
		Model:       string(pool.Model),
		CreatedAt:   pool.CreatedAt.Format(time.RFC3339),
	})
}

func (s *Service) enqueueRoyaltyCalculated(ctx context.Context, pool domain.RoyaltyPool, calculatedAt time.Time) error {
	return s.enqueueDomainEvent(ctx, domain.EventRoyaltyCalculated, "pool_id", pool.PoolID, calculatedAt, contracts.RoyaltyCalculatedPayload{
		PoolID:       pool.PoolID,
		TeamID:       pool.TeamID,
		TotalAmount:  pool.TotalAmount,
		Model:        string(pool.Model),
		MemberCount:  len(pool.Distributions),
		CalculatedAt: calculatedAt.Format(time.RFC3339),
	})
}

func (s *Service) enqueueRoyaltyDistributed(ctx context.Context, pool domain.RoyaltyPool, settled, skipped int, distributedAt time.Time) error {
	return s.enqueueDomainEvent(ctx, domain.EventRoyaltyDistributed, "pool_id", pool.PoolID, distributedAt, contracts.RoyaltyDistributedPayload{
		PoolID:        pool.PoolID,
		TeamID:        pool.TeamID,
		TotalAmount:   pool.TotalAmount,
		Currency:      pool.Currency,
		SettledRows:   settled,
		SkippedRows:   skipped,
		DistributedAt: distributedAt.Format(time.RFC3339),
	})
}

func isSupportedEventType(eventType string) bool {
	switch eventType {
	case domain.EventContributionVerified, domain.EventContributionRevoked:
		return true
	default:
		return false
	}
}

func validateDomainEventEnvelope(event contracts.EventEnvelope, allowedPartitionPaths ...string) error {
	if len(allowedPartitionPaths) == 0 {
		return fmt.Errorf("%w: missing partition key policy", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(event.EventID) == "" {
		return fmt.Errorf("%w: missing event_id", domain.ErrInvalidInput)
	}
	if event.OccurredAt.IsZero() {
		return fmt.Errorf("%w: missing occurred_at", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(event.SourceService) == "" {
		return fmt.Errorf("%w: missing source_service", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(event.TraceID) == "" {
		return fmt.Errorf("%w: missing trace_id", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(event.SchemaVersion) == "" {
		return fmt.Errorf("%w: missing schema_version", domain.ErrInvalidInput)
	}
	if len(event.Data) == 0 {
		return fmt.Errorf("%w: missing data payload", domain.ErrInvalidInput)
	}

	allowed := false
	for _, path := range allowedPartitionPaths {
		if event.PartitionKeyPath == path {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("%w: expected partition_key_path %s", domain.ErrInvalidInput, allowedPartitionPaths[0])
	}
	field := strings.TrimPrefix(event.PartitionKeyPath, "data.")
	var payload map[string]interface{}
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		return fmt.Errorf("%w: invalid data payload", domain.ErrInvalidInput)
	}
	value, ok := payload[field]
	if !ok {
		return fmt.Errorf("%w: partition key field %s missing from payload", domain.ErrInvalidInput, field)
	}
	if fmt.Sprint(value) != event.PartitionKey {
		return fmt.Errorf("%w: partition key invariant failed", domain.ErrInvalidInput)
	}
	return nil
}
