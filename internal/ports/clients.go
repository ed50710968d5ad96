package ports

import (
	"context"
	"time"

	"github.com/hackdao/governance-service/internal/contracts"
	"github.com/hackdao/governance-service/internal/domain"
)

type MemberProfile struct {
	MemberID      string
	Name          string
	Role          string
	Reputation    float64
	PayoutAddress string
}

// MemberDirectory is owned by the member registry; vote weights and payout
// routing read from it but never write.
type MemberDirectory interface {
	GetMember(ctx context.Context, memberID string) (MemberProfile, error)
	ListTeams(ctx context.Context, memberID string) ([]string, error)
}

type TeamRoster struct {
	TeamID    string
	Name      string
	MemberIDs []string
}

type TeamDirectory interface {
	GetRoster(ctx context.Context, teamID string) (TeamRoster, error)
	CompleteMilestone(ctx context.Context, teamID, milestoneID string) error
}

// ContributionLedger is the verified-contribution feed. ListVerified is the
// fallback basis when no snapshots have been consumed for the team yet.
type ContributionLedger interface {
	ListVerified(ctx context.Context, teamID string, periodStart, periodEnd time.Time) ([]domain.Contribution, error)
	MarkVerified(ctx context.Context, contributionID string) error
}

type EventConsumer interface {
	Receive(ctx context.Context) (*contracts.EventEnvelope, error)
}

// DomainEventHandler is the worker's view of the application layer: consume
// one event, drain the outbox. Keeps event adapters decoupled from the
// service implementation.
type DomainEventHandler interface {
	HandleDomainEvent(ctx context.Context, event contracts.EventEnvelope) error
	FlushOutbox(ctx context.Context) error
}

type DomainPublisher interface {
	PublishDomain(ctx context.Context, event contracts.EventEnvelope) error
}

type DLQPublisher interface {
	PublishDLQ(ctx context.Context, record contracts.DLQRecord) error
}
