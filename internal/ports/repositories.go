package ports

import (
	"context"
	"time"

	"github.com/hackdao/governance-service/internal/contracts"
	"github.com/hackdao/governance-service/internal/domain"
)

type ProposalQuery struct {
	TeamID string
	Status domain.ProposalStatus
	Limit  int
	Offset int
}

type ProposalRepository interface {
	Save(ctx context.Context, proposal domain.Proposal) error
	GetByID(ctx context.Context, proposalID string) (domain.Proposal, error)
	List(ctx context.Context, query ProposalQuery) ([]domain.Proposal, int, error)
	CountByTeams(ctx context.Context, teamIDs []string) (int, error)
}

type VoteRepository interface {
	Save(ctx context.Context, vote domain.Vote) error
	ListByProposal(ctx context.Context, proposalID string) ([]domain.Vote, error)
	ListByVoter(ctx context.Context, voterID string) ([]domain.Vote, error)
}

type RoyaltyRepository interface {
	Save(ctx context.Context, pool domain.RoyaltyPool) error
	GetByID(ctx context.Context, poolID string) (domain.RoyaltyPool, error)
	ListByTeam(ctx context.Context, teamID string, limit, offset int) ([]domain.RoyaltyPool, int, error)
	// ListAll feeds the member-royalty aggregation. A deliberate O(n) scan;
	// pools stay few at hackathon scale.
	ListAll(ctx context.Context) ([]domain.RoyaltyPool, error)
}

type ContributionSnapshotRepository interface {
	Upsert(ctx context.Context, contribution domain.Contribution) error
	Remove(ctx context.Context, contributionID string) error
	ListByTeam(ctx context.Context, teamID string) ([]domain.Contribution, error)
	CountVerifiedByMember(ctx context.Context, teamID, memberID string) (int, error)
}

type AuditRecord struct {
	LogID     string
	EntityID  string
	MemberID  string
	Action    string
	Amount    float64
	CreatedAt time.Time
	Metadata  map[string]string
}

type AuditLogRepository interface {
	Append(ctx context.Context, record AuditRecord) error
}

type IdempotencyRecord struct {
	Key          string
	RequestHash  string
	ResponseCode int
	ResponseBody []byte
	ExpiresAt    time.Time
}

type IdempotencyRepository interface {
	Get(ctx context.Context, key string, now time.Time) (*IdempotencyRecord, error)
	Reserve(ctx context.Context, key, requestHash string, expiresAt time.Time) error
	Complete(ctx context.Context, key string, responseCode int, responseBody []byte, at time.Time) error
}

type EventDedupRepository interface {
	IsDuplicate(ctx context.Context, eventID string, now time.Time) (bool, error)
	MarkProcessed(ctx context.Context, eventID, eventType string, expiresAt time.Time) error
}

type OutboxRecord struct {
	RecordID   string
	EventClass string
	Envelope   contracts.EventEnvelope
	CreatedAt  time.Time
	SentAt     *time.Time
}

type OutboxRepository interface {
	Enqueue(ctx context.Context, record OutboxRecord) error
	ListPending(ctx context.Context, limit int) ([]OutboxRecord, error)
	MarkSent(ctx context.Context, recordID string, at time.Time) error
}

type ReportCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
