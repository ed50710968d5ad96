package application

import (
	"time"

	"github.com/hackdao/governance-service/internal/contracts"
	"github.com/hackdao/governance-service/internal/domain"
	"github.com/hackdao/governance-service/internal/ports"
)

type Config struct {
	ServiceName                  string
	VotingPeriod                 time.Duration
	ExtensionPeriod              time.Duration
	DefaultQuorumFraction        float64
	DefaultApprovalThreshold     float64
	HybridWeightedShare          float64
	IdempotencyTTL               time.Duration
	EventDedupTTL                time.Duration
	OutboxFlushBatchSize         int
	ReportCacheTTL               time.Duration
	EnableDomainEventConsumption bool
}

type Actor struct {
	SubjectID      string
	Role           string
	RequestID      string
	IdempotencyKey string
}

type CreateProposalInput struct {
	Kind              domain.ProposalType
	Title             string
	Description       string
	ProposedBy        string
	TeamID            string
	QuorumRequired    float64
	ApprovalThreshold float64
	ExpiresIn         time.Duration
	Metadata          map[string]string
}

type CastVoteInput struct {
	ProposalID string
	VoterID    string
	Option     domain.VoteOption
	Reason     string
}

type ExtendVotingInput struct {
	ProposalID  string
	RequestedBy string
	Days        int
}

type CreatePoolInput struct {
	Name        string
	TeamID      string
	TotalAmount float64
	Currency    string
	Model       domain.DistributionModel
	PeriodStart time.Time
	PeriodEnd   time.Time
}

type ProposalStats struct {
	ProposalID         string                `json:"proposal_id"`
	Status             domain.ProposalStatus `json:"status"`
	TotalVotes         float64               `json:"total_votes"`
	VotesFor           float64               `json:"votes_for"`
	VotesAgainst       float64               `json:"votes_against"`
	VotesAbstain       float64               `json:"votes_abstain"`
	VoterCount         int                   `json:"voter_count"`
	TeamSize           int                   `json:"team_size"`
	QuorumRequired     float64               `json:"quorum_required"`
	QuorumReached      bool                  `json:"quorum_reached"`
	ApprovalPercentage float64               `json:"approval_percentage"`
	ApprovalThreshold  float64               `json:"approval_threshold"`
	Approved           bool                  `json:"approved"`
	CanExecute         bool                  `json:"can_execute"`
	ExpiresAt          time.Time             `json:"expires_at"`
}

type BallotView struct {
	domain.Vote
	VoterName string `json:"voter_name,omitempty"`
}

type VoterPower struct {
	VoterID   string  `json:"voter_id"`
	VoterName string  `json:"voter_name,omitempty"`
	Weight    float64 `json:"weight"`
}

type VotingPowerBreakdown struct {
	ProposalID string                              `json:"proposal_id"`
	TotalPower float64                             `json:"total_power"`
	ByOption   map[domain.VoteOption][]VoterPower  `json:"by_option"`
	Totals     map[domain.VoteOption]float64       `json:"totals"`
}

type VotingHistory struct {
	MemberID          string        `json:"member_id"`
	Votes             []domain.Vote `json:"votes"`
	ProposalsEligible int           `json:"proposals_eligible"`
	ParticipationRate float64       `json:"participation_rate"`
}

type ReportRow struct {
	MemberID          string   `json:"member_id"`
	MemberName        string   `json:"member_name,omitempty"`
	PayoutAddress     string   `json:"payout_address,omitempty"`
	Amount            float64  `json:"amount"`
	Percentage        float64  `json:"percentage"`
	ContributionCount int      `json:"contribution_count"`
	ContributionIDs   []string `json:"contribution_ids,omitempty"`
	Settled           bool     `json:"settled"`
}

type DistributionReport struct {
	PoolID        string                   `json:"pool_id"`
	Name          string                   `json:"name"`
	TeamID        string                   `json:"team_id"`
	Status        domain.PoolStatus        `json:"status"`
	TotalAmount   float64                  `json:"total_amount"`
	Currency      string                   `json:"currency"`
	Model         domain.DistributionModel `json:"model"`
	Rows          []ReportRow              `json:"rows"`
	CalculatedAt  *time.Time               `json:"calculated_at,omitempty"`
	DistributedAt *time.Time               `json:"distributed_at,omitempty"`
}

type MemberPoolRoyalty struct {
	PoolID string            `json:"pool_id"`
	Name   string            `json:"name"`
	Amount float64           `json:"amount"`
	Status domain.PoolStatus `json:"status"`
}

type MemberRoyalties struct {
	MemberID    string              `json:"member_id"`
	TotalAmount float64             `json:"total_amount"`
	Pools       []MemberPoolRoyalty `json:"pools"`
}

type ProposalListOutput struct {
	Items      []domain.Proposal
	Pagination contracts.Pagination
}

type PoolListOutput struct {
	Items      []domain.RoyaltyPool
	Pagination contracts.Pagination
}

type Service struct {
	cfg       Config
	proposals ports.ProposalRepository
	votes     ports.VoteRepository
	royalties ports.RoyaltyRepository
	snapshots ports.ContributionSnapshotRepository
	audit     ports.AuditLogRepository

	idempotency ports.IdempotencyRepository
	eventDedup  ports.EventDedupRepository
	outbox      ports.OutboxRepository
	reportCache ports.ReportCache

	members       ports.MemberDirectory
	teams         ports.TeamDirectory
	contributions ports.ContributionLedger

	domainEvents ports.DomainPublisher
	dlq          ports.DLQPublisher

	entityLocks *keyedMutex
	nowFn       func() time.Time
}

type Dependencies struct {
	Config        Config
	Proposals     ports.ProposalRepository
	Votes         ports.VoteRepository
	Royalties     ports.RoyaltyRepository
	Snapshots     ports.ContributionSnapshotRepository
	Audit         ports.AuditLogRepository
	Idempotency   ports.IdempotencyRepository
	EventDedup    ports.EventDedupRepository
	Outbox        ports.OutboxRepository
	ReportCache   ports.ReportCache
	Members       ports.MemberDirectory
	Teams         ports.TeamDirectory
	Contributions ports.ContributionLedger
	DomainEvents  ports.DomainPublisher
	DLQ           ports.DLQPublisher
}

func NewService(deps Dependencies) *Service {
	cfg := deps.Config
	if cfg.ServiceName == "" {
		cfg.ServiceName = "governance-service"
	}
	if cfg.VotingPeriod <= 0 {
		cfg.VotingPeriod = 7 * 24 * time.Hour
	}
	if cfg.ExtensionPeriod <= 0 {
		cfg.ExtensionPeriod = 3 * 24 * time.Hour
	}
	if cfg.DefaultQuorumFraction <= 0 || cfg.DefaultQuorumFraction > 1 {
		cfg.DefaultQuorumFraction = domain.DefaultQuorumFraction
	}
	if cfg.DefaultApprovalThreshold <= 0 || cfg.DefaultApprovalThreshold > 1 {
		cfg.DefaultApprovalThreshold = domain.DefaultApprovalThreshold
	}
	if cfg.HybridWeightedShare <= 0 || cfg.HybridWeightedShare > 1 {
		cfg.HybridWeightedShare = 0.7
	}
	if cfg.IdempotencyTTL <= 0 {
		cfg.IdempotencyTTL = 7 * 24 * time.Hour
	}
	if cfg.EventDedupTTL <= 0 {
		cfg.EventDedupTTL = 7 * 24 * time.Hour
	}
	if cfg.OutboxFlushBatchSize <= 0 {
		cfg.OutboxFlushBatchSize = 100
	}
	if cfg.ReportCacheTTL <= 0 {
		cfg.ReportCacheTTL = 10 * time.Minute
	}
	return &Service{
		cfg:           cfg,
		proposals:     deps.Proposals,
		votes:         deps.Votes,
		royalties:     deps.Royalties,
		snapshots:     deps.Snapshots,
		audit:         deps.Audit,
		idempotency:   deps.Idempotency,
		eventDedup:    deps.EventDedup,
		outbox:        deps.Outbox,
		reportCache:   deps.ReportCache,
		members:       deps.Members,
		teams:         deps.Teams,
		contributions: deps.Contributions,
		domainEvents:  deps.DomainEvents,
		dlq:           deps.DLQ,
		entityLocks:   newKeyedMutex(),
		nowFn:         func() time.Time { return time.Now().UTC() },
	}
}
