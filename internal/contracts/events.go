package contracts

import (
	"encoding/json"
	"time"
)

type EventEnvelope struct {
	EventID          string          `json:"event_id"`
	EventType        string          `json:"event_type"`
	EventClass       string          `json:"event_class,omitempty"`
	OccurredAt       time.Time       `json:"occurred_at"`
	PartitionKeyPath string          `json:"partition_key_path"`
	PartitionKey     string          `json:"partition_key"`
	SourceService    string          `json:"source_service"`
	TraceID          string          `json:"trace_id"`
	SchemaVersion    string          `json:"schema_version"`
	Data             json.RawMessage `json:"data"`
}

type ProposalCreatedPayload struct {
	ProposalID string `json:"proposal_id"`
	Type       string `json:"type"`
	TeamID     string `json:"team_id"`
	ProposedBy string `json:"proposed_by"`
	ExpiresAt  string `json:"expires_at"`
	CreatedAt  string `json:"created_at"`
}

type VoteCastPayload struct {
	ProposalID   string  `json:"proposal_id"`
	VoteID       string  `json:"vote_id"`
	VoterID      string  `json:"voter_id"`
	Option       string  `json:"option"`
	Weight       float64 `json:"weight"`
	VotesFor     float64 `json:"votes_for"`
	VotesAgainst float64 `json:"votes_against"`
	VotesAbstain float64 `json:"votes_abstain"`
	CastAt       string  `json:"cast_at"`
}

type ProposalFinalizedPayload struct {
	ProposalID         string  `json:"proposal_id"`
	TeamID             string  `json:"team_id"`
	Status             string  `json:"status"`
	VotesFor           float64 `json:"votes_for"`
	VotesAgainst       float64 `json:"votes_against"`
	VotesAbstain       float64 `json:"votes_abstain"`
	ApprovalPercentage float64 `json:"approval_percentage"`
	FinalizedAt        string  `json:"finalized_at"`
}

type ProposalExecutedPayload struct {
	ProposalID string `json:"proposal_id"`
	Type       string `json:"type"`
	TeamID     string `json:"team_id"`
	TargetID   string `json:"target_id,omitempty"`
	ExecutedAt string `json:"executed_at"`
}

type RoyaltyPoolCreatedPayload struct {
	PoolID      string  `json:"pool_id"`
	TeamID      string  `json:"team_id"`
	TotalAmount float64 `json:"total_amount"`
	Currency    string  `json:"currency"`
	Model       string  `json:"model"`
	CreatedAt   string  `json:"created_at"`
}

type RoyaltyCalculatedPayload struct {
	PoolID       string  `json:"pool_id"`
	TeamID       string  `json:"team_id"`
	TotalAmount  float64 `json:"total_amount"`
	Model        string  `json:"model"`
	MemberCount  int     `json:"member_count"`
	CalculatedAt string  `json:"calculated_at"`
}

type RoyaltyDistributedPayload struct {
	PoolID        string  `json:"pool_id"`
	TeamID        string  `json:"team_id"`
	TotalAmount   float64 `json:"total_amount"`
	Currency      string  `json:"currency"`
	SettledRows   int     `json:"settled_rows"`
	SkippedRows   int     `json:"skipped_rows"`
	DistributedAt string  `json:"distributed_at"`
}

type ContributionVerifiedPayload struct {
	ContributionID string  `json:"contribution_id"`
	TeamID         string  `json:"team_id"`
	MemberID       string  `json:"member_id"`
	Type           string  `json:"type"`
	Score          float64 `json:"score"`
	RecordedAt     string  `json:"recorded_at"`
	VerifiedAt     string  `json:"verified_at"`
}

type ContributionRevokedPayload struct {
	ContributionID string `json:"contribution_id"`
	TeamID         string `json:"team_id"`
	MemberID       string `json:"member_id"`
	Reason         string `json:"reason,omitempty"`
	RevokedAt      string `json:"revoked_at"`
}

type DLQRecord struct {
	OriginalEvent EventEnvelope `json:"original_event"`
	ErrorSummary  string        `json:"error_summary"`
	RetryCount    int           `json:"retry_count"`
	FirstSeenAt   time.Time     `json:"first_seen_at"`
	LastErrorAt   time.Time     `json:"last_error_at"`
	SourceTopic   string        `json:"source_topic,omitempty"`
	TraceID       string        `json:"trace_id,omitempty"`
}
