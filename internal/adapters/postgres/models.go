package postgres

import (
	"time"
)

type proposalModel struct {
	ProposalID        string     `gorm:"column:proposal_id;primaryKey"`
	Type              string     `gorm:"column:type"`
	Title             string     `gorm:"column:title"`
	Description       string     `gorm:"column:description"`
	ProposedBy        string     `gorm:"column:proposed_by"`
	TeamID            string     `gorm:"column:team_id"`
	Status            string     `gorm:"column:status"`
	VotesFor          float64    `gorm:"column:votes_for"`
	VotesAgainst      float64    `gorm:"column:votes_against"`
	VotesAbstain      float64    `gorm:"column:votes_abstain"`
	Voters            string     `gorm:"column:voters;type:jsonb"`
	QuorumRequired    float64    `gorm:"column:quorum_required"`
	ApprovalThreshold float64    `gorm:"column:approval_threshold"`
	Metadata          *string    `gorm:"column:metadata;type:jsonb"`
	CreatedAt         time.Time  `gorm:"column:created_at"`
	ExpiresAt         time.Time  `gorm:"column:expires_at"`
	ExecutedAt        *time.Time `gorm:"column:executed_at"`
	Executed          bool       `gorm:"column:executed"`
}

func (proposalModel) TableName() string { return "proposals" }

type voteModel struct {
	VoteID     string    `gorm:"column:vote_id;primaryKey"`
	ProposalID string    `gorm:"column:proposal_id"`
	VoterID    string    `gorm:"column:voter_id"`
	Option     string    `gorm:"column:option"`
	Reason     string    `gorm:"column:reason"`
	Weight     float64   `gorm:"column:weight"`
	CastAt     time.Time `gorm:"column:cast_at"`
}

func (voteModel) TableName() string { return "votes" }

type royaltyPoolModel struct {
	PoolID        string     `gorm:"column:pool_id;primaryKey"`
	Name          string     `gorm:"column:name"`
	TeamID        string     `gorm:"column:team_id"`
	TotalAmount   float64    `gorm:"column:total_amount"`
	Currency      string     `gorm:"column:currency"`
	Model         string     `gorm:"column:model"`
	Status        string     `gorm:"column:status"`
	Distributions *string    `gorm:"column:distributions;type:jsonb"`
	PeriodStart   time.Time  `gorm:"column:period_start"`
	PeriodEnd     time.Time  `gorm:"column:period_end"`
	CreatedAt     time.Time  `gorm:"column:created_at"`
	CalculatedAt  *time.Time `gorm:"column:calculated_at"`
	DistributedAt *time.Time `gorm:"column:distributed_at"`
}

func (royaltyPoolModel) TableName() string { return "royalty_pools" }

type contributionSnapshotModel struct {
	ContributionID string    `gorm:"column:contribution_id;primaryKey"`
	TeamID         string    `gorm:"column:team_id"`
	MemberID       string    `gorm:"column:member_id"`
	Type           string    `gorm:"column:type"`
	Score          float64   `gorm:"column:score"`
	Verified       bool      `gorm:"column:verified"`
	RecordedAt     time.Time `gorm:"column:recorded_at"`
}

func (contributionSnapshotModel) TableName() string { return "contribution_snapshots" }

type auditLogModel struct {
	LogID     string    `gorm:"column:log_id;primaryKey"`
	EntityID  string    `gorm:"column:entity_id"`
	MemberID  string    `gorm:"column:member_id"`
	Action    string    `gorm:"column:action"`
	Amount    float64   `gorm:"column:amount"`
	Metadata  *string   `gorm:"column:metadata;type:jsonb"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (auditLogModel) TableName() string { return "governance_audit_log" }

type idempotencyModel struct {
	IdempotencyKey string    `gorm:"column:idempotency_key;primaryKey"`
	RequestHash    string    `gorm:"column:request_hash"`
	ResponseCode   int       `gorm:"column:response_code"`
	ResponseBody   *string   `gorm:"column:response_body;type:jsonb"`
	ExpiresAt      time.Time `gorm:"column:expires_at"`
	CreatedAt      time.Time `gorm:"column:created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at"`
}

func (idempotencyModel) TableName() string { return "governance_idempotency" }

type eventDedupModel struct {
	EventID     string    `gorm:"column:event_id;primaryKey"`
	EventType   string    `gorm:"column:event_type"`
	ProcessedAt time.Time `gorm:"column:processed_at"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
}

func (eventDedupModel) TableName() string { return "governance_event_dedup" }

type outboxModel struct {
	RecordID   string     `gorm:"column:record_id;primaryKey"`
	EventClass string     `gorm:"column:event_class"`
	Envelope   string     `gorm:"column:envelope;type:jsonb"`
	CreatedAt  time.Time  `gorm:"column:created_at"`
	SentAt     *time.Time `gorm:"column:sent_at"`
}

func (outboxModel) TableName() string { return "governance_outbox" }
