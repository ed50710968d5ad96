package domain

import (
	"strings"
	"time"
)

type ProposalStatus string
type ProposalType string

const (
	ProposalStatusActive   ProposalStatus = "active"
	ProposalStatusPassed   ProposalStatus = "passed"
	ProposalStatusRejected ProposalStatus = "rejected"
	ProposalStatusExpired  ProposalStatus = "expired"
)

const (
	ProposalTypeContributionVerification ProposalType = "contribution_verification"
	ProposalTypeRoyaltyDistribution      ProposalType = "royalty_distribution"
	ProposalTypeMilestoneApproval        ProposalType = "milestone_approval"
	ProposalTypeGeneral                  ProposalType = "general"
)

const (
	DefaultQuorumFraction    = 0.5
	DefaultApprovalThreshold = 0.66
)

const (
	MetadataContributionID = "contribution_id"
	MetadataRoyaltyPoolID  = "royalty_pool_id"
	MetadataMilestoneID    = "milestone_id"
)

func IsValidProposalType(v ProposalType) bool {
	switch v {
	case ProposalTypeContributionVerification,
		ProposalTypeRoyaltyDistribution,
		ProposalTypeMilestoneApproval,
		ProposalTypeGeneral:
		return true
	default:
		return false
	}
}

// Proposal is the unit of governance. Tally fields are mutated only through
// vote casting, status only through finalization; terminal states are frozen.
type Proposal struct {
	ProposalID        string            `json:"proposal_id"`
	Type              ProposalType      `json:"type"`
	Title             string            `json:"title"`
	Description       string            `json:"description"`
	ProposedBy        string            `json:"proposed_by"`
	TeamID            string            `json:"team_id"`
	Status            ProposalStatus    `json:"status"`
	VotesFor          float64           `json:"votes_for"`
	VotesAgainst      float64           `json:"votes_against"`
	VotesAbstain      float64           `json:"votes_abstain"`
	Voters            []string          `json:"voters"`
	QuorumRequired    float64           `json:"quorum_required"`
	ApprovalThreshold float64           `json:"approval_threshold"`
	Metadata          map[string]string `json:"metadata,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	ExpiresAt         time.Time         `json:"expires_at"`
	ExecutedAt        *time.Time        `json:"executed_at,omitempty"`
	Executed          bool              `json:"executed"`
}

func (p Proposal) IsTerminal() bool {
	return p.Status != ProposalStatusActive
}

func (p Proposal) HasVoter(memberID string) bool {
	for _, v := range p.Voters {
		if v == memberID {
			return true
		}
	}
	return false
}

func (p Proposal) TotalVotes() float64 {
	return p.VotesFor + p.VotesAgainst + p.VotesAbstain
}

// QuorumRequirement is the weighted participation needed before the outcome
// is binding, expressed against team head count.
func (p Proposal) QuorumRequirement(teamSize int) float64 {
	return float64(teamSize) * p.QuorumRequired
}

func (p Proposal) QuorumReached(teamSize int) bool {
	return p.TotalVotes() >= p.QuorumRequirement(teamSize)
}

// ApprovalPercentage is votesFor over the decided (for+against) weight.
// Abstentions count toward quorum but not approval.
func (p Proposal) ApprovalPercentage() float64 {
	decided := p.VotesFor + p.VotesAgainst
	if decided == 0 {
		return 0
	}
	return p.VotesFor / decided
}

func (p Proposal) ApprovalReached() bool {
	if p.VotesFor+p.VotesAgainst == 0 {
		return false
	}
	return p.ApprovalPercentage() >= p.ApprovalThreshold
}

func ValidateProposalInput(proposalType ProposalType, title, proposedBy, teamID string) error {
	if !IsValidProposalType(proposalType) {
		return ErrInvalidInput
	}
	if strings.TrimSpace(title) == "" {
		return ErrInvalidInput
	}
	if strings.TrimSpace(proposedBy) == "" {
		return ErrInvalidInput
	}
	if strings.TrimSpace(teamID) == "" {
		return ErrInvalidInput
	}
	return nil
}
