package domain

import (
	"strings"
	"time"
)

type VoteOption string

const (
	VoteFor     VoteOption = "for"
	VoteAgainst VoteOption = "against"
	VoteAbstain VoteOption = "abstain"
)

func IsValidVoteOption(v VoteOption) bool {
	switch v {
	case VoteFor, VoteAgainst, VoteAbstain:
		return true
	default:
		return false
	}
}

// Vote is a single ballot. Weight is computed once at cast time and never
// recomputed; later reputation or contribution changes do not touch past
// tallies.
type Vote struct {
	VoteID     string     `json:"vote_id"`
	ProposalID string     `json:"proposal_id"`
	VoterID    string     `json:"voter_id"`
	Option     VoteOption `json:"option"`
	Reason     string     `json:"reason,omitempty"`
	Weight     float64    `json:"weight"`
	CastAt     time.Time  `json:"cast_at"`
}

const (
	baseVoteWeight        = 1.0
	reputationBaseline    = 100.0
	reputationDivisor     = 1000.0
	maxReputationBonus    = 0.5
	perContributionBonus  = 0.02
	maxContributionBonus  = 0.3
	teamLeadVoteBonus     = 0.2
	seniorVoteBonus       = 0.1
)

type VoteWeightInput struct {
	Reputation            float64
	VerifiedContributions int
	Role                  string
}

// ComputeVoteWeight derives the ballot multiplier from reputation,
// contribution history and team role, rounded to 2 decimal places.
func ComputeVoteWeight(in VoteWeightInput) float64 {
	weight := baseVoteWeight

	repBonus := (in.Reputation - reputationBaseline) / reputationDivisor
	if repBonus < 0 {
		repBonus = 0
	}
	if repBonus > maxReputationBonus {
		repBonus = maxReputationBonus
	}
	weight += repBonus

	contribBonus := float64(in.VerifiedContributions) * perContributionBonus
	if contribBonus > maxContributionBonus {
		contribBonus = maxContributionBonus
	}
	weight += contribBonus

	switch strings.ToLower(strings.TrimSpace(in.Role)) {
	case RoleTeamLead:
		weight += teamLeadVoteBonus
	case RoleSenior:
		weight += seniorVoteBonus
	}

	return RoundCurrency(weight, 2)
}

func ValidateVoteInput(proposalID, voterID string, option VoteOption) error {
	if strings.TrimSpace(proposalID) == "" {
		return ErrInvalidInput
	}
	if strings.TrimSpace(voterID) == "" {
		return ErrInvalidInput
	}
	if !IsValidVoteOption(option) {
		return ErrInvalidInput
	}
	return nil
}
