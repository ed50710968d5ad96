package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hackdao/governance-service/internal/domain"
	"github.com/hackdao/governance-service/internal/ports"
)

// CastVote validates a ballot against proposal state and voter eligibility,
// freezes its weight, and updates the running tally. The whole cycle runs
// under the proposal's lock so two concurrent ballots cannot stomp each
// other's tally update.
func (s *Service) CastVote(ctx context.Context, actor Actor, input CastVoteInput) (domain.Vote, error) {
	if err := s.requireSubject(actor); err != nil {
		return domain.Vote{}, err
	}
	if actor.Role != "admin" && actor.SubjectID != input.VoterID {
		return domain.Vote{}, domain.ErrForbidden
	}
	input.ProposalID = strings.TrimSpace(input.ProposalID)
	input.VoterID = strings.TrimSpace(input.VoterID)
	if input.ProposalID == "" || input.VoterID == "" {
		return domain.Vote{}, domain.ErrInvalidInput
	}

	unlock := s.entityLocks.Lock("proposal:" + input.ProposalID)
	defer unlock()

	proposal, err := s.proposals.GetByID(ctx, input.ProposalID)
	if err != nil {
		return domain.Vote{}, err
	}
	if proposal.Status != domain.ProposalStatusActive {
		return domain.Vote{}, domain.ErrInvalidState
	}
	now := s.nowFn()
	if now.After(proposal.ExpiresAt) {
		return domain.Vote{}, domain.ErrExpired
	}
	roster, err := s.teams.GetRoster(ctx, proposal.TeamID)
	if err != nil {
		return domain.Vote{}, fmt.Errorf("team roster lookup: %w", err)
	}
	if !rosterContains(roster, input.VoterID) {
		return domain.Vote{}, domain.ErrNotEligible
	}
	if proposal.HasVoter(input.VoterID) {
		return domain.Vote{}, domain.ErrDuplicateVote
	}
	if !domain.IsValidVoteOption(input.Option) {
		return domain.Vote{}, domain.ErrInvalidInput
	}

	weight, err := s.voteWeight(ctx, proposal.TeamID, input.VoterID)
	if err != nil {
		return domain.Vote{}, err
	}

	vote := domain.Vote{
		VoteID:     uuid.NewString(),
		ProposalID: proposal.ProposalID,
		VoterID:    input.VoterID,
		Option:     input.Option,
		Reason:     strings.TrimSpace(input.Reason),
		Weight:     weight,
		CastAt:     now,
	}
	if err := s.votes.Save(ctx, vote); err != nil {
		return domain.Vote{}, err
	}

	switch vote.Option {
	case domain.VoteFor:
		proposal.VotesFor += weight
	case domain.VoteAgainst:
		proposal.VotesAgainst += weight
	case domain.VoteAbstain:
		proposal.VotesAbstain += weight
	}
	proposal.Voters = append(proposal.Voters, vote.VoterID)
	if err := s.proposals.Save(ctx, proposal); err != nil {
		return domain.Vote{}, err
	}

	if err := s.appendAudit(ctx, ports.AuditRecord{
		LogID:    uuid.NewString(),
		EntityID: proposal.ProposalID,
		MemberID: vote.VoterID,
		Action:   "vote_cast",
		Amount:   weight,
		Metadata: map[string]string{"option": string(vote.Option)},
	}); err != nil {
		return domain.Vote{}, err
	}
	if err := s.enqueueVoteCast(ctx, proposal, vote); err != nil {
		return domain.Vote{}, err
	}
	if err := s.FlushOutbox(ctx); err != nil {
		return domain.Vote{}, err
	}
	return vote, nil
}

// voteWeight evaluates the ballot multiplier at cast time. A member record
// missing from the directory defaults to weight 1.
func (s *Service) voteWeight(ctx context.Context, teamID, voterID string) (float64, error) {
	profile, err := s.members.GetMember(ctx, voterID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return 1.0, nil
		}
		return 0, fmt.Errorf("member lookup: %w", err)
	}
	count, err := s.verifiedContributionCount(ctx, teamID, voterID)
	if err != nil {
		return 0, err
	}
	return domain.ComputeVoteWeight(domain.VoteWeightInput{
		Reputation:            profile.Reputation,
		VerifiedContributions: count,
		Role:                  profile.Role,
	}), nil
}

// ExtendVotingPeriod pushes the deadline forward without touching
// accumulated tallies. Team leads only.
func (s *Service) ExtendVotingPeriod(ctx context.Context, actor Actor, input ExtendVotingInput) (domain.Proposal, error) {
	if err := s.requireSubject(actor); err != nil {
		return domain.Proposal{}, err
	}
	input.ProposalID = strings.TrimSpace(input.ProposalID)
	input.RequestedBy = strings.TrimSpace(input.RequestedBy)
	if input.ProposalID == "" || input.RequestedBy == "" {
		return domain.Proposal{}, domain.ErrInvalidInput
	}
	profile, err := s.members.GetMember(ctx, input.RequestedBy)
	if err != nil {
		return domain.Proposal{}, fmt.Errorf("member lookup: %w", err)
	}
	if profile.Role != domain.RoleTeamLead {
		return domain.Proposal{}, domain.ErrForbidden
	}

	unlock := s.entityLocks.Lock("proposal:" + input.ProposalID)
	defer unlock()

	proposal, err := s.proposals.GetByID(ctx, input.ProposalID)
	if err != nil {
		return domain.Proposal{}, err
	}
	if proposal.IsTerminal() {
		return domain.Proposal{}, domain.ErrInvalidState
	}
	roster, err := s.teams.GetRoster(ctx, proposal.TeamID)
	if err != nil {
		return domain.Proposal{}, fmt.Errorf("team roster lookup: %w", err)
	}
	if !rosterContains(roster, input.RequestedBy) {
		return domain.Proposal{}, domain.ErrNotEligible
	}

	days := input.Days
	if days <= 0 {
		days = int(s.cfg.ExtensionPeriod / (24 * time.Hour))
	}
	proposal.ExpiresAt = proposal.ExpiresAt.Add(time.Duration(days) * 24 * time.Hour)
	if err := s.proposals.Save(ctx, proposal); err != nil {
		return domain.Proposal{}, err
	}
	if err := s.appendAudit(ctx, ports.AuditRecord{
		LogID:    uuid.NewString(),
		EntityID: proposal.ProposalID,
		MemberID: input.RequestedBy,
		Action:   "voting_period_extended",
		Metadata: map[string]string{"days": fmt.Sprintf("%d", days)},
	}); err != nil {
		return domain.Proposal{}, err
	}
	return proposal, nil
}

func (s *Service) ListProposalVotes(ctx context.Context, actor Actor, proposalID string) ([]BallotView, error) {
	if err := s.requireSubject(actor); err != nil {
		return nil, err
	}
	proposalID = strings.TrimSpace(proposalID)
	if _, err := s.proposals.GetByID(ctx, proposalID); err != nil {
		return nil, err
	}
	votes, err := s.votes.ListByProposal(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	views := make([]BallotView, 0, len(votes))
	for _, vote := range votes {
		views = append(views, BallotView{Vote: vote, VoterName: s.memberName(ctx, vote.VoterID)})
	}
	return views, nil
}

func (s *Service) GetVotingPower(ctx context.Context, actor Actor, proposalID string) (VotingPowerBreakdown, error) {
	if err := s.requireSubject(actor); err != nil {
		return VotingPowerBreakdown{}, err
	}
	proposalID = strings.TrimSpace(proposalID)
	if _, err := s.proposals.GetByID(ctx, proposalID); err != nil {
		return VotingPowerBreakdown{}, err
	}
	votes, err := s.votes.ListByProposal(ctx, proposalID)
	if err != nil {
		return VotingPowerBreakdown{}, err
	}
	breakdown := VotingPowerBreakdown{
		ProposalID: proposalID,
		ByOption:   make(map[domain.VoteOption][]VoterPower),
		Totals:     make(map[domain.VoteOption]float64),
	}
	for _, vote := range votes {
		breakdown.ByOption[vote.Option] = append(breakdown.ByOption[vote.Option], VoterPower{
			VoterID:   vote.VoterID,
			VoterName: s.memberName(ctx, vote.VoterID),
			Weight:    vote.Weight,
		})
		breakdown.Totals[vote.Option] += vote.Weight
		breakdown.TotalPower += vote.Weight
	}
	return breakdown, nil
}

// GetMemberVotingHistory reports a member's ballots and their participation
// rate across proposals raised on the member's teams.
func (s *Service) GetMemberVotingHistory(ctx context.Context, actor Actor, memberID string) (VotingHistory, error) {
	if err := s.requireSubject(actor); err != nil {
		return VotingHistory{}, err
	}
	memberID = strings.TrimSpace(memberID)
	if memberID == "" {
		return VotingHistory{}, domain.ErrInvalidInput
	}
	votes, err := s.votes.ListByVoter(ctx, memberID)
	if err != nil {
		return VotingHistory{}, err
	}
	teams, err := s.members.ListTeams(ctx, memberID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return VotingHistory{}, fmt.Errorf("member teams lookup: %w", err)
	}
	eligible := 0
	if len(teams) > 0 {
		eligible, err = s.proposals.CountByTeams(ctx, teams)
		if err != nil {
			return VotingHistory{}, err
		}
	}
	rate := 0.0
	if eligible > 0 {
		rate = float64(len(votes)) / float64(eligible)
	}
	return VotingHistory{
		MemberID:          memberID,
		Votes:             votes,
		ProposalsEligible: eligible,
		ParticipationRate: domain.RoundCurrency(rate, 4),
	}, nil
}

func rosterContains(roster ports.TeamRoster, memberID string) bool {
	for _, id := range roster.MemberIDs {
		if id == memberID {
			return true
		}
	}
	return false
}
