package application

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/hackdao/governance-service/internal/contracts"
	"github.com/hackdao/governance-service/internal/domain"
	"github.com/hackdao/governance-service/internal/ports"
)

func (s *Service) CreateProposal(ctx context.Context, actor Actor, input CreateProposalInput) (domain.Proposal, error) {
	if err := s.requireSubject(actor); err != nil {
		return domain.Proposal{}, err
	}
	if strings.TrimSpace(actor.IdempotencyKey) == "" {
		return domain.Proposal{}, domain.ErrIdempotencyRequired
	}
	return s.createProposalWithKey(ctx, input, actor.IdempotencyKey)
}

// ProposeContributionVerification pre-fills a governance action asking the
// team to confirm a contribution record.
func (s *Service) ProposeContributionVerification(ctx context.Context, actor Actor, teamID, contributionID, proposedBy string) (domain.Proposal, error) {
	if strings.TrimSpace(contributionID) == "" {
		return domain.Proposal{}, domain.ErrInvalidInput
	}
	return s.CreateProposal(ctx, actor, CreateProposalInput{
		Kind:        domain.ProposalTypeContributionVerification,
		Title:       "Verify contribution " + contributionID,
		Description: "Confirm that contribution " + contributionID + " is genuine and should count toward royalties.",
		ProposedBy:  proposedBy,
		TeamID:      teamID,
		Metadata:    map[string]string{domain.MetadataContributionID: contributionID},
	})
}

// ProposeRoyaltyDistribution pre-fills a governance action approving a
// royalty pool settlement.
func (s *Service) ProposeRoyaltyDistribution(ctx context.Context, actor Actor, teamID, poolID, proposedBy string) (domain.Proposal, error) {
	if strings.TrimSpace(poolID) == "" {
		return domain.Proposal{}, domain.ErrInvalidInput
	}
	return s.CreateProposal(ctx, actor, CreateProposalInput{
		Kind:        domain.ProposalTypeRoyaltyDistribution,
		Title:       "Approve royalty distribution " + poolID,
		Description: "Approve calculating and distributing royalty pool " + poolID + " to contributing members.",
		ProposedBy:  proposedBy,
		TeamID:      teamID,
		Metadata:    map[string]string{domain.MetadataRoyaltyPoolID: poolID},
	})
}

// ProposeMilestoneApproval pre-fills a governance action marking a milestone
// as completed.
func (s *Service) ProposeMilestoneApproval(ctx context.Context, actor Actor, teamID, milestoneID, proposedBy string) (domain.Proposal, error) {
	if strings.TrimSpace(milestoneID) == "" {
		return domain.Proposal{}, domain.ErrInvalidInput
	}
	return s.CreateProposal(ctx, actor, CreateProposalInput{
		Kind:        domain.ProposalTypeMilestoneApproval,
		Title:       "Approve milestone " + milestoneID,
		Description: "Confirm milestone " + milestoneID + " is complete.",
		ProposedBy:  proposedBy,
		TeamID:      teamID,
		Metadata:    map[string]string{domain.MetadataMilestoneID: milestoneID},
	})
}

func (s *Service) createProposalWithKey(ctx context.Context, input CreateProposalInput, idempotencyKey string) (domain.Proposal, error) {
	if input.Kind == "" {
		input.Kind = domain.ProposalTypeGeneral
	}
	if err := domain.ValidateProposalInput(input.Kind, input.Title, input.ProposedBy, input.TeamID); err != nil {
		return domain.Proposal{}, err
	}
	if input.QuorumRequired <= 0 || input.QuorumRequired > 1 {
		input.QuorumRequired = s.cfg.DefaultQuorumFraction
	}
	if input.ApprovalThreshold <= 0 || input.ApprovalThreshold > 1 {
		input.ApprovalThreshold = s.cfg.DefaultApprovalThreshold
	}
	if input.ExpiresIn <= 0 {
		input.ExpiresIn = s.cfg.VotingPeriod
	}
	if _, err := s.teams.GetRoster(ctx, input.TeamID); err != nil {
		return domain.Proposal{}, fmt.Errorf("team roster lookup: %w", err)
	}

	requestHash := hashPayload(input)
	now := s.nowFn()
	existing, err := s.idempotency.Get(ctx, idempotencyKey, now)
	if err != nil {
		return domain.Proposal{}, err
	}
	if existing != nil {
		if existing.RequestHash != requestHash {
			return domain.Proposal{}, domain.ErrIdempotencyConflict
		}
		var cached domain.Proposal
		if err := json.Unmarshal(existing.ResponseBody, &cached); err != nil {
			return domain.Proposal{}, err
		}
		return cached, nil
	}
	if err := s.idempotency.Reserve(ctx, idempotencyKey, requestHash, now.Add(s.cfg.IdempotencyTTL)); err != nil {
		return domain.Proposal{}, err
	}

	proposal := domain.Proposal{
		ProposalID:        uuid.NewString(),
		Type:              input.Kind,
		Title:             strings.TrimSpace(input.Title),
		Description:       strings.TrimSpace(input.Description),
		ProposedBy:        input.ProposedBy,
		TeamID:            input.TeamID,
		Status:            domain.ProposalStatusActive,
		Voters:            []string{},
		QuorumRequired:    input.QuorumRequired,
		ApprovalThreshold: input.ApprovalThreshold,
		Metadata:          input.Metadata,
		CreatedAt:         now,
		ExpiresAt:         now.Add(input.ExpiresIn),
	}
	if err := s.proposals.Save(ctx, proposal); err != nil {
		return domain.Proposal{}, err
	}
	if err := s.appendAudit(ctx, ports.AuditRecord{
		LogID:    uuid.NewString(),
		EntityID: proposal.ProposalID,
		MemberID: proposal.ProposedBy,
		Action:   "proposal_created",
		Metadata: map[string]string{"type": string(proposal.Type), "team_id": proposal.TeamID},
	}); err != nil {
		return domain.Proposal{}, err
	}
	if err := s.enqueueProposalCreated(ctx, proposal); err != nil {
		return domain.Proposal{}, err
	}
	if err := s.FlushOutbox(ctx); err != nil {
		return domain.Proposal{}, err
	}

	payload, err := json.Marshal(proposal)
	if err != nil {
		return domain.Proposal{}, err
	}
	if err := s.idempotency.Complete(ctx, idempotencyKey, 201, payload, s.nowFn()); err != nil {
		return domain.Proposal{}, err
	}
	return proposal, nil
}

func (s *Service) GetProposal(ctx context.Context, actor Actor, proposalID string) (domain.Proposal, error) {
	if err := s.requireSubject(actor); err != nil {
		return domain.Proposal{}, err
	}
	return s.proposals.GetByID(ctx, strings.TrimSpace(proposalID))
}

func (s *Service) ListProposals(ctx context.Context, actor Actor, query ports.ProposalQuery) (ProposalListOutput, error) {
	if err := s.requireSubject(actor); err != nil {
		return ProposalListOutput{}, err
	}
	if query.Limit <= 0 {
		query.Limit = 20
	}
	if query.Offset < 0 {
		query.Offset = 0
	}
	items, total, err := s.proposals.List(ctx, query)
	if err != nil {
		return ProposalListOutput{}, err
	}
	return ProposalListOutput{
		Items: items,
		Pagination: contracts.Pagination{
			Limit:  query.Limit,
			Offset: query.Offset,
			Total:  total,
		},
	}, nil
}

// GetProposalStats is a pure read: the same quorum and approval arithmetic
// finalization uses, with no state transition.
func (s *Service) GetProposalStats(ctx context.Context, actor Actor, proposalID string) (ProposalStats, error) {
	if err := s.requireSubject(actor); err != nil {
		return ProposalStats{}, err
	}
	proposal, err := s.proposals.GetByID(ctx, strings.TrimSpace(proposalID))
	if err != nil {
		return ProposalStats{}, err
	}
	roster, err := s.teams.GetRoster(ctx, proposal.TeamID)
	if err != nil {
		return ProposalStats{}, fmt.Errorf("team roster lookup: %w", err)
	}
	return s.statsFor(proposal, len(roster.MemberIDs)), nil
}

func (s *Service) statsFor(proposal domain.Proposal, teamSize int) ProposalStats {
	reached := proposal.QuorumReached(teamSize)
	approved := proposal.ApprovalReached()
	return ProposalStats{
		ProposalID:         proposal.ProposalID,
		Status:             proposal.Status,
		TotalVotes:         proposal.TotalVotes(),
		VotesFor:           proposal.VotesFor,
		VotesAgainst:       proposal.VotesAgainst,
		VotesAbstain:       proposal.VotesAbstain,
		VoterCount:         len(proposal.Voters),
		TeamSize:           teamSize,
		QuorumRequired:     proposal.QuorumRequirement(teamSize),
		QuorumReached:      reached,
		ApprovalPercentage: proposal.ApprovalPercentage(),
		ApprovalThreshold:  proposal.ApprovalThreshold,
		Approved:           approved,
		CanExecute:         reached && approved,
		ExpiresAt:          proposal.ExpiresAt,
	}
}

// FinalizeProposal commits a terminal transition. It is not a poll: calling
// it on an undecided, unexpired proposal is an error.
func (s *Service) FinalizeProposal(ctx context.Context, actor Actor, proposalID string) (domain.Proposal, error) {
	if err := s.requireSubject(actor); err != nil {
		return domain.Proposal{}, err
	}
	proposalID = strings.TrimSpace(proposalID)
	unlock := s.entityLocks.Lock("proposal:" + proposalID)
	defer unlock()

	proposal, err := s.proposals.GetByID(ctx, proposalID)
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

	now := s.nowFn()
	reached := proposal.QuorumReached(len(roster.MemberIDs))
	approved := proposal.ApprovalReached()

	switch {
	case reached && approved:
		proposal.Status = domain.ProposalStatusPassed
		proposal.ExecutedAt = &now
	case reached:
		proposal.Status = domain.ProposalStatusRejected
	case now.After(proposal.ExpiresAt):
		proposal.Status = domain.ProposalStatusExpired
	default:
		return domain.Proposal{}, domain.ErrInvalidState
	}

	if err := s.proposals.Save(ctx, proposal); err != nil {
		return domain.Proposal{}, err
	}
	if err := s.appendAudit(ctx, ports.AuditRecord{
		LogID:    uuid.NewString(),
		EntityID: proposal.ProposalID,
		MemberID: actor.SubjectID,
		Action:   "proposal_finalized",
		Metadata: map[string]string{"status": string(proposal.Status)},
	}); err != nil {
		return domain.Proposal{}, err
	}
	if err := s.enqueueProposalFinalized(ctx, proposal, now); err != nil {
		return domain.Proposal{}, err
	}
	if err := s.FlushOutbox(ctx); err != nil {
		return domain.Proposal{}, err
	}
	return proposal, nil
}

// ExecuteProposal dispatches the approved action by proposal type. A
// proposal executes at most once; the Executed flag is the terminal guard.
func (s *Service) ExecuteProposal(ctx context.Context, actor Actor, proposalID string) (domain.Proposal, error) {
	if err := s.requireSubject(actor); err != nil {
		return domain.Proposal{}, err
	}
	proposalID = strings.TrimSpace(proposalID)
	unlock := s.entityLocks.Lock("proposal:" + proposalID)
	defer unlock()

	proposal, err := s.proposals.GetByID(ctx, proposalID)
	if err != nil {
		return domain.Proposal{}, err
	}
	if proposal.Status != domain.ProposalStatusPassed {
		return domain.Proposal{}, domain.ErrInvalidState
	}
	if proposal.Executed {
		return domain.Proposal{}, domain.ErrInvalidState
	}

	targetID := ""
	switch proposal.Type {
	case domain.ProposalTypeContributionVerification:
		targetID = proposal.Metadata[domain.MetadataContributionID]
		if targetID == "" {
			return domain.Proposal{}, domain.ErrInvalidInput
		}
		if err := s.contributions.MarkVerified(ctx, targetID); err != nil {
			return domain.Proposal{}, fmt.Errorf("mark contribution verified: %w", err)
		}
	case domain.ProposalTypeMilestoneApproval:
		targetID = proposal.Metadata[domain.MetadataMilestoneID]
		if targetID == "" {
			return domain.Proposal{}, domain.ErrInvalidInput
		}
		if err := s.teams.CompleteMilestone(ctx, proposal.TeamID, targetID); err != nil {
			return domain.Proposal{}, fmt.Errorf("complete milestone: %w", err)
		}
	case domain.ProposalTypeRoyaltyDistribution:
		// Approval signal only. The caller drives the royalty engine with
		// the pool id from metadata.
		targetID = proposal.Metadata[domain.MetadataRoyaltyPoolID]
	default:
		// No automatic side effect for general proposals.
	}

	now := s.nowFn()
	proposal.Executed = true
	proposal.ExecutedAt = &now
	if err := s.proposals.Save(ctx, proposal); err != nil {
		return domain.Proposal{}, err
	}
	if err := s.appendAudit(ctx, ports.AuditRecord{
		LogID:    uuid.NewString(),
		EntityID: proposal.ProposalID,
		MemberID: actor.SubjectID,
		Action:   "proposal_executed",
		Metadata: map[string]string{"type": string(proposal.Type), "target_id": targetID},
	}); err != nil {
		return domain.Proposal{}, err
	}
	if err := s.enqueueProposalExecuted(ctx, proposal, targetID, now); err != nil {
		return domain.Proposal{}, err
	}
	if err := s.FlushOutbox(ctx); err != nil {
		return domain.Proposal{}, err
	}
	return proposal, nil
}
