package postgres

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/hackdao/governance-service/internal/contracts"
	"github.com/hackdao/governance-service/internal/domain"
	"github.com/hackdao/governance-service/internal/ports"
	"gorm.io/gorm"
)

func toProposalModel(p domain.Proposal) (proposalModel, error) {
	voters, err := json.Marshal(p.Voters)
	if err != nil {
		return proposalModel{}, err
	}
	row := proposalModel{
		ProposalID:        p.ProposalID,
		Type:              string(p.Type),
		Title:             p.Title,
		Description:       p.Description,
		ProposedBy:        p.ProposedBy,
		TeamID:            p.TeamID,
		Status:            string(p.Status),
		VotesFor:          p.VotesFor,
		VotesAgainst:      p.VotesAgainst,
		VotesAbstain:      p.VotesAbstain,
		Voters:            string(voters),
		QuorumRequired:    p.QuorumRequired,
		ApprovalThreshold: p.ApprovalThreshold,
		CreatedAt:         p.CreatedAt,
		ExpiresAt:         p.ExpiresAt,
		ExecutedAt:        p.ExecutedAt,
		Executed:          p.Executed,
	}
	if len(p.Metadata) > 0 {
		raw, mErr := json.Marshal(p.Metadata)
		if mErr != nil {
			return proposalModel{}, mErr
		}
		s := string(raw)
		row.Metadata = &s
	}
	return row, nil
}

func toDomainProposal(row proposalModel) (domain.Proposal, error) {
	p := domain.Proposal{
		ProposalID:        row.ProposalID,
		Type:              domain.ProposalType(row.Type),
		Title:             row.Title,
		Description:       row.Description,
		ProposedBy:        row.ProposedBy,
		TeamID:            row.TeamID,
		Status:            domain.ProposalStatus(row.Status),
		VotesFor:          row.VotesFor,
		VotesAgainst:      row.VotesAgainst,
		VotesAbstain:      row.VotesAbstain,
		QuorumRequired:    row.QuorumRequired,
		ApprovalThreshold: row.ApprovalThreshold,
		CreatedAt:         row.CreatedAt,
		ExpiresAt:         row.ExpiresAt,
		ExecutedAt:        row.ExecutedAt,
		Executed:          row.Executed,
	}
	if strings.TrimSpace(row.Voters) != "" {
		if err := json.Unmarshal([]byte(row.Voters), &p.Voters); err != nil {
			return domain.Proposal{}, err
		}
	}
	if row.Metadata != nil && strings.TrimSpace(*row.Metadata) != "" {
		if err := json.Unmarshal([]byte(*row.Metadata), &p.Metadata); err != nil {
			return domain.Proposal{}, err
		}
	}
	return p, nil
}

func toVoteModel(v domain.Vote) voteModel {
	return voteModel{
		VoteID:     v.VoteID,
		ProposalID: v.ProposalID,
		VoterID:    v.VoterID,
		Option:     string(v.Option),
		Reason:     v.Reason,
		Weight:     v.Weight,
		CastAt:     v.CastAt,
	}
}

func toDomainVote(row voteModel) domain.Vote {
	return domain.Vote{
		VoteID:     row.VoteID,
		ProposalID: row.ProposalID,
		VoterID:    row.VoterID,
		Option:     domain.VoteOption(row.Option),
		Reason:     row.Reason,
		Weight:     row.Weight,
		CastAt:     row.CastAt,
	}
}

func toRoyaltyPoolModel(p domain.RoyaltyPool) (royaltyPoolModel, error) {
	row := royaltyPoolModel{
		PoolID:        p.PoolID,
		Name:          p.Name,
		TeamID:        p.TeamID,
		TotalAmount:   p.TotalAmount,
		Currency:      p.Currency,
		Model:         string(p.Model),
		Status:        string(p.Status),
		PeriodStart:   p.PeriodStart,
		PeriodEnd:     p.PeriodEnd,
		CreatedAt:     p.CreatedAt,
		CalculatedAt:  p.CalculatedAt,
		DistributedAt: p.DistributedAt,
	}
	if len(p.Distributions) > 0 {
		raw, err := json.Marshal(p.Distributions)
		if err != nil {
			return royaltyPoolModel{}, err
		}
		s := string(raw)
		row.Distributions = &s
	}
	return row, nil
}

func toDomainRoyaltyPool(row royaltyPoolModel) (domain.RoyaltyPool, error) {
	p := domain.RoyaltyPool{
		PoolID:        row.PoolID,
		Name:          row.Name,
		TeamID:        row.TeamID,
		TotalAmount:   row.TotalAmount,
		Currency:      row.Currency,
		Model:         domain.DistributionModel(row.Model),
		Status:        domain.PoolStatus(row.Status),
		PeriodStart:   row.PeriodStart,
		PeriodEnd:     row.PeriodEnd,
		CreatedAt:     row.CreatedAt,
		CalculatedAt:  row.CalculatedAt,
		DistributedAt: row.DistributedAt,
	}
	if row.Distributions != nil && strings.TrimSpace(*row.Distributions) != "" {
		if err := json.Unmarshal([]byte(*row.Distributions), &p.Distributions); err != nil {
			return domain.RoyaltyPool{}, err
		}
	}
	return p, nil
}

func toContributionModel(c domain.Contribution) contributionSnapshotModel {
	return contributionSnapshotModel{
		ContributionID: c.ContributionID,
		TeamID:         c.TeamID,
		MemberID:       c.MemberID,
		Type:           c.Type,
		Score:          c.Score,
		Verified:       c.Verified,
		RecordedAt:     c.RecordedAt,
	}
}

func toDomainContribution(row contributionSnapshotModel) domain.Contribution {
	return domain.Contribution{
		ContributionID: row.ContributionID,
		TeamID:         row.TeamID,
		MemberID:       row.MemberID,
		Type:           row.Type,
		Score:          row.Score,
		Verified:       row.Verified,
		RecordedAt:     row.RecordedAt,
	}
}

func toOutboxModel(record ports.OutboxRecord) (outboxModel, error) {
	raw, err := json.Marshal(record.Envelope)
	if err != nil {
		return outboxModel{}, err
	}
	return outboxModel{
		RecordID:   record.RecordID,
		EventClass: record.EventClass,
		Envelope:   string(raw),
		CreatedAt:  record.CreatedAt,
		SentAt:     record.SentAt,
	}, nil
}

func toOutboxRecord(row outboxModel) (ports.OutboxRecord, error) {
	var envelope contracts.EventEnvelope
	if err := json.Unmarshal([]byte(row.Envelope), &envelope); err != nil {
		return ports.OutboxRecord{}, err
	}
	return ports.OutboxRecord{
		RecordID:   row.RecordID,
		EventClass: row.EventClass,
		Envelope:   envelope,
		CreatedAt:  row.CreatedAt,
		SentAt:     row.SentAt,
	}, nil
}

func jsonMarshal(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func translateNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	return err
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "duplicate key")
}
