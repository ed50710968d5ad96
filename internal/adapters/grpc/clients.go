package grpc

import (
	"context"
	"time"

	"github.com/hackdao/governance-service/internal/domain"
	"github.com/hackdao/governance-service/internal/ports"
)

type MemberClient struct{}
type TeamClient struct{}
type ContributionClient struct{}

func NewMemberClient(_ string) *MemberClient             { return &MemberClient{} }
func NewTeamClient(_ string) *TeamClient                 { return &TeamClient{} }
func NewContributionClient(_ string) *ContributionClient { return &ContributionClient{} }

func (c *MemberClient) GetMember(_ context.Context, memberID string) (ports.MemberProfile, error) {
	return ports.MemberProfile{MemberID: memberID, Name: memberID, Role: domain.RoleMember, Reputation: 0}, nil
}

func (c *MemberClient) ListTeams(_ context.Context, _ string) ([]string, error) {
	return nil, nil
}

func (c *TeamClient) GetRoster(_ context.Context, teamID string) (ports.TeamRoster, error) {
	return ports.TeamRoster{TeamID: teamID, Name: teamID}, nil
}

func (c *TeamClient) CompleteMilestone(_ context.Context, _ string, _ string) error {
	return nil
}

func (c *ContributionClient) ListVerified(_ context.Context, _ string, _ time.Time, _ time.Time) ([]domain.Contribution, error) {
	return nil, nil
}

func (c *ContributionClient) MarkVerified(_ context.Context, _ string) error {
	return nil
}
