package domain

import (
	"testing"
	"time"
)

func TestQuorumRequirement_ScalesWithTeamSize(t *testing.T) {
	p := Proposal{QuorumRequired: 0.5}
	if got := p.QuorumRequirement(4); got != 2.0 {
		t.Fatalf("quorum requirement = %v, want 2.0", got)
	}

	p.VotesFor = 1.9
	if p.QuorumReached(4) {
		t.Fatal("1.9 of 2.0 should not reach quorum")
	}
	p.VotesAbstain = 0.1
	if !p.QuorumReached(4) {
		t.Fatal("abstentions count toward quorum")
	}
}

func TestApprovalPercentage_IgnoresAbstentions(t *testing.T) {
	p := Proposal{VotesFor: 2, VotesAgainst: 1, VotesAbstain: 10, ApprovalThreshold: 0.66}
	got := p.ApprovalPercentage()
	want := 2.0 / 3.0
	if got != want {
		t.Fatalf("approval = %v, want %v", got, want)
	}
	if !p.ApprovalReached() {
		t.Fatal("66.7%% approval should meet a 0.66 threshold")
	}
}

func TestApprovalPercentage_ZeroDecidedVotes(t *testing.T) {
	p := Proposal{VotesAbstain: 3, ApprovalThreshold: 0.66}
	if got := p.ApprovalPercentage(); got != 0 {
		t.Fatalf("approval with no decided votes = %v, want 0", got)
	}
	if p.ApprovalReached() {
		t.Fatal("abstain-only proposals never reach approval")
	}
}

func TestProposalTerminalAndVoterChecks(t *testing.T) {
	p := Proposal{Status: ProposalStatusActive, Voters: []string{"alice"}}
	if p.IsTerminal() {
		t.Fatal("active proposal is not terminal")
	}
	if !p.HasVoter("alice") || p.HasVoter("bob") {
		t.Fatal("unexpected voter membership")
	}
	for _, status := range []ProposalStatus{ProposalStatusPassed, ProposalStatusRejected, ProposalStatusExpired} {
		p.Status = status
		if !p.IsTerminal() {
			t.Fatalf("%s should be terminal", status)
		}
	}
}

func TestValidateProposalInput(t *testing.T) {
	if err := ValidateProposalInput(ProposalTypeGeneral, "title", "alice", "team-1"); err != nil {
		t.Fatalf("valid input rejected: %v", err)
	}
	cases := []struct {
		kind   ProposalType
		title  string
		by     string
		teamID string
	}{
		{"bogus", "title", "alice", "team-1"},
		{ProposalTypeGeneral, " ", "alice", "team-1"},
		{ProposalTypeGeneral, "title", "", "team-1"},
		{ProposalTypeGeneral, "title", "alice", ""},
	}
	for _, tc := range cases {
		if err := ValidateProposalInput(tc.kind, tc.title, tc.by, tc.teamID); err != ErrInvalidInput {
			t.Fatalf("expected ErrInvalidInput for %+v, got %v", tc, err)
		}
	}
}

func TestValidatePoolInput(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	if err := ValidatePoolInput("pool", "team-1", 1000, ModelLinear, start, end); err != nil {
		t.Fatalf("valid input rejected: %v", err)
	}
	if err := ValidatePoolInput("pool", "team-1", -5, ModelLinear, start, end); err != ErrInvalidInput {
		t.Fatalf("negative amount: expected ErrInvalidInput, got %v", err)
	}
	if err := ValidatePoolInput("pool", "team-1", 1000, "bogus", start, end); err != ErrInvalidInput {
		t.Fatalf("bad model: expected ErrInvalidInput, got %v", err)
	}
	if err := ValidatePoolInput("pool", "team-1", 1000, ModelLinear, end, start); err != ErrInvalidInput {
		t.Fatalf("inverted period: expected ErrInvalidInput, got %v", err)
	}
}
