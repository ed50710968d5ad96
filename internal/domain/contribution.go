package domain

import "time"

const (
	RoleTeamLead = "team_lead"
	RoleSenior   = "senior"
	RoleMember   = "member"
	RoleJunior   = "junior"
)

// Contribution is owned by the contribution ledger; this service only
// consumes verified records as the royalty distribution basis.
type Contribution struct {
	ContributionID string    `json:"contribution_id"`
	TeamID         string    `json:"team_id"`
	MemberID       string    `json:"member_id"`
	Type           string    `json:"type"`
	Score          float64   `json:"score"`
	Verified       bool      `json:"verified"`
	RecordedAt     time.Time `json:"recorded_at"`
}

// EligibleForPeriod reports whether a contribution feeds a royalty
// calculation bounded by [start, end]. Only verified records qualify.
func (c Contribution) EligibleForPeriod(start, end time.Time) bool {
	if !c.Verified {
		return false
	}
	if c.RecordedAt.Before(start) {
		return false
	}
	return !c.RecordedAt.After(end)
}

var roleWeights = map[string]float64{
	RoleTeamLead: 1.5,
	RoleSenior:   1.3,
	RoleMember:   1.0,
	RoleJunior:   0.8,
}

var contributionTypeWeights = map[string]float64{
	"code":          1.2,
	"review":        1.0,
	"documentation": 0.9,
	"design":        1.1,
	"testing":       1.0,
	"research":      1.0,
	"ideation":      0.8,
	"presentation":  0.9,
}

func RoleWeight(role string) float64 {
	if w, ok := roleWeights[role]; ok {
		return w
	}
	return 1.0
}

func ContributionTypeWeight(contributionType string) float64 {
	if w, ok := contributionTypeWeights[contributionType]; ok {
		return w
	}
	return 1.0
}
