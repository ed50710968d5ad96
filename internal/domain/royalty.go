package domain

import (
	"math"
	"sort"
	"strings"
	"time"
)

type PoolStatus string
type DistributionModel string

const (
	PoolStatusPending     PoolStatus = "pending"
	PoolStatusCalculated  PoolStatus = "calculated"
	PoolStatusDistributed PoolStatus = "distributed"
)

const (
	ModelLinear    DistributionModel = "linear"
	ModelWeighted  DistributionModel = "weighted"
	ModelMilestone DistributionModel = "milestone"
	ModelHybrid    DistributionModel = "hybrid"
)

func IsValidDistributionModel(m DistributionModel) bool {
	switch m {
	case ModelLinear, ModelWeighted, ModelMilestone, ModelHybrid:
		return true
	default:
		return false
	}
}

// RoyaltyPool is a bounded amount of currency earmarked for a team and
// settled once. Status moves strictly forward: pending -> calculated ->
// distributed.
type RoyaltyPool struct {
	PoolID        string            `json:"pool_id"`
	Name          string            `json:"name"`
	TeamID        string            `json:"team_id"`
	TotalAmount   float64           `json:"total_amount"`
	Currency      string            `json:"currency"`
	Model         DistributionModel `json:"model"`
	Status        PoolStatus        `json:"status"`
	Distributions []Distribution    `json:"distributions,omitempty"`
	PeriodStart   time.Time         `json:"period_start"`
	PeriodEnd     time.Time         `json:"period_end"`
	CreatedAt     time.Time         `json:"created_at"`
	CalculatedAt  *time.Time        `json:"calculated_at,omitempty"`
	DistributedAt *time.Time        `json:"distributed_at,omitempty"`
}

// Distribution is one member's allocation within a pool. Settled is stamped
// during execution; rows without a payout address stay unsettled.
type Distribution struct {
	MemberID          string   `json:"member_id"`
	Amount            float64  `json:"amount"`
	Percentage        float64  `json:"percentage"`
	RawScore          float64  `json:"raw_score"`
	WeightedScore     float64  `json:"weighted_score,omitempty"`
	ContributionCount int      `json:"contribution_count"`
	ContributionIDs   []string `json:"contribution_ids,omitempty"`
	Settled           bool     `json:"settled"`
}

func ValidatePoolInput(name, teamID string, totalAmount float64, model DistributionModel, periodStart, periodEnd time.Time) error {
	if strings.TrimSpace(name) == "" {
		return ErrInvalidInput
	}
	if strings.TrimSpace(teamID) == "" {
		return ErrInvalidInput
	}
	if totalAmount < 0 {
		return ErrInvalidInput
	}
	if !IsValidDistributionModel(model) {
		return ErrInvalidInput
	}
	if periodStart.IsZero() || periodEnd.IsZero() || periodEnd.Before(periodStart) {
		return ErrInvalidInput
	}
	return nil
}

func RoundCurrency(value float64, places int) float64 {
	if places < 0 {
		places = 0
	}
	factor := math.Pow(10, float64(places))
	return math.Round(value*factor) / factor
}

type memberShare struct {
	memberID        string
	rawScore        float64
	weightedScore   float64
	count           int
	contributionIDs []string
}

func aggregateShares(contribs []Contribution, weightOf func(Contribution) float64) []memberShare {
	byMember := make(map[string]*memberShare)
	for _, c := range contribs {
		share, ok := byMember[c.MemberID]
		if !ok {
			share = &memberShare{memberID: c.MemberID}
			byMember[c.MemberID] = share
		}
		share.rawScore += c.Score
		share.weightedScore += c.Score * weightOf(c)
		share.count++
		share.contributionIDs = append(share.contributionIDs, c.ContributionID)
	}
	shares := make([]memberShare, 0, len(byMember))
	for _, share := range byMember {
		shares = append(shares, *share)
	}
	sort.Slice(shares, func(i, j int) bool { return shares[i].memberID < shares[j].memberID })
	return shares
}

// apportion converts per-member weights into currency rows. Amounts are
// rounded to 2 decimals; the rounding residual lands on the largest row so
// the rows always sum to exactly the pool total.
func apportion(total float64, shares []memberShare, amountWeight func(memberShare) float64) []Distribution {
	var sumWeight float64
	for _, share := range shares {
		sumWeight += amountWeight(share)
	}

	rows := make([]Distribution, 0, len(shares))
	for _, share := range shares {
		fraction := 0.0
		if sumWeight > 0 {
			fraction = amountWeight(share) / sumWeight
		} else if len(shares) > 0 {
			fraction = 1.0 / float64(len(shares))
		}
		rows = append(rows, Distribution{
			MemberID:          share.memberID,
			Amount:            RoundCurrency(total*fraction, 2),
			Percentage:        RoundCurrency(fraction*100, 2),
			RawScore:          RoundCurrency(share.rawScore, 2),
			WeightedScore:     RoundCurrency(share.weightedScore, 2),
			ContributionCount: share.count,
			ContributionIDs:   share.contributionIDs,
		})
	}
	return reconcileRows(total, rows)
}

func reconcileRows(total float64, rows []Distribution) []Distribution {
	if len(rows) == 0 {
		return rows
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Amount != rows[j].Amount {
			return rows[i].Amount > rows[j].Amount
		}
		return rows[i].MemberID < rows[j].MemberID
	})

	var amountSum, pctSum float64
	for _, row := range rows {
		amountSum += row.Amount
		pctSum += row.Percentage
	}
	rows[0].Amount = RoundCurrency(rows[0].Amount+total-amountSum, 2)
	rows[0].Percentage = RoundCurrency(rows[0].Percentage+100-pctSum, 2)
	return rows
}

// SplitLinear apportions the pool by raw contribution score.
func SplitLinear(total float64, contribs []Contribution) []Distribution {
	shares := aggregateShares(contribs, func(Contribution) float64 { return 1.0 })
	return apportion(total, shares, func(s memberShare) float64 { return s.rawScore })
}

// SplitWeighted apportions the pool by score scaled with role and
// contribution-type weights. roleOf maps member id to team role.
func SplitWeighted(total float64, contribs []Contribution, roleOf map[string]string) []Distribution {
	shares := aggregateShares(contribs, func(c Contribution) float64 {
		return RoleWeight(roleOf[c.MemberID]) * ContributionTypeWeight(c.Type)
	})
	return apportion(total, shares, func(s memberShare) float64 { return s.weightedScore })
}

// SplitHybrid distributes weightedShare of the pool by the weighted split and
// the remainder equally among distinct contributing members.
func SplitHybrid(total, weightedShare float64, contribs []Contribution, roleOf map[string]string) []Distribution {
	if weightedShare < 0 {
		weightedShare = 0
	}
	if weightedShare > 1 {
		weightedShare = 1
	}
	shares := aggregateShares(contribs, func(c Contribution) float64 {
		return RoleWeight(roleOf[c.MemberID]) * ContributionTypeWeight(c.Type)
	})
	if len(shares) == 0 {
		return nil
	}

	var sumWeighted float64
	for _, share := range shares {
		sumWeighted += share.weightedScore
	}
	weightedPool := total * weightedShare
	equalPortion := total * (1 - weightedShare) / float64(len(shares))

	rows := make([]Distribution, 0, len(shares))
	for _, share := range shares {
		weightedFraction := 0.0
		if sumWeighted > 0 {
			weightedFraction = share.weightedScore / sumWeighted
		} else {
			weightedFraction = 1.0 / float64(len(shares))
		}
		amount := weightedPool*weightedFraction + equalPortion
		pct := 0.0
		if total > 0 {
			pct = amount / total * 100
		} else {
			pct = 100.0 / float64(len(shares))
		}
		rows = append(rows, Distribution{
			MemberID:          share.memberID,
			Amount:            RoundCurrency(amount, 2),
			Percentage:        RoundCurrency(pct, 2),
			RawScore:          RoundCurrency(share.rawScore, 2),
			WeightedScore:     RoundCurrency(share.weightedScore, 2),
			ContributionCount: share.count,
			ContributionIDs:   share.contributionIDs,
		})
	}
	return reconcileRows(total, rows)
}
