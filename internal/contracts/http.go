package contracts

import "time"

type CreateProposalRequest struct {
	Kind              string            `json:"kind"`
	Title             string            `json:"title"`
	Description       string            `json:"description"`
	ProposedBy        string            `json:"proposed_by"`
	TeamID            string            `json:"team_id"`
	QuorumRequired    float64           `json:"quorum_required,omitempty"`
	ApprovalThreshold float64           `json:"approval_threshold,omitempty"`
	ExpiresInHours    int               `json:"expires_in_hours,omitempty"`
	ContributionID    string            `json:"contribution_id,omitempty"`
	RoyaltyPoolID     string            `json:"royalty_pool_id,omitempty"`
	MilestoneID       string            `json:"milestone_id,omitempty"`
	Metadata          map[string]string `json:"metadata,omitempty"`
}

type CastVoteRequest struct {
	VoterID string `json:"voter_id"`
	Option  string `json:"option"`
	Reason  string `json:"reason,omitempty"`
}

type ExtendVotingRequest struct {
	RequestedBy string `json:"requested_by"`
	Days        int    `json:"days,omitempty"`
}

type CreatePoolRequest struct {
	Name        string    `json:"name"`
	TeamID      string    `json:"team_id"`
	TotalAmount float64   `json:"total_amount"`
	Currency    string    `json:"currency"`
	Model       string    `json:"model"`
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`
}

type Pagination struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total"`
}

type SuccessResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type ErrorResponse struct {
	Status string       `json:"status"`
	Error  ErrorPayload `json:"error"`
}

type ErrorPayload struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"request_id,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}
