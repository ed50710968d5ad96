package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hackdao/governance-service/internal/application"
	"github.com/hackdao/governance-service/internal/contracts"
	"github.com/hackdao/governance-service/internal/domain"
	"github.com/hackdao/governance-service/internal/ports"
)

func (h *Handler) createProposal(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	var req contracts.CreateProposalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error(), requestIDFromContext(r.Context()))
		return
	}

	metadata := req.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}
	if strings.TrimSpace(req.ContributionID) != "" {
		metadata[domain.MetadataContributionID] = strings.TrimSpace(req.ContributionID)
	}
	if strings.TrimSpace(req.RoyaltyPoolID) != "" {
		metadata[domain.MetadataRoyaltyPoolID] = strings.TrimSpace(req.RoyaltyPoolID)
	}
	if strings.TrimSpace(req.MilestoneID) != "" {
		metadata[domain.MetadataMilestoneID] = strings.TrimSpace(req.MilestoneID)
	}
	if len(metadata) == 0 {
		metadata = nil
	}

	proposal, err := h.service.CreateProposal(r.Context(), actor, application.CreateProposalInput{
		Kind:              domain.ProposalType(strings.TrimSpace(req.Kind)),
		Title:             req.Title,
		Description:       req.Description,
		ProposedBy:        strings.TrimSpace(req.ProposedBy),
		TeamID:            strings.TrimSpace(req.TeamID),
		QuorumRequired:    req.QuorumRequired,
		ApprovalThreshold: req.ApprovalThreshold,
		ExpiresIn:         time.Duration(req.ExpiresInHours) * time.Hour,
		Metadata:          metadata,
	})
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusCreated, "", proposal)
}

func (h *Handler) listProposals(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	query := ports.ProposalQuery{
		TeamID: strings.TrimSpace(r.URL.Query().Get("team_id")),
		Status: domain.ProposalStatus(strings.TrimSpace(r.URL.Query().Get("status"))),
		Limit:  parseIntOrDefault(r.URL.Query().Get("limit"), 20),
		Offset: parseIntOrDefault(r.URL.Query().Get("offset"), 0),
	}
	out, err := h.service.ListProposals(r.Context(), actor, query)
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "", map[string]interface{}{
		"items":      out.Items,
		"pagination": out.Pagination,
	})
}

func (h *Handler) getProposal(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	proposal, err := h.service.GetProposal(r.Context(), actor, chi.URLParam(r, "proposal_id"))
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "", proposal)
}

func (h *Handler) getProposalStats(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	stats, err := h.service.GetProposalStats(r.Context(), actor, chi.URLParam(r, "proposal_id"))
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "", stats)
}

func (h *Handler) getVotingPower(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	breakdown, err := h.service.GetVotingPower(r.Context(), actor, chi.URLParam(r, "proposal_id"))
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "", breakdown)
}

// castVote records the ballot and then finalizes the proposal in the same
// request when the decisive thresholds are already met.
func (h *Handler) castVote(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	proposalID := chi.URLParam(r, "proposal_id")
	var req contracts.CastVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error(), requestIDFromContext(r.Context()))
		return
	}
	vote, err := h.service.CastVote(r.Context(), actor, application.CastVoteInput{
		ProposalID: proposalID,
		VoterID:    strings.TrimSpace(req.VoterID),
		Option:     domain.VoteOption(strings.TrimSpace(req.Option)),
		Reason:     req.Reason,
	})
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}

	proposalStatus := domain.ProposalStatusActive
	if stats, statsErr := h.service.GetProposalStats(r.Context(), actor, proposalID); statsErr == nil {
		proposalStatus = stats.Status
		if stats.CanExecute && stats.Status == domain.ProposalStatusActive {
			if finalized, finErr := h.service.FinalizeProposal(r.Context(), actor, proposalID); finErr == nil {
				proposalStatus = finalized.Status
			}
		}
	}

	writeSuccess(w, http.StatusCreated, "", map[string]interface{}{
		"vote":            vote,
		"proposal_status": proposalStatus,
	})
}

func (h *Handler) listVotes(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	votes, err := h.service.ListProposalVotes(r.Context(), actor, chi.URLParam(r, "proposal_id"))
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "", map[string]interface{}{"items": votes})
}

func (h *Handler) extendVoting(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	var req contracts.ExtendVotingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error(), requestIDFromContext(r.Context()))
		return
	}
	proposal, err := h.service.ExtendVotingPeriod(r.Context(), actor, application.ExtendVotingInput{
		ProposalID:  chi.URLParam(r, "proposal_id"),
		RequestedBy: strings.TrimSpace(req.RequestedBy),
		Days:        req.Days,
	})
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "", proposal)
}

func (h *Handler) finalizeProposal(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	proposal, err := h.service.FinalizeProposal(r.Context(), actor, chi.URLParam(r, "proposal_id"))
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "", proposal)
}

func (h *Handler) executeProposal(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	proposal, err := h.service.ExecuteProposal(r.Context(), actor, chi.URLParam(r, "proposal_id"))
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "", proposal)
}

func (h *Handler) getVotingHistory(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	history, err := h.service.GetMemberVotingHistory(r.Context(), actor, chi.URLParam(r, "member_id"))
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "", history)
}

func (h *Handler) getMemberRoyalties(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	royalties, err := h.service.GetMemberTotalRoyalties(r.Context(), actor, chi.URLParam(r, "member_id"))
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "", royalties)
}

func (h *Handler) createPool(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	var req contracts.CreatePoolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error(), requestIDFromContext(r.Context()))
		return
	}
	pool, err := h.service.CreateRoyaltyPool(r.Context(), actor, application.CreatePoolInput{
		Name:        req.Name,
		TeamID:      strings.TrimSpace(req.TeamID),
		TotalAmount: req.TotalAmount,
		Currency:    strings.TrimSpace(req.Currency),
		Model:       domain.DistributionModel(strings.TrimSpace(req.Model)),
		PeriodStart: req.PeriodStart,
		PeriodEnd:   req.PeriodEnd,
	})
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusCreated, "", pool)
}

func (h *Handler) listPools(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	teamID := strings.TrimSpace(r.URL.Query().Get("team_id"))
	limit := parseIntOrDefault(r.URL.Query().Get("limit"), 20)
	offset := parseIntOrDefault(r.URL.Query().Get("offset"), 0)
	out, err := h.service.ListRoyaltyPools(r.Context(), actor, teamID, limit, offset)
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "", map[string]interface{}{
		"items":      out.Items,
		"pagination": out.Pagination,
	})
}

func (h *Handler) getDistributionReport(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	report, err := h.service.GetDistributionReport(r.Context(), actor, chi.URLParam(r, "pool_id"))
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "", report)
}

func (h *Handler) calculateDistribution(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	pool, err := h.service.CalculateDistribution(r.Context(), actor, chi.URLParam(r, "pool_id"))
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "", pool)
}

func (h *Handler) executeDistribution(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	pool, err := h.service.ExecuteDistribution(r.Context(), actor, chi.URLParam(r, "pool_id"))
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "", pool)
}

func parseIntOrDefault(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
