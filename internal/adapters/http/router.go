package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hackdao/governance-service/internal/application"
)

type Handler struct {
	service *application.Service
}

func NewHandler(service *application.Service) *Handler {
	return &Handler{service: service}
}

func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { writeSuccess(w, http.StatusOK, "ok", nil) })
	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) { writeSuccess(w, http.StatusOK, "ready", nil) })

	r.Route("/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)

			r.Post("/proposals", handler.createProposal)
			r.Get("/proposals", handler.listProposals)
			r.Get("/proposals/{proposal_id}", handler.getProposal)
			r.Get("/proposals/{proposal_id}/stats", handler.getProposalStats)
			r.Get("/proposals/{proposal_id}/power", handler.getVotingPower)
			r.Post("/proposals/{proposal_id}/votes", handler.castVote)
			r.Get("/proposals/{proposal_id}/votes", handler.listVotes)
			r.Post("/proposals/{proposal_id}/extend", handler.extendVoting)
			r.Post("/proposals/{proposal_id}/finalize", handler.finalizeProposal)
			r.Post("/proposals/{proposal_id}/execute", handler.executeProposal)

			r.Get("/members/{member_id}/votes", handler.getVotingHistory)
			r.Get("/members/{member_id}/royalties", handler.getMemberRoyalties)

			r.Post("/royalties/pools", handler.createPool)
			r.Get("/royalties/pools", handler.listPools)
			r.Get("/royalties/pools/{pool_id}", handler.getDistributionReport)
			r.Post("/royalties/pools/{pool_id}/calculate", handler.calculateDistribution)
			r.Post("/royalties/pools/{pool_id}/distribute", handler.executeDistribution)
		})
	})
	return r
}
