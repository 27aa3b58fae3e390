package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/meme-madness/meme-madness/middleware"
	"github.com/meme-madness/meme-madness/services"
)

type VotingHandler struct {
	votingService services.VotingService
}

func NewVotingHandler(votingService services.VotingService) *VotingHandler {
	return &VotingHandler{votingService: votingService}
}

func (h *VotingHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}
	matchupID, err := uuidParam(r, "matchupID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		MemeID uuid.UUID `json:"meme_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.MemeID == uuid.Nil {
		badRequestResponse(w, r, errors.New("meme_id is required"))
		return
	}

	vote, err := h.votingService.CastVote(r.Context(), matchupID, userID, input.MemeID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"vote": vote}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *VotingHandler) MyVote(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}
	matchupID, err := uuidParam(r, "matchupID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	vote, err := h.votingService.MyVote(r.Context(), matchupID, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"vote": vote}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *VotingHandler) Results(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}
	matchupID, err := uuidParam(r, "matchupID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	results, err := h.votingService.Results(r.Context(), matchupID, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"results": results}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
