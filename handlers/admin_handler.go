package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/meme-madness/meme-madness/middleware"
	"github.com/meme-madness/meme-madness/services"
)

// AdminHandler groups the organizer-only operations: bracket lifecycle,
// matchup resolution, join codes, and roster management.
type AdminHandler struct {
	bracketService    services.BracketService
	votingService     services.VotingService
	tournamentService services.TournamentService
	memberService     services.MemberService
}

func NewAdminHandler(
	bracketService services.BracketService,
	votingService services.VotingService,
	tournamentService services.TournamentService,
	memberService services.MemberService,
) *AdminHandler {
	return &AdminHandler{
		bracketService:    bracketService,
		votingService:     votingService,
		tournamentService: tournamentService,
		memberService:     memberService,
	}
}

func (h *AdminHandler) SeedBracket(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}
	tournamentID, err := uuidParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.bracketService.Seed(r.Context(), tournamentID, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"bracket": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AdminHandler) AdvanceRound(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}
	tournamentID, err := uuidParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.bracketService.Advance(r.Context(), tournamentID, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"advance": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AdminHandler) CloseMatchup(w http.ResponseWriter, r *http.Request) {
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

	matchup, err := h.votingService.CloseMatchup(r.Context(), matchupID, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"matchup": matchup}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AdminHandler) CloseAllMatchups(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}
	tournamentID, err := uuidParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.votingService.CloseAllMatchups(r.Context(), tournamentID, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AdminHandler) BreakTie(w http.ResponseWriter, r *http.Request) {
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
		WinnerID uuid.UUID `json:"winner_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.WinnerID == uuid.Nil {
		badRequestResponse(w, r, errors.New("winner_id is required"))
		return
	}

	matchup, err := h.votingService.BreakTie(r.Context(), matchupID, userID, input.WinnerID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"matchup": matchup}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}
	tournamentID, err := uuidParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	view, err := h.tournamentService.Dashboard(r.Context(), tournamentID, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"dashboard": view}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AdminHandler) JoinCode(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}
	tournamentID, err := uuidParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	code, err := h.tournamentService.GetJoinCode(r.Context(), tournamentID, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"join_code": code}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AdminHandler) RotateJoinCode(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}
	tournamentID, err := uuidParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	code, err := h.tournamentService.RotateJoinCode(r.Context(), tournamentID, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"join_code": code}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AdminHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}
	tournamentID, err := uuidParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	targetID, err := uuidParam(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.memberService.RemoveMember(r.Context(), tournamentID, userID, targetID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) ListAdmins(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}
	tournamentID, err := uuidParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	admins, err := h.memberService.ListAdmins(r.Context(), tournamentID, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"admins": admins}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AdminHandler) AddAdmin(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}
	tournamentID, err := uuidParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		UserID uuid.UUID `json:"user_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.UserID == uuid.Nil {
		badRequestResponse(w, r, errors.New("user_id is required"))
		return
	}

	admin, err := h.memberService.AddAdmin(r.Context(), tournamentID, userID, input.UserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"admin": admin}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AdminHandler) RemoveAdmin(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}
	tournamentID, err := uuidParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	targetID, err := uuidParam(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.memberService.RemoveAdmin(r.Context(), tournamentID, userID, targetID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
