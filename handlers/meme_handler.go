package handlers

import (
	"errors"
	"net/http"

	"github.com/meme-madness/meme-madness/middleware"
	"github.com/meme-madness/meme-madness/services"
)

// maxUploadBytes caps the multipart form, image included.
const maxUploadBytes = 10 << 20 // 10MB

type MemeHandler struct {
	memeService services.MemeService
}

func NewMemeHandler(memeService services.MemeService) *MemeHandler {
	return &MemeHandler{memeService: memeService}
}

// Upload accepts a multipart form with a "title" field and an "image" file.
func (h *MemeHandler) Upload(w http.ResponseWriter, r *http.Request) {
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

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		badRequestResponse(w, r, errors.New("request must be a multipart form with an image no larger than 10MB"))
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		badRequestResponse(w, r, errors.New("image file is required"))
		return
	}
	defer file.Close()

	meme, err := h.memeService.Upload(r.Context(), tournamentID, userID, services.UploadMemeInput{
		Title:       r.FormValue("title"),
		ContentType: header.Header.Get("Content-Type"),
		Reader:      file,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"meme": meme}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MemeHandler) ListByTournament(w http.ResponseWriter, r *http.Request) {
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

	memes, err := h.memeService.ListByTournament(r.Context(), tournamentID, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"memes": memes}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MemeHandler) ListMine(w http.ResponseWriter, r *http.Request) {
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

	memes, err := h.memeService.ListMine(r.Context(), tournamentID, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"memes": memes}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MemeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}
	memeID, err := uuidParam(r, "memeID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.memeService.Delete(r.Context(), memeID, userID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
