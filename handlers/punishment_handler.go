package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"fitCrewAPI/internal/types/punishment"
	"fitCrewAPI/internal/types/workout"
	"fitCrewAPI/middleware"
	"fitCrewAPI/services"
)

type PunishmentHandler struct {
	punishmentService *services.PunishmentService
}

func NewPunishmentHandler(punishmentService *services.PunishmentService) *PunishmentHandler {
	return &PunishmentHandler{
		punishmentService: punishmentService,
	}
}

func (h *PunishmentHandler) CreatePunishment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	groupID, ok := pathUUID(w, r, "groupID")
	if !ok {
		return
	}

	var req punishment.CreatePunishmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	detail, err := h.punishmentService.CreatePunishment(ctx, clerkID, groupID, &req)
	if err != nil {
		log.Printf("CreatePunishment Handler: %v", err)
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, detail)
}

func (h *PunishmentHandler) GetActivePunishments(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	groupID, ok := pathUUID(w, r, "groupID")
	if !ok {
		return
	}

	punishments, err := h.punishmentService.GetActivePunishments(ctx, clerkID, groupID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, punishments)
}

func (h *PunishmentHandler) CreateLog(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	punishmentID, ok := pathUUID(w, r, "punishmentID")
	if !ok {
		return
	}

	var req workout.CreateLogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	l, err := h.punishmentService.CreateLog(ctx, clerkID, punishmentID, &req)
	if err != nil {
		log.Printf("CreatePunishmentLog Handler: %v", err)
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, l)
}

func (h *PunishmentHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	punishmentID, ok := pathUUID(w, r, "punishmentID")
	if !ok {
		return
	}

	board, err := h.punishmentService.GetLeaderboard(ctx, clerkID, punishmentID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, board)
}
