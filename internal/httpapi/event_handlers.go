package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"gatherly.org/internal/auth"
	"gatherly.org/internal/event"
)

type createEventRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	Location    string    `json:"location"`
}

type updateEventRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Date        *time.Time `json:"date"`
	Location    *string    `json:"location"`
}

// eventResponse is the general projection of an event. The participant list
// is owner-only and served by the registrations endpoint; everyone else
// sees just the count.
type eventResponse struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	Date             time.Time `json:"date"`
	Location         string    `json:"location"`
	OrganizerID      string    `json:"organizer_id"`
	CreatedAt        time.Time `json:"created_at"`
	ParticipantCount int       `json:"participant_count"`
}

func toEventResponse(ev *event.Event) eventResponse {
	return eventResponse{
		ID:               ev.ID,
		Title:            ev.Title,
		Description:      ev.Description,
		Date:             ev.Date,
		Location:         ev.Location,
		OrganizerID:      ev.OrganizerID,
		CreatedAt:        ev.CreatedAt,
		ParticipantCount: len(ev.Participants),
	}
}

func claimsFrom(r *http.Request) *auth.Claims {
	claims, _ := auth.ClaimsFromContext(r.Context())
	return claims
}

func (a *API) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	ev, err := a.Events.Create(r.Context(), claimsFrom(r), event.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Date:        req.Date,
		Location:    req.Location,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEventResponse(ev))
}

func (a *API) handleListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := a.Events.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out := make([]eventResponse, 0, len(events))
	for i := range events {
		out = append(out, toEventResponse(&events[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": out})
}

func (a *API) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	ev, err := a.Events.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEventResponse(ev))
}

func (a *API) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	var req updateEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	ev, err := a.Events.Update(r.Context(), claimsFrom(r), chi.URLParam(r, "id"), event.Update{
		Title:       req.Title,
		Description: req.Description,
		Date:        req.Date,
		Location:    req.Location,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEventResponse(ev))
}

func (a *API) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := a.Events.Delete(r.Context(), claimsFrom(r), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleRegisterForEvent(w http.ResponseWriter, r *http.Request) {
	if err := a.Events.Register(r.Context(), claimsFrom(r), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "registered"})
}

func (a *API) handleCancelRegistration(w http.ResponseWriter, r *http.Request) {
	if err := a.Events.Cancel(r.Context(), claimsFrom(r), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func (a *API) handleListRegistrations(w http.ResponseWriter, r *http.Request) {
	participants, err := a.Events.Participants(r.Context(), claimsFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"participants": participants})
}

func (a *API) handleRegistrationStatus(w http.ResponseWriter, r *http.Request) {
	registered, err := a.Events.RegistrationStatus(r.Context(), claimsFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"registered": registered})
}
