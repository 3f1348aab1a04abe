// This file handles both HTTP surfaces over the car operations. The HTML-form
// surface always redirects back to the dashboard and reports problems through
// the session flash; the JSON-API surface returns either an error object or
// the caller's full car list after the mutation.
package cars

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/user/garage-go/apperror"
	"github.com/user/garage-go/auth"
	"github.com/user/garage-go/web"
)

// Handlers wraps the car Service to provide HTTP handlers for both surfaces.
type Handlers struct {
	service  *Service
	auth     *auth.Service
	renderer *web.Renderer
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(service *Service, authService *auth.Service, renderer *web.Renderer) *Handlers {
	return &Handlers{service: service, auth: authService, renderer: renderer}
}

// dashboardData is the template context for the dashboard page.
type dashboardData struct {
	User  *auth.User
	Cars  []Car
	Flash string
}

// meResponse is the JSON projection for /api/me. The user's password hash is
// excluded by the model's json tags.
type meResponse struct {
	User *auth.User `json:"user"`
	Cars []Car      `json:"cars"`
}

// HandleDashboard renders the dashboard with the user's profile and car list.
func (h *Handlers) HandleDashboard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := requireIdentity(w, r)
		if !ok {
			return
		}

		list, err := h.service.ListByOwner(r.Context(), identity.User.ID)
		if err != nil {
			log.Printf("failed to list cars for dashboard: %v", err)
			http.Error(w, "Could not load dashboard", http.StatusInternalServerError)
			return
		}

		h.renderer.Render(w, "dashboard.html", dashboardData{
			User:  identity.User,
			Cars:  list,
			Flash: h.auth.TakeFlash(r.Context(), identity.Session.ID),
		})
	}
}

// HandleCreateForm handles the HTML add action. Whatever the outcome, the
// response is a redirect to the dashboard; validation failures surface as a
// flash message there.
func (h *Handlers) HandleCreateForm() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := requireIdentity(w, r)
		if !ok {
			return
		}

		if _, err := h.service.Create(r.Context(), identity.User.ID, CarInputFromForm(r)); err != nil {
			h.flash(r, identity, err)
		}
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
	}
}

// HandleUpdateForm handles the HTML update action for /cars/{id}/update.
func (h *Handlers) HandleUpdateForm() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := requireIdentity(w, r)
		if !ok {
			return
		}

		// A malformed id cannot name an existing record, so it gets the same
		// silent no-op as a miss.
		if id, err := uuid.Parse(chi.URLParam(r, "id")); err == nil {
			if err := h.service.Update(r.Context(), identity.User.ID, id, CarInputFromForm(r)); err != nil {
				h.flash(r, identity, err)
			}
		}
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
	}
}

// HandleDeleteForm handles the HTML delete action for /cars/{id}/delete.
func (h *Handlers) HandleDeleteForm() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := requireIdentity(w, r)
		if !ok {
			return
		}

		if id, err := uuid.Parse(chi.URLParam(r, "id")); err == nil {
			if err := h.service.Delete(r.Context(), identity.User.ID, id); err != nil {
				h.flash(r, identity, err)
			}
		}
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
	}
}

// HandleMe godoc
// @Summary Current user and cars
// @Description Returns the authenticated user's profile and full car list.
// @Tags cars
// @Produce json
// @Success 200 {object} meResponse
// @Failure 401 {object} apperror.ErrorResponse
// @Router /api/me [get]
func (h *Handlers) HandleMe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := requireIdentity(w, r)
		if !ok {
			return
		}

		list, err := h.service.ListByOwner(r.Context(), identity.User.ID)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		auth.WriteJSON(w, http.StatusOK, meResponse{User: identity.User, Cars: list})
	}
}

// HandleData godoc
// @Summary List cars
// @Description Returns the caller's cars, most recently created first.
// @Tags cars
// @Produce json
// @Success 200 {array} Car
// @Router /data [get]
func (h *Handlers) HandleData() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := requireIdentity(w, r)
		if !ok {
			return
		}

		list, err := h.service.ListByOwner(r.Context(), identity.User.ID)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		auth.WriteJSON(w, http.StatusOK, list)
	}
}

// HandleAdd godoc
// @Summary Add a car
// @Description Creates a car for the caller. Redirects to the dashboard on
// success; returns a 400 error object on validation failure.
// @Tags cars
// @Accept json
// @Success 303
// @Failure 400 {object} apperror.ErrorResponse
// @Failure 500 {object} apperror.ErrorResponse
// @Router /add [post]
func (h *Handlers) HandleAdd() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := requireIdentity(w, r)
		if !ok {
			return
		}

		input, err := decodeInput(r)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		if _, err := h.service.Create(r.Context(), identity.User.ID, input); err != nil {
			auth.WriteError(w, r, err)
			return
		}
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
	}
}

// HandleModify godoc
// @Summary Modify a car
// @Description Full-field replace of the caller's car. A wrong or cross-owner
// id is a silent no-op; the response is always the caller's current car list.
// @Tags cars
// @Accept json
// @Produce json
// @Success 200 {array} Car
// @Failure 400 {object} apperror.ErrorResponse
// @Router /modify [post]
func (h *Handlers) HandleModify() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := requireIdentity(w, r)
		if !ok {
			return
		}

		var req ModifyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			auth.WriteError(w, r, apperror.NewBadRequestError("invalid request body", err))
			return
		}
		defer r.Body.Close()
		if req.ID == nil || *req.ID == "" {
			auth.WriteError(w, r, apperror.NewBadRequestError("Car id is required.", nil))
			return
		}

		// A malformed id cannot match a record; skip straight to the list so
		// the outcome is identical to a nonexistent id.
		if id, err := uuid.Parse(*req.ID); err == nil {
			if err := h.service.Update(r.Context(), identity.User.ID, id, &req.CarInput); err != nil {
				auth.WriteError(w, r, err)
				return
			}
		}
		h.respondWithList(w, r, identity.User.ID)
	}
}

// HandleDelete godoc
// @Summary Delete a car
// @Description Removes the caller's car. A wrong or cross-owner id is a
// silent no-op; the response is always the caller's current car list.
// @Tags cars
// @Accept json
// @Produce json
// @Success 200 {array} Car
// @Failure 400 {object} apperror.ErrorResponse
// @Router /delete [post]
func (h *Handlers) HandleDelete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := requireIdentity(w, r)
		if !ok {
			return
		}

		var req DeleteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			auth.WriteError(w, r, apperror.NewBadRequestError("invalid request body", err))
			return
		}
		defer r.Body.Close()
		if req.ID == nil || *req.ID == "" {
			auth.WriteError(w, r, apperror.NewBadRequestError("Car id is required.", nil))
			return
		}

		if id, err := uuid.Parse(*req.ID); err == nil {
			if err := h.service.Delete(r.Context(), identity.User.ID, id); err != nil {
				auth.WriteError(w, r, err)
				return
			}
		}
		h.respondWithList(w, r, identity.User.ID)
	}
}

// requireIdentity fetches the authenticated identity set by the gates. The
// gates guarantee it exists on these routes; the check guards against a
// misregistered route rather than a real request path.
func requireIdentity(w http.ResponseWriter, r *http.Request) (*auth.Identity, bool) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok || identity.User == nil {
		auth.WriteError(w, r, apperror.NewAuthError("authentication required", nil))
		return nil, false
	}
	return identity, true
}

func (h *Handlers) respondWithList(w http.ResponseWriter, r *http.Request, ownerID int) {
	list, err := h.service.ListByOwner(r.Context(), ownerID)
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	auth.WriteJSON(w, http.StatusOK, list)
}

// flash records a user-facing problem for the next dashboard render. Internal
// errors are logged and shown as a generic message.
func (h *Handlers) flash(r *http.Request, identity *auth.Identity, err error) {
	message := "Something went wrong. Please try again."
	if appErr, ok := apperror.FromError(err); ok && appErr.StatusCode() < http.StatusInternalServerError {
		message = appErr.Message
	} else {
		log.Printf("car operation failed: %v", err)
	}
	if setErr := h.auth.SetFlash(r.Context(), identity.Session.ID, message); setErr != nil {
		log.Printf("failed to set flash: %v", setErr)
	}
}

// decodeInput reads a CarInput from either a JSON body or a form submission,
// depending on the request content type. The JSON API is normally called with
// application/json, but plain form posts work too.
func decodeInput(r *http.Request) (*CarInput, error) {
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		var input CarInput
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			return nil, apperror.NewBadRequestError("invalid request body", err)
		}
		defer r.Body.Close()
		return &input, nil
	}
	return CarInputFromForm(r), nil
}
