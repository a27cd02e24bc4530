// Package handlers contains the HTTP handlers translating requests into
// application service calls.
package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"familytree-backend/application/services"
	"familytree-backend/domain/tree"
	"familytree-backend/pkg/auth"
	"familytree-backend/pkg/common"
	apperrors "familytree-backend/pkg/errors"
	"familytree-backend/pkg/utils"
)

const maxRequestBytes = 4 << 20 // import/merge payloads carry whole trees

// TreeHandler serves every tree endpoint
type TreeHandler struct {
	service *services.TreeService
	logger  *zap.Logger
}

// NewTreeHandler creates a new tree handler
func NewTreeHandler(service *services.TreeService, logger *zap.Logger) *TreeHandler {
	return &TreeHandler{service: service, logger: logger}
}

// PersonPayload carries the descriptive fields of a person being created
type PersonPayload struct {
	FirstName   string            `json:"firstName" validate:"max=100"`
	LastName    string            `json:"lastName" validate:"max=100"`
	Gender      string            `json:"gender" validate:"omitempty,oneof=male female"`
	BirthDate   string            `json:"birthDate,omitempty"`
	DeathDate   string            `json:"deathDate,omitempty"`
	ImageURL    string            `json:"imageUrl,omitempty"`
	Bio         string            `json:"bio,omitempty" validate:"max=2000"`
	ContactInfo *tree.ContactInfo `json:"contactInfo,omitempty"`
}

// AddRelativeRequest is the payload for adding a relative to an anchor
type AddRelativeRequest struct {
	Relationship     string         `json:"relationship" validate:"required,oneof=spouse child parent sibling"`
	Person           *PersonPayload `json:"person,omitempty"`
	ExistingPersonID string         `json:"existingPersonId,omitempty"`
}

// SnapshotRequest is the payload for import and merge
type SnapshotRequest struct {
	People      tree.People `json:"people"`
	RootIDStack []string    `json:"rootIdStack"`
}

// NavigateRequest is the payload for navigating the view root
type NavigateRequest struct {
	PersonID string `json:"personId" validate:"required"`
}

// GetTree returns the caller's snapshot, bootstrapping on first access
func (h *TreeHandler) GetTree(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	snap, err := h.service.Snapshot(r.Context(), userID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, snap)
}

// AddRelative adds a relative of the requested kind to the anchor person
func (h *TreeHandler) AddRelative(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	anchorID := chi.URLParam(r, "anchorID")

	var req AddRelativeRequest
	if err := common.ParseJSONBody(r, &req, maxRequestBytes); err != nil {
		common.RespondError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body")
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	// a remarriage reuses an existing person; everything else creates one
	if req.ExistingPersonID != "" && req.Relationship != string(tree.RelationshipSpouse) {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR",
			"existingPersonId is only valid for spouse relationships")
		return
	}
	var attrs tree.PersonAttributes
	if req.ExistingPersonID == "" {
		if req.Person == nil {
			common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "person is required")
			return
		}
		if err := utils.ValidateStruct(req.Person); err != nil {
			common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
			return
		}
		if strings.TrimSpace(req.Person.FirstName) == "" && strings.TrimSpace(req.Person.LastName) == "" {
			common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR",
				"person needs at least a first or last name")
			return
		}
		attrs = tree.PersonAttributes{
			FirstName:   req.Person.FirstName,
			LastName:    req.Person.LastName,
			Gender:      tree.Gender(req.Person.Gender),
			BirthDate:   req.Person.BirthDate,
			DeathDate:   req.Person.DeathDate,
			ImageURL:    req.Person.ImageURL,
			Bio:         req.Person.Bio,
			ContactInfo: req.Person.ContactInfo,
		}
	}

	snap, createdID, err := h.service.AddRelative(r.Context(), userID, anchorID,
		tree.Relationship(req.Relationship), attrs, req.ExistingPersonID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, map[string]interface{}{
		"createdPersonId": createdID,
		"tree":            snap,
	})
}

// UpdatePerson applies a partial field update to a person
func (h *TreeHandler) UpdatePerson(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	personID := chi.URLParam(r, "personID")

	var patch tree.PersonPatch
	if err := common.ParseJSONBody(r, &patch, maxRequestBytes); err != nil {
		common.RespondError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body")
		return
	}
	if patch.Gender != nil && *patch.Gender != tree.GenderMale && *patch.Gender != tree.GenderFemale {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR",
			"gender must be one of: male female")
		return
	}

	snap, err := h.service.EditPerson(r.Context(), userID, personID, patch)
	if err != nil {
		h.respondError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, snap)
}

// DeletePerson removes a person and every reference to them
func (h *TreeHandler) DeletePerson(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	personID := chi.URLParam(r, "personID")

	snap, err := h.service.DeletePerson(r.Context(), userID, personID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, snap)
}

// Navigate pushes a person onto the navigation stack
func (h *TreeHandler) Navigate(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req NavigateRequest
	if err := common.ParseJSONBody(r, &req, maxRequestBytes); err != nil {
		common.RespondError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body")
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	snap, err := h.service.NavigateTo(r.Context(), userID, req.PersonID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, snap)
}

// NavigateBack pops the navigation stack
func (h *TreeHandler) NavigateBack(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	snap, err := h.service.NavigateBack(r.Context(), userID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, snap)
}

// NavigateHome resets the navigation stack to the founder
func (h *TreeHandler) NavigateHome(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	snap, err := h.service.NavigateHome(r.Context(), userID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, snap)
}

// ImportTree replaces the caller's tree with the uploaded snapshot
func (h *TreeHandler) ImportTree(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req SnapshotRequest
	if err := common.ParseJSONBody(r, &req, maxRequestBytes); err != nil {
		common.RespondError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body")
		return
	}

	snap, err := h.service.Import(r.Context(), userID, &tree.Snapshot{
		People:      req.People,
		RootIDStack: req.RootIDStack,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, snap)
}

// MergeTree merges the uploaded snapshot into the caller's live tree
func (h *TreeHandler) MergeTree(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req SnapshotRequest
	if err := common.ParseJSONBody(r, &req, maxRequestBytes); err != nil {
		common.RespondError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body")
		return
	}

	snap, err := h.service.Merge(r.Context(), userID, &tree.Snapshot{
		People:      req.People,
		RootIDStack: req.RootIDStack,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, snap)
}

// ExportTree streams the tree as a pretty-printed JSON download
func (h *TreeHandler) ExportTree(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	data, err := h.service.Export(r.Context(), userID)
	if err != nil {
		h.respondError(w, err)
		return
	}

	filename := "family-tree-" + time.Now().Format("2006-01-02") + ".json"
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// GetGenerations returns the id-to-level map for the current view root
func (h *TreeHandler) GetGenerations(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	levels, err := h.service.Generations(r.Context(), userID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, levels)
}

// GetFamilyUnit returns the ids to highlight for a clicked edge
func (h *TreeHandler) GetFamilyUnit(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	a := r.URL.Query().Get("a")
	b := r.URL.Query().Get("b")
	if a == "" || b == "" {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR",
			"query parameters a and b are required")
		return
	}

	unit, err := h.service.FamilyUnit(r.Context(), userID, a, b)
	if err != nil {
		h.respondError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]interface{}{"personIds": unit})
}

// GetStatistics returns the derived figures over the whole tree
func (h *TreeHandler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	stats, err := h.service.Statistics(r.Context(), userID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, stats)
}

// GetBirthdays lists the living people with a birthday in the given month
// (1-12), defaulting to the current month.
func (h *TreeHandler) GetBirthdays(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	month := time.Now().Month()
	if raw := r.URL.Query().Get("month"); raw != "" {
		m, err := strconv.Atoi(raw)
		if err != nil || m < 1 || m > 12 {
			common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR",
				"month must be a number between 1 and 12")
			return
		}
		month = time.Month(m)
	}

	people, err := h.service.Birthdays(r.Context(), userID, month)
	if err != nil {
		h.respondError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"month":  int(month),
		"people": people,
	})
}

// Search returns people matching the query
func (h *TreeHandler) Search(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	query := r.URL.Query().Get("q")

	matches, err := h.service.Search(r.Context(), userID, query)
	if err != nil {
		h.respondError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"query":   query,
		"results": matches,
		"count":   len(matches),
	})
}

// userID extracts the authenticated user, responding 401 when absent
func (h *TreeHandler) userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return "", false
	}
	return user.UserID, true
}

// respondError maps application errors to HTTP responses
func (h *TreeHandler) respondError(w http.ResponseWriter, err error) {
	if appErr := apperrors.GetAppError(err); appErr != nil {
		if appErr.HTTPStatus >= 500 {
			h.logger.Error("Request failed", zap.Error(err))
		}
		common.RespondError(w, appErr.HTTPStatus, string(appErr.Type), appErr.Message)
		return
	}
	h.logger.Error("Unexpected error", zap.Error(err))
	common.RespondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
}
