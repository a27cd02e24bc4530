package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"familytree-backend/application/services"
	"familytree-backend/domain/tree"
	"familytree-backend/infrastructure/persistence/memory"
	"familytree-backend/pkg/auth"
)

const testUserID = "user-1"

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newTestHandler() (*TreeHandler, *services.TreeService) {
	svc := services.NewTreeService(memory.NewTreeStore(), zap.NewNop(), time.Hour)
	return NewTreeHandler(svc, zap.NewNop()), svc
}

// newRequest builds an authenticated request with optional chi URL params
func newRequest(t *testing.T, method, target string, body interface{}, params map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)

	ctx := auth.SetUserInContext(req.Context(), &auth.UserContext{UserID: testUserID})
	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for k, v := range params {
			rctx.URLParams.Add(k, v)
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	return req.WithContext(ctx)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestGetTree_BootstrapsAndReturnsSnapshot(t *testing.T) {
	// Arrange
	h, _ := newTestHandler()
	rec := httptest.NewRecorder()

	// Act
	h.GetTree(rec, newRequest(t, http.MethodGet, "/api/v1/tree", nil, nil))

	// Assert
	require.Equal(t, http.StatusOK, rec.Code)
	env := decode(t, rec)
	assert.True(t, env.Success)
	var snap tree.Snapshot
	require.NoError(t, json.Unmarshal(env.Data, &snap))
	assert.Contains(t, snap.People, tree.RootID)
}

func TestGetTree_RequiresAuthenticatedUser(t *testing.T) {
	// Arrange: no user context on the request
	h, _ := newTestHandler()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/tree", nil)

	// Act
	h.GetTree(rec, req)

	// Assert
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	env := decode(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)
}

func TestAddRelative_CreatesPerson(t *testing.T) {
	// Arrange
	h, _ := newTestHandler()
	rec := httptest.NewRecorder()
	body := AddRelativeRequest{
		Relationship: "spouse",
		Person:       &PersonPayload{FirstName: "Jane", Gender: "female"},
	}

	// Act
	h.AddRelative(rec, newRequest(t, http.MethodPost, "/api/v1/tree/people/root/relatives",
		body, map[string]string{"anchorID": tree.RootID}))

	// Assert
	require.Equal(t, http.StatusCreated, rec.Code)
	env := decode(t, rec)
	var payload struct {
		CreatedPersonID string        `json:"createdPersonId"`
		Tree            tree.Snapshot `json:"tree"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &payload))
	assert.NotEmpty(t, payload.CreatedPersonID)
	assert.Equal(t, payload.CreatedPersonID, payload.Tree.People[tree.RootID].SpouseID)
}

func TestAddRelative_RejectsExistingPersonForNonSpouse(t *testing.T) {
	// Arrange: only a remarriage may reference an existing person
	h, _ := newTestHandler()
	rec := httptest.NewRecorder()
	body := AddRelativeRequest{
		Relationship:     "child",
		ExistingPersonID: "someone",
	}

	// Act
	h.AddRelative(rec, newRequest(t, http.MethodPost, "/api/v1/tree/people/root/relatives",
		body, map[string]string{"anchorID": tree.RootID}))

	// Assert
	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decode(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
}

func TestAddRelative_RejectsUnknownRelationship(t *testing.T) {
	// Arrange
	h, _ := newTestHandler()
	rec := httptest.NewRecorder()
	body := AddRelativeRequest{
		Relationship: "cousin",
		Person:       &PersonPayload{FirstName: "X"},
	}

	// Act
	h.AddRelative(rec, newRequest(t, http.MethodPost, "/api/v1/tree/people/root/relatives",
		body, map[string]string{"anchorID": tree.RootID}))

	// Assert
	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decode(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
}

func TestAddRelative_RejectsNamelessPerson(t *testing.T) {
	// Arrange
	h, _ := newTestHandler()
	rec := httptest.NewRecorder()
	body := AddRelativeRequest{
		Relationship: "child",
		Person:       &PersonPayload{Gender: "male"},
	}

	// Act
	h.AddRelative(rec, newRequest(t, http.MethodPost, "/api/v1/tree/people/root/relatives",
		body, map[string]string{"anchorID": tree.RootID}))

	// Assert
	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decode(t, rec)
	require.NotNil(t, env.Error)
	assert.Contains(t, env.Error.Message, "name")
}

func TestAddRelative_UnknownAnchorMapsToNotFound(t *testing.T) {
	// Arrange
	h, _ := newTestHandler()
	rec := httptest.NewRecorder()
	body := AddRelativeRequest{
		Relationship: "child",
		Person:       &PersonPayload{FirstName: "Tim"},
	}

	// Act
	h.AddRelative(rec, newRequest(t, http.MethodPost, "/api/v1/tree/people/ghost/relatives",
		body, map[string]string{"anchorID": "ghost"}))

	// Assert
	require.Equal(t, http.StatusNotFound, rec.Code)
	env := decode(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestUpdatePerson_PatchesFields(t *testing.T) {
	// Arrange
	h, _ := newTestHandler()
	rec := httptest.NewRecorder()
	body := map[string]string{"firstName": "Renamed", "birthDate": "1950-04-12"}

	// Act
	h.UpdatePerson(rec, newRequest(t, http.MethodPut, "/api/v1/tree/people/root",
		body, map[string]string{"personID": tree.RootID}))

	// Assert
	require.Equal(t, http.StatusOK, rec.Code)
	env := decode(t, rec)
	var snap tree.Snapshot
	require.NoError(t, json.Unmarshal(env.Data, &snap))
	assert.Equal(t, "Renamed", snap.People[tree.RootID].FirstName)
	assert.Equal(t, "1950-04-12", snap.People[tree.RootID].BirthDate)
}

func TestUpdatePerson_RejectsInvalidGender(t *testing.T) {
	h, _ := newTestHandler()
	rec := httptest.NewRecorder()
	body := map[string]string{"gender": "other"}

	h.UpdatePerson(rec, newRequest(t, http.MethodPut, "/api/v1/tree/people/root",
		body, map[string]string{"personID": tree.RootID}))

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeletePerson_RootIsForbidden(t *testing.T) {
	// Arrange
	h, _ := newTestHandler()
	rec := httptest.NewRecorder()

	// Act
	h.DeletePerson(rec, newRequest(t, http.MethodDelete, "/api/v1/tree/people/root",
		nil, map[string]string{"personID": tree.RootID}))

	// Assert
	require.Equal(t, http.StatusForbidden, rec.Code)
	env := decode(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)
}

func TestNavigate_UnknownPersonMapsToNotFound(t *testing.T) {
	h, _ := newTestHandler()
	rec := httptest.NewRecorder()

	h.Navigate(rec, newRequest(t, http.MethodPost, "/api/v1/tree/navigate",
		NavigateRequest{PersonID: "ghost"}, nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestImportTree_RejectsInvalidSnapshot(t *testing.T) {
	// Arrange: dangling parent reference
	h, _ := newTestHandler()
	rec := httptest.NewRecorder()
	bad := tree.Bootstrap("Bad", "", tree.GenderMale)
	bad.People[tree.RootID].ParentIDs = []string{"ghost"}
	body := SnapshotRequest{People: bad.People, RootIDStack: bad.RootIDStack}

	// Act
	h.ImportTree(rec, newRequest(t, http.MethodPost, "/api/v1/tree/import", body, nil))

	// Assert
	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decode(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION", env.Error.Code)
}

func TestImportTree_ReplacesTree(t *testing.T) {
	// Arrange
	h, _ := newTestHandler()
	rec := httptest.NewRecorder()
	incoming := tree.Bootstrap("Imported", "Founder", tree.GenderFemale)
	body := SnapshotRequest{People: incoming.People, RootIDStack: incoming.RootIDStack}

	// Act
	h.ImportTree(rec, newRequest(t, http.MethodPost, "/api/v1/tree/import", body, nil))

	// Assert
	require.Equal(t, http.StatusOK, rec.Code)
	env := decode(t, rec)
	var snap tree.Snapshot
	require.NoError(t, json.Unmarshal(env.Data, &snap))
	assert.Equal(t, "Imported", snap.People[tree.RootID].FirstName)
}

func TestExportTree_SetsDownloadHeaders(t *testing.T) {
	// Arrange
	h, _ := newTestHandler()
	rec := httptest.NewRecorder()

	// Act
	h.ExportTree(rec, newRequest(t, http.MethodGet, "/api/v1/tree/export", nil, nil))

	// Assert
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	var snap tree.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Contains(t, snap.People, tree.RootID)
}

func TestGetFamilyUnit_RequiresBothIDs(t *testing.T) {
	h, _ := newTestHandler()
	rec := httptest.NewRecorder()

	h.GetFamilyUnit(rec, newRequest(t, http.MethodGet, "/api/v1/tree/family-unit?a=root", nil, nil))

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetStatistics_ReturnsFigures(t *testing.T) {
	// Arrange
	h, svc := newTestHandler()
	_, _, err := svc.AddRelative(context.Background(), testUserID, tree.RootID,
		tree.RelationshipChild, tree.PersonAttributes{FirstName: "Tim", Gender: tree.GenderMale}, "")
	require.NoError(t, err)
	rec := httptest.NewRecorder()

	// Act
	h.GetStatistics(rec, newRequest(t, http.MethodGet, "/api/v1/tree/statistics", nil, nil))

	// Assert
	require.Equal(t, http.StatusOK, rec.Code)
	env := decode(t, rec)
	var stats tree.Statistics
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Equal(t, 2, stats.TotalPeople)
}

func TestGetBirthdays_FiltersByMonth(t *testing.T) {
	// Arrange
	h, svc := newTestHandler()
	_, _, err := svc.AddRelative(context.Background(), testUserID, tree.RootID,
		tree.RelationshipChild,
		tree.PersonAttributes{FirstName: "Tim", BirthDate: "1980-09-20"}, "")
	require.NoError(t, err)
	rec := httptest.NewRecorder()

	// Act
	h.GetBirthdays(rec, newRequest(t, http.MethodGet, "/api/v1/tree/birthdays?month=9", nil, nil))

	// Assert
	require.Equal(t, http.StatusOK, rec.Code)
	env := decode(t, rec)
	var payload struct {
		Month  int            `json:"month"`
		People []*tree.Person `json:"people"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &payload))
	assert.Equal(t, 9, payload.Month)
	require.Len(t, payload.People, 1)
	assert.Equal(t, "Tim", payload.People[0].FirstName)
}

func TestGetBirthdays_RejectsInvalidMonth(t *testing.T) {
	h, _ := newTestHandler()
	rec := httptest.NewRecorder()

	h.GetBirthdays(rec, newRequest(t, http.MethodGet, "/api/v1/tree/birthdays?month=13", nil, nil))

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearch_ReturnsMatches(t *testing.T) {
	// Arrange
	h, svc := newTestHandler()
	_, _, err := svc.AddRelative(context.Background(), testUserID, tree.RootID,
		tree.RelationshipChild, tree.PersonAttributes{FirstName: "Tim", LastName: "Doe"}, "")
	require.NoError(t, err)
	rec := httptest.NewRecorder()

	// Act
	h.Search(rec, newRequest(t, http.MethodGet, "/api/v1/search?q=tim", nil, nil))

	// Assert
	require.Equal(t, http.StatusOK, rec.Code)
	env := decode(t, rec)
	var payload struct {
		Results []*tree.Person `json:"results"`
		Count   int            `json:"count"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &payload))
	require.Equal(t, 1, payload.Count)
	assert.Equal(t, "Tim", payload.Results[0].FirstName)
}
