package controllers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linklocker/LinkLocker/app/models"
	"github.com/linklocker/LinkLocker/internal/pkg/linkgate"
)

func newGateApp() *fiber.App {
	app := fiber.New()
	app.Get("/l/:id", HandleVisitLink)
	app.Post("/l/:id/unlock", HandleUnlockLink)
	return app
}

func createStoredLink(t *testing.T, userID uint, password string, expiresAt *time.Time) *models.Link {
	t.Helper()

	link := &models.Link{
		UserID:    userID,
		Title:     "shared doc",
		TargetURL: "https://example.com/doc",
		ExpiresAt: expiresAt,
	}
	if password != "" {
		require.NoError(t, link.SetPassword(password))
	}
	require.NoError(t, testDB.Create(link).Error)
	return link
}

func decodeGateResult(t *testing.T, body *bytes.Buffer) linkgate.Result {
	t.Helper()

	var result linkgate.Result
	require.NoError(t, json.Unmarshal(body.Bytes(), &result))
	return result
}

func doRequest(t *testing.T, app *fiber.App, method, path string, body []byte) (int, *bytes.Buffer) {
	t.Helper()

	var req = httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	buf := new(bytes.Buffer)
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, buf
}

func TestHandleVisitLink_NotFound(t *testing.T) {
	app := newGateApp()

	status, body := doRequest(t, app, "GET", "/l/doesnotexist0000000000", nil)
	assert.Equal(t, fiber.StatusNotFound, status)

	result := decodeGateResult(t, body)
	assert.Equal(t, linkgate.StateNotFound, result.State)
	assert.Empty(t, result.TargetURL)
}

func TestHandleVisitLink_GrantsAndCounts(t *testing.T) {
	app := newGateApp()
	userID := createTestUser(t, "gate-open@example.com")
	link := createStoredLink(t, userID, "", nil)

	status, body := doRequest(t, app, "GET", "/l/"+link.ID, nil)
	require.Equal(t, fiber.StatusOK, status)

	result := decodeGateResult(t, body)
	assert.Equal(t, linkgate.StateGranted, result.State)
	assert.Equal(t, "https://example.com/doc", result.TargetURL)
	assert.EqualValues(t, 1, result.ViewCount)

	var stored models.Link
	require.NoError(t, testDB.Where("id = ?", link.ID).First(&stored).Error)
	assert.EqualValues(t, 1, stored.ViewCount)
}

func TestHandleVisitLink_ExpiredBeatsPassword(t *testing.T) {
	app := newGateApp()
	userID := createTestUser(t, "gate-expired@example.com")
	past := time.Now().Add(-time.Hour)
	link := createStoredLink(t, userID, "hunter2", &past)

	// Visit reports expired, not password_required.
	status, body := doRequest(t, app, "GET", "/l/"+link.ID, nil)
	assert.Equal(t, fiber.StatusGone, status)
	assert.Equal(t, linkgate.StateExpired, decodeGateResult(t, body).State)

	// Even the correct password cannot revive it.
	status, body = doRequest(t, app, "POST", "/l/"+link.ID+"/unlock", []byte(`{"password":"hunter2"}`))
	assert.Equal(t, fiber.StatusGone, status)
	assert.Equal(t, linkgate.StateExpired, decodeGateResult(t, body).State)
}

func TestHandleUnlockLink_PasswordFlow(t *testing.T) {
	app := newGateApp()
	userID := createTestUser(t, "gate-locked@example.com")
	link := createStoredLink(t, userID, "hunter2", nil)

	// Plain visit stops at the password gate without revealing the target.
	status, body := doRequest(t, app, "GET", "/l/"+link.ID, nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	result := decodeGateResult(t, body)
	assert.Equal(t, linkgate.StatePasswordRequired, result.State)
	assert.Empty(t, result.TargetURL)

	// Wrong password stays blocked and counts nothing.
	status, body = doRequest(t, app, "POST", "/l/"+link.ID+"/unlock", []byte(`{"password":"wrong"}`))
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, linkgate.StatePasswordRequired, decodeGateResult(t, body).State)

	var stored models.Link
	require.NoError(t, testDB.Where("id = ?", link.ID).First(&stored).Error)
	assert.Zero(t, stored.ViewCount)

	// Correct password grants with exactly one view.
	status, body = doRequest(t, app, "POST", "/l/"+link.ID+"/unlock", []byte(`{"password":"hunter2"}`))
	require.Equal(t, fiber.StatusOK, status)
	result = decodeGateResult(t, body)
	assert.Equal(t, linkgate.StateGranted, result.State)
	assert.Equal(t, "https://example.com/doc", result.TargetURL)

	require.NoError(t, testDB.Where("id = ?", link.ID).First(&stored).Error)
	assert.EqualValues(t, 1, stored.ViewCount)
}

func TestHandleListPlans_Public(t *testing.T) {
	app := fiber.New()
	app.Get("/api/v1/plans", HandleListPlans)

	status, body := doRequest(t, app, "GET", "/api/v1/plans", nil)
	require.Equal(t, fiber.StatusOK, status)

	var response struct {
		Plans []models.Plan `json:"plans"`
	}
	require.NoError(t, json.Unmarshal(body.Bytes(), &response))
	require.Len(t, response.Plans, 3)
	// Cheapest first.
	assert.Equal(t, "explorer", response.Plans[0].ID)
	assert.Equal(t, "navigator", response.Plans[2].ID)
}
