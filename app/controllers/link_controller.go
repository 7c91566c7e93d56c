package controllers

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/linklocker/LinkLocker/app/models"
	"github.com/linklocker/LinkLocker/app/repository"
	"github.com/linklocker/LinkLocker/internal/pkg/database"
	"github.com/linklocker/LinkLocker/internal/pkg/entitlement"
	"github.com/linklocker/LinkLocker/internal/pkg/events"
	"github.com/linklocker/LinkLocker/internal/pkg/linkgate"
	"github.com/linklocker/LinkLocker/internal/pkg/storage"
	"github.com/linklocker/LinkLocker/internal/pkg/upload"
	"github.com/linklocker/LinkLocker/internal/pkg/usercontext"
)

var (
	linkStorage   *storage.Client
	linkValidator = validator.New()
)

// InitializeLinkController wires the object storage client. Storage being
// unavailable degrades file uploads to a transient error; URL links keep
// working.
func InitializeLinkController() {
	client, err := storage.NewClientFromEnv()
	if err != nil {
		log.Warnf("[LinkController] object storage unavailable, file uploads disabled: %v", err)
		return
	}
	linkStorage = client
}

type createLinkRequest struct {
	Title     string `json:"title"`
	TargetURL string `json:"target_url"`
	Password  string `json:"password"`
	ExpiresAt string `json:"expires_at"`
}

// HandleCreateLink creates a link for the authenticated user. The request is
// either JSON with a target URL or multipart with an uploaded file. The
// entitlement ledger decides whether creation is funded; a consumed slot is
// not refunded if the persist afterwards fails, the user retries instead.
func HandleCreateLink(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	db := database.GetDB()
	ledger := entitlement.NewServiceFromDB(db)

	fileHeader, fileErr := c.FormFile("file")
	isFileUpload := fileErr == nil && fileHeader != nil

	var req createLinkRequest
	if isFileUpload {
		req.Title = c.FormValue("title")
		req.Password = c.FormValue("password")
		req.ExpiresAt = c.FormValue("expires_at")
	} else if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_request", "Invalid request body")
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return jsonError(c, fiber.StatusBadRequest, "validation_failed", "Title is required")
	}

	if !isFileUpload {
		if err := linkValidator.Var(req.TargetURL, "required,url"); err != nil {
			return jsonError(c, fiber.StatusBadRequest, "validation_failed", "A valid target URL is required")
		}
	}

	now := time.Now()
	var expiresAt *time.Time
	if strings.TrimSpace(req.ExpiresAt) != "" {
		parsed, err := time.Parse(time.RFC3339, req.ExpiresAt)
		if err != nil {
			return jsonError(c, fiber.StatusBadRequest, "validation_failed", "expires_at must be RFC3339")
		}
		if !parsed.After(now) {
			return jsonError(c, fiber.StatusBadRequest, "validation_failed", "expires_at must be in the future")
		}
		expiresAt = &parsed
	}

	ent, err := ledger.GetEntitlement(c.Context(), userCtx.UserID)
	if err != nil {
		return mapEntitlementError(c, err)
	}
	if expiresAt != nil && ent.MaxExpirationDays != nil {
		max := now.AddDate(0, 0, *ent.MaxExpirationDays)
		if expiresAt.After(max) {
			return jsonError(c, fiber.StatusBadRequest, "expiration_too_far",
				fmt.Sprintf("The %s plan allows expiration dates at most %d days ahead", ent.PlanName, *ent.MaxExpirationDays))
		}
	}

	// Validate the upload before any ledger mutation so an oversized or
	// disallowed file never burns a slot.
	var head []byte
	if isFileUpload {
		f, err := fileHeader.Open()
		if err != nil {
			return jsonError(c, fiber.StatusBadRequest, "invalid_request", "Failed to read uploaded file")
		}
		buf := make([]byte, 512)
		n, _ := io.ReadFull(f, buf)
		head = buf[:n]
		f.Close()

		if _, err := upload.ValidateFile(fileHeader.Filename, fileHeader.Size, head); err != nil {
			return jsonError(c, fiber.StatusBadRequest, "invalid_file", err.Error())
		}
		if linkStorage == nil {
			return jsonError(c, fiber.StatusServiceUnavailable, "storage_unavailable", "File uploads are temporarily unavailable, please try again")
		}
	}

	funding, err := ledger.AuthorizeCreation(c.Context(), userCtx.UserID, isFileUpload)
	if err != nil {
		return mapEntitlementError(c, err)
	}

	link := &models.Link{
		UserID:        userCtx.UserID,
		Title:         req.Title,
		TargetURL:     req.TargetURL,
		ExpiresAt:     expiresAt,
		FundingSource: string(funding),
	}
	if req.Password != "" {
		if err := link.SetPassword(req.Password); err != nil {
			return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to protect link")
		}
	}

	if isFileUpload {
		f, err := fileHeader.Open()
		if err != nil {
			return jsonError(c, fiber.StatusServiceUnavailable, "upload_failed", "Failed to read uploaded file, please try again")
		}
		defer f.Close()

		contentType := fileHeader.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		objectKey := storage.NewObjectKey(fileHeader.Filename)
		publicURL, err := linkStorage.Store(c.Context(), objectKey, f, fileHeader.Size, contentType)
		if err != nil {
			// The reserved slot stays consumed; the retry is cheap and the
			// ledger errs on the side of never over-granting.
			log.Errorf("[LinkController] upload failed for user %d: %v", userCtx.UserID, err)
			return jsonError(c, fiber.StatusServiceUnavailable, "upload_failed", "Upload failed, please try again")
		}

		fileName := fileHeader.Filename
		fileSize := fileHeader.Size
		link.TargetURL = publicURL
		link.FileName = &fileName
		link.FileSize = &fileSize
		link.ObjectKey = &objectKey
	}

	linkRepo := repository.GetGlobalFactory().GetLinkRepository()
	if err := linkRepo.Create(link); err != nil {
		log.Errorf("[LinkController] failed to persist link for user %d: %v", userCtx.UserID, err)
		return jsonError(c, fiber.StatusServiceUnavailable, "save_failed", "Link could not be saved, please try again")
	}

	events.Publish(c.Context(), events.EventLinkCreated, userCtx.UserID, link.ID)
	log.Infof("[LinkController] user %d created link %s (funding=%s)", userCtx.UserID, link.ID, link.FundingSource)
	return c.Status(fiber.StatusCreated).JSON(link)
}

// HandleListLinks returns the authenticated user's links, newest first.
func HandleListLinks(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	offset, limit := getPagination(c)

	linkRepo := repository.GetGlobalFactory().GetLinkRepository()
	links, err := linkRepo.GetByUserID(userCtx.UserID, offset, limit)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load links")
	}
	total, err := linkRepo.CountByUserID(userCtx.UserID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to count links")
	}

	return c.JSON(fiber.Map{
		"links": links,
		"total": total,
	})
}

// HandleLinkStats returns aggregate dashboard numbers for the user's links.
func HandleLinkStats(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	linkRepo := repository.GetGlobalFactory().GetLinkRepository()
	stats, err := linkRepo.GetStatsByUserID(userCtx.UserID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load statistics")
	}
	return c.JSON(stats)
}

// HandleDeleteLink removes one of the user's links. Deleting someone else's
// link is forbidden, not hidden. Stored files are cleaned up best-effort.
func HandleDeleteLink(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	linkID := c.Params("id")

	linkRepo := repository.GetGlobalFactory().GetLinkRepository()
	link, err := linkRepo.GetByID(linkID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "Link not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load link")
	}

	if link.UserID != userCtx.UserID && !userCtx.IsAdmin {
		return jsonError(c, fiber.StatusForbidden, "forbidden", "You do not own this link")
	}

	if link.IsFileBacked() && linkStorage != nil {
		if err := linkStorage.Delete(c.Context(), *link.ObjectKey); err != nil {
			log.Warnf("[LinkController] failed to delete object %s: %v", *link.ObjectKey, err)
		}
	}

	if err := linkRepo.Delete(link.ID); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to delete link")
	}

	events.Publish(c.Context(), events.EventLinkDeleted, userCtx.UserID, link.ID)
	return c.JSON(fiber.Map{"message": "deleted"})
}

// HandleVisitLink is the public gate entry: no authentication, outcome is a
// state. The target URL only appears on granted results.
func HandleVisitLink(c *fiber.Ctx) error {
	gate := linkgate.NewGate(repository.GetGlobalFactory().GetLinkRepository())
	result, err := gate.Visit(c.Context(), c.Params("id"))
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to resolve link")
	}
	if result.State == linkgate.StateGranted {
		events.Publish(c.Context(), events.EventLinkViewed, 0, c.Params("id"))
	}
	return c.Status(gateStatus(result.State)).JSON(result)
}

type unlockRequest struct {
	Password string `json:"password"`
}

// HandleUnlockLink submits a password for a protected link. A wrong password
// keeps the visitor in the password_required state; it is never an error and
// never counts a view.
func HandleUnlockLink(c *fiber.Ctx) error {
	var req unlockRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_request", "Invalid request body")
	}

	gate := linkgate.NewGate(repository.GetGlobalFactory().GetLinkRepository())
	result, err := gate.SubmitPassword(c.Context(), c.Params("id"), req.Password)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to resolve link")
	}
	if result.State == linkgate.StateGranted {
		events.Publish(c.Context(), events.EventLinkViewed, 0, c.Params("id"))
	}
	return c.Status(gateStatus(result.State)).JSON(result)
}

func gateStatus(state linkgate.State) int {
	switch state {
	case linkgate.StateNotFound:
		return fiber.StatusNotFound
	case linkgate.StateExpired:
		return fiber.StatusGone
	case linkgate.StatePasswordRequired:
		return fiber.StatusUnauthorized
	default:
		return fiber.StatusOK
	}
}

// mapEntitlementError converts ledger refusals into stable API errors. Every
// refusal is a 4xx distinct from transient failures so clients can tell
// "upgrade or top up" apart from "try again".
func mapEntitlementError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, entitlement.ErrNoPlanSelected):
		return jsonError(c, fiber.StatusForbidden, "no_plan_selected", "Select a plan before creating links")
	case errors.Is(err, entitlement.ErrUploadNotAllowed):
		return jsonError(c, fiber.StatusForbidden, "upload_not_allowed", "Your plan does not allow file uploads")
	case entitlement.IsQuotaExhausted(err):
		return jsonError(c, fiber.StatusForbidden, "quota_exhausted", err.Error())
	default:
		log.Errorf("[LinkController] entitlement check failed: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to check entitlement")
	}
}
