package handlers

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/BillBrieferServer/scribe/internal/infra/telemetry"
	"github.com/BillBrieferServer/scribe/internal/transport/http/middleware"
	"github.com/BillBrieferServer/scribe/internal/usecase"
)

// NoteHandler exposes note CRUD and sharing endpoints. All operations are
// scoped to the authenticated account.
type NoteHandler struct {
	notes   *usecase.NoteService
	share   *usecase.ShareService
	metrics *telemetry.Provider
}

func NewNoteHandler(notes *usecase.NoteService, share *usecase.ShareService, metrics *telemetry.Provider) *NoteHandler {
	return &NoteHandler{notes: notes, share: share, metrics: metrics}
}

// Create stores a new note for the authenticated account.
func (h *NoteHandler) Create(c *gin.Context) {
	accountID, ok := middleware.AuthenticatedAccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	var req NoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid note payload"))
		return
	}

	note, err := h.notes.Create(c.Request.Context(), accountID, noteInput(req))
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to create note"))
		return
	}

	c.JSON(http.StatusCreated, newNoteResponse(note))
}

// Get returns a single note owned by the authenticated account.
func (h *NoteHandler) Get(c *gin.Context) {
	accountID, ok := middleware.AuthenticatedAccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	note, err := h.notes.Get(c.Request.Context(), accountID, c.Param("id"))
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrNoteNotFound, Status: http.StatusNotFound, Message: "note not found"},
		}, http.StatusInternalServerError, "failed to fetch note")
		return
	}

	c.JSON(http.StatusOK, newNoteResponse(note))
}

// List returns the account's notes, newest first.
func (h *NoteHandler) List(c *gin.Context) {
	accountID, ok := middleware.AuthenticatedAccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	notes, err := h.notes.List(c.Request.Context(), accountID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to list notes"))
		return
	}

	resp := NoteListResponse{Notes: make([]NoteResponse, 0, len(notes)), Count: len(notes)}
	for i := range notes {
		resp.Notes = append(resp.Notes, newNoteResponse(&notes[i]))
	}

	c.JSON(http.StatusOK, resp)
}

// Delete removes a note owned by the authenticated account.
func (h *NoteHandler) Delete(c *gin.Context) {
	accountID, ok := middleware.AuthenticatedAccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	if err := h.notes.Delete(c.Request.Context(), accountID, c.Param("id")); err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrNoteNotFound, Status: http.StatusNotFound, Message: "note not found"},
		}, http.StatusInternalServerError, "failed to delete note")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "note deleted"})
}

// Share mails a note to a recipient, subject to the sharing quotas.
func (h *NoteHandler) Share(c *gin.Context) {
	account, ok := middleware.AuthenticatedAccount(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	var req ShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid share payload"))
		return
	}

	recipient := strings.TrimSpace(req.Recipient)
	if recipient == "" {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "recipient is required"))
		return
	}

	err := h.share.Share(c.Request.Context(), account.ID, account.Name, c.Param("id"), recipient)
	if err != nil {
		if rateErr, ok := usecase.AsRateLimitError(err); ok {
			if h.metrics != nil {
				h.metrics.ShareDenialCounter(string(rateErr.Scope)).Inc()
			}
			seconds := int(math.Ceil(rateErr.RetryAfter.Seconds()))
			if seconds > 0 {
				c.Header("Retry-After", strconv.Itoa(seconds))
			}
			c.JSON(http.StatusTooManyRequests, NewErrorResponse(c, "sharing limit reached, try again later"))
			return
		}

		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrNoteNotFound, Status: http.StatusNotFound, Message: "note not found"},
			{Err: usecase.ErrDispatchFailed, Status: http.StatusBadGateway, Message: "failed to send share email"},
		}, http.StatusInternalServerError, "failed to share note")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "note shared"})
}

func noteInput(req NoteRequest) usecase.NoteInput {
	return usecase.NoteInput{
		Label:          req.Label,
		PatientAge:     req.PatientAge,
		PatientGender:  req.PatientGender,
		VisitType:      req.VisitType,
		Specialty:      req.Specialty,
		ChiefComplaint: req.ChiefComplaint,
		RawDictation:   req.RawDictation,
		SOAPNote:       req.SOAPNote,
		EncounterTime:  req.EncounterTime,
	}
}
