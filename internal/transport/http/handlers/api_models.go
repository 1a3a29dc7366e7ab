package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/BillBrieferServer/scribe/internal/core/domain"
	"github.com/BillBrieferServer/scribe/internal/transport/http/middleware"
)

// ErrorResponse is the uniform error payload returned by the API.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse builds an ErrorResponse carrying the request trace ID.
func NewErrorResponse(c *gin.Context, message string) ErrorResponse {
	return ErrorResponse{
		Error:   message,
		TraceID: middleware.GetTraceID(c),
	}
}

// MessageResponse is a generic acknowledgement payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// RegisterRequest is the payload for account registration.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name"`
}

// VerifyRequest confirms a registration code.
type VerifyRequest struct {
	Email string `json:"email" binding:"required"`
	Code  string `json:"code" binding:"required"`
}

// LoginRequest is the payload for password authentication.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// SessionResponse is returned when a session is established.
type SessionResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

// ForgotPasswordRequest starts the password reset flow.
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required"`
}

// ResetPasswordRequest completes the password reset flow.
type ResetPasswordRequest struct {
	Email       string `json:"email" binding:"required"`
	Code        string `json:"code" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// NoteRequest carries the writable fields of a clinical note.
type NoteRequest struct {
	Label          *string `json:"label"`
	PatientAge     *string `json:"patient_age"`
	PatientGender  *string `json:"patient_gender"`
	VisitType      *string `json:"visit_type"`
	Specialty      *string `json:"specialty"`
	ChiefComplaint *string `json:"chief_complaint"`
	RawDictation   *string `json:"raw_dictation"`
	SOAPNote       *string `json:"soap_note"`
	EncounterTime  *string `json:"encounter_time"`
}

// NoteResponse is the API representation of a stored note.
type NoteResponse struct {
	ID             string  `json:"id"`
	Label          *string `json:"label,omitempty"`
	PatientAge     *string `json:"patient_age,omitempty"`
	PatientGender  *string `json:"patient_gender,omitempty"`
	VisitType      *string `json:"visit_type,omitempty"`
	Specialty      *string `json:"specialty,omitempty"`
	ChiefComplaint *string `json:"chief_complaint,omitempty"`
	RawDictation   *string `json:"raw_dictation,omitempty"`
	SOAPNote       *string `json:"soap_note,omitempty"`
	EncounterTime  *string `json:"encounter_time,omitempty"`
	CreatedAt      string  `json:"created_at"`
}

// NoteListResponse wraps a page of notes.
type NoteListResponse struct {
	Notes []NoteResponse `json:"notes"`
	Count int            `json:"count"`
}

// ShareRequest asks for a note to be mailed to a recipient.
type ShareRequest struct {
	Recipient string `json:"recipient" binding:"required"`
}

// HealthResponse is the payload for liveness and readiness probes.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func newNoteResponse(note *domain.Note) NoteResponse {
	return NoteResponse{
		ID:             note.ID,
		Label:          note.Label,
		PatientAge:     note.PatientAge,
		PatientGender:  note.PatientGender,
		VisitType:      note.VisitType,
		Specialty:      note.Specialty,
		ChiefComplaint: note.ChiefComplaint,
		RawDictation:   note.RawDictation,
		SOAPNote:       note.SOAPNote,
		EncounterTime:  note.EncounterTime,
		CreatedAt:      note.CreatedAt.UTC().Format(time.RFC3339),
	}
}
