package domain

import "time"

// Note is a dictated encounter note owned by a single account. All fields
// except the owner reference are free-form text supplied by the client; the
// service stores and returns them verbatim.
type Note struct {
	ID             string
	AccountID      string
	Label          *string
	PatientAge     *string
	PatientGender  *string
	VisitType      *string
	Specialty      *string
	ChiefComplaint *string
	RawDictation   *string
	SOAPNote       *string
	EncounterTime  *string
	CreatedAt      time.Time
}
