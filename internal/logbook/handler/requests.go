package handler

import (
	"time"

	"rotalog/internal/logbook/service"
	id "rotalog/pkg/domain"
	dErrors "rotalog/pkg/domain-errors"
)

// SubmitLogRequest is the trainee submission payload. Date uses the
// 2006-01-02 form; the full validation lives in the domain constructor.
type SubmitLogRequest struct {
	InternID    string `json:"intern_id"`
	ProcedureID string `json:"procedure_id"`
	Date        string `json:"date"`
	Count       int    `json:"count"`
	Notes       string `json:"notes,omitempty"`
}

// ToDomain parses the wire payload into the service request.
func (r SubmitLogRequest) ToDomain() (service.SubmitLogRequest, error) {
	internID, err := id.ParseInternID(r.InternID)
	if err != nil {
		return service.SubmitLogRequest{}, err
	}
	procedureID, err := id.ParseProcedureID(r.ProcedureID)
	if err != nil {
		return service.SubmitLogRequest{}, err
	}
	var date time.Time
	if r.Date != "" {
		date, err = time.Parse("2006-01-02", r.Date)
		if err != nil {
			return service.SubmitLogRequest{}, dErrors.New(dErrors.CodeInvalidInput, "date must use the YYYY-MM-DD form")
		}
	}
	return service.SubmitLogRequest{
		InternID:    internID,
		ProcedureID: procedureID,
		Date:        date,
		Count:       r.Count,
		Notes:       r.Notes,
	}, nil
}
