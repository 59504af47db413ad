package handler

import (
	"time"

	logmodels "rotalog/internal/logbook/models"
)

// LogEntryResponse is the read view of a log entry.
type LogEntryResponse struct {
	ID          string    `json:"id"`
	InternID    string    `json:"intern_id"`
	ProcedureID string    `json:"procedure_id"`
	Date        string    `json:"date"`
	Count       int       `json:"count"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func FromLogEntry(entry *logmodels.LogEntry) LogEntryResponse {
	return LogEntryResponse{
		ID:          entry.ID.String(),
		InternID:    entry.InternID.String(),
		ProcedureID: entry.ProcedureID.String(),
		Date:        entry.Date.Format("2006-01-02"),
		Count:       entry.Count,
		Notes:       entry.Notes,
		CreatedAt:   entry.CreatedAt,
	}
}

// LogRowResponse is a log entry with its verification status.
type LogRowResponse struct {
	ID          string    `json:"id"`
	ProcedureID string    `json:"procedure_id"`
	Date        string    `json:"date"`
	Count       int       `json:"count"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

func FromLogRows(rows []logmodels.LogRow) []LogRowResponse {
	result := make([]LogRowResponse, 0, len(rows))
	for _, row := range rows {
		result = append(result, LogRowResponse{
			ID:          row.ID.String(),
			ProcedureID: row.ProcedureID.String(),
			Date:        row.Date.Format("2006-01-02"),
			Count:       row.Count,
			Status:      string(row.Status),
			CreatedAt:   row.CreatedAt,
		})
	}
	return result
}
