// Package progress derives completion views from requirements and verified
// logs. The aggregation here is a pure fold over its inputs; caching and
// loading live in the service.
package progress

import (
	"sort"
	"strings"

	logmodels "rotalog/internal/logbook/models"
	"rotalog/internal/progress/models"
	vmodels "rotalog/internal/verification/models"
	id "rotalog/pkg/domain"
)

// BuildInternProgress folds a trainee's logs against the requirement
// catalogue into per-rotation progress. Rotations appear in snapshot order;
// only APPROVED counts advance completion, PENDING and NEEDS_REVISION counts
// are reported as pending work, REJECTED counts are excluded entirely.
func BuildInternProgress(snapshot *logmodels.RequirementSnapshot, logs []logmodels.LogRow) []models.RotationProgress {
	procedures := make(map[id.ProcedureID]logmodels.Procedure, len(snapshot.Procedures))
	for _, procedure := range snapshot.Procedures {
		procedures[procedure.ID] = procedure
	}

	type bucket struct {
		approved int
		pending  int
	}
	perProcedure := make(map[id.ProcedureID]bucket)
	rotationHasLogs := make(map[id.RotationID]bool)
	for _, row := range logs {
		procedure, ok := procedures[row.ProcedureID]
		if !ok {
			continue
		}
		rotationHasLogs[procedure.RotationID] = true
		b := perProcedure[row.ProcedureID]
		switch {
		case row.Status == vmodels.StatusApproved:
			b.approved += row.Count
		case row.Status.Unresolved():
			b.pending += row.Count
		}
		perProcedure[row.ProcedureID] = b
	}

	requirementsByRotation := make(map[id.RotationID][]logmodels.Requirement)
	for _, requirement := range snapshot.Requirements {
		requirementsByRotation[requirement.RotationID] = append(requirementsByRotation[requirement.RotationID], requirement)
	}

	result := make([]models.RotationProgress, 0, len(snapshot.Rotations))
	for _, rotation := range snapshot.Rotations {
		rp := models.RotationProgress{
			RotationID:   rotation.ID,
			RotationName: rotation.Name,
			Procedures:   []models.ProcedureProgress{},
		}

		for _, requirement := range requirementsByRotation[rotation.ID] {
			b := perProcedure[requirement.ProcedureID]
			rp.Required += requirement.MinCount
			rp.Procedures = append(rp.Procedures, models.ProcedureProgress{
				ProcedureID:   requirement.ProcedureID,
				Name:          procedures[requirement.ProcedureID].Name,
				MinCount:      requirement.MinCount,
				ApprovedCount: b.approved,
				PendingCount:  b.pending,
				State:         classifyProcedure(requirement.MinCount, b.approved, b.pending),
			})
		}
		sort.Slice(rp.Procedures, func(i, j int) bool {
			return rp.Procedures[i].Name < rp.Procedures[j].Name
		})

		// Rotation totals include every logged procedure of the rotation,
		// required or not; over-logging shows up in the raw counts.
		for procedureID, b := range perProcedure {
			if procedures[procedureID].RotationID != rotation.ID {
				continue
			}
			rp.Verified += b.approved
			rp.Pending += b.pending
		}

		rp.CompletionPercentage = CompletionPercentage(rp.Required, rp.Verified)
		rp.State = classifyRotation(rp.Required, rp.CompletionPercentage, rotationHasLogs[rotation.ID])
		result = append(result, rp)
	}
	return result
}

// BuildSupervisorQueue groups pending rows by trainee. Rows arrive oldest
// first from the store and keep that order within each group; groups are
// sorted by trainee name so the queue reads the same for every reviewer.
func BuildSupervisorQueue(rows []logmodels.PendingRow) models.SupervisorQueue {
	groupIndex := make(map[id.InternID]int)
	groups := []models.InternQueue{}
	for _, row := range rows {
		idx, ok := groupIndex[row.InternID]
		if !ok {
			idx = len(groups)
			groupIndex[row.InternID] = idx
			groups = append(groups, models.InternQueue{
				InternID:   row.InternID,
				InternName: row.InternName,
			})
		}
		groups[idx].Items = append(groups[idx].Items, models.PendingItem{
			LogEntryID:    row.ID,
			ProcedureID:   row.ProcedureID,
			ProcedureName: row.ProcedureName,
			RotationID:    row.RotationID,
			Count:         row.Count,
			Status:        row.Status,
			SubmittedAt:   row.CreatedAt,
		})
	}

	sort.SliceStable(groups, func(i, j int) bool {
		ni, nj := strings.ToLower(groups[i].InternName), strings.ToLower(groups[j].InternName)
		if ni != nj {
			return ni < nj
		}
		return groups[i].InternID.String() < groups[j].InternID.String()
	})

	return models.SupervisorQueue{
		Groups:                    groups,
		TotalPendingVerifications: len(rows),
	}
}

// CompletionPercentage computes verified/required as a whole percentage,
// rounded half up and clamped to [0, 100]. A rotation with no requirements
// reports 0.
func CompletionPercentage(required, verified int) int {
	if required <= 0 || verified <= 0 {
		return 0
	}
	pct := (200*verified + required) / (2 * required)
	if pct > 100 {
		return 100
	}
	return pct
}

func classifyProcedure(minCount, approved, pending int) models.ProcedureState {
	switch {
	case minCount > 0 && approved >= minCount:
		return models.ProcedureCompleted
	case pending > 0:
		return models.ProcedurePending
	default:
		return models.ProcedureNotStarted
	}
}

func classifyRotation(required, percentage int, hasLogs bool) models.RotationState {
	switch {
	case !hasLogs:
		return models.RotationNotStarted
	case required == 0 || percentage >= 100:
		return models.RotationFinished
	default:
		return models.RotationActive
	}
}
