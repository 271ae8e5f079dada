package sheetsync

import (
	"context"
	"errors"
	"fmt"

	"github.com/doodlesbykumbi/handover-tracker/pkg/audit"
	"github.com/doodlesbykumbi/handover-tracker/pkg/logger"
	"github.com/doodlesbykumbi/handover-tracker/pkg/model"
	"github.com/doodlesbykumbi/handover-tracker/pkg/server/store"
)

// ValueReader reads a range of cells. *SheetsClient implements it.
type ValueReader interface {
	Values(ctx context.Context, sheetID, rng string) ([][]string, error)
}

// HandoverUpserter is the part of store.HandoversStore the sync writes to.
type HandoverUpserter interface {
	Upsert(ctx context.Context, h *model.Handover) (created bool, err error)
}

// RowError reports a skipped row. Row is the 1-based sheet row number.
type RowError struct {
	Row   int    `json:"row"`
	Ref   string `json:"ref,omitempty"`
	Error string `json:"error"`
}

// Report summarises one sync run.
type Report struct {
	SheetID  string     `json:"sheetId"`
	RowsRead int        `json:"rowsRead"`
	Created  int        `json:"created"`
	Updated  int        `json:"updated"`
	Skipped  int        `json:"skipped"`
	Errors   []RowError `json:"errors"`
}

// Syncer imports handover rows from one sheet range.
type Syncer struct {
	reader    ValueReader
	handovers HandoverUpserter
	directory store.DirectoryStore
	sheetID   string
	rng       string
	logger    logger.Logger
}

func NewSyncer(
	reader ValueReader,
	handovers HandoverUpserter,
	directory store.DirectoryStore,
	sheetID, rng string,
	lggr logger.Logger,
) *Syncer {
	return &Syncer{
		reader:    reader,
		handovers: handovers,
		directory: directory,
		sheetID:   sheetID,
		rng:       rng,
		logger:    lggr.Named("sheetsync"),
	}
}

// Run reads the sheet and upserts every valid row. Row-level problems are
// collected in the report; only failures to read the sheet or reach the
// database abort the run. trigger names the caller for the audit log.
func (s *Syncer) Run(ctx context.Context, trigger string) (*Report, error) {
	report, err := s.run(ctx)
	event := audit.SyncEvent{Trigger: trigger, SheetID: s.sheetID, Success: err == nil}
	if report != nil {
		event.RowsRead = report.RowsRead
		event.Created = report.Created
		event.Updated = report.Updated
		event.Skipped = report.Skipped
	}
	if err != nil {
		event.ErrorMessage = err.Error()
		s.logger.Errorw("Sheet sync failed", "sheet", s.sheetID, "err", err)
	} else {
		s.logger.Infow("Sheet sync finished", "sheet", s.sheetID,
			"read", report.RowsRead, "created", report.Created,
			"updated", report.Updated, "skipped", report.Skipped)
	}
	audit.Log(event)
	return report, err
}

func (s *Syncer) run(ctx context.Context) (*Report, error) {
	report := &Report{SheetID: s.sheetID, Errors: []RowError{}}

	rows, err := s.reader.Values(ctx, s.sheetID, s.rng)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return report, nil
	}

	hdr, err := parseHeader(rows[0])
	if err != nil {
		return nil, err
	}

	for i, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		report.RowsRead++
		rowNum := i + 2

		parsed, err := hdr.parseRow(row)
		if err != nil {
			report.skip(rowNum, hdr.get(row, colExternalRef), err)
			continue
		}
		h := &parsed.handover

		if err := s.resolve(ctx, h, parsed); err != nil {
			return report, err
		}

		created, err := s.handovers.Upsert(ctx, h)
		switch {
		case errors.Is(err, store.ErrInvalid), errors.Is(err, store.ErrConflict):
			report.skip(rowNum, *h.ExternalRef, err)
			continue
		case err != nil:
			return report, fmt.Errorf("failed to save row %d: %w", rowNum, err)
		}
		if created {
			report.Created++
		} else {
			report.Updated++
		}
	}
	return report, nil
}

func (r *Report) skip(row int, ref string, err error) {
	r.Skipped++
	r.Errors = append(r.Errors, RowError{Row: row, Ref: ref, Error: err.Error()})
}

// resolve fills the directory foreign keys from the department and plant
// names. Unknown names leave the keys empty.
func (s *Syncer) resolve(ctx context.Context, h *model.Handover, r *sheetRow) error {
	if r.department != "" {
		dept, err := s.directory.DepartmentByName(ctx, r.department)
		switch {
		case errors.Is(err, store.ErrNotFound):
			s.logger.Debugw("Unknown department in sheet", "department", r.department, "ref", *h.ExternalRef)
		case err != nil:
			return fmt.Errorf("failed to resolve department %q: %w", r.department, err)
		default:
			h.DepartmentID = &dept.ID
			if dept.PlantID != "" {
				h.PlantID = &dept.PlantID
			}
		}
	}

	if r.plant != "" {
		plant, err := s.directory.PlantByName(ctx, r.plant)
		switch {
		case errors.Is(err, store.ErrNotFound):
			s.logger.Debugw("Unknown plant in sheet", "plant", r.plant, "ref", *h.ExternalRef)
		case err != nil:
			return fmt.Errorf("failed to resolve plant %q: %w", r.plant, err)
		default:
			h.PlantID = &plant.ID
			if plant.OrganizationID != "" {
				h.OrganizationID = &plant.OrganizationID
			}
		}
	}
	return nil
}
