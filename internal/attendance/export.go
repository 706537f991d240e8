package attendance

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	sheetAttendance = "attendance"
	sheetSummary    = "summary"
)

type memberTotals struct {
	memberID string
	name     string
	lunches  int
	dinners  int
}

// GET /attendance/export?from=&to=
// Export builds an xlsx workbook with one row per record in [from, to] and a
// per-member summary sheet.
func (s *Service) Export(ctx context.Context, from, to string) ([]byte, string, error) {
	f0, err := s.parseDate(from)
	if err != nil {
		return nil, "", ErrInvalid("from must be YYYY-MM-DD or 'today'")
	}
	t0, err := s.parseDate(to)
	if err != nil {
		return nil, "", ErrInvalid("to must be YYYY-MM-DD or 'today'")
	}
	fromT, _ := time.Parse(DateLayout, f0)
	toT, _ := time.Parse(DateLayout, t0)
	if toT.Before(fromT) {
		return nil, "", ErrInvalid("to must be >= from")
	}
	if toT.Sub(fromT) > MaxExportDays*24*time.Hour {
		return nil, "", ErrInvalid(fmt.Sprintf("range must not exceed %d days", MaxExportDays))
	}

	rows, err := s.repo.ListRange(ctx, f0, t0)
	if err != nil {
		return nil, "", fmt.Errorf("list attendance range: %w", err)
	}

	data, err := buildWorkbook(rows, f0, t0)
	if err != nil {
		return nil, "", fmt.Errorf("build workbook: %w", err)
	}
	return data, fmt.Sprintf("attendance_%s_%s.xlsx", f0, t0), nil
}

func buildWorkbook(rows []Entry, from, to string) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), sheetAttendance); err != nil {
		return nil, err
	}
	header := []interface{}{"date", "member_id", "name", "lunch", "dinner"}
	if err := f.SetSheetRow(sheetAttendance, "A1", &header); err != nil {
		return nil, err
	}

	var (
		order  []string
		totals = map[string]*memberTotals{}
	)
	for i, e := range rows {
		line := []interface{}{e.Date, e.MemberID, e.MemberName, yesNo(e.Lunch), yesNo(e.Dinner)}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheetAttendance, cell, &line); err != nil {
			return nil, err
		}

		mt, ok := totals[e.MemberID]
		if !ok {
			mt = &memberTotals{memberID: e.MemberID, name: e.MemberName}
			totals[e.MemberID] = mt
			order = append(order, e.MemberID)
		}
		if e.Lunch {
			mt.lunches++
		}
		if e.Dinner {
			mt.dinners++
		}
	}

	if _, err := f.NewSheet(sheetSummary); err != nil {
		return nil, err
	}
	p := message.NewPrinter(language.English)
	title := []interface{}{p.Sprintf("%s to %s", from, to)}
	if err := f.SetSheetRow(sheetSummary, "A1", &title); err != nil {
		return nil, err
	}
	sumHeader := []interface{}{"member_id", "name", "lunches", "dinners", "meals"}
	if err := f.SetSheetRow(sheetSummary, "A2", &sumHeader); err != nil {
		return nil, err
	}
	all := 0
	for i, id := range order {
		mt := totals[id]
		meals := mt.lunches + mt.dinners
		all += meals
		line := []interface{}{mt.memberID, mt.name, mt.lunches, mt.dinners, meals}
		cell, err := excelize.CoordinatesToCellName(1, i+3)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheetSummary, cell, &line); err != nil {
			return nil, err
		}
	}
	footer := []interface{}{"total", p.Sprintf("%d meals served", all)}
	cell, err := excelize.CoordinatesToCellName(1, len(order)+3)
	if err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(sheetSummary, cell, &footer); err != nil {
		return nil, err
	}

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
