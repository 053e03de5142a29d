package excel

import (
	"strconv"
	"time"

	"perfpulse/domain/activity"
	"perfpulse/internal/errors"

	"github.com/xuri/excelize/v2"
)

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}

func formatFloatPtr(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func formatStringPtr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// WriteWorkbook writes a batch as an activity workbook readable by Load
func WriteWorkbook(path string, batch activity.Batch) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetEvents); err != nil {
		return errors.Wrap(err, "failed to name events sheet")
	}
	for _, name := range []string{SheetTasks, SheetEnergy} {
		if _, err := f.NewSheet(name); err != nil {
			return errors.Wrapf(err, "failed to create sheet %s", name)
		}
	}

	eventRows := make([][]interface{}, 0, len(batch.Events))
	for _, ev := range batch.Events {
		eventRows = append(eventRows, []interface{}{
			formatTime(ev.Timestamp), string(ev.ActionKind), string(ev.EntityKind), string(ev.EntityID), formatFloatPtr(ev.DurationSeconds),
		})
	}
	taskRows := make([][]interface{}, 0, len(batch.Tasks))
	for _, task := range batch.Tasks {
		taskRows = append(taskRows, []interface{}{
			string(task.ID), task.Name, string(task.Status),
			formatTimePtr(task.StartDate), formatTimePtr(task.EndDate), formatTimePtr(task.Deadline),
			formatFloatPtr(task.DurationEstimateDays), formatStringPtr(task.CategoryID),
		})
	}
	energyRows := make([][]interface{}, 0, len(batch.Energy))
	for _, e := range batch.Energy {
		energyRows = append(energyRows, []interface{}{formatTime(e.Day), e.Level})
	}

	if err := writeSheet(f, SheetEvents, eventColumns, eventRows); err != nil {
		return err
	}
	if err := writeSheet(f, SheetTasks, taskColumns, taskRows); err != nil {
		return err
	}
	if err := writeSheet(f, SheetEnergy, energyColumns, energyRows); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return errors.Wrapf(err, "failed to save workbook %s", path)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, columns []string, rows [][]interface{}) error {
	header := make([]interface{}, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return errors.Wrapf(err, "failed to write %s header", sheet)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return errors.Wrap(err, "invalid cell coordinates")
		}
		row := row
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return errors.Wrapf(err, "failed to write %s row %d", sheet, i+1)
		}
	}
	return nil
}
