// Package export writes solved schedules as parquet files, one row per
// executed test.
package export

import (
	"fmt"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/example/tp3s/bnp/domain"
)

const numGoRoutines int64 = 4

// ScheduleRow is one test of a selected column.
type ScheduleRow struct {
	Column    int32   `parquet:"name=column, type=INT32"`
	Release   int64   `parquet:"name=release, type=INT64"`
	Position  int32   `parquet:"name=position, type=INT32"`
	TestID    int64   `parquet:"name=test_id, type=INT64"`
	Start     int64   `parquet:"name=start, type=INT64"`
	Finish    int64   `parquet:"name=finish, type=INT64"`
	Tardiness int64   `parquet:"name=tardiness, type=INT64"`
	Weight    float64 `parquet:"name=weight, type=DOUBLE"`
}

// Rows simulates every selected column and flattens the result.
func Rows(inst *domain.Instance, cols []domain.ColumnWeight) []ScheduleRow {
	var rows []ScheduleRow
	for ci, cw := range cols {
		for pos, slot := range domain.Schedule(inst, cw.Column.Sequence, cw.Column.Release) {
			rows = append(rows, ScheduleRow{
				Column:    int32(ci),
				Release:   int64(cw.Column.Release),
				Position:  int32(pos),
				TestID:    int64(slot.Test),
				Start:     int64(slot.Start),
				Finish:    int64(slot.Finish),
				Tardiness: int64(slot.Tardiness),
				Weight:    cw.Weight,
			})
		}
	}
	return rows
}

// WriteSchedule writes the schedule of cols to a parquet file at path.
func WriteSchedule(path string, inst *domain.Instance, cols []domain.ColumnWeight) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer fw.Close()

	pw, err := writer.NewParquetWriter(fw, new(ScheduleRow), numGoRoutines)
	if err != nil {
		return fmt.Errorf("failed to create parquet writer: %w", err)
	}
	for _, row := range Rows(inst, cols) {
		if err := pw.Write(row); err != nil {
			return fmt.Errorf("failed to write parquet file: %w", err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("parquet WriteStop error: %w", err)
	}
	return nil
}

// ReadSchedule reads a file written by WriteSchedule.
func ReadSchedule(path string) ([]ScheduleRow, error) {
	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, new(ScheduleRow), numGoRoutines)
	if err != nil {
		return nil, fmt.Errorf("failed to create parquet reader: %w", err)
	}
	defer pr.ReadStop()

	rows := make([]ScheduleRow, int(pr.GetNumRows()))
	if err := pr.Read(&rows); err != nil {
		return nil, fmt.Errorf("failed to read parquet file: %w", err)
	}
	return rows, nil
}
