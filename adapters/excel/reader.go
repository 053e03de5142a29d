package excel

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"time"

	"perfpulse/internal"
	"perfpulse/internal/errors"

	"github.com/xuri/excelize/v2"
)

// DataReader handles reading Excel and CSV exports
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	logger   *internal.Logger
}

// NewDataReader creates a new data reader that handles both Excel and CSV files
func NewDataReader(filePath string, logger *internal.Logger) *DataReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	return &DataReader{filePath: filePath, fileType: fileType, logger: logger}
}

// FileType returns "xlsx" or "csv"
func (r *DataReader) FileType() string {
	return r.fileType
}

func (r *DataReader) checkExists() error {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return errors.InvalidInput(strings.ToUpper(r.fileType) + " file not found: " + r.filePath)
	}
	return nil
}

// ReadSheets reads every named sheet of a workbook. Missing sheets are
// returned as empty tables.
func (r *DataReader) ReadSheets(names ...string) (map[string]*ExcelData, error) {
	if err := r.checkExists(); err != nil {
		return nil, err
	}

	startTime := time.Now()
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, errors.Wrapf(err, "failed to open Excel file %s", r.filePath))
	}
	defer f.Close()
	r.logger.Debug("excel file %s opened in %.2fms", r.filePath, float64(time.Since(startTime).Nanoseconds())/1e6)

	sheets := map[string]string{}
	for _, name := range f.GetSheetList() {
		sheets[strings.ToLower(name)] = name
	}

	tables := make(map[string]*ExcelData, len(names))
	for _, name := range names {
		sheet, ok := sheets[strings.ToLower(name)]
		if !ok {
			tables[name] = &ExcelData{}
			continue
		}
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, errors.WithCode(errors.CodeInvalidInput, errors.Wrapf(err, "failed to read sheet %s", name))
		}
		tables[name] = r.processRows(rows)
		r.logger.Debug("sheet %s read (%d rows)", name, len(tables[name].Rows))
	}
	return tables, nil
}

// ReadCSV reads a single CSV table
func (r *DataReader) ReadCSV() (*ExcelData, error) {
	if err := r.checkExists(); err != nil {
		return nil, err
	}

	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open CSV file %s", r.filePath)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, errors.Wrap(err, "failed to read CSV file"))
	}
	data := r.processRows(rows)
	r.logger.Debug("csv file %s read (%d columns, %d rows)", r.filePath, len(data.Headers), len(data.Rows))
	return data, nil
}

// processRows converts raw string rows into ExcelData format. Header names
// are lower-cased; rows shorter than the header leave the rest empty.
func (r *DataReader) processRows(rows [][]string) *ExcelData {
	if len(rows) == 0 {
		return &ExcelData{}
	}

	headers := make([]string, len(rows[0]))
	for i, header := range rows[0] {
		headers[i] = strings.ToLower(strings.TrimSpace(header))
	}

	dataRows := make([]RawRowData, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rowData := make(RawRowData, len(headers))
		empty := true
		for j, cell := range row {
			if j < len(headers) {
				rowData[headers[j]] = strings.TrimSpace(cell)
				if rowData[headers[j]] != "" {
					empty = false
				}
			}
		}
		if !empty {
			dataRows = append(dataRows, rowData)
		}
	}

	return &ExcelData{Headers: headers, Rows: dataRows}
}

// HasColumns reports whether every named column is present
func (d *ExcelData) HasColumns(names ...string) bool {
	have := make(map[string]bool, len(d.Headers))
	for _, h := range d.Headers {
		have[h] = true
	}
	for _, n := range names {
		if !have[n] {
			return false
		}
	}
	return true
}
