package excel

// RawRowData represents a row of raw spreadsheet data as header -> cell pairs
type RawRowData map[string]string

// ExcelData represents one table of a spreadsheet export
type ExcelData struct {
	Headers []string     // Column headers
	Rows    []RawRowData // Data rows
}

// Sheet names of an activity workbook
const (
	SheetEvents = "events"
	SheetTasks  = "tasks"
	SheetEnergy = "energy"
)

// Column layouts, in the order the writer emits them
var (
	eventColumns  = []string{"timestamp", "action_kind", "entity_kind", "entity_id", "duration_seconds"}
	taskColumns   = []string{"id", "name", "status", "start_date", "end_date", "deadline", "duration_estimate_days", "category_id"}
	energyColumns = []string{"day", "level"}
)

// LoadStats counts rows read from an export
type LoadStats struct {
	Rows    int `json:"rows"`
	Skipped int `json:"skipped"`
}
