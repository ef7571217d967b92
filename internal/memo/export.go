package memo

// ExportSchemaVersion is written to the header line of every export.
const ExportSchemaVersion = "1.0"

// ExportHeader is the first line of a JSONL export file.
type ExportHeader struct {
	MemoExport    bool   `json:"_memo_export"`
	SchemaVersion string `json:"schema_version"`
	ExportID      string `json:"export_id"`
	ExportedAt    int64  `json:"exported_at"`
}

// ExportRecord is one entry in JSONL export format.
// It is also used for parsing export files during import, so header fields
// are present and only set on the header line.
type ExportRecord struct {
	MemoExport    bool   `json:"_memo_export,omitempty"`
	SchemaVersion string `json:"schema_version,omitempty"`
	ExportID      string `json:"export_id,omitempty"`
	ExportedAt    int64  `json:"exported_at,omitempty"`

	Cmd       string `json:"cmd,omitempty"`
	CreatedAt int64  `json:"created_at,omitempty"`
}

// EntryToExportRecord converts an entry to its export form.
// The ID is not exported: the importing store assigns its own.
func EntryToExportRecord(e Entry) ExportRecord {
	return ExportRecord{
		Cmd:       e.Cmd,
		CreatedAt: e.CreatedAt,
	}
}
