package dataio

import (
	"encoding/json"
	"io"
)

// jsonExport is the document written by WriteJSON.
type jsonExport struct {
	Count        int         `json:"count"`
	Transactions []ExportRow `json:"transactions"`
}

// WriteJSON writes rows as an indented JSON document.
func WriteJSON(w io.Writer, rows []ExportRow) error {
	if rows == nil {
		rows = []ExportRow{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonExport{Count: len(rows), Transactions: rows})
}
