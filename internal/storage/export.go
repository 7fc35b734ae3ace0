package storage

import (
	"encoding/json"
	"io"
	"os"
)

type ExportData struct {
	Meta   RunMetadata `json:"meta"`
	Frames []Row       `json:"frames"`
}

func ExportJSON(path string, meta RunMetadata, rows []Row) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return writeJSON(file, meta, rows)
}

func ExportJSONStdout(meta RunMetadata, rows []Row) error {
	return writeJSON(os.Stdout, meta, rows)
}

func writeJSON(w io.Writer, meta RunMetadata, rows []Row) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(ExportData{Meta: meta, Frames: rows})
}
