package storage

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/san-kum/fuzzytank/internal/control"
)

// ExportData is a run's metadata together with its full trace.
type ExportData struct {
	RunMetadata
	States []control.Snapshot `json:"states"`
}

func (s *Store) ExportJSON(runID string, w io.Writer) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	states, err := s.LoadStates(runID)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ExportData{RunMetadata: *meta, States: states})
}

// ExportMetadata writes the metadata.json of a run as stored.
func (s *Store) ExportMetadata(runID string, w io.Writer) error {
	return s.copyFile(runID, metadataFile, w)
}

// ExportCSV writes the states.csv of a run as stored.
func (s *Store) ExportCSV(runID string, w io.Writer) error {
	return s.copyFile(runID, statesFile, w)
}

func (s *Store) copyFile(runID, name string, w io.Writer) error {
	if _, err := s.Load(runID); err != nil {
		return err
	}
	f, err := os.Open(filepath.Join(s.baseDir, runID, name))
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(w, f)
	return err
}
