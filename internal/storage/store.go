package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/fuzzytank/internal/control"
	"github.com/san-kum/fuzzytank/internal/sim"
)

const (
	metadataFile = "metadata.json"
	statesFile   = "states.csv"
)

var ErrRunNotFound = errors.New("storage: run not found")

var csvHeader = []string{"tick", "rain", "pump_power", "pump_active", "natural", "retention", "overflow"}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// RunInfo describes how a run was configured.
type RunInfo struct {
	Preset    string `json:"preset"`
	Strategy  string `json:"strategy"`
	Policy    string `json:"policy"`
	Direction string `json:"direction"`
	Rain      []int  `json:"rain,omitempty"`
	// Thresholds of the hysteresis gate; zero under the always policy.
	ActivateAbove float64 `json:"activate_above,omitempty"`
	DeactivateAt  float64 `json:"deactivate_at,omitempty"`
}

type RunMetadata struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	RunInfo
	Steps   int                `json:"steps"`
	Initial control.Snapshot   `json:"initial"`
	Final   control.Snapshot   `json:"final"`
	Metrics map[string]float64 `json:"metrics"`
}

func (s *Store) Save(info RunInfo, result *sim.Result) (string, error) {
	name := info.Preset
	if name == "" {
		name = "custom"
	}
	runID := fmt.Sprintf("%s_%s", name, uuid.NewString()[:8])
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Timestamp: time.Now().UTC(),
		RunInfo:   info,
		Steps:     result.StepsTaken,
		Final:     result.Final(),
		Metrics:   result.Metrics,
	}
	if len(result.States) > 0 {
		meta.Initial = result.States[0]
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}

	f, err := os.Create(filepath.Join(runDir, statesFile))
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := WriteCSV(f, result.States); err != nil {
		return "", err
	}
	return runID, f.Close()
}

// List returns every readable run, oldest first. Directories without valid
// metadata are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

// Latest returns the ID of the most recent run.
func (s *Store) Latest() (string, error) {
	runs, err := s.List()
	if err != nil {
		return "", err
	}
	if len(runs) == 0 {
		return "", ErrRunNotFound
	}
	return runs[len(runs)-1].ID, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return &meta, nil
}

func (s *Store) LoadStates(runID string) ([]control.Snapshot, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, statesFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}
	defer f.Close()
	return ReadCSV(f)
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	return f.Close()
}

// WriteCSV writes one row per snapshot under a header line.
func WriteCSV(w io.Writer, states []control.Snapshot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, s := range states {
		row := []string{
			strconv.FormatUint(s.Tick, 10),
			strconv.Itoa(s.Rain),
			formatFloat(s.PumpPower),
			strconv.FormatBool(s.PumpActive),
			formatFloat(s.NaturalLevel),
			formatFloat(s.RetentionLevel),
			formatFloat(s.OverflowLevel),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses the output of WriteCSV.
func ReadCSV(r io.Reader) ([]control.Snapshot, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(csvHeader)

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []control.Snapshot{}, nil
	}

	states := make([]control.Snapshot, 0, len(records)-1)
	for i, rec := range records[1:] {
		s, err := parseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("states.csv line %d: %w", i+2, err)
		}
		states = append(states, s)
	}
	return states, nil
}

func parseRow(rec []string) (control.Snapshot, error) {
	var (
		s    control.Snapshot
		err  error
		errs []error
	)
	parse := func(dst *float64, v string) {
		*dst, err = strconv.ParseFloat(v, 64)
		errs = append(errs, err)
	}

	s.Tick, err = strconv.ParseUint(rec[0], 10, 64)
	errs = append(errs, err)
	s.Rain, err = strconv.Atoi(rec[1])
	errs = append(errs, err)
	parse(&s.PumpPower, rec[2])
	s.PumpActive, err = strconv.ParseBool(rec[3])
	errs = append(errs, err)
	parse(&s.NaturalLevel, rec[4])
	parse(&s.RetentionLevel, rec[5])
	parse(&s.OverflowLevel, rec[6])

	return s, errors.Join(errs...)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
