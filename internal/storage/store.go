package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/deformsim/internal/config"
	"github.com/san-kum/deformsim/internal/scene"
)

const (
	metadataFile = "metadata.json"
	sceneFile    = "scene.yaml"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type BodyMetadata struct {
	Name          string `json:"name"`
	Type          string `json:"type"`
	Integrator    string `json:"integrator"`
	NumNodes      int    `json:"num_nodes"`
	NumDofPerNode int    `json:"num_dof_per_node"`
}

type RunMetadata struct {
	ID          string             `json:"id"`
	Scene       string             `json:"scene"`
	Timestamp   time.Time          `json:"timestamp"`
	Dt          float64            `json:"dt"`
	Duration    float64            `json:"duration"`
	Workers     int                `json:"workers"`
	RecordEvery int                `json:"record_every"`
	Bodies      []BodyMetadata     `json:"bodies"`
	StepsTaken  int                `json:"steps_taken"`
	Deactivated []string           `json:"deactivated,omitempty"`
	Metrics     map[string]float64 `json:"metrics"`
}

// Body returns the metadata of the named body.
func (m *RunMetadata) Body(name string) (BodyMetadata, bool) {
	for _, b := range m.Bodies {
		if b.Name == name {
			return b, true
		}
	}
	return BodyMetadata{}, false
}

// Save writes the run metadata and one CSV trajectory per body, returning
// the run id.
func (s *Store) Save(meta RunMetadata, result *scene.Result) (string, error) {
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	if meta.ID == "" {
		meta.ID = fmt.Sprintf("%s_%d", meta.Scene, meta.Timestamp.UnixNano())
	}
	meta.StepsTaken = result.StepsTaken
	meta.Deactivated = result.Deactivated
	meta.Metrics = result.Metrics

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	for _, b := range meta.Bodies {
		if err := writeTrajectory(filepath.Join(runDir, b.Name+".csv"), result.Times, result.Trajectories[b.Name]); err != nil {
			return "", fmt.Errorf("body %q: %w", b.Name, err)
		}
	}
	return meta.ID, nil
}

func writeTrajectory(path string, times []float64, states [][]float64) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := WriteCSV(w, times, states); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

// WriteCSV writes a time column followed by one column per dof.
func WriteCSV(w *csv.Writer, times []float64, states [][]float64) error {
	if len(states) == 0 {
		return nil
	}
	header := []string{"time"}
	for i := range states[0] {
		header = append(header, fmt.Sprintf("q%d", i))
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for i, state := range states {
		row := make([]string, 0, len(state)+1)
		row = append(row, strconv.FormatFloat(times[i], 'g', -1, 64))
		for _, val := range state {
			row = append(row, strconv.FormatFloat(val, 'g', -1, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// SaveScene keeps the scene a run was made from next to its results.
func (s *Store) SaveScene(runID string, cfg *config.Config) error {
	return config.Save(filepath.Join(s.baseDir, runID, sceneFile), cfg)
}

func (s *Store) LoadScene(runID string) (*config.Config, error) {
	return config.Load(filepath.Join(s.baseDir, runID, sceneFile))
}

// List returns the stored runs, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
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
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadStates reads the recorded positions of one body of a run.
func (s *Store) LoadStates(runID, body string) ([][]float64, []float64, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, body+".csv"))
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) < 2 {
		return [][]float64{}, []float64{}, nil
	}

	times := make([]float64, 0, len(records)-1)
	states := make([][]float64, 0, len(records)-1)
	for i, record := range records[1:] {
		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			return nil, nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		state := make([]float64, len(record)-1)
		for j := range state {
			if state[j], err = strconv.ParseFloat(record[j+1], 64); err != nil {
				return nil, nil, fmt.Errorf("row %d column %d: %w", i+1, j+1, err)
			}
		}
		times = append(times, t)
		states = append(states, state)
	}
	return states, times, nil
}
