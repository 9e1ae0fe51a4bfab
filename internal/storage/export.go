package storage

import (
	"encoding/csv"
	"encoding/json"
	"io"
)

type ExportData struct {
	Run          RunMetadata            `json:"run"`
	Times        []float64              `json:"times"`
	Trajectories map[string][][]float64 `json:"trajectories"`
}

// Export gathers a stored run with the trajectories of all its bodies.
func (s *Store) Export(runID string) (*ExportData, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	data := &ExportData{Run: *meta, Trajectories: make(map[string][][]float64, len(meta.Bodies))}
	for _, b := range meta.Bodies {
		states, times, err := s.LoadStates(runID, b.Name)
		if err != nil {
			return nil, err
		}
		data.Times = times
		data.Trajectories[b.Name] = states
	}
	return data, nil
}

func ExportJSON(w io.Writer, data *ExportData) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// ExportCSV writes the trajectory of one body.
func ExportCSV(w io.Writer, data *ExportData, body string) error {
	cw := csv.NewWriter(w)
	if err := WriteCSV(cw, data.Times, data.Trajectories[body]); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}
