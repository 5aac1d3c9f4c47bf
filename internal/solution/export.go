package solution

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"strconv"

	"github.com/voltlab/battsim/internal/cell"
	"github.com/voltlab/battsim/internal/params"
)

// ExportData is the JSON shape of an exported solution.
type ExportData struct {
	Model       string      `json:"model"`
	Chemistry   string      `json:"chemistry"`
	Termination string      `json:"termination"`
	Steps       int         `json:"steps"`
	Times       []float64   `json:"times"`
	States      [][]float64 `json:"states"`
	Currents    []float64   `json:"currents"`
}

func (s *Solution) exportData() ExportData {
	data := ExportData{
		Model:       s.Model,
		Chemistry:   s.Chemistry,
		Termination: s.Termination,
		Steps:       s.Len(),
		Times:       s.Times,
		Currents:    s.Currents,
		States:      make([][]float64, len(s.States)),
	}
	for i, y := range s.States {
		data.States[i] = y
	}
	return data
}

// WriteJSON encodes the solution to w.
func (s *Solution) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s.exportData())
}

// ExportJSON writes the solution to a file.
func (s *Solution) ExportJSON(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := s.WriteJSON(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// FromExport rebuilds a Solution from exported data and a registry matching
// the model it was solved with. Variable access works as long as the state
// layout has not changed since the export.
func FromExport(data *ExportData, reg *cell.Registry, p *params.Values) *Solution {
	s := New(reg, p)
	s.Model = data.Model
	s.Chemistry = data.Chemistry
	s.Termination = data.Termination
	s.Times = data.Times
	s.Currents = data.Currents
	s.States = make([]cell.State, len(data.States))
	for i, y := range data.States {
		s.States[i] = cell.State(y)
	}
	return s
}

// ReadExport decodes a previously exported solution file.
func ReadExport(path string) (*ExportData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var data ExportData
	if err := json.NewDecoder(f).Decode(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// WriteCSV writes time, current, and the named scalar variables to w.
func (s *Solution) WriteCSV(w io.Writer, vars ...string) error {
	series := make([][]float64, len(vars))
	for i, name := range vars {
		v, err := s.Variable(name)
		if err != nil {
			return err
		}
		series[i] = v
	}

	cw := csv.NewWriter(w)

	header := append([]string{"time", "current"}, vars...)
	if err := cw.Write(header); err != nil {
		return err
	}
	for i := range s.Times {
		row := make([]string, 0, len(header))
		row = append(row, strconv.FormatFloat(s.Times[i], 'f', 6, 64))
		row = append(row, strconv.FormatFloat(s.Currents[i], 'f', 6, 64))
		for _, v := range series {
			row = append(row, strconv.FormatFloat(v[i], 'g', -1, 64))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportCSV writes the named variables to a CSV file.
func (s *Solution) ExportCSV(path string, vars ...string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := s.WriteCSV(f, vars...); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
