package experiment

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Step kinds.
const (
	Discharge = "discharge"
	Charge    = "charge"
	Rest      = "rest"
)

// Step is one segment of a cycling protocol. Exactly one of CRate and
// Current applies; rest steps carry neither. A step ends at Duration or at
// its cutoff voltage, whichever comes first.
type Step struct {
	Kind          string  `toml:"kind"`
	CRate         float64 `toml:"c_rate"`
	Current       float64 `toml:"current"`        // A, used when c_rate is zero
	Duration      float64 `toml:"duration"`       // s; 0 means until cutoff
	CutoffVoltage float64 `toml:"cutoff_voltage"` // V, optional
}

func (s Step) validate(i int) error {
	switch s.Kind {
	case Discharge, Charge:
		if s.CRate == 0 && s.Current == 0 {
			return fmt.Errorf("battsim: step %d: %s step needs a c_rate or current", i, s.Kind)
		}
		if s.Duration == 0 && s.CutoffVoltage == 0 {
			return fmt.Errorf("battsim: step %d: %s step needs a duration or cutoff voltage", i, s.Kind)
		}
	case Rest:
		if s.Duration <= 0 {
			return fmt.Errorf("battsim: step %d: rest step needs a duration", i)
		}
	default:
		return fmt.Errorf("battsim: step %d: unknown kind %q", i, s.Kind)
	}
	if s.CRate < 0 || s.Current < 0 || s.Duration < 0 || s.CutoffVoltage < 0 {
		return fmt.Errorf("battsim: step %d: negative step values", i)
	}
	return nil
}

// Protocol is an ordered list of steps.
type Protocol struct {
	Name  string `toml:"name"`
	Steps []Step `toml:"step"`
}

func (p *Protocol) Validate() error {
	if len(p.Steps) == 0 {
		return fmt.Errorf("battsim: protocol %q has no steps", p.Name)
	}
	for i, s := range p.Steps {
		if err := s.validate(i); err != nil {
			return err
		}
	}
	return nil
}

// LoadTOML reads a protocol file.
func LoadTOML(path string) (*Protocol, error) {
	var p Protocol
	if _, err := toml.DecodeFile(path, &p); err != nil {
		return nil, fmt.Errorf("battsim: protocol %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Parse builds a protocol from instruction strings such as
//
//	Discharge at 1C for 1 hour
//	Rest for 10 minutes
//	Charge at C/2 until 4.2V
//	Discharge at 2.5A for 30 minutes or until 3.0V
func Parse(instructions ...string) (*Protocol, error) {
	p := &Protocol{Name: "parsed protocol"}
	for _, line := range instructions {
		step, err := parseStep(line)
		if err != nil {
			return nil, err
		}
		p.Steps = append(p.Steps, step)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func parseStep(line string) (Step, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return Step{}, fmt.Errorf("battsim: empty instruction")
	}

	var step Step
	switch fields[0] {
	case "discharge", "charge", "rest":
		step.Kind = fields[0]
	default:
		return Step{}, fmt.Errorf("battsim: instruction %q: unknown verb %q", line, fields[0])
	}

	i := 1
	for i < len(fields) {
		switch fields[i] {
		case "at":
			if i+1 >= len(fields) {
				return Step{}, fmt.Errorf("battsim: instruction %q: dangling %q", line, "at")
			}
			if err := parseRate(fields[i+1], &step); err != nil {
				return Step{}, fmt.Errorf("battsim: instruction %q: %w", line, err)
			}
			i += 2
		case "for":
			if i+1 >= len(fields) {
				return Step{}, fmt.Errorf("battsim: instruction %q: dangling %q", line, "for")
			}
			dur, n, err := parseDuration(fields[i+1:])
			if err != nil {
				return Step{}, fmt.Errorf("battsim: instruction %q: %w", line, err)
			}
			step.Duration = dur
			i += 1 + n
		case "until":
			if i+1 >= len(fields) {
				return Step{}, fmt.Errorf("battsim: instruction %q: dangling %q", line, "until")
			}
			v, n, err := parseVoltage(fields[i+1:])
			if err != nil {
				return Step{}, fmt.Errorf("battsim: instruction %q: %w", line, err)
			}
			step.CutoffVoltage = v
			i += 1 + n
		case "or":
			i++
		default:
			return Step{}, fmt.Errorf("battsim: instruction %q: unexpected token %q", line, fields[i])
		}
	}
	return step, nil
}

func parseRate(tok string, step *Step) error {
	switch {
	case strings.HasPrefix(tok, "c/"):
		d, err := strconv.ParseFloat(strings.TrimPrefix(tok, "c/"), 64)
		if err != nil || d <= 0 {
			return fmt.Errorf("bad C-rate %q", tok)
		}
		step.CRate = 1 / d
	case strings.HasSuffix(tok, "c"):
		v, err := strconv.ParseFloat(strings.TrimSuffix(tok, "c"), 64)
		if err != nil {
			return fmt.Errorf("bad C-rate %q", tok)
		}
		step.CRate = v
	case strings.HasSuffix(tok, "a"):
		v, err := strconv.ParseFloat(strings.TrimSuffix(tok, "a"), 64)
		if err != nil {
			return fmt.Errorf("bad current %q", tok)
		}
		step.Current = v
	default:
		return fmt.Errorf("bad rate %q (want e.g. 1C or 2.5A)", tok)
	}
	return nil
}

// parseDuration reads "<value> <unit>" or "<value><unit>", returning the
// duration in seconds and how many tokens were consumed.
func parseDuration(fields []string) (float64, int, error) {
	if len(fields) == 0 {
		return 0, 0, fmt.Errorf("missing duration")
	}
	unitSeconds := map[string]float64{
		"second": 1, "seconds": 1, "s": 1,
		"minute": 60, "minutes": 60, "min": 60,
		"hour": 3600, "hours": 3600, "h": 3600,
	}

	if v, err := strconv.ParseFloat(fields[0], 64); err == nil {
		if len(fields) < 2 {
			return 0, 0, fmt.Errorf("duration %q has no unit", fields[0])
		}
		mult, ok := unitSeconds[fields[1]]
		if !ok {
			return 0, 0, fmt.Errorf("unknown duration unit %q", fields[1])
		}
		return v * mult, 2, nil
	}

	for suffix, mult := range unitSeconds {
		if strings.HasSuffix(fields[0], suffix) {
			v, err := strconv.ParseFloat(strings.TrimSuffix(fields[0], suffix), 64)
			if err == nil {
				return v * mult, 1, nil
			}
		}
	}
	return 0, 0, fmt.Errorf("bad duration %q", fields[0])
}

// parseVoltage reads "<value>v" or "<value> v".
func parseVoltage(fields []string) (float64, int, error) {
	if len(fields) == 0 {
		return 0, 0, fmt.Errorf("missing voltage")
	}
	if strings.HasSuffix(fields[0], "v") {
		v, err := strconv.ParseFloat(strings.TrimSuffix(fields[0], "v"), 64)
		if err != nil {
			return 0, 0, fmt.Errorf("bad voltage %q", fields[0])
		}
		return v, 1, nil
	}
	if v, err := strconv.ParseFloat(fields[0], 64); err == nil && len(fields) > 1 && fields[1] == "v" {
		return v, 2, nil
	}
	return 0, 0, fmt.Errorf("bad voltage %q", fields[0])
}
