package letchain

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type chainFile struct {
	Unit  string      `yaml:"unit"`
	Tasks []taskEntry `yaml:"tasks"`
}

type taskEntry struct {
	Name     string   `yaml:"name"`
	Period   float64  `yaml:"period"`
	Wcet     float64  `yaml:"wcet"`
	Deadline *float64 `yaml:"deadline"`
	Offset   float64  `yaml:"offset"`
	Priority int      `yaml:"priority"`
}

func unitConverter(unit string) (func(float64) Ttick, error) {
	switch unit {
	case "", "us":
		return Useconds, nil
	case "ms":
		return Mseconds, nil
	case "s":
		return Seconds, nil
	}
	return nil, fmt.Errorf("unknown time unit %q", unit)
}

// LoadChain reads a chain from a YAML file.
func LoadChain(path string) (Chain, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	chain, err := ParseChain(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return chain, nil
}

// ParseChain decodes a chain description. Times are given in the file's unit (us by default);
// a missing deadline means an implicit one.
func ParseChain(data []byte) (Chain, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f chainFile
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode chain: %w", err)
	}
	conv, err := unitConverter(f.Unit)
	if err != nil {
		return nil, err
	}

	chain := make(Chain, 0, len(f.Tasks))
	for i, e := range f.Tasks {
		name := e.Name
		if name == "" {
			name = fmt.Sprintf("Task_%d", i)
		}
		period, err := convert(conv, e.Period)
		if err != nil {
			return nil, fmt.Errorf("task %s period: %w", name, err)
		}
		deadline := period
		if e.Deadline != nil {
			if deadline, err = convert(conv, *e.Deadline); err != nil {
				return nil, fmt.Errorf("task %s deadline: %w", name, err)
			}
		}
		wcet, err := convert(conv, e.Wcet)
		if err != nil {
			return nil, fmt.Errorf("task %s wcet: %w", name, err)
		}
		offset, err := convert(conv, e.Offset)
		if err != nil {
			return nil, fmt.Errorf("task %s offset: %w", name, err)
		}
		task := NewTask(name, wcet, period, deadline, offset)
		task.Priority = e.Priority
		chain = append(chain, task)
	}

	if err := chain.Validate(); err != nil {
		return nil, err
	}
	return chain, nil
}

// convert turns the conversion helpers' panic on fractional ticks into an error.
func convert(conv func(float64) Ttick, v float64) (t Ttick, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	return conv(v), nil
}
