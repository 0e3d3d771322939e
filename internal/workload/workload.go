package workload

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that decodes from YAML duration strings
// like "150ms".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", s, err)
	}
	*d = Duration(dur)
	return nil
}

// Spec describes one demo task: the lines it prints, the pacing between
// them, and how it exits.
type Spec struct {
	Name  string   `yaml:"name"`
	Group int      `yaml:"group"`
	Lines []string `yaml:"lines"`
	Delay Duration `yaml:"delay"`
	Exit  int      `yaml:"exit"`
}

// File is a parsed workload definition.
type File struct {
	Tasks []Spec `yaml:"tasks"`
}

// Load reads and validates a workload file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading workload file %s: %w", path, err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing workload file %s: %w", path, err)
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("workload file %s: %w", path, err)
	}
	return &f, nil
}

// Validate checks every spec.
func (f *File) Validate() error {
	for i, s := range f.Tasks {
		if s.Name == "" {
			return fmt.Errorf("%w: task %d has no name", ErrInvalidSpec, i)
		}
		if s.Exit < 0 || s.Exit > 255 {
			return fmt.Errorf("%w: task %q exit status %d outside 0..255", ErrInvalidSpec, s.Name, s.Exit)
		}
		if s.Group < 0 {
			return fmt.Errorf("%w: task %q has a negative group", ErrInvalidSpec, s.Name)
		}
		if s.Delay < 0 {
			return fmt.Errorf("%w: task %q has a negative delay", ErrInvalidSpec, s.Name)
		}
	}
	return nil
}
