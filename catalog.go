package chores

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Child identifies whose completions are being tracked
type Child string

const (
	Aaliya Child = "aaliya"
	Haidar Child = "haidar"
)

// Children returns every known child in display order
func Children() []Child {
	return []Child{Aaliya, Haidar}
}

// Valid reports whether c is one of the known children
func (c Child) Valid() bool {
	switch c {
	case Aaliya, Haidar:
		return true
	}
	return false
}

// ParseChild accepts a child name in any case
func ParseChild(name string) (Child, error) {
	c := Child(strings.ToLower(strings.TrimSpace(name)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownChild, name)
	}
	return c, nil
}

// Task is one chore definition. Tasks are never mutated after the
// catalog is built.
type Task struct {
	ID            int                `yaml:"id" json:"id"`
	Title         string             `yaml:"title" json:"title"`
	Examples      []string           `yaml:"examples,omitempty" json:"examples,omitempty"`
	SpecificTasks map[Child][]string `yaml:"specific_tasks,omitempty" json:"specificTasks,omitempty"`
}

// Options returns the options listed for the given child, or nil
func (t Task) Options(c Child) []string {
	opts := t.SpecificTasks[c]
	if len(opts) == 0 {
		return nil
	}
	return append([]string(nil), opts...)
}

func (t Task) clone() Task {
	out := Task{ID: t.ID, Title: t.Title}
	if t.Examples != nil {
		out.Examples = append([]string(nil), t.Examples...)
	}
	if t.SpecificTasks != nil {
		out.SpecificTasks = make(map[Child][]string, len(t.SpecificTasks))
		for c, opts := range t.SpecificTasks {
			out.SpecificTasks[c] = append([]string(nil), opts...)
		}
	}
	return out
}

// Catalog is the ordered, read-only list of tasks
type Catalog struct {
	tasks []Task
	index map[int]int
}

type catalogFile struct {
	Tasks []Task `yaml:"tasks"`
}

//go:embed catalog.yaml
var defaultCatalogYAML []byte

var defaultCatalog = sync.OnceValue(func() *Catalog {
	c, err := ParseCatalog(defaultCatalogYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog: %v", err))
	}
	return c
})

// DefaultCatalog returns the built-in vacation chores
func DefaultCatalog() *Catalog {
	return defaultCatalog()
}

// LoadCatalog reads a catalog from a YAML file
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog builds a catalog from YAML and validates it
func ParseCatalog(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	return NewCatalog(file.Tasks)
}

// NewCatalog validates tasks and freezes them in the given order
func NewCatalog(tasks []Task) (*Catalog, error) {
	if len(tasks) == 0 {
		return nil, fmt.Errorf("%w: no tasks", ErrInvalidCatalog)
	}

	c := &Catalog{
		tasks: make([]Task, 0, len(tasks)),
		index: make(map[int]int, len(tasks)),
	}
	for _, t := range tasks {
		if t.ID <= 0 {
			return nil, fmt.Errorf("%w: task id must be positive, got %d", ErrInvalidCatalog, t.ID)
		}
		if strings.TrimSpace(t.Title) == "" {
			return nil, fmt.Errorf("%w: task %d has no title", ErrInvalidCatalog, t.ID)
		}
		if _, dup := c.index[t.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate task id %d", ErrInvalidCatalog, t.ID)
		}
		for child := range t.SpecificTasks {
			if !child.Valid() {
				return nil, fmt.Errorf("%w: task %d lists options for %q", ErrInvalidCatalog, t.ID, child)
			}
		}
		c.index[t.ID] = len(c.tasks)
		c.tasks = append(c.tasks, t.clone())
	}
	return c, nil
}

// ListTasks returns a copy of every task in catalog order
func (c *Catalog) ListTasks() []Task {
	out := make([]Task, len(c.tasks))
	for i, t := range c.tasks {
		out[i] = t.clone()
	}
	return out
}

// Task looks up a task by id
func (c *Catalog) Task(id int) (Task, bool) {
	i, ok := c.index[id]
	if !ok {
		return Task{}, false
	}
	return c.tasks[i].clone(), true
}

// Len returns the number of tasks
func (c *Catalog) Len() int {
	return len(c.tasks)
}
