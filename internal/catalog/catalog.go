// Package catalog holds the read-only game datasets: tasks, decorative
// media and the nickname denylist. A Catalog is loaded once and never
// mutated; accessors hand out copies.
package catalog

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/playperu/fingergame/internal/fingergame"
)

//go:embed data/*.json
var embedded embed.FS

const (
	tasksFile    = "tasks"
	memesFile    = "memes"
	badWordsFile = "badwords"
)

var extensions = []string{".json", ".yaml", ".yml"}

type Catalog struct {
	tasks    []fingergame.Task
	media    []string
	denylist Denylist
	warnings []string
}

// New builds a catalog from in-memory collections. Used by tests and by
// clients that fetched the datasets over HTTP.
func New(tasks []fingergame.Task, media, badWords []string) *Catalog {
	return &Catalog{
		tasks:    append([]fingergame.Task(nil), tasks...),
		media:    append([]string(nil), media...),
		denylist: NewDenylist(badWords),
	}
}

// Default returns the starter dataset compiled into the binary.
func Default(logger *slog.Logger) *Catalog {
	sub, err := fs.Sub(embedded, "data")
	if err != nil {
		panic(err)
	}
	return Load(sub, logger)
}

// LoadDir loads the datasets from dir, or the embedded defaults when dir
// is empty.
func LoadDir(dir string, logger *slog.Logger) *Catalog {
	if dir == "" {
		return Default(logger)
	}
	return Load(os.DirFS(dir), logger)
}

// Load reads tasks, memes and badwords from fsys. Each dataset may be JSON
// or YAML. Loading is fail-soft: a missing or unreadable dataset becomes
// an empty collection and is reported through Warnings and a WARN log line.
func Load(fsys fs.FS, logger *slog.Logger) *Catalog {
	c := &Catalog{}

	var tasks []fingergame.Task
	if err := readDataset(fsys, tasksFile, &tasks); err != nil {
		c.warn(logger, tasksFile, err)
	}
	c.tasks = validTasks(tasks, logger)

	if err := readDataset(fsys, memesFile, &c.media); err != nil {
		c.warn(logger, memesFile, err)
	}

	var words []string
	if err := readDataset(fsys, badWordsFile, &words); err != nil {
		c.warn(logger, badWordsFile, err)
	}
	c.denylist = NewDenylist(words)

	if len(c.tasks) == 0 {
		c.warnings = append(c.warnings, "no tasks loaded: task rounds cannot be played")
		logger.Warn("catalog has no tasks, task rounds cannot be played")
	}

	logger.Info("catalog loaded",
		"tasks", len(c.tasks),
		"memes", len(c.media),
		"bad_words", c.denylist.Len(),
	)
	return c
}

func (c *Catalog) warn(logger *slog.Logger, name string, err error) {
	c.warnings = append(c.warnings, fmt.Sprintf("%s: %v", name, err))
	logger.Warn("catalog dataset unavailable, using empty collection", "dataset", name, "error", err)
}

func readDataset(fsys fs.FS, name string, dest any) error {
	for _, ext := range extensions {
		data, err := fs.ReadFile(fsys, name+ext)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("reading %s%s: %w", name, ext, err)
		}
		if err := decode(name+ext, data, dest); err != nil {
			return fmt.Errorf("parsing %s%s: %w", name, ext, err)
		}
		return nil
	}
	return fmt.Errorf("%s: %w", name, fs.ErrNotExist)
}

func decode(file string, data []byte, dest any) error {
	if path.Ext(file) == ".json" {
		return json.Unmarshal(data, dest)
	}
	return yaml.Unmarshal(data, dest)
}

func validTasks(in []fingergame.Task, logger *slog.Logger) []fingergame.Task {
	out := make([]fingergame.Task, 0, len(in))
	for i, t := range in {
		t.Text = strings.TrimSpace(t.Text)
		t.Type = fingergame.TaskType(strings.ToLower(string(t.Type)))
		t.Difficulty = fingergame.Difficulty(strings.ToLower(string(t.Difficulty)))

		switch {
		case t.Text == "":
			logger.Warn("skipping task without text", "index", i)
			continue
		case t.Type != fingergame.TaskTruth && t.Type != fingergame.TaskAction:
			logger.Warn("skipping task with unknown type", "index", i, "type", t.Type)
			continue
		case t.Difficulty != fingergame.DifficultyEasy &&
			t.Difficulty != fingergame.DifficultyMedium &&
			t.Difficulty != fingergame.DifficultyHard:
			logger.Warn("skipping task with unknown difficulty", "index", i, "difficulty", t.Difficulty)
			continue
		}
		out = append(out, t)
	}
	return out
}

func (c *Catalog) Tasks() []fingergame.Task {
	return append([]fingergame.Task{}, c.tasks...)
}

// TasksFor returns the tasks matching d; DifficultyAny matches all.
func (c *Catalog) TasksFor(d fingergame.Difficulty) []fingergame.Task {
	if d == fingergame.DifficultyAny || d == "" {
		return c.Tasks()
	}
	var out []fingergame.Task
	for _, t := range c.tasks {
		if t.Difficulty == d {
			out = append(out, t)
		}
	}
	return out
}

func (c *Catalog) Media() []string {
	return append([]string{}, c.media...)
}

func (c *Catalog) Denylist() Denylist { return c.denylist }

// BadWords returns the normalized denylist entries.
func (c *Catalog) BadWords() []string { return c.denylist.Words() }

// Warnings lists the datasets that failed to load.
func (c *Catalog) Warnings() []string {
	return append([]string(nil), c.warnings...)
}
