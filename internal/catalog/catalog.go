// Package catalog keeps the inspected layouts of every template in the
// template directory and refreshes them when files change on disk.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/gnemet/LessonForge/internal/logger"
	"github.com/gnemet/LessonForge/internal/pptx"
)

// ErrInvalidName is returned for template names that are not a plain file name.
var ErrInvalidName = errors.New("invalid template name")

// Template is one usable .pptx file and its layouts.
type Template struct {
	Filename string        `json:"filename"`
	Layouts  []pptx.Layout `json:"layouts"`
	ModTime  time.Time     `json:"-"`
}

type Catalog struct {
	dir  string
	opts []pptx.Option
	log  *logger.Logger

	// Debounce delays reloads until a file stopped changing.
	Debounce time.Duration

	mu        sync.RWMutex
	templates map[string]Template
}

func New(dir string, log *logger.Logger, opts ...pptx.Option) *Catalog {
	if log == nil {
		log = logger.NewNop()
	}
	return &Catalog{
		dir:       dir,
		opts:      opts,
		log:       log,
		Debounce:  500 * time.Millisecond,
		templates: make(map[string]Template),
	}
}

func (c *Catalog) Dir() string {
	return c.dir
}

// usable reports whether name looks like a template. Office lock files (~$x.pptx)
// are skipped.
func usable(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".pptx") && !strings.HasPrefix(name, "~$")
}

// Refresh rescans the directory. Files that fail to parse are logged and left out.
func (c *Catalog) Refresh() error {
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("failed to create template directory: %w", err)
	}
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return fmt.Errorf("failed to scan template directory: %w", err)
	}

	fresh := make(map[string]Template)
	for _, e := range entries {
		if e.IsDir() || !usable(e.Name()) {
			continue
		}
		if t, err := c.inspect(e.Name()); err == nil {
			fresh[e.Name()] = t
		} else {
			c.log.Warn("Error loading template", "file", e.Name(), "error", err)
		}
	}

	c.mu.Lock()
	c.templates = fresh
	c.mu.Unlock()
	c.log.Info("Template catalog loaded", "dir", c.dir, "templates", len(fresh))
	return nil
}

func (c *Catalog) inspect(name string) (Template, error) {
	path := filepath.Join(c.dir, name)
	info, err := os.Stat(path)
	if err != nil {
		return Template{}, err
	}
	layouts, err := pptx.Inspect(path, c.opts...)
	if err != nil {
		return Template{}, err
	}
	return Template{Filename: name, Layouts: layouts, ModTime: info.ModTime()}, nil
}

// List returns the known templates sorted by file name.
func (c *Catalog) List() []Template {
	c.mu.RLock()
	out := make([]Template, 0, len(c.templates))
	for _, t := range c.templates {
		out = append(out, t)
	}
	c.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Filename < out[j].Filename })
	return out
}

// Path validates name and returns its location in the template directory.
func (c *Catalog) Path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	path := filepath.Join(c.dir, name)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", pptx.ErrTemplateNotFound, name)
		}
		return "", err
	}
	return path, nil
}

// Layouts returns the layouts of name, inspecting the file when the cache
// does not know it yet or it changed since.
func (c *Catalog) Layouts(name string) ([]pptx.Layout, error) {
	path, err := c.Path(name)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	c.mu.RLock()
	t, ok := c.templates[name]
	c.mu.RUnlock()
	if ok && t.ModTime.Equal(info.ModTime()) {
		return t.Layouts, nil
	}

	t, err = c.inspect(name)
	if err != nil {
		return nil, err
	}
	if usable(name) {
		c.mu.Lock()
		c.templates[name] = t
		c.mu.Unlock()
	}
	return t.Layouts, nil
}

func (c *Catalog) reload(path string) {
	name := filepath.Base(path)
	if !usable(name) {
		return
	}
	t, err := c.inspect(name)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		if _, known := c.templates[name]; known {
			c.log.Info("Template removed", "file", name, "reason", err)
		}
		delete(c.templates, name)
		return
	}
	c.templates[name] = t
	c.log.Info("Template reloaded", "file", name, "layouts", len(t.Layouts))
}

// Start watches the template directory until ctx is done. The watch is in
// place when Start returns.
func (c *Catalog) Start(ctx context.Context) error {
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("failed to create template directory: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(c.dir); err != nil {
		watcher.Close()
		return err
	}
	c.log.Info("Template watcher started", "dir", c.dir)

	go c.loop(ctx, watcher)
	return nil
}

func (c *Catalog) loop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer watcher.Close()

	pending := make(map[string]struct{})
	timer := time.NewTimer(time.Hour)
	timer.Stop()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !usable(filepath.Base(event.Name)) {
				continue
			}
			if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
				continue
			}
			pending[event.Name] = struct{}{}
			timer.Reset(c.Debounce)

		case <-timer.C:
			for name := range pending {
				c.reload(name)
			}
			pending = make(map[string]struct{})

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			c.log.Error("Watcher error", "error", err)

		case <-ctx.Done():
			timer.Stop()
			return
		}
	}
}
