// Package ontology loads ontology definitions from a YAML file and optionally
// reloads them when the file changes.
package ontology

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"workspacediff/domain/ontology"
	"workspacediff/pkg/utils"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Document is the on-disk ontology format
type Document struct {
	Properties    []ontology.PropertyDefinition     `yaml:"properties" validate:"dive"`
	Concepts      []ontology.ConceptDefinition      `yaml:"concepts" validate:"dive"`
	Relationships []ontology.RelationshipDefinition `yaml:"relationships" validate:"dive"`
}

// Parse decodes and validates an ontology document
func Parse(data []byte) (*ontology.Ontology, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse ontology: %w", err)
	}
	if err := utils.ValidateStruct(doc); err != nil {
		return nil, fmt.Errorf("invalid ontology: %w", err)
	}
	return ontology.New(doc.Properties, doc.Concepts, doc.Relationships), nil
}

// FileProvider serves the ontology parsed from a file
type FileProvider struct {
	path   string
	logger *zap.Logger

	mu      sync.RWMutex
	current *ontology.Ontology

	watcher *fsnotify.Watcher
	stopCh  chan struct{}
	stopped sync.Once
}

// NewFileProvider loads path once. An empty path serves an empty ontology.
func NewFileProvider(path string, logger *zap.Logger) (*FileProvider, error) {
	p := &FileProvider{
		path:    path,
		logger:  logger,
		current: ontology.Empty(),
		stopCh:  make(chan struct{}),
	}
	if path == "" {
		logger.Info("No ontology file configured, property names are shown raw")
		return p, nil
	}
	if err := p.reload(); err != nil {
		return nil, err
	}
	return p, nil
}

// Ontology returns the latest successfully loaded ontology
func (p *FileProvider) Ontology(context.Context) (ontology.Lookup, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current, nil
}

func (p *FileProvider) reload() error {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return fmt.Errorf("failed to read ontology file %s: %w", p.path, err)
	}
	next, err := Parse(data)
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.current = next
	p.mu.Unlock()

	props, concepts, rels := next.Size()
	p.logger.Info("Loaded ontology",
		zap.String("file", p.path),
		zap.Int("properties", props),
		zap.Int("concepts", concepts),
		zap.Int("relationships", rels),
	)
	return nil
}

// Watch reloads the ontology whenever its file is written. A file that fails
// to parse keeps the previous ontology.
func (p *FileProvider) Watch() error {
	if p.path == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	// editors replace files, so watch the directory
	if err := watcher.Add(filepath.Dir(p.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", p.path, err)
	}
	p.watcher = watcher

	go p.watchLoop()
	return nil
}

func (p *FileProvider) watchLoop() {
	defer p.watcher.Close()

	var debounceTimer *time.Timer
	const debounceDelay = 200 * time.Millisecond
	target := filepath.Clean(p.path)

	for {
		select {
		case event, ok := <-p.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(debounceDelay, func() {
				if err := p.reload(); err != nil {
					p.logger.Error("Ontology reload failed, keeping previous version",
						zap.String("file", p.path),
						zap.Error(err),
					)
				}
			})

		case err, ok := <-p.watcher.Errors:
			if !ok {
				return
			}
			p.logger.Error("Ontology watcher error", zap.Error(err))

		case <-p.stopCh:
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return
		}
	}
}

// Stop ends watching
func (p *FileProvider) Stop() {
	p.stopped.Do(func() { close(p.stopCh) })
}
