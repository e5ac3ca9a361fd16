package config

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period after a write before the file is reloaded
const DefaultDebounce = 500 * time.Millisecond

// ConfigChangeCallback is called when configuration changes
type ConfigChangeCallback func(oldConfig, newConfig *Config)

// ErrorLogger receives reload and file system failures
type ErrorLogger interface {
	Errorf(format string, args ...interface{})
}

type stdLogger struct{}

func (stdLogger) Errorf(format string, args ...interface{}) {
	log.Printf(format, args...)
}

// Watcher reloads a configuration file whenever it is written.
// Callbacks run on the watcher goroutine, in registration order.
type Watcher struct {
	path     string
	loader   *Loader
	fs       *fsnotify.Watcher
	debounce time.Duration
	logger   ErrorLogger

	mu        sync.RWMutex
	current   *Config
	callbacks []ConfigChangeCallback

	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewWatcher loads configFile and prepares to watch it
func NewWatcher(configFile string, loader *Loader) (*Watcher, error) {
	if _, err := FormatFromPath(configFile); err != nil {
		return nil, err
	}
	path := filepath.Clean(configFile)

	current, err := loader.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load initial config: %w", err)
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file system watcher: %w", err)
	}

	return &Watcher{
		path:     path,
		loader:   loader,
		fs:       fs,
		debounce: DefaultDebounce,
		logger:   stdLogger{},
		current:  current,
		done:     make(chan struct{}),
	}, nil
}

// SetDebounce sets the quiet period before reloading. Call before Start.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// SetLogger routes watcher failures to logger. Call before Start.
func (w *Watcher) SetLogger(logger ErrorLogger) {
	w.logger = logger
}

// Start begins watching. The parent directory is watched so that editors
// which replace the file by rename are still seen.
func (w *Watcher) Start() error {
	if err := w.fs.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch config file: %w", err)
	}

	w.wg.Add(1)
	go w.loop()
	return nil
}

// Stop stops watching; safe to call more than once
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.fs.Close()
		w.wg.Wait()
	})
	return err
}

// GetConfig returns the most recently loaded configuration
func (w *Watcher) GetConfig() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// OnConfigChange registers a callback for configuration changes
func (w *Watcher) OnConfigChange(callback ConfigChangeCallback) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, callback)
}

// Reload reloads the file now
func (w *Watcher) Reload() error {
	return w.reload()
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	var pending <-chan time.Time

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !timer.Stop() && pending != nil {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.debounce)
			pending = timer.C

		case <-pending:
			pending = nil
			if err := w.reload(); err != nil {
				w.logger.Errorf("Failed to reload config %s: %v", w.path, err)
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Errorf("Config watcher error: %v", err)
		}
	}
}

func (w *Watcher) reload() error {
	next, err := w.loader.LoadFromFile(w.path)
	if err != nil {
		return fmt.Errorf("failed to reload config: %w", err)
	}

	w.mu.Lock()
	prev := w.current
	w.current = next
	callbacks := append([]ConfigChangeCallback(nil), w.callbacks...)
	w.mu.Unlock()

	for _, callback := range callbacks {
		w.notify(callback, prev, next)
	}
	return nil
}

func (w *Watcher) notify(callback ConfigChangeCallback, prev, next *Config) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Errorf("Config change callback panicked: %v", r)
		}
	}()
	callback(prev, next)
}

// FileProvider serves configuration from a watched file, or from
// auto-discovery when no file is given
type FileProvider struct {
	loader  *Loader
	watcher *Watcher
}

// NewFileProvider creates a file-based configuration provider.
// With an empty configFile the provider auto-discovers configuration and cannot watch.
func NewFileProvider(configFile string, loader *Loader) (*FileProvider, error) {
	if loader == nil {
		loader = NewLoader()
	}

	provider := &FileProvider{loader: loader}
	if configFile == "" {
		return provider, nil
	}

	watcher, err := NewWatcher(configFile, loader)
	if err != nil {
		return nil, fmt.Errorf("failed to create config watcher: %w", err)
	}
	provider.watcher = watcher
	return provider, nil
}

// Watcher returns the underlying watcher, nil when none is configured
func (fp *FileProvider) Watcher() *Watcher {
	return fp.watcher
}

// Load returns the current configuration
func (fp *FileProvider) Load() (*Config, error) {
	if fp.watcher != nil {
		return fp.watcher.GetConfig(), nil
	}
	return fp.loader.AutoLoad()
}

// Watch starts the watcher and blocks until ctx is done
func (fp *FileProvider) Watch(ctx context.Context, callback ConfigChangeCallback) error {
	if fp.watcher == nil {
		return ErrWatcherUnavailable
	}

	fp.watcher.OnConfigChange(callback)
	if err := fp.watcher.Start(); err != nil {
		return fmt.Errorf("failed to start config watcher: %w", err)
	}

	<-ctx.Done()
	return fp.watcher.Stop()
}

// Close stops the watcher, if any
func (fp *FileProvider) Close() error {
	if fp.watcher != nil {
		return fp.watcher.Stop()
	}
	return nil
}
