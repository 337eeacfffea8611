package regmap

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

const overlayFileName = "registers.yaml"

// overlayFile is the on-disk shape of a register overlay: additional vendor
// registers an operator can add without a rebuild.
type overlayFile struct {
	Registers []overlayRegister `yaml:"registers"`
}

type overlayRegister struct {
	Name        string         `yaml:"name"`
	Address     uint32         `yaml:"address"`
	WidthBytes  int            `yaml:"width_bytes"`
	Description string         `yaml:"description"`
	Fields      []overlayField `yaml:"fields"`
}

type overlayField struct {
	Name        string `yaml:"name"`
	LSB         uint   `yaml:"lsb"`
	MSB         uint   `yaml:"msb"`
	Description string `yaml:"description"`
}

// loadedOverlay holds the currently active overlay map, swapped atomically
// on reload so concurrent Lookup callers never see a partial update.
var loadedOverlay atomic.Pointer[map[uint32]RegisterDescriptor]

func currentOverlay() map[uint32]RegisterDescriptor {
	p := loadedOverlay.Load()
	if p == nil {
		return nil
	}
	return *p
}

// OverlayWatcher hot-reloads a register-map overlay file and swaps it into
// Lookup's view of the catalog, mirroring the teacher's auth.Service
// fsnotify pattern adapted from a credentials file to a register overlay.
type OverlayWatcher struct {
	mu      sync.Mutex
	path    string
	watcher *fsnotify.Watcher
}

// WatchOverlay starts watching dir/registers.yaml, loading it immediately
// if present. A missing file is not an error — the compiled-in catalog is
// used until one appears.
func WatchOverlay(dir string) (*OverlayWatcher, error) {
	w := &OverlayWatcher{path: filepath.Join(dir, overlayFileName)}

	if err := w.reload(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		slog.Warn("regmap: could not create fsnotify watcher", "err", err)
		return w, nil
	}
	w.watcher = watcher
	if err := watcher.Add(dir); err != nil {
		slog.Warn("regmap: could not watch overlay dir", "dir", dir, "err", err)
	}
	go w.watchLoop()
	return w, nil
}

func (w *OverlayWatcher) reload() error {
	data, err := os.ReadFile(w.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			loadedOverlay.Store(nil)
			return nil
		}
		return err
	}

	var file overlayFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		slog.Warn("regmap: overlay file is not valid YAML, keeping prior overlay", "path", w.path, "err", err)
		return nil
	}

	next := make(map[uint32]RegisterDescriptor, len(file.Registers))
	for _, or := range file.Registers {
		desc := RegisterDescriptor{
			Name: or.Name, Address: or.Address, WidthBytes: or.WidthBytes, Description: or.Description,
		}
		for _, of := range or.Fields {
			desc.Fields = append(desc.Fields, FieldDescriptor{Name: of.Name, LSB: of.LSB, MSB: of.MSB, Description: of.Description})
		}
		if err := desc.Validate(); err != nil {
			slog.Warn("regmap: overlay register rejected", "name", or.Name, "err", err)
			continue
		}
		next[desc.Address] = desc
	}
	loadedOverlay.Store(&next)
	slog.Info("regmap: loaded register overlay", "path", w.path, "count", len(next))
	return nil
}

func (w *OverlayWatcher) watchLoop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Name == w.path && (event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
				if err := w.reload(); err != nil {
					slog.Warn("regmap: failed to reload overlay", "err", err)
				}
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("regmap: overlay watcher error", "err", err)
		}
	}
}

// Close stops the file watcher, if any.
func (w *OverlayWatcher) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watcher != nil {
		w.watcher.Close()
	}
}
