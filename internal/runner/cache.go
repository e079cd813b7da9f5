package runner

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/robert-at-pretension-io/regsheet/internal/parser"
	"github.com/robert-at-pretension-io/regsheet/internal/regmap"
)

// modelVersion changes whenever parsing rules change what a workbook turns
// into. A manifest written under another version is discarded whole.
const modelVersion = "regsheet-model-1"

// cachedParse is the blob stored per distinct workbook content.
type cachedParse struct {
	Model       *regmap.Model       `json:"model"`
	Diagnostics []parser.Diagnostic `json:"diagnostics"`
}

// manifest maps workbook paths to the content hash last parsed for them.
type manifest struct {
	ModelVersion string            `json:"model_version"`
	Workbooks    map[string]string `json:"workbooks"`
}

// modelCache is content addressed: blobs live at models/<sha256>.json, so
// identical workbooks under different paths share one entry. Blobs no
// longer named by the manifest are pruned on Save.
type modelCache struct {
	dir     string
	version string

	mu       sync.Mutex
	manifest manifest
}

func newModelCache(dir, version string) *modelCache {
	return &modelCache{
		dir:      dir,
		version:  version,
		manifest: manifest{ModelVersion: version, Workbooks: map[string]string{}},
	}
}

func (c *modelCache) manifestPath() string { return filepath.Join(c.dir, "manifest.json") }

func (c *modelCache) blobPath(contentHash string) string {
	return filepath.Join(c.dir, "models", contentHash+".json")
}

func (c *modelCache) Load() error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("cache mkdir: %w", err)
	}
	data, err := os.ReadFile(c.manifestPath())
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read cache manifest: %w", err)
	}

	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("parse cache manifest: %w", err)
	}
	if m.ModelVersion != c.version || m.Workbooks == nil {
		return nil
	}
	c.mu.Lock()
	c.manifest = m
	c.mu.Unlock()
	return nil
}

// Get returns the parse stored for contentHash. The path only needs to
// have been seen with some content before; a rename still hits.
func (c *modelCache) Get(contentHash string) (cachedParse, bool, error) {
	data, err := os.ReadFile(c.blobPath(contentHash))
	if errors.Is(err, fs.ErrNotExist) {
		return cachedParse{}, false, nil
	}
	if err != nil {
		return cachedParse{}, false, fmt.Errorf("read cached model: %w", err)
	}
	var cp cachedParse
	if err := json.Unmarshal(data, &cp); err != nil {
		return cachedParse{}, false, fmt.Errorf("parse cached model: %w", err)
	}
	return cp, cp.Model != nil, nil
}

// Put stores cp under contentHash and points path at it.
func (c *modelCache) Put(path, contentHash string, cp cachedParse) error {
	if err := writeJSONAtomic(c.blobPath(contentHash), cp); err != nil {
		return err
	}
	c.touch(path, contentHash)
	return nil
}

// touch records that path currently has contentHash.
func (c *modelCache) touch(path, contentHash string) {
	c.mu.Lock()
	c.manifest.Workbooks[path] = contentHash
	c.mu.Unlock()
}

// Save writes the manifest and removes blobs it no longer references.
func (c *modelCache) Save() error {
	c.mu.Lock()
	m := manifest{ModelVersion: c.manifest.ModelVersion, Workbooks: make(map[string]string, len(c.manifest.Workbooks))}
	live := make(map[string]bool, len(c.manifest.Workbooks))
	for path, h := range c.manifest.Workbooks {
		m.Workbooks[path] = h
		live[h] = true
	}
	c.mu.Unlock()

	if err := writeJSONAtomic(c.manifestPath(), m); err != nil {
		return err
	}

	blobs, err := os.ReadDir(filepath.Join(c.dir, "models"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("list cached models: %w", err)
	}
	for _, b := range blobs {
		h, ok := strings.CutSuffix(b.Name(), ".json")
		if !ok || live[h] {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, "models", b.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("prune cached model: %w", err)
		}
	}
	return nil
}

func writeJSONAtomic(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal cache json: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cache dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".pending-*")
	if err != nil {
		return fmt.Errorf("temp cache file: %w", err)
	}
	_, werr := tmp.Write(data)
	cerr := tmp.Close()
	if err := errors.Join(werr, cerr); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write cache file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("rename cache file: %w", err)
	}
	return nil
}

func hashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
