package runner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/robert-at-pretension-io/regsheet/internal/regmap"
)

func TestModelCacheSharesAndPrunes(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	c := newModelCache(dir, modelVersion)
	if err := c.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	cp := cachedParse{Model: regmap.NewModel(regmap.VersionInfo{Name: "uart"})}
	if err := c.Put("a.xlsx", "h1", cp); err != nil {
		t.Fatalf("Put: %v", err)
	}
	c.touch("copy/a.xlsx", "h1")
	if err := c.Put("b.xlsx", "h2", cp); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := c.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reloaded := newModelCache(dir, modelVersion)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	got, ok, err := reloaded.Get("h1")
	if err != nil || !ok || got.Model.Version.Name != "uart" {
		t.Fatalf("Get(h1) = %+v, %v, %v", got, ok, err)
	}

	// b.xlsx changes content; its old blob is no longer referenced.
	if err := reloaded.Put("b.xlsx", "h3", cp); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := reloaded.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(reloaded.blobPath("h2")); !os.IsNotExist(err) {
		t.Fatalf("stale blob should be pruned, stat err = %v", err)
	}
	if _, err := os.Stat(reloaded.blobPath("h1")); err != nil {
		t.Fatalf("shared blob must survive: %v", err)
	}
}

func TestModelCacheDropsOtherVersion(t *testing.T) {
	dir := t.TempDir()
	old := newModelCache(dir, "regsheet-model-0")
	_ = old.Load()
	if err := old.Put("a.xlsx", "h1", cachedParse{Model: regmap.NewModel(regmap.VersionInfo{})}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := old.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	c := newModelCache(dir, modelVersion)
	if err := c.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(c.manifest.Workbooks) != 0 {
		t.Fatalf("manifest from another version kept: %+v", c.manifest)
	}
	if err := c.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, ok, _ := c.Get("h1"); ok {
		t.Fatalf("blob from another version should be pruned")
	}
}
