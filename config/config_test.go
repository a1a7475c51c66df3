package config

import (
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/text/encoding/charmap"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Convert.Format != ModelFormatChunk {
		t.Errorf("expected chunk format, got %v", cfg.Convert.Format)
	}
	if cfg.Web.Address != ":8000" {
		t.Errorf("expected web address :8000, got %s", cfg.Web.Address)
	}
	if cm, err := cfg.Convert.Charmap(); err != nil || cm != charmap.Windows1252 {
		t.Errorf("expected windows 1252 charmap, got %v %v", cm, err)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yamlContent := `
convert:
  format: GC
  texture_list: "textures.txt"
  encoding: "Windows 1251"
logging:
  level: "debug"
`
	if err := os.WriteFile(path, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Convert.Format != ModelFormatGC {
		t.Errorf("expected gc format, got %v", cfg.Convert.Format)
	}
	if cfg.Convert.TextureList != "textures.txt" {
		t.Errorf("expected texture list textures.txt, got %s", cfg.Convert.TextureList)
	}
	if cm, _ := cfg.Convert.Charmap(); cm != charmap.Windows1251 {
		t.Errorf("expected windows 1251 charmap, got %v", cm)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected debug level, got %s", cfg.Logging.Level)
	}
	// untouched sections keep defaults
	if cfg.Web.Address != ":8000" {
		t.Errorf("expected default web address, got %s", cfg.Web.Address)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	for name, content := range map[string]string{
		"format":   "convert:\n  format: psx\n",
		"encoding": "convert:\n  encoding: \"Klingon\"\n",
	} {
		path := filepath.Join(dir, name+".yaml")
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(path); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := Default()
	cfg.Convert.Format = ModelFormatBasicDX
	cfg.Logging.LogFile = "converter.log"
	if err := cfg.Save(path); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if *loaded != *cfg {
		t.Errorf("loaded %+v; expected %+v", loaded, cfg)
	}
}

func TestParseModelFormat(t *testing.T) {
	for _, f := range []ModelFormat{ModelFormatBasic, ModelFormatBasicDX, ModelFormatChunk, ModelFormatGC} {
		if parsed, err := ParseModelFormat(f.String()); err != nil || parsed != f {
			t.Errorf("ParseModelFormat(%q)=%v,%v", f.String(), parsed, err)
		}
	}
}
