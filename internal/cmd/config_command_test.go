package cmd

import (
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/salmonumbrella/braindump/internal/config"
)

func TestConfigSetShowUnset(t *testing.T) {
	h := newCLIHarness(t)

	out, _, err := h.run("", "config", "set", "backend", "neo4j", "-o", "text")
	if err != nil {
		t.Fatalf("config set: %v", err)
	}
	if out != "Updated backend\n" {
		t.Fatalf("unexpected output %q", out)
	}

	loaded, err := config.Load(h.configPath)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Backend != "neo4j" {
		t.Fatalf("backend not saved: %+v", loaded)
	}

	out, _, err = h.run("", "config", "show", "-o", "json")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	var shown map[string]string
	if err := json.Unmarshal([]byte(out), &shown); err != nil {
		t.Fatalf("parse show output: %v", err)
	}
	if shown["backend"] != "neo4j" {
		t.Fatalf("unexpected show output: %v", shown)
	}

	if _, _, err := h.run("", "config", "unset", "backend"); err != nil {
		t.Fatalf("config unset: %v", err)
	}
	loaded, err = config.Load(h.configPath)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Backend != "" {
		t.Fatalf("backend not cleared: %+v", loaded)
	}
}

func TestConfigSetSecretIsMasked(t *testing.T) {
	h := newCLIHarness(t)

	out, _, err := h.run("", "config", "set", "api_token", "secret-token-1234", "-o", "json")
	if err != nil {
		t.Fatalf("config set: %v", err)
	}
	if strings.Contains(out, "secret-token") || !strings.Contains(out, "****1234") {
		t.Fatalf("secret leaked or not masked: %q", out)
	}

	raw, err := os.ReadFile(h.configPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), "secret-token-1234") {
		t.Fatalf("expected value in config file, got %q", raw)
	}
}

func TestConfigSetRejectsBadValues(t *testing.T) {
	h := newCLIHarness(t)

	if _, _, err := h.run("", "config", "set", "default_urgency", "11"); err == nil {
		t.Fatal("expected error for out of range score")
	}
	if _, _, err := h.run("", "config", "set", "graph_name", "x"); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestConfigKeys(t *testing.T) {
	h := newCLIHarness(t)

	out, _, err := h.run("", "config", "keys", "-o", "json")
	if err != nil {
		t.Fatalf("config keys: %v", err)
	}
	var keys []string
	if err := json.Unmarshal([]byte(out), &keys); err != nil {
		t.Fatalf("parse keys: %v", err)
	}
	for _, want := range []string{"backend", "data_dir", "gemini_model", "default_tags"} {
		found := false
		for _, k := range keys {
			if k == want {
				found = true
			}
		}
		if !found {
			t.Errorf("missing key %q in %v", want, keys)
		}
	}
}
