package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func TestWithComponent(t *testing.T) {
	log, err := New(Options{})
	if err != nil {
		t.Fatal(err)
	}
	entry := log.WithComponent("engine")
	if v, ok := entry.Entry.Data["component"]; !ok || v != "engine" {
		t.Fatalf("component field missing: %v", entry.Entry.Data)
	}
}

func TestNew_InvalidOptions(t *testing.T) {
	if _, err := New(Options{Level: "loud"}); err == nil {
		t.Error("expected error for invalid level")
	}
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Error("expected error for invalid format")
	}
}

func TestNew_JSONFields(t *testing.T) {
	log, err := New(Options{Level: "debug", Format: "json"})
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	log.SetOutput(&buf)
	log.WithComponent("center").LogDuration("find", time.Now(), Fields{"segments": 4})

	var line map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if line["component"] != "center" || line["operation"] != "find" {
		t.Errorf("unexpected fields: %v", line)
	}
	if line["message"] != "timing" || line["level"] != "debug" {
		t.Errorf("unexpected message/level: %v", line)
	}
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chan.log")
	log, err := New(Options{File: path})
	if err != nil {
		t.Fatal(err)
	}
	log.WithComponent("test").Info("hello")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if !bytes.Contains(data, []byte("hello")) {
		t.Errorf("log file missing message: %q", data)
	}
}

func TestSetDefault(t *testing.T) {
	prev := L()
	t.Cleanup(func() { SetDefault(prev) })

	log, _ := New(Options{Level: "warn"})
	SetDefault(log)
	if L() != log {
		t.Error("SetDefault did not replace the default logger")
	}
	SetDefault(nil)
	if L() != log {
		t.Error("SetDefault(nil) should be ignored")
	}
	if L().GetLevel() != logrus.WarnLevel {
		t.Errorf("level = %s, want warn", L().GetLevel())
	}
}
