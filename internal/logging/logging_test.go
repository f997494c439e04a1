package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithOutput(&buf, "debug", "json")
	if err != nil {
		t.Fatalf("NewWithOutput failed: %v", err)
	}
	if l.GetLevel() != logrus.DebugLevel {
		t.Errorf("level = %v, expected debug", l.GetLevel())
	}

	l.WithField("agency_id", "nts").Info("hello")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if entry["agency_id"] != "nts" || entry["msg"] != "hello" {
		t.Errorf("entry = %v", entry)
	}
}

func TestNewInvalid(t *testing.T) {
	tests := []struct {
		level  string
		format string
	}{
		{"loud", "text"},
		{"info", "xml"},
	}
	for _, tc := range tests {
		if _, err := New(tc.level, tc.format); err == nil {
			t.Errorf("New(%q, %q) succeeded, expected error", tc.level, tc.format)
		}
	}
}
