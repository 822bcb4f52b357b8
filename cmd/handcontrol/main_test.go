package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/ayusman/handcontrol/internal/positions"
	"github.com/ayusman/handcontrol/internal/surface"
)

func TestPageURL(t *testing.T) {
	tests := []struct {
		addr string
		want string
	}{
		{":8080", "http://localhost:8080/"},
		{"0.0.0.0:9000", "http://localhost:9000/"},
		{"127.0.0.1:8080", "http://127.0.0.1:8080/"},
		{"[::]:8080", "http://localhost:8080/"},
		{"example.local", "http://example.local/"},
	}

	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			if got := pageURL(tt.addr); got != tt.want {
				t.Errorf("pageURL(%q) = %q, want %q", tt.addr, got, tt.want)
			}
		})
	}
}

func runCommand(t *testing.T, args ...string) string {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("handcontrol %s: %v\n%s", strings.Join(args, " "), err, out.String())
	}
	return out.String()
}

func TestPositionsCommands(t *testing.T) {
	dataDir := t.TempDir()

	out := runCommand(t, "positions", "list", "--data-dir", dataDir)
	if !strings.Contains(out, "No stored positions.") {
		t.Errorf("list on empty store = %q", out)
	}

	st, err := openStore()
	if err != nil {
		t.Fatalf("openStore() error = %v", err)
	}
	pos := positions.New(st.Settings(), cfg.PositionsKey)
	if err := pos.Save("cart-1", surface.Position{Top: "300px", Left: "700px"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	st.Close()

	out = runCommand(t, "positions", "list", "--data-dir", dataDir)
	if !strings.Contains(out, "cart-1") || !strings.Contains(out, "700px") {
		t.Errorf("list = %q, want cart-1 at 700px", out)
	}
	if !strings.Contains(out, "Last saved:") {
		t.Errorf("list = %q, want the time positions were last saved", out)
	}

	out = runCommand(t, "positions", "reset", "--data-dir", dataDir)
	if !strings.Contains(out, "cleared") {
		t.Errorf("reset = %q", out)
	}

	out = runCommand(t, "positions", "list", "--data-dir", dataDir)
	if !strings.Contains(out, "No stored positions.") {
		t.Errorf("list after reset = %q", out)
	}
}
