package console

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/stone-age-io/asset-collector/internal/inventory"
	"github.com/stone-age-io/asset-collector/internal/network"
)

func newTestPrompter(input string) (*Prompter, *bytes.Buffer) {
	var out bytes.Buffer
	return NewPrompter(strings.NewReader(input), &out), &out
}

func TestAsk(t *testing.T) {
	p, out := newTestPrompter("  WS-01  \r\nsecond\n")
	ctx := context.Background()

	got, err := p.Ask(ctx, "Name: ")
	if err != nil || got != "WS-01" {
		t.Fatalf("Ask() = %q, %v; want WS-01", got, err)
	}
	got, _ = p.Ask(ctx, "Again: ")
	if got != "second" {
		t.Errorf("second Ask() = %q", got)
	}
	if !strings.Contains(out.String(), "Name: ") {
		t.Errorf("prompt not printed: %q", out.String())
	}

	// Input exhausted
	got, err = p.Ask(ctx, "More: ")
	if err != nil || got != "" {
		t.Errorf("Ask() after EOF = %q, %v; want empty", got, err)
	}
}

func TestConfirm(t *testing.T) {
	tests := map[string]bool{
		"Y":   true,
		"y":   true,
		" Y ": true,
		"N":   false,
		"yes": false,
		"":    false,
	}
	for answer, want := range tests {
		p, _ := newTestPrompter(answer + "\n")
		got, err := p.Confirm(context.Background(), "Continue? (Y/N): ")
		if err != nil || got != want {
			t.Errorf("Confirm(%q) = %v, %v; want %v", answer, got, err, want)
		}
	}
}

func TestAskCancelled(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	p := NewPrompter(pr, io.Discard)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := p.Ask(ctx, "Name: ")
		done <- err
	}()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, ErrCancelled) {
			t.Errorf("Ask() error = %v, want ErrCancelled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Ask() did not return after cancellation")
	}
}

func TestEditMonitors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []inventory.Monitor
	}{
		{
			name:  "blank model clears the list",
			input: "\n",
			want:  []inventory.Monitor{},
		},
		{
			name:  "one monitor then no",
			input: "P2419H\n24\"\n1920x1080\nDell\nN\n",
			want: []inventory.Monitor{
				{Model: "P2419H", Size: `24"`, Resolution: "1920x1080", Manufacturer: "Dell"},
			},
		},
		{
			name:  "two monitors ended by blank model",
			input: "P2419H\n24\"\n1920x1080\nDell\ny\n27GL850\n27\"\n2560x1440\nLG\nY\n\n",
			want: []inventory.Monitor{
				{Model: "P2419H", Size: `24"`, Resolution: "1920x1080", Manufacturer: "Dell"},
				{Model: "27GL850", Size: `27"`, Resolution: "2560x1440", Manufacturer: "LG"},
			},
		},
		{
			name:  "input ends mid entry",
			input: "P2419H\n",
			want: []inventory.Monitor{
				{Model: "P2419H"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _ := newTestPrompter(tt.input)
			got, err := EditMonitors(context.Background(), p)
			if err != nil {
				t.Fatalf("EditMonitors() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("EditMonitors() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPrintMonitors(t *testing.T) {
	p, out := newTestPrompter("")
	PrintMonitors(p, nil)
	if !strings.Contains(out.String(), "No monitors were detected") {
		t.Errorf("output = %q", out.String())
	}

	out.Reset()
	PrintMonitors(p, []inventory.Monitor{{Model: "DELL U2415", Resolution: "1920x1200"}})
	if !strings.Contains(out.String(), "[1] DELL U2415 1920x1200") {
		t.Errorf("output = %q", out.String())
	}
}

func TestPrintRecommendations(t *testing.T) {
	p, out := newTestPrompter("")
	PrintRecommendations(p, network.RecommendationList{"localhost", "WS-01", "192.168.1.50"})

	for _, want := range []string{"- localhost", "- WS-01", "- 192.168.1.50"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q: %q", want, out.String())
		}
	}
}

func TestPrintSummary(t *testing.T) {
	rec := &inventory.AssetRecord{
		Name:     "WS-01",
		CPU:      inventory.CPU{Model: "Intel(R) Core(TM) i5-10400"},
		Memory:   inventory.Memory{Total: "15.9GB"},
		OS:       inventory.OS{Name: "Ubuntu 24.04.1 LTS"},
		Monitors: []inventory.Monitor{{Model: "a"}, {Model: "b"}},
	}

	p, out := newTestPrompter("")
	PrintSummary(p, rec, "http://192.168.1.100:80")

	for _, want := range []string{
		"Asset information uploaded",
		"- Name: WS-01",
		"- CPU: Intel(R) Core(TM) i5-10400",
		"- Memory: 15.9GB",
		"- OS: Ubuntu 24.04.1 LTS",
		"- Monitors: 2",
		"http://192.168.1.100:80",
	} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("summary missing %q", want)
		}
	}
}

func TestPrintFailures(t *testing.T) {
	p, out := newTestPrompter("")
	PrintUploadRejected(p, 500, "database locked")
	if !strings.Contains(out.String(), "HTTP 500") || !strings.Contains(out.String(), "database locked") {
		t.Errorf("output = %q", out.String())
	}

	out.Reset()
	PrintConnectionHints(p)
	if !strings.Contains(out.String(), "firewall") {
		t.Errorf("output = %q", out.String())
	}
}
