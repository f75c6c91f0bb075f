package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"

	"github.com/stone-age-io/asset-collector/internal/config"
	"github.com/stone-age-io/asset-collector/internal/console"
	"github.com/stone-age-io/asset-collector/internal/inventory"
	"github.com/stone-age-io/asset-collector/internal/network"
	"github.com/stone-age-io/asset-collector/internal/uploader"
)

type fakeProber struct {
	snap  *inventory.Snapshot
	calls int
}

func (f *fakeProber) Collect(ctx context.Context) *inventory.Snapshot {
	f.calls++
	return f.snap
}

type fakeRecommender struct{}

func (fakeRecommender) Recommend(ctx context.Context) (network.RecommendationList, network.Tiers) {
	return network.RecommendationList{"localhost", "WS-01", "192.168.1.50"},
		network.Tiers{Physical: []string{"192.168.1.50"}, Virtual: []string{"192.168.56.1"}}
}

type fakeUploader struct {
	reachable bool
	err       error
	uploads   []*inventory.AssetRecord
}

func (f *fakeUploader) Probe(ctx context.Context) bool { return f.reachable }

func (f *fakeUploader) Upload(ctx context.Context, rec *inventory.AssetRecord) error {
	f.uploads = append(f.uploads, rec)
	return f.err
}

type fakePublisher struct {
	published [][]byte
	closed    bool
}

func (f *fakePublisher) PublishInventory(data []byte) error {
	f.published = append(f.published, data)
	return nil
}

func (f *fakePublisher) Close() { f.closed = true }

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			DefaultPort:   80,
			APIPath:       "/api/assets",
			ProbeTimeout:  time.Second,
			UploadTimeout: 2 * time.Second,
		},
	}
}

func testSnapshot() *inventory.Snapshot {
	return &inventory.Snapshot{
		CPU:      inventory.CPU{Model: "Intel(R) Core(TM) i5-10400", Cores: 6, Threads: 12},
		Memory:   inventory.Memory{Total: "15.9GB", Slots: []inventory.MemorySlot{}},
		OS:       inventory.OS{Name: "Microsoft Windows 10 Pro"},
		Monitors: []inventory.Monitor{{Model: "DELL U2415", Resolution: "1920x1200"}},
	}
}

// newTestSession wires a session to scripted input. The uploader is either
// the fake or a real client, depending on which the test supplies.
func newTestSession(input string, prober *fakeProber, newUploader func(string) Uploader) (*Session, *bytes.Buffer) {
	var out bytes.Buffer
	deps := Deps{
		Prompter:    console.NewPrompter(strings.NewReader(input), &out),
		Prober:      prober,
		Recommender: fakeRecommender{},
		NewUploader: newUploader,
		Now:         func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) },
	}
	return NewSession(testConfig(), zap.NewNop(), deps), &out
}

func realUploader(baseURL string) Uploader {
	return uploader.NewClient(baseURL, testConfig().Server, "test", zap.NewNop())
}

func TestSessionBlankNameExits(t *testing.T) {
	for _, input := range []string{"\n", "   \t \n", ""} {
		prober := &fakeProber{snap: testSnapshot()}
		s, out := newTestSession(input, prober, func(string) Uploader {
			t.Fatal("uploader created for a blank name")
			return nil
		})

		err := s.Run(context.Background())

		var exitErr *ExitError
		if !errors.As(err, &exitErr) || exitErr.Code != 1 {
			t.Fatalf("Run(%q) error = %v, want exit code 1", input, err)
		}
		if !errors.Is(err, inventory.ErrEmptyName) {
			t.Errorf("Run(%q) error = %v, want ErrEmptyName", input, err)
		}
		if prober.calls != 0 {
			t.Errorf("prober called %d times before name validation", prober.calls)
		}
		if !strings.Contains(out.String(), "asset name must not be empty") {
			t.Errorf("output = %q", out.String())
		}
	}
}

func TestSessionBlankServerExits(t *testing.T) {
	s, _ := newTestSession("WS-01\nN\n   \n", &fakeProber{snap: testSnapshot()}, func(string) Uploader {
		t.Fatal("uploader created for a blank server address")
		return nil
	})

	err := s.Run(context.Background())

	var exitErr *ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != 1 {
		t.Fatalf("Run() error = %v, want exit code 1", err)
	}
	if !errors.Is(err, uploader.ErrEmptyAddress) {
		t.Errorf("Run() error = %v, want ErrEmptyAddress", err)
	}
}

func TestSessionUploadRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusInternalServerError)
			io.WriteString(w, "database locked")
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	host := srv.Listener.Addr().String()
	s, out := newTestSession("WS-01\nN\n"+host+"\n\n", &fakeProber{snap: testSnapshot()}, realUploader)

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	text := out.String()
	for _, want := range []string{"HTTP 500", "database locked", "Press Enter to exit"} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "Asset summary") {
		t.Error("summary printed for a rejected upload")
	}
}

func TestSessionUnreachableDeclined(t *testing.T) {
	up := &fakeUploader{reachable: false}
	s, out := newTestSession("WS-01\nN\n10.0.0.9\nn\n", &fakeProber{snap: testSnapshot()}, func(url string) Uploader {
		if url != "http://10.0.0.9:80" {
			t.Errorf("uploader URL = %q", url)
		}
		return up
	})

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v, want nil", err)
	}
	if len(up.uploads) != 0 {
		t.Error("upload attempted after the operator declined")
	}
	if !strings.Contains(out.String(), "Operation cancelled.") {
		t.Errorf("output = %q", out.String())
	}
}

func TestSessionUnreachableConnectionHints(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	host := l.Addr().String()
	l.Close()

	s, out := newTestSession("WS-01\nN\n"+host+"\nY\n\n", &fakeProber{snap: testSnapshot()}, realUploader)

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	text := out.String()
	if !strings.Contains(text, "cannot reach the server") {
		t.Errorf("probe warning missing:\n%s", text)
	}
	if !strings.Contains(text, "Possible causes") {
		t.Errorf("connection hints missing:\n%s", text)
	}
}

func TestSessionSuccess(t *testing.T) {
	var received inventory.AssetRecord
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			json.NewDecoder(r.Body).Decode(&received)
			w.WriteHeader(http.StatusCreated)
			return
		}
		w.WriteHeader(http.StatusMethodNotAllowed)
	}))
	defer srv.Close()

	input := strings.Join([]string{
		"  WS-01 ",
		"Y", // edit monitors
		"P2419H", `24"`, "1920x1080", "Dell",
		"N", // no more monitors
		srv.Listener.Addr().String(),
		"", // exit
	}, "\n") + "\n"

	pub := &fakePublisher{}
	metricsPath := filepath.Join(t.TempDir(), "asset_collector.prom")

	s, out := newTestSession(input, &fakeProber{snap: testSnapshot()}, realUploader)
	s.deps.Connect = func() (Publisher, error) { return pub, nil }
	s.deps.MetricsPath = metricsPath

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := []inventory.Monitor{{Model: "P2419H", Size: `24"`, Resolution: "1920x1080", Manufacturer: "Dell"}}
	if diff := cmp.Diff(want, received.Monitors); diff != "" {
		t.Errorf("uploaded monitors mismatch (-want +got):\n%s", diff)
	}
	if received.Name != "WS-01" || received.CreatedAt != "2024-01-02T03:04:05.000000Z" {
		t.Errorf("uploaded record = %+v", received)
	}

	text := out.String()
	for _, want := range []string{"Detected monitors", "DELL U2415", "192.168.1.50", "Asset summary", "- Monitors: 1"} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q", want)
		}
	}

	if len(pub.published) != 1 || !pub.closed {
		t.Fatalf("publisher = %+v, want one publish and close", pub)
	}
	if !bytes.Contains(pub.published[0], []byte(`"name":"WS-01"`)) {
		t.Errorf("published = %s", pub.published[0])
	}

	if _, err := os.Stat(metricsPath); err != nil {
		t.Errorf("metrics textfile not written: %v", err)
	}
}

func TestSessionNoPublishOnFailure(t *testing.T) {
	up := &fakeUploader{reachable: true, err: &uploader.StatusError{Code: 400, Body: "bad"}}
	pub := &fakePublisher{}

	s, _ := newTestSession("WS-01\nN\nassets.local\n\n", &fakeProber{snap: testSnapshot()}, func(string) Uploader { return up })
	s.deps.Connect = func() (Publisher, error) { return pub, nil }

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(up.uploads) != 1 {
		t.Fatalf("uploads = %d, want 1", len(up.uploads))
	}
	if len(pub.published) != 0 {
		t.Error("record published although the server rejected it")
	}
}

func TestSessionKeepsDetectedMonitors(t *testing.T) {
	up := &fakeUploader{reachable: true}
	s, _ := newTestSession("WS-01\nN\nassets.local:8080\n\n", &fakeProber{snap: testSnapshot()}, func(string) Uploader { return up })

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if diff := cmp.Diff(testSnapshot().Monitors, up.uploads[0].Monitors); diff != "" {
		t.Errorf("monitors mismatch (-want +got):\n%s", diff)
	}
}

func TestSessionInterrupted(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	var out bytes.Buffer
	prober := &fakeProber{snap: testSnapshot()}
	s := NewSession(testConfig(), zap.NewNop(), Deps{
		Prompter:    console.NewPrompter(pr, &out),
		Prober:      prober,
		Recommender: fakeRecommender{},
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after interrupt")
	}

	if !strings.Contains(out.String(), "Operation cancelled.") {
		t.Errorf("output = %q", out.String())
	}
	if prober.calls != 0 {
		t.Error("collection ran after interrupt")
	}
}
