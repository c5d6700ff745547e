package localserver

import (
	"context"
	"io"
	"io/fs"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/yndnr/relog-go/internal/telemetry/logger"
)

func unixClient(path string) *http.Client {
	return &http.Client{
		Timeout: 5 * time.Second,
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
				var d net.Dialer
				return d.DialContext(ctx, "unix", path)
			},
		},
	}
}

func start(t *testing.T, path string) *Server {
	t.Helper()
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "local:"+r.URL.Path)
	})
	s := New(path, h, logger.Discard())
	if err := s.Listen(); err != nil {
		t.Fatalf("Listen: %v", err)
	}
	errCh := make(chan error, 1)
	go func() { errCh <- s.Serve() }()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.Shutdown(ctx)
		if err := <-errCh; err != nil {
			t.Errorf("Serve: %v", err)
		}
	})
	return s
}

func TestServer_ServesOnSocket(t *testing.T) {
	path := filepath.Join(t.TempDir(), "r.sock")
	start(t, path)

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode()&fs.ModeSocket == 0 || info.Mode().Perm() != SocketMode {
		t.Errorf("mode = %v", info.Mode())
	}

	resp, err := unixClient(path).Get("http://localhost/health")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "local:/health" {
		t.Errorf("body = %q", body)
	}
}

func TestServer_ShutdownRemovesSocket(t *testing.T) {
	path := filepath.Join(t.TempDir(), "r.sock")
	s := New(path, http.NotFoundHandler(), logger.Discard())
	if err := s.Listen(); err != nil {
		t.Fatal(err)
	}
	done := make(chan error, 1)
	go func() { done <- s.Serve() }()

	if err := s.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("Serve: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("socket still present: %v", err)
	}
}

func TestServer_ReplacesStaleSocket(t *testing.T) {
	path := filepath.Join(t.TempDir(), "r.sock")

	// A listener whose file outlives it, as after a crash.
	ln, err := net.Listen("unix", path)
	if err != nil {
		t.Fatal(err)
	}
	ln.(*net.UnixListener).SetUnlinkOnClose(false)
	ln.Close()

	start(t, path)
	resp, err := unixClient(path).Get("http://localhost/x")
	if err != nil {
		t.Fatalf("GET after stale socket: %v", err)
	}
	resp.Body.Close()
}

func TestServer_RefusesRegularFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "r.sock")
	if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := New(path, http.NotFoundHandler(), logger.Discard()).Listen(); err == nil {
		t.Fatal("Listen over a regular file succeeded")
	}
	if b, _ := os.ReadFile(path); string(b) != "data" {
		t.Error("regular file was touched")
	}
}

func TestServer_ServeBeforeListen(t *testing.T) {
	if err := New("unused", http.NotFoundHandler(), nil).Serve(); err == nil {
		t.Fatal("expected error")
	}
}
