package api

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/robotomize/fxcache/internal/logging"
)

func TestServer_Serve(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	srv := NewServer(ServerConfig{Timeout: 5 * time.Second, IdleTimeout: 5 * time.Second},
		newTestRouter(&memService{days: testDays()}), logging.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ctx, ln)
	}()

	resp, err := http.Get("http://" + ln.Addr().String() + "/api/v1/latest")
	if err != nil {
		t.Fatalf("http get: %v", err)
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	if diff := cmp.Diff(http.StatusOK, resp.StatusCode); diff != "" {
		t.Errorf("status mismatch (-want, +got):\n%s", diff)
	}

	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("serve: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatalf("server did not shut down")
	}
}
