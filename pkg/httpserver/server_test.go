package httpserver_test

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/autodispatchai/platform/pkg/httpserver"
)

func freePort(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func TestServerRunAndShutdown(t *testing.T) {
	addr := freePort(t)
	srv := httpserver.New(
		httpserver.WithAddr(addr),
		httpserver.WithShutdownTimeout(time.Second),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "ok")
		}))
	}()

	var resp *http.Response
	require.Eventually(t, func() bool {
		var err error
		resp, err = http.Get("http://" + addr + "/")
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, "ok", string(body))

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestHealthCheckHandler(t *testing.T) {
	t.Parallel()

	log := httptestLogger()

	t.Run("liveness", func(t *testing.T) {
		t.Parallel()

		w := newRecorder()
		httpserver.HealthCheckHandler(log)(w, newRequest(t))
		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "ALIVE", w.Body.String())
	})

	t.Run("readiness ok", func(t *testing.T) {
		t.Parallel()

		probe := func(context.Context) error { return nil }
		w := newRecorder()
		httpserver.HealthCheckHandler(log, probe)(w, newRequest(t))
		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "READY", w.Body.String())
	})

	t.Run("readiness failing probe", func(t *testing.T) {
		t.Parallel()

		probe := func(context.Context) error { return fmt.Errorf("db down") }
		w := newRecorder()
		httpserver.HealthCheckHandler(log, probe)(w, newRequest(t))
		require.Equal(t, http.StatusInternalServerError, w.Code)
		require.Equal(t, "NOT_READY", w.Body.String())
	})
}
