package serve

import (
	"bytes"
	"context"
	"mime/multipart"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "whisper-api/internal/app/errors"
)

func freePort(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return strconv.Itoa(l.Addr().(*net.TCPAddr).Port)
}

func TestRun_RequiresToken(t *testing.T) {
	t.Setenv("API_TOKEN", "")

	err := Run(context.Background(), "", false)
	assert.ErrorIs(t, err, apperrors.ErrMissingConfig)
}

func TestRun_ServesUntilCancelled(t *testing.T) {
	dir := t.TempDir()
	port := freePort(t)

	t.Setenv("API_TOKEN", "s3cret")
	t.Setenv("HOST", "127.0.0.1")
	t.Setenv("PORT", port)
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("HISTORY_DRIVER", "sqlite3")
	t.Setenv("HISTORY_DSN", filepath.Join(dir, "history.db"))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- Run(ctx, "", false) }()

	healthURL := "http://127.0.0.1:" + port + "/health"
	require.Eventually(t, func() bool {
		resp, err := http.Get(healthURL)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(20 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}

	_, err := os.Stat(filepath.Join(dir, "history.db"))
	assert.NoError(t, err)
}

func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func uploadRequest(t *testing.T, url, token string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "clip.mp3")
	require.NoError(t, err)
	_, err = part.Write([]byte("not really audio"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, url, &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestRun_ShutdownWithRequestInFlight(t *testing.T) {
	dir := t.TempDir()
	port := freePort(t)

	// ffmpeg writes its output to the last argument; whisper.cpp never finishes.
	ffmpeg := writeScript(t, dir, "ffmpeg", `for a; do out="$a"; done; : > "$out"`)
	whisper := writeScript(t, dir, "whisper", "exec sleep 60")

	t.Setenv("API_TOKEN", "s3cret")
	t.Setenv("HOST", "127.0.0.1")
	t.Setenv("PORT", port)
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("FFMPEG_BIN", ffmpeg)
	t.Setenv("WHISPER_CPP_BIN", whisper)
	t.Setenv("WHISPER_MODEL_PATH", filepath.Join(dir, "model.bin"))
	t.Setenv("TRANSCRIBE_TIMEOUT_SECONDS", "600")
	t.Setenv("HISTORY_DRIVER", "")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- Run(ctx, "", false) }()

	base := "http://127.0.0.1:" + port
	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/health")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	req := uploadRequest(t, base+"/transcribe", "s3cret")
	statusCh := make(chan int, 1)
	go func() {
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			statusCh <- 0
			return
		}
		defer resp.Body.Close()
		statusCh <- resp.StatusCode
	}()

	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/metrics")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(resp.Body)
		return bytes.Contains(buf.Bytes(), []byte("whisper_jobs_running 1"))
	}, 5*time.Second, 20*time.Millisecond)

	started := time.Now()
	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(20 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
	assert.Less(t, time.Since(started), 10*time.Second)

	select {
	case status := <-statusCh:
		assert.Equal(t, http.StatusServiceUnavailable, status)
	case <-time.After(5 * time.Second):
		t.Fatal("in-flight request did not complete")
	}
}
