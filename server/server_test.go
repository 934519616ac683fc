package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/sonido-mix/mixfit/config"
	"github.com/RyanBlaney/sonido-mix/mixfit/model"
	"github.com/RyanBlaney/sonido-mix/store"
)

type fakeAnalyzer struct {
	mu    sync.Mutex
	paths []string
	err   error
}

func (f *fakeAnalyzer) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.paths...)
}

func (f *fakeAnalyzer) AnalyzeMix(_ context.Context, mixPath string) (*model.Report, error) {
	f.mu.Lock()
	f.paths = append(f.paths, mixPath)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &model.Report{
		ID:             "r-1",
		SourceFileName: filepath.Base(mixPath),
		MixProfile:     model.MixBandProfile{1, 1, 1, 1, 1},
		Stems: []model.StemResult{
			{Name: "vocals", Role: config.RoleVocal, Suggestions: []model.Suggestion{}},
			{Name: "bass", Role: config.RoleBass, Suggestions: []model.Suggestion{}},
		},
	}, nil
}

func newTestServer(t *testing.T, analyzer MixAnalyzer, history HistoryReader) (*httptest.Server, config.ServerConfig) {
	t.Helper()
	cfg := config.ServerConfig{UploadDir: filepath.Join(t.TempDir(), "uploads"), MaxUploadBytes: 64 << 10}
	srv := httptest.NewServer(New(cfg, analyzer, history).Handler())
	t.Cleanup(srv.Close)
	return srv, cfg
}

func upload(t *testing.T, url, field, filename string, body []byte) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if field != "" {
		fw, err := mw.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = fw.Write(body)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	resp, err := http.Post(url+"/analyze", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, r io.Reader) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.NewDecoder(r).Decode(&out))
	return out
}

func TestAnalyzeUpload(t *testing.T) {
	analyzer := &fakeAnalyzer{}
	srv, cfg := newTestServer(t, analyzer, nil)

	resp := upload(t, srv.URL, "mix", "song.wav", []byte("RIFF fake"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"mix_file":"song.wav"`)
	assert.Less(t, strings.Index(string(raw), `"vocals"`), strings.Index(string(raw), `"bass"`))

	paths := analyzer.calls()
	require.Len(t, paths, 1)
	assert.Equal(t, filepath.Join(cfg.UploadDir, "song.wav"), paths[0])
	saved, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.Equal(t, "RIFF fake", string(saved))
}

func TestAnalyzeUploadStripsDirectories(t *testing.T) {
	analyzer := &fakeAnalyzer{}
	srv, cfg := newTestServer(t, analyzer, nil)

	resp := upload(t, srv.URL, "mix", "../../etc/evil.wav", []byte("x"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	paths := analyzer.calls()
	require.Len(t, paths, 1)
	assert.Equal(t, filepath.Join(cfg.UploadDir, "evil.wav"), paths[0])
}

func TestAnalyzeNoFile(t *testing.T) {
	analyzer := &fakeAnalyzer{}
	srv, _ := newTestServer(t, analyzer, nil)

	resp := upload(t, srv.URL, "", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "no mix file uploaded", decodeBody(t, resp.Body)["error"])

	resp = upload(t, srv.URL, "other", "a.wav", []byte("x"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, analyzer.calls())
}

func TestAnalyzeFailure(t *testing.T) {
	analyzer := &fakeAnalyzer{err: errors.New("separation produced no stems")}
	srv, _ := newTestServer(t, analyzer, nil)

	resp := upload(t, srv.URL, "mix", "song.wav", []byte("x"))
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "separation produced no stems", decodeBody(t, resp.Body)["error"])
}

func TestAnalyzeTooLarge(t *testing.T) {
	analyzer := &fakeAnalyzer{}
	srv, _ := newTestServer(t, analyzer, nil)

	resp := upload(t, srv.URL, "mix", "big.wav", bytes.Repeat([]byte{1}, 256<<10))
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	assert.Empty(t, analyzer.calls())
}

func TestReports(t *testing.T) {
	history, err := store.OpenHistory(":memory:")
	require.NoError(t, err)
	defer history.Close()

	report := &model.Report{
		ID:             "abc",
		SourceFileName: "song.wav",
		CreatedAt:      time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC),
		MixProfile:     model.MixBandProfile{1, 2, 3, 4, 5},
		Stems:          []model.StemResult{{Name: "vocals", Role: config.RoleVocal, Suggestions: []model.Suggestion{}}},
	}
	require.NoError(t, history.Save(context.Background(), report))

	srv, _ := newTestServer(t, &fakeAnalyzer{}, history)

	resp, err := http.Get(srv.URL + "/reports")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list []store.ReportSummary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Len(t, list, 1)
	assert.Equal(t, "abc", list[0].ID)
	assert.Equal(t, 1, list[0].Stems)

	resp2, err := http.Get(srv.URL + "/reports/abc")
	require.NoError(t, err)
	defer resp2.Body.Close()
	require.Equal(t, http.StatusOK, resp2.StatusCode)

	var got model.Report
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&got))
	assert.Equal(t, "song.wav", got.SourceFileName)
	assert.Equal(t, []string{"vocals"}, got.StemNames())

	resp3, err := http.Get(srv.URL + "/reports/missing")
	require.NoError(t, err)
	defer resp3.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp3.StatusCode)
}

func TestReportsDisabled(t *testing.T) {
	srv, _ := newTestServer(t, &fakeAnalyzer{}, nil)

	resp, err := http.Get(srv.URL + "/reports")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t, &fakeAnalyzer{}, nil)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", decodeBody(t, resp.Body)["status"])

	resp2, err := http.Get(srv.URL + "/analyze")
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp2.StatusCode)
}

func TestListenAndServeShutdown(t *testing.T) {
	s := New(config.ServerConfig{Addr: "127.0.0.1:0"}, &fakeAnalyzer{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
