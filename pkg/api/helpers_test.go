package api

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/cperd/pkg/cper"
	"github.com/ssargent/cperd/pkg/recordid"
	"github.com/ssargent/cperd/pkg/store"
)

const testAPIKey = "test-key"

func fixedIDs() *recordid.Generator {
	return recordid.New(func() time.Time { return time.Unix(1700000000, 0) })
}

// memoryRecord is a corrected record with one memory section carrying a
// physical address.
func memoryRecord() []byte {
	payload := make([]byte, cper.MemorySectionSize)
	binary.LittleEndian.PutUint64(payload[0:8], cper.MemValidPA)
	binary.LittleEndian.PutUint64(payload[16:24], 0x1234567000)
	return record(cper.SeverityCorrected, section(cper.SectionPlatformMemory, payload, uint32(len(payload))))
}

func section(typ cper.GUID, payload []byte, declared uint32) []byte {
	b := make([]byte, cper.SectionHeaderSize+len(payload))
	copy(b[0:16], typ[:])
	binary.LittleEndian.PutUint32(b[16:20], uint32(cper.SeverityCorrected))
	binary.LittleEndian.PutUint32(b[24:28], declared)
	copy(b[cper.SectionHeaderSize:], payload)
	return b
}

func record(severity cper.Severity, sections ...[]byte) []byte {
	data := bytes.Join(sections, nil)
	buf := make([]byte, cper.RecordHeaderSize, cper.RecordHeaderSize+len(data))
	binary.LittleEndian.PutUint32(buf[12:16], uint32(len(data)))
	binary.LittleEndian.PutUint32(buf[16:20], uint32(severity))
	return append(buf, data...)
}

type testServer struct {
	server   *Server
	handler  http.Handler
	registry *prometheus.Registry
}

func newTestServer(t *testing.T, records store.RecordStore, config ServerConfig) *testServer {
	t.Helper()
	if config.APIKey == "" {
		config.APIKey = testAPIKey
	}
	reg := prometheus.NewRegistry()
	s := NewServer(records, nil, config, NewMetrics(reg, reg))
	return &testServer{server: s, handler: s.Routes(), registry: reg}
}

func openErrorLog(t *testing.T) *store.ErrorLog {
	t.Helper()
	l, err := store.NewErrorLog(store.ErrorLogConfig{DataDir: t.TempDir(), IDs: fixedIDs()})
	require.NoError(t, err)
	_, err = l.Open()
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func (ts *testServer) do(t *testing.T, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("X-API-Key", testAPIKey)
	req.Header.Set("Content-Type", "application/octet-stream")
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)
	return w
}

// response decodes an APIResponse, re-decoding Data into data when set
func response(t *testing.T, w *httptest.ResponseRecorder, data interface{}) APIResponse {
	t.Helper()
	var raw struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   string          `json:"error"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&raw))
	if data != nil && len(raw.Data) > 0 {
		require.NoError(t, json.Unmarshal(raw.Data, data))
	}
	return APIResponse{Success: raw.Success, Data: data, Error: raw.Error}
}
