package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ssargent/cperd/pkg/cper"
	"github.com/ssargent/cperd/pkg/report"
	"github.com/ssargent/cperd/pkg/store"
)

// Server holds the API server state
type Server struct {
	records store.RecordStore
	decoder *cper.Decoder
	config  ServerConfig
	metrics *Metrics
}

// NewServer creates a new API server. A nil decoder uses the default
// section registry without memory module resolution.
func NewServer(records store.RecordStore, decoder *cper.Decoder, config ServerConfig, metrics *Metrics) *Server {
	if decoder == nil {
		decoder = cper.NewDecoder()
	}
	if config.MaxRecordSize <= 0 {
		config.MaxRecordSize = defaultMaxRecordSize
	}
	return &Server{
		records: records,
		decoder: decoder,
		config:  config,
		metrics: metrics,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.metrics.RecordHealthCheck(true)
	sendSuccess(w, map[string]string{"status": "healthy"})
}

// readRecord reads the request body as one raw CPER record
func (s *Server) readRecord(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.config.MaxRecordSize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			sendError(w, fmt.Sprintf("Record exceeds %d bytes", tooLarge.Limit), http.StatusRequestEntityTooLarge)
			return nil, false
		}
		sendError(w, "Failed to read request body", http.StatusBadRequest)
		return nil, false
	}
	if len(body) == 0 {
		sendError(w, "Record is required", http.StatusBadRequest)
		return nil, false
	}
	return body, true
}

// handleDecode decodes the posted record tolerantly. Sections decoded
// before a structural fault are returned along with the fault; only a
// malformed header fails the request. ?format=text selects the console
// format instead of JSON.
func (s *Server) handleDecode(w http.ResponseWriter, r *http.Request) {
	raw, ok := s.readRecord(w, r)
	if !ok {
		return
	}
	s.writeDecoded(w, r, raw)
}

func (s *Server) writeDecoded(w http.ResponseWriter, r *http.Request, raw []byte) {
	rec, err := s.decoder.Decode(raw)
	s.metrics.RecordDecode(rec, err)
	if rec == nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if rerr := report.Write(report.NewTextSink(w, ""), rec); rerr != nil {
			plog.Warningf("failed to write text report: %v", rerr)
			return
		}
		if err != nil {
			fmt.Fprintf(w, "error: %v\n", err)
		}
		return
	}

	sendSuccess(w, report.NewDocument(rec, err))
}

// handleCheck runs the strict validation over the posted record. An
// invalid record is a successful check with Valid unset.
func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	raw, ok := s.readRecord(w, r)
	if !ok {
		return
	}
	sendSuccess(w, newCheckResponse(cper.Check(raw)))
}

func newCheckResponse(err error) CheckResponse {
	if err == nil {
		return CheckResponse{Valid: true}
	}
	resp := CheckResponse{Error: err.Error()}
	var verr *cper.ValidationError
	if errors.As(err, &verr) {
		resp.Kind = validationKind(verr.Err)
		offset := verr.Offset
		resp.Offset = &offset
		if verr.Section >= 0 {
			section := verr.Section
			resp.Section = &section
		}
	}
	return resp
}

func validationKind(err error) string {
	switch {
	case errors.Is(err, cper.ErrMalformedHeader):
		return "malformed_header"
	case errors.Is(err, cper.ErrSectionOverrun):
		return "section_overrun"
	case errors.Is(err, cper.ErrTrailingBytes):
		return "trailing_bytes"
	case errors.Is(err, cper.ErrSectionTooSmall):
		return "section_too_small"
	}
	return "unknown"
}

// handleCreateRecord persists a strictly valid record under a new ID
func (s *Server) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	raw, ok := s.readRecord(w, r)
	if !ok {
		return
	}

	id, err := s.records.Write(raw)
	s.metrics.RecordStore(err)
	if err != nil {
		if errors.Is(err, store.ErrInvalidRecord) {
			sendError(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		sendError(w, fmt.Sprintf("Failed to store record: %v", err), http.StatusInternalServerError)
		return
	}

	sendStatus(w, newRecordResponse(id), http.StatusCreated)
}

func newRecordResponse(id uint64) RecordResponse {
	return RecordResponse{ID: id, IDHex: fmt.Sprintf("%#x", id)}
}

// handleListRecords lists stored record IDs. ?limit keeps the first n.
func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			sendError(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	ids, err := s.records.IDs(r.Context())
	if err != nil {
		sendError(w, fmt.Sprintf("Failed to list records: %v", err), http.StatusInternalServerError)
		return
	}
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	if ids == nil {
		ids = []uint64{}
	}

	sendSuccess(w, RecordListResponse{IDs: ids, Count: len(ids)})
}

// recordID parses the {id} URL parameter. Decimal and 0x-prefixed hex
// are both accepted.
func recordID(r *http.Request) (uint64, error) {
	return strconv.ParseUint(chi.URLParam(r, "id"), 0, 64)
}

// fetchRecord reads the record named by the URL, writing the error
// response itself when it cannot
func (s *Server) fetchRecord(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	id, err := recordID(r)
	if err != nil {
		sendError(w, "Invalid record ID", http.StatusBadRequest)
		return nil, false
	}
	raw, err := s.records.Read(id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			sendError(w, "Record not found", http.StatusNotFound)
			return nil, false
		}
		sendError(w, fmt.Sprintf("Failed to read record: %v", err), http.StatusInternalServerError)
		return nil, false
	}
	return raw, true
}

// handleGetRecord returns the stored record bytes
func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	raw, ok := s.fetchRecord(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.Itoa(len(raw)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(raw); err != nil {
		plog.Warningf("failed to write record: %v", err)
	}
}

// handleDecodeRecord decodes a stored record
func (s *Server) handleDecodeRecord(w http.ResponseWriter, r *http.Request) {
	raw, ok := s.fetchRecord(w, r)
	if !ok {
		return
	}
	s.writeDecoded(w, r, raw)
}

func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	id, err := recordID(r)
	if err != nil {
		sendError(w, "Invalid record ID", http.StatusBadRequest)
		return
	}
	if err := s.records.Delete(id); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			sendError(w, "Record not found", http.StatusNotFound)
			return
		}
		sendError(w, fmt.Sprintf("Failed to delete record: %v", err), http.StatusInternalServerError)
		return
	}
	sendSuccess(w, newRecordResponse(id))
}

func (s *Server) handleQuarantine(w http.ResponseWriter, r *http.Request) {
	q, ok := s.records.(QuarantineLister)
	if !ok {
		sendError(w, "Storage backend keeps no quarantine", http.StatusNotFound)
		return
	}
	entries, err := q.Quarantined(r.Context())
	if err != nil {
		sendError(w, fmt.Sprintf("Failed to list quarantine: %v", err), http.StatusInternalServerError)
		return
	}
	sendSuccess(w, QuarantineResponse{Entries: entries, Count: len(entries)})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	sp, ok := s.records.(StatsProvider)
	if !ok {
		sendError(w, "Storage backend reports no statistics", http.StatusNotFound)
		return
	}
	stats := sp.Stats()
	s.metrics.UpdateStoreStats(stats)
	sendSuccess(w, stats)
}

// startMetricsUpdater periodically updates store metrics until ctx is done
func (s *Server) startMetricsUpdater(ctx context.Context, interval time.Duration) {
	sp, ok := s.records.(StatsProvider)
	if !ok {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.metrics.UpdateStoreStats(sp.Stats())
		}
	}
}
