package api

import (
	"github.com/ssargent/cperd/pkg/storage"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Port          int
	Bind          string
	APIKey        string
	MaxRecordSize int64 // request bodies beyond this are rejected
}

// defaultMaxRecordSize applies when ServerConfig.MaxRecordSize is unset
const defaultMaxRecordSize = 1 << 20

// CheckResponse is the result of a strict validation
type CheckResponse struct {
	Valid   bool   `json:"valid"`
	Error   string `json:"error,omitempty"`
	Kind    string `json:"kind,omitempty"`
	Section *int   `json:"section,omitempty"`
	Offset  *int   `json:"offset,omitempty"`
}

// RecordResponse identifies a stored record
type RecordResponse struct {
	ID    uint64 `json:"id"`
	IDHex string `json:"id_hex"`
}

// RecordListResponse lists stored record IDs in ascending order
type RecordListResponse struct {
	IDs   []uint64 `json:"ids"`
	Count int      `json:"count"`
}

// QuarantineResponse lists records the archive refused to store
type QuarantineResponse struct {
	Entries []storage.QuarantineEntry `json:"entries"`
	Count   int                       `json:"count"`
}
