package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// RawEvent represents an unprocessed message from the request topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// OutputEvent is the serialized form destined for the report topic.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// ArtifactKind selects how an artifact is compared.
type ArtifactKind string

const (
	ArtifactTable  ArtifactKind = "table"
	ArtifactBinary ArtifactKind = "binary"
)

// KindForName infers the artifact kind from a file extension: delimited text
// is a table, anything else (rendered images) is compared as bytes.
func KindForName(name string) ArtifactKind {
	if strings.EqualFold(filepath.Ext(name), ".csv") {
		return ArtifactTable
	}
	return ArtifactBinary
}

// VerificationRequest is published by a producer once an actual artifact has
// been written to the results layout.
type VerificationRequest struct {
	Name  string       `json:"name"`
	Kind  ArtifactKind `json:"kind,omitempty"`
	RunID string       `json:"run_id,omitempty"`
}

// ParseRawEvent deserializes a request message and fills the kind from the
// artifact name when the producer left it out.
func ParseRawEvent(raw RawEvent) (VerificationRequest, error) {
	var req VerificationRequest
	if err := json.Unmarshal(raw.Value, &req); err != nil {
		return VerificationRequest{}, fmt.Errorf("parse verification request: %w", err)
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return VerificationRequest{}, errors.New("parse verification request: name is required")
	}
	if filepath.Base(req.Name) != req.Name {
		return VerificationRequest{}, fmt.Errorf("parse verification request: name %q must not contain directories", req.Name)
	}
	switch req.Kind {
	case "":
		req.Kind = KindForName(req.Name)
	case ArtifactTable, ArtifactBinary:
	default:
		return VerificationRequest{}, fmt.Errorf("parse verification request: unknown kind %q", req.Kind)
	}
	return req, nil
}
