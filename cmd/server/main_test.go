package main

import (
	"context"
	"io"
	"log/slog"
	"testing"
)

func TestCloseAuditWithoutKafkaConfigured(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	// Kafka is optional; shutdown must tolerate a nil publisher.
	closeAudit(context.Background(), nil, log)
}
