package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "clinica/pkg/domain"
)

func TestLogPublisher_EmitsStructuredRecord(t *testing.T) {
	var buf bytes.Buffer
	pub := NewLogPublisher(slog.New(slog.NewJSONHandler(&buf, nil)))

	tenantID, err := id.ParseTenantID("6f1c8a52-3a9e-4b0f-9d2c-1f6e8b7a5c43")
	require.NoError(t, err)

	err = pub.Emit(context.Background(), Event{
		TenantID:  tenantID,
		Action:    string(EventTenantSuspended),
		Subject:   tenantID.String(),
		Reason:    "billing",
		RequestID: "req-1",
		ActorID:   "operator",
	})
	require.NoError(t, err)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "audit", record["msg"])
	assert.Equal(t, "tenant_suspended", record["action"])
	assert.Equal(t, "security", record["category"])
	assert.Equal(t, tenantID.String(), record["tenant_id"])
	assert.Equal(t, "billing", record["reason"])
}

func TestNormalize_FillsTimestampAndCategory(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	event := normalize(Event{Action: string(EventTenantRegistered)}, func() time.Time { return fixed })
	assert.Equal(t, fixed, event.Timestamp)
	assert.Equal(t, CategoryCompliance, event.Category)

	// Explicit values are never overwritten.
	earlier := fixed.Add(-time.Hour)
	event = normalize(Event{
		Action:    string(EventTenantRegistered),
		Timestamp: earlier,
		Category:  CategoryOperations,
	}, func() time.Time { return fixed })
	assert.Equal(t, earlier, event.Timestamp)
	assert.Equal(t, CategoryOperations, event.Category)
}

func TestAuditEvent_CategoryMapping(t *testing.T) {
	assert.Equal(t, CategoryCompliance, EventPatientCreated.Category())
	assert.Equal(t, CategorySecurity, EventOperatorBypassUsed.Category())
	assert.Equal(t, CategorySecurity, EventScopeBindingFailed.Category())
	assert.Equal(t, CategoryOperations, EventSharedCatalogSeeded.Category())
	assert.Equal(t, CategoryOperations, AuditEvent("something_new").Category())
}

type stubPublisher struct {
	events []Event
	err    error
}

func (s *stubPublisher) Emit(_ context.Context, event Event) error {
	s.events = append(s.events, event)
	return s.err
}

func TestFanout_EmitsToAllSinksAndKeepsFirstError(t *testing.T) {
	a := &stubPublisher{err: errors.New("sink a down")}
	b := &stubPublisher{}

	err := Fanout{a, b}.Emit(context.Background(), Event{Action: "x"})
	assert.EqualError(t, err, "sink a down")
	assert.Len(t, a.events, 1)
	assert.Len(t, b.events, 1)
}
