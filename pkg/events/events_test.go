package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBaseEvent(t *testing.T) {
	before := time.Now().UTC()
	base := NewBaseEvent(RunStartedEvent, "graph-123")

	assert.NotEmpty(t, base.ID)
	assert.Equal(t, RunStartedEvent, base.Type)
	assert.Equal(t, "graph-123", base.GraphID)
	assert.NotNil(t, base.Metadata)
	assert.False(t, base.Timestamp.Before(before))
}

func TestRunRequested_JSONRoundTrip(t *testing.T) {
	original := RunRequested{
		BaseEvent:   NewBaseEvent(RunRequestedEvent, "graph-123"),
		RequestedBy: "api",
		TriggerData: map[string]any{"queue": "ideon:runs"},
	}

	jsonData, err := json.Marshal(original)
	require.NoError(t, err)
	assert.Contains(t, string(jsonData), `"type":"run.requested"`)
	assert.Contains(t, string(jsonData), `"graph_id":"graph-123"`)

	var decoded RunRequested

	require.NoError(t, json.Unmarshal(jsonData, &decoded))
	assert.Equal(t, original.GraphID, decoded.GraphID)
	assert.Equal(t, original.RequestedBy, decoded.RequestedBy)
}

func TestEventTypes(t *testing.T) {
	assert.Equal(t, RunRequestedEvent, RunRequested{}.GetType())
	assert.Equal(t, RunCancelRequestedEvent, RunCancelRequested{}.GetType())
	assert.Equal(t, RunStartedEvent, RunStarted{}.GetType())
	assert.Equal(t, NodeStartedEvent, NodeStarted{}.GetType())
	assert.Equal(t, NodeSucceededEvent, NodeSucceeded{}.GetType())
	assert.Equal(t, NodeFailedEvent, NodeFailed{}.GetType())
	assert.Equal(t, RunCompletedEvent, RunCompleted{}.GetType())
	assert.Equal(t, RunCancelledEvent, RunCancelled{}.GetType())
}

func TestRunCompleted_CountsSerialize(t *testing.T) {
	event := RunCompleted{
		BaseEvent:    NewBaseEvent(RunCompletedEvent, "graph-9"),
		RunID:        "run-1",
		DurationMs:   42,
		NodesDone:    2,
		NodesBlocked: 1,
		NodesPending: 0,
	}

	jsonData, err := json.Marshal(event)
	require.NoError(t, err)
	assert.Contains(t, string(jsonData), `"nodes_done":2`)
	assert.Contains(t, string(jsonData), `"nodes_blocked":1`)
	assert.Contains(t, string(jsonData), `"nodes_pending":0`)
}
