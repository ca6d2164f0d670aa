package queue

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisPayloadUnmarshalBase64Images(t *testing.T) {
	raw := `{
		"jobId": "job-1",
		"vehicleRef": "WV-2041",
		"images": ["aHVi", "Y29kZQ=="],
		"imageUrls": ["https://capture.local/img/3.jpg"]
	}`

	var payload RedisPayload
	require.NoError(t, json.Unmarshal([]byte(raw), &payload))

	assert.Equal(t, "job-1", payload.JobID)
	assert.Equal(t, "WV-2041", payload.VehicleRef)
	require.Len(t, payload.Images, 2)
	assert.Equal(t, []byte("hub"), payload.Images[0])
	assert.Equal(t, []byte("code"), payload.Images[1])
	assert.Equal(t, []string{"https://capture.local/img/3.jpg"}, payload.ImageURLs)
}

func TestRedisPayloadUnmarshalLegacyBufferObjects(t *testing.T) {
	raw := `{
		"jobId": "job-2",
		"images": [{"type": "Buffer", "data": [104, 117, 98]}]
	}`

	var payload RedisPayload
	require.NoError(t, json.Unmarshal([]byte(raw), &payload))

	require.Len(t, payload.Images, 1)
	assert.Equal(t, []byte("hub"), payload.Images[0])
}

func TestRedisPayloadUnmarshalRejectsInvalidImages(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"bad base64", `{"jobId": "j", "images": ["!!not-base64!!"]}`},
		{"wrong buffer type", `{"jobId": "j", "images": [{"type": "Blob", "data": [1]}]}`},
		{"missing data array", `{"jobId": "j", "images": [{"type": "Buffer"}]}`},
		{"unsupported entry type", `{"jobId": "j", "images": [42]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var payload RedisPayload
			assert.Error(t, json.Unmarshal([]byte(tt.raw), &payload))
		})
	}
}

func TestRedisJobDataUnmarshal(t *testing.T) {
	raw := `{
		"id": "queue-entry-9",
		"type": "recognize-hub",
		"payload": {"jobId": "job-9", "imageUrls": ["https://capture.local/a.jpg"]},
		"attempts": 1,
		"maxRetries": 3
	}`

	var job RedisJobData
	require.NoError(t, json.Unmarshal([]byte(raw), &job))

	assert.Equal(t, "queue-entry-9", job.ID)
	assert.Equal(t, TaskRecognizeHub, job.Type)
	assert.Equal(t, "job-9", job.Payload.JobID)
	assert.Equal(t, 1, job.Attempts)
	assert.Equal(t, 3, job.MaxRetries)
}
