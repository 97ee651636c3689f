package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"reptisync/internal/app/client/config"
	"reptisync/internal/domain/entity"
	"reptisync/internal/domain/sync"
)

func newTestHTTPClient(t *testing.T, handler http.HandlerFunc) *httpClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		ServerAddress: strings.TrimPrefix(srv.URL, "http://"),
		Token:         "secret",
		Timeout:       5 * time.Second,
	}
	return NewHTTPClient(cfg, slog.Default())
}

func TestHTTPClient_Pull(t *testing.T) {
	// Arrange
	var gotQuery, gotAuth string
	c := newTestHTTPClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("since")
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"reptiles":[{"id":"r-1","name":"Monty"}],"feedings":[],"sheds":[],
			"weights":[],"environmentLogs":[],"photos":[],"summary":{"reptiles":1,"total":1},"serverTimestamp":1714557600000}}`))
	})

	// Act
	data, err := c.Pull(context.Background(), 1714550000000)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "1714550000000", gotQuery)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, int64(1714557600000), data.ServerTimestamp)
	require.Len(t, data.Reptiles, 1)
	assert.Equal(t, "Monty", data.Reptiles[0]["name"])
	assert.Equal(t, 1, data.Summary.Total)
}

func TestHTTPClient_PushBatch(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr bool
	}{
		{
			name:   "results match items",
			status: http.StatusOK,
			body:   `{"data":{"results":[{"success":true,"conflict":false}],"summary":{"total":1,"success":1}}}`,
		},
		{
			name:    "result count mismatch",
			status:  http.StatusOK,
			body:    `{"data":{"results":[],"summary":{"total":0}}}`,
			wantErr: true,
		},
		{
			name:    "error envelope",
			status:  http.StatusBadRequest,
			body:    `{"error":{"code":"INVALID_TABLE","message":"invalid table: \"cages\""}}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			var got batchRequest
			c := newTestHTTPClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/sync/batch", r.URL.Path)
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			items := []BatchItem{{
				Table:     entity.Reptiles,
				Operation: OperationRequest{Operation: sync.OpDelete, RecordID: "r-1", ClientTimestamp: 1},
			}}

			// Act
			out, err := c.PushBatch(context.Background(), items)

			// Assert
			require.Len(t, got.Operations, 1)
			assert.Equal(t, "r-1", got.Operations[0].Operation.RecordID)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, out.Results[0].Success)
		})
	}
}

func TestHTTPClient_ErrorEnvelope(t *testing.T) {
	// Arrange
	c := newTestHTTPClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"code":"UNAUTHORIZED","message":"invalid or expired token"}}`))
	})

	// Act
	err := c.HealthCheck(context.Background())

	// Assert
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "UNAUTHORIZED", apiErr.Code)
	assert.Equal(t, "invalid or expired token", apiErr.Message)
}

func TestHTTPClient_UnknownErrorBody(t *testing.T) {
	// Arrange
	c := newTestHTTPClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("bad gateway"))
	})

	// Act
	_, err := c.Pull(context.Background(), 0)

	// Assert
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "UNKNOWN", apiErr.Code)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
}
