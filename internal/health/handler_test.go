package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"tablebook/pkg/logger"

	"github.com/julienschmidt/httprouter"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type mockMongo struct{ err error }

func (m mockMongo) Ping(context.Context, *readpref.ReadPref) error { return m.err }

type mockRedis struct{ err error }

func (m mockRedis) Ping(ctx context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", m.err)
}

func TestHealth(t *testing.T) {
	router := httprouter.New()
	NewHealthHandler(mockMongo{err: errors.New("down")}, nil, logger.Discard()).RegisterRoutes(router)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("liveness must not depend on the database, got %d", rec.Code)
	}
}

func TestReady(t *testing.T) {
	tests := []struct {
		name       string
		mongo      MongoPinger
		redis      RedisPinger
		wantStatus int
		want       HealthResponse
	}{
		{
			name:       "mongo only, healthy",
			mongo:      mockMongo{},
			wantStatus: http.StatusOK,
			want:       HealthResponse{Status: "ready", Database: "ok"},
		},
		{
			name:       "mongo down",
			mongo:      mockMongo{err: errors.New("timeout")},
			wantStatus: http.StatusServiceUnavailable,
			want:       HealthResponse{Status: "unavailable", Database: "error"},
		},
		{
			name:       "with redis, healthy",
			mongo:      mockMongo{},
			redis:      mockRedis{},
			wantStatus: http.StatusOK,
			want:       HealthResponse{Status: "ready", Database: "ok", Cache: "ok"},
		},
		{
			name:       "redis down",
			mongo:      mockMongo{},
			redis:      mockRedis{err: errors.New("refused")},
			wantStatus: http.StatusServiceUnavailable,
			want:       HealthResponse{Status: "unavailable", Database: "ok", Cache: "error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := httprouter.New()
			NewHealthHandler(tt.mongo, tt.redis, logger.Discard()).RegisterRoutes(router)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, rec.Code)
			}

			var got HealthResponse
			if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}
