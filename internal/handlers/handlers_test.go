package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	pkgerrors "github.com/caelexhq/caelex-backend/internal/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRespondServiceErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{name: "invalid argument", err: fmt.Errorf("bad profile: %w", pkgerrors.ErrInvalidArgument), wantStatus: http.StatusBadRequest, wantCode: "invalid_argument"},
		{name: "unauthorized", err: pkgerrors.ErrUnauthorized, wantStatus: http.StatusUnauthorized, wantCode: "unauthorized"},
		{name: "limit exceeded", err: pkgerrors.ErrLimitExceeded, wantStatus: http.StatusPaymentRequired, wantCode: "limit_exceeded"},
		{name: "forbidden", err: pkgerrors.ErrForbidden, wantStatus: http.StatusForbidden, wantCode: "forbidden"},
		{name: "not found", err: fmt.Errorf("assessment: %w", pkgerrors.ErrNotFound), wantStatus: http.StatusNotFound, wantCode: "not_found"},
		{name: "conflict", err: pkgerrors.ErrConflict, wantStatus: http.StatusConflict, wantCode: "conflict"},
		{name: "unknown error is opaque 500", err: fmt.Errorf("pq: connection refused"), wantStatus: http.StatusInternalServerError, wantCode: "internal"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)
			RespondServiceError(c, tc.err)

			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			body := rec.Body.String()
			if !strings.Contains(body, fmt.Sprintf("%q", tc.wantCode)) {
				t.Errorf("body %s missing code %q", body, tc.wantCode)
			}
			if tc.wantStatus == http.StatusInternalServerError && strings.Contains(body, "connection refused") {
				t.Errorf("internal error details leaked into response: %s", body)
			}
		})
	}
}

func TestDeorbitEstimate(t *testing.T) {
	router := gin.New()
	router.POST("/api/deorbit/estimate", NewDeorbitHandler().Estimate)

	cases := []struct {
		name       string
		body       string
		wantStatus int
		wantInBody []string
	}{
		{
			name:       "leo mission gets the five year rule",
			body:       `{"orbit_type":"LEO","altitude_km":550,"launch_date":"2026-03-01T00:00:00Z","mission_duration_years":5}`,
			wantStatus: http.StatusOK,
			wantInBody: []string{"fcc_5_year", `"required_disposal_years":5`, "2031-03-01", "2036-03-01"},
		},
		{
			name:       "geo mission gets the twenty five year rule",
			body:       `{"orbit_type":"GEO","altitude_km":35786,"launch_date":"2026-03-01T00:00:00Z","mission_duration_years":15}`,
			wantStatus: http.StatusOK,
			wantInBody: []string{"iadc_25_year", `"required_disposal_years":25`},
		},
		{
			name:       "unknown orbit type",
			body:       `{"orbit_type":"HALO","altitude_km":550,"launch_date":"2026-03-01T00:00:00Z","mission_duration_years":5}`,
			wantStatus: http.StatusBadRequest,
			wantInBody: []string{"invalid_orbit_type"},
		},
		{
			name:       "missing launch date",
			body:       `{"orbit_type":"LEO","altitude_km":550,"mission_duration_years":5}`,
			wantStatus: http.StatusBadRequest,
			wantInBody: []string{"invalid_launch_date"},
		},
		{
			name:       "non positive duration",
			body:       `{"orbit_type":"LEO","altitude_km":550,"launch_date":"2026-03-01T00:00:00Z","mission_duration_years":0}`,
			wantStatus: http.StatusBadRequest,
			wantInBody: []string{"invalid_mission_duration"},
		},
		{
			name:       "negative altitude",
			body:       `{"orbit_type":"LEO","altitude_km":-10,"launch_date":"2026-03-01T00:00:00Z","mission_duration_years":5}`,
			wantStatus: http.StatusBadRequest,
			wantInBody: []string{"invalid_altitude"},
		},
		{
			name:       "malformed json",
			body:       `{"orbit_type":`,
			wantStatus: http.StatusBadRequest,
			wantInBody: []string{"invalid_request"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/deorbit/estimate", strings.NewReader(tc.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tc.wantStatus, rec.Body.String())
			}
			for _, want := range tc.wantInBody {
				if !strings.Contains(rec.Body.String(), want) {
					t.Errorf("body %s missing %q", rec.Body.String(), want)
				}
			}
		})
	}
}
