package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/pipeline-tokens/internal/metrics"
	"github.com/iliyamo/pipeline-tokens/internal/middleware"
	"github.com/iliyamo/pipeline-tokens/internal/model"
	"github.com/iliyamo/pipeline-tokens/internal/service"
)

type stubRefresher struct {
	got  service.RefreshRequest
	tok  *model.Token
	err  error
	hits int
}

func (s *stubRefresher) Refresh(_ context.Context, req service.RefreshRequest) (*model.Token, error) {
	s.hits++
	s.got = req
	return s.tok, s.err
}

func call(t *testing.T, h *TokenHandler, pipelineID, tokenID string, authenticated bool) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPut, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/v1/pipelines/:pipelineId/tokens/:tokenId/refresh")
	c.SetParamNames("pipelineId", "tokenId")
	c.SetParamValues(pipelineID, tokenID)
	if authenticated {
		middleware.SetIdentity(c, "alice", "github:github.com", "user")
	}
	require.NoError(t, h.Refresh(c))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestRefresh_Success(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	stub := &stubRefresher{tok: &model.Token{ID: 5, PipelineID: 3, Name: "deploy", Description: "cd", Hash: "secret-hash", Value: "new-value"}}
	rec := call(t, NewTokenHandler(stub, m), "3", "5", true)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, service.RefreshRequest{PipelineID: 3, TokenID: 5, Username: "alice", SCMContext: "github:github.com"}, stub.got)

	body := decode(t, rec)
	assert.Equal(t, "new-value", body["value"])
	assert.Equal(t, "deploy", body["name"])
	assert.Equal(t, float64(3), body["pipelineId"])
	assert.NotContains(t, body, "hash")
	assert.NotContains(t, rec.Body.String(), "secret-hash")

	n, err := testutil.GatherAndCount(reg, "pipeline_token_refresh_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRefresh_ErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"token not found", service.NotFound("Token does not exist"), http.StatusNotFound, "Token does not exist"},
		{"pipeline not found", service.NotFound("Pipeline does not exist"), http.StatusNotFound, "Pipeline does not exist"},
		{"user not found", service.NotFound("User does not exist"), http.StatusNotFound, "User does not exist"},
		{"not admin", service.Unauthorized("User alice is not an admin of this repo"), http.StatusUnauthorized, "User alice is not an admin of this repo"},
		{"foreign token", service.Forbidden("Pipeline does not own token"), http.StatusForbidden, "Pipeline does not own token"},
		{"store failure", fmt.Errorf("load token: %w", errors.New("dial tcp 10.0.0.5:3306: refused")), http.StatusInternalServerError, "internal server error"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := call(t, NewTokenHandler(&stubRefresher{err: tc.err}, nil), "1", "1", true)
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.message, decode(t, rec)["error"])
		})
	}
}

func TestRefresh_InvalidIDs(t *testing.T) {
	tests := []struct {
		pipelineID, tokenID, message string
	}{
		{"abc", "1", "invalid pipeline id"},
		{"0", "1", "invalid pipeline id"},
		{"-4", "1", "invalid pipeline id"},
		{"1", "x", "invalid token id"},
		{"1", "0", "invalid token id"},
	}
	for _, tc := range tests {
		stub := &stubRefresher{}
		rec := call(t, NewTokenHandler(stub, nil), tc.pipelineID, tc.tokenID, true)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, tc.message, decode(t, rec)["error"])
		assert.Zero(t, stub.hits)
	}
}

func TestRefresh_RequiresIdentity(t *testing.T) {
	stub := &stubRefresher{}
	rec := call(t, NewTokenHandler(stub, nil), "1", "1", false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, stub.hits)
}
