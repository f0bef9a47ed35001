package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/forumfront/internal/apperror"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		kind    string
		message string
	}{
		{"validation", apperror.ValidationFailed("title", "topic title is required"), 400, "validation_error", "topic title is required"},
		{"unauthorized", apperror.Unauthorized("sign in to reply"), 401, "unauthorized", "sign in to reply"},
		{"forbidden", apperror.Forbidden("nope"), 403, "forbidden", "nope"},
		{"not found", apperror.NotFound("topic", "9"), 404, "not_found", "topic not found with id 9"},
		{"upstream wrapped", fmt.Errorf("loading: %w", apperror.Upstream(503, "down")), 502, "upstream_error", "down"},
		{"raw error", errors.New("dial tcp 10.0.0.1:8000: connection refused"), 500, "internal_error", "An internal error occurred"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			writeError(rr, tt.err)

			assert.Equal(t, tt.status, rr.Code)
			var body ErrorResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
			assert.Equal(t, tt.kind, body.Error)
			assert.Equal(t, tt.message, body.Message)
		})
	}
}

func TestParseIDs(t *testing.T) {
	ids, err := parseIDs(" 3, 1,,2 ")
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 1, 2}, ids)

	ids, err = parseIDs("")
	require.NoError(t, err)
	assert.Empty(t, ids)

	_, err = parseIDs("1,two")
	assert.True(t, errors.Is(err, apperror.ErrValidation))
}

func TestDecodeJSON(t *testing.T) {
	var dst map[string]string

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	err := decodeJSON(httptest.NewRecorder(), req, &dst)
	assert.True(t, errors.Is(err, apperror.ErrValidation))

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"content":"hi"}`))
	require.NoError(t, decodeJSON(httptest.NewRecorder(), req, &dst))
	assert.Equal(t, "hi", dst["content"])
}

func TestDecodeJSON_RejectsOversizedBody(t *testing.T) {
	body := `{"content":"` + strings.Repeat("a", maxJSONBody) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))

	var dst map[string]string
	err := decodeJSON(httptest.NewRecorder(), req, &dst)

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "request body is too large", appErr.Message)
}

func TestParseMultipart_RejectsOversizedBody(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("files", "big.jpg")
	require.NoError(t, err)
	_, err = fw.Write(bytes.Repeat([]byte{0xff}, maxUploadBody+1))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	err = parseMultipart(httptest.NewRecorder(), req)

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "files", appErr.Field)
}
