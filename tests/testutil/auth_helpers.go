package testutil

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

// PerformRequest sends a JSON request to handler. token, when set, is sent as a bearer token.
func PerformRequest(t *testing.T, handler http.Handler, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

// DecodeResponse decodes a JSON response body
func DecodeResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response), "body: %s", w.Body.String())
	return response
}

// ErrorCode returns error.code from an error envelope
func ErrorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()

	response := DecodeResponse(t, w)
	errObj, ok := response["error"].(map[string]interface{})
	require.True(t, ok, "expected error envelope, got %s", w.Body.String())
	code, _ := errObj["code"].(string)
	return code
}

// PerformUpload sends a multipart form with content under the "file" field
func PerformUpload(t *testing.T, handler http.Handler, path, filename string, content []byte, token string) *httptest.ResponseRecorder {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

// Data returns the data member of a success envelope as an object
func Data(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	response := DecodeResponse(t, w)
	require.Equal(t, true, response["success"], "expected success envelope, got %s", w.Body.String())
	data, ok := response["data"].(map[string]interface{})
	require.True(t, ok, "expected object data, got %s", w.Body.String())
	return data
}

// DataList returns the data member of a success envelope as an array
func DataList(t *testing.T, w *httptest.ResponseRecorder) []interface{} {
	t.Helper()

	response := DecodeResponse(t, w)
	require.Equal(t, true, response["success"], "expected success envelope, got %s", w.Body.String())
	data, ok := response["data"].([]interface{})
	require.True(t, ok, "expected array data, got %s", w.Body.String())
	return data
}
