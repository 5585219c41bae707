package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealership/backend/internal/domain/workflow"
	"github.com/dealership/backend/internal/interfaces/http/middleware"
)

// TestContext bundles a gin context with its response recorder.
type TestContext struct {
	Context  *gin.Context
	Recorder *httptest.ResponseRecorder
}

// NewJSONRequest builds a gin test context carrying a JSON body. Pass a
// nil body for requests without one.
func NewJSONRequest(t *testing.T, method, path string, body any) *TestContext {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err, "failed to marshal request body")
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, path, reader)
	if body != nil {
		c.Request.Header.Set("Content-Type", "application/json")
	}

	return &TestContext{Context: c, Recorder: w}
}

// SetParam sets a path parameter on the context, as the router would.
func (tc *TestContext) SetParam(name, value string) {
	tc.Context.Params = append(tc.Context.Params, gin.Param{Key: name, Value: value})
}

// SetActor authenticates the request with the given workflow actor.
func (tc *TestContext) SetActor(actor workflow.Actor) {
	tc.Context.Set(middleware.ActorKey, actor)
}

// Code returns the recorded HTTP status.
func (tc *TestContext) Code() int {
	return tc.Recorder.Code
}

// JSONResponse parses the recorded response body as a JSON object.
func JSONResponse(t *testing.T, tc *TestContext) map[string]any {
	t.Helper()

	var result map[string]any
	require.NoError(t, json.Unmarshal(tc.Recorder.Body.Bytes(), &result),
		"failed to parse JSON response")
	return result
}

// AssertSuccess asserts a 200 envelope with success=true and no error.
func AssertSuccess(t *testing.T, tc *TestContext) {
	t.Helper()

	assert.Equal(t, http.StatusOK, tc.Code())
	resp := JSONResponse(t, tc)
	assert.Equal(t, true, resp["success"])
	assert.Nil(t, resp["error"])
}

// AssertError asserts the status and the error code in the envelope.
func AssertError(t *testing.T, tc *TestContext, status int, code string) {
	t.Helper()

	assert.Equal(t, status, tc.Code())
	resp := JSONResponse(t, tc)
	assert.Equal(t, false, resp["success"])

	errMap, ok := resp["error"].(map[string]any)
	require.True(t, ok, "expected an error object in the response")
	assert.Equal(t, code, errMap["code"])
}
