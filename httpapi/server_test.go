package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/camio/config"
)

const take = `advancedfx Cam
version %d
scaleFov none
DATA
0 1 2 3 0 0 0 90
1 4 5 6 0 10 20 90
`

func init() {
	gin.SetMode(gin.TestMode)
}

func takeVersion(v int) string {
	return fmt.Sprintf(take, v)
}

func do(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

// TestVersion tests the supported version query
func TestVersion(t *testing.T) {
	rec := do(t, New(config.Default(), nil), http.MethodGet, "/api/version", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, 2.0, body["max_supported_version"])
}

// TestConvert_Sheet tests a successful conversion with query overrides
func TestConvert_Sheet(t *testing.T) {
	rec := do(t, New(config.Default(), nil), http.MethodPost, "/api/convert?width=800&height=600&fps=60", takeVersion(2))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode(t, rec)
	assert.NotEmpty(t, body["run_id"])
	assert.Empty(t, body["warnings"])

	sheet := body["sheet"].(map[string]any)
	assert.Equal(t, "matrix", sheet["rotation_mode"])
	assert.Equal(t, 800.0, sheet["width"])
	assert.Equal(t, 60.0, sheet["frame_rate"])

	keyframes := sheet["keyframes"].([]any)
	require.Len(t, keyframes, 2)
	first := keyframes[0].(map[string]any)
	assert.Equal(t, []any{-2.0, -3.0, 1.0}, first["position"])
}

// TestConvert_Duration tests truncation through the query
func TestConvert_Duration(t *testing.T) {
	rec := do(t, New(config.Default(), nil), http.MethodPost, "/api/convert?fps=30&duration=0.01", takeVersion(2))
	require.Equal(t, http.StatusOK, rec.Code)

	sheet := decode(t, rec)["sheet"].(map[string]any)
	assert.Len(t, sheet["keyframes"], 1)
}

// TestConvert_UnsupportedVersion tests the conflict response and the retry
func TestConvert_UnsupportedVersion(t *testing.T) {
	s := New(config.Default(), nil)

	rec := do(t, s, http.MethodPost, "/api/convert", takeVersion(3))
	require.Equal(t, http.StatusConflict, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "unsupported_version", body["kind"])
	assert.Equal(t, 3.0, body["declared"])
	assert.Equal(t, 2.0, body["supported"])

	rec = do(t, s, http.MethodPost, "/api/convert?accept_newer=true", takeVersion(3))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["warnings"], 1)
}

// TestConvert_Errors tests rejected requests and fatal conversions
func TestConvert_Errors(t *testing.T) {
	cases := []struct {
		name   string
		target string
		body   string
		status int
		kind   string
	}{
		{"zero fps", "/api/convert?fps=0", takeVersion(2), http.StatusBadRequest, ""},
		{"fps not a number", "/api/convert?fps=fast", takeVersion(2), http.StatusBadRequest, ""},
		{"unknown mode", "/api/convert?mode=euler", takeVersion(2), http.StatusBadRequest, ""},
		{"unknown format", "/api/convert?format=xml", takeVersion(2), http.StatusBadRequest, ""},
		{"empty body", "/api/convert", "", http.StatusUnprocessableEntity, "empty_input"},
		{"bad magic", "/api/convert", "HLAE Cam\nversion 2\nDATA\n", http.StatusUnprocessableEntity, "invalid_format"},
		{"short frame", "/api/convert", "advancedfx Cam\nversion 2\nDATA\n0 1 2 3\n", http.StatusUnprocessableEntity, "malformed_frame"},
	}

	s := New(config.Default(), nil)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, tc.target, tc.body)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())

			body := decode(t, rec)
			assert.NotEmpty(t, body["error"])
			if tc.kind != "" {
				assert.Equal(t, tc.kind, body["kind"])
			}
		})
	}
}

// TestConvert_Script tests the host script download
func TestConvert_Script(t *testing.T) {
	rec := do(t, New(config.Default(), nil), http.MethodPost, "/api/convert?format=jsx&mode=direct&camera=Shot+4", takeVersion(2))
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Contains(t, rec.Header().Get("Content-Type"), "application/javascript")
	assert.NotEmpty(t, rec.Header().Get("X-Run-ID"))

	script := rec.Body.String()
	assert.Contains(t, script, `addCamera("Shot 4", [0, 0])`)
	assert.Contains(t, script, "HLAE CamIO XZ")
	assert.Contains(t, script, "if (comp.width < 1920) {")
}

// TestConvert_ZeroFOV tests that an infinite zoom is refused as JSON but written as a script
func TestConvert_ZeroFOV(t *testing.T) {
	s := New(config.Default(), nil)
	zeroFOV := "advancedfx Cam\nversion 2\nDATA\n0 1 2 3 10 20 30 90\n1 1 2 3 10 20 30 0\n"

	rec := do(t, s, http.MethodPost, "/api/convert", zeroFOV)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "non_finite_keyframe", body["kind"])
	assert.Contains(t, body["error"], "frame 1")
	context := body["context"].(map[string]any)
	assert.Equal(t, 1.0, context["frame"])
	assert.Equal(t, "zoom", context["field"])

	rec = do(t, s, http.MethodPost, "/api/convert?format=jsx", zeroFOV)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Infinity]);")
}
