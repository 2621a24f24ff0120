package handlers_test

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/kacperjurak/thinfilm/internal/processing"
	"github.com/kacperjurak/thinfilm/pkg/config"
	"github.com/kacperjurak/thinfilm/pkg/handlers"
	"github.com/kacperjurak/thinfilm/pkg/models"
	"github.com/kacperjurak/thinfilm/pkg/worker"
)

const smallGrids = `"wavelengths": {"start": 500, "stop": 600, "step": 10}, "angles": {"start": 0, "stop": 60, "step": 20}`

func post(h http.Handler, target, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, target, strings.NewReader(body)))
	return rec
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body["error"]
}

func TestEvaluate(t *testing.T) {
	h := handlers.NewEvaluateHandler(processing.NewProcessor(true), true)
	rec := post(h, "/evaluate", `{"stack": "1,2,1", "include_profile": true, `+smallGrids+`}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	var resp models.EvaluateResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, strings.HasPrefix(resp.ID, "eval-"))
	require.Len(t, resp.Thicknesses, 3)
	assert.InDelta(t, 550/(4*2.25), resp.Thicknesses[0], 1e-6)
	assert.Equal(t, 11, len(resp.Spectral.X))
	assert.Equal(t, 4, len(resp.Angular.X))
	require.NotNil(t, resp.Profile)
	assert.Len(t, resp.Profile.Layers, 3)
}

func TestEvaluateDefaults(t *testing.T) {
	h := handlers.NewEvaluateHandler(processing.NewProcessor(true), true)
	rec := post(h, "/evaluate", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.EvaluateResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Len(t, resp.Thicknesses, 11)
	assert.Len(t, resp.Spectral.X, 301)
	assert.Len(t, resp.Angular.X, 90)
	assert.Nil(t, resp.Profile)
}

func TestEvaluateErrors(t *testing.T) {
	h := handlers.NewEvaluateHandler(processing.NewProcessor(true), true)

	rec := post(h, "/evaluate", `{"stack": "1,abc"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid value at position 2: 'abc'", errorOf(t, rec))

	rec = post(h, "/evaluate", `{"wavelengths": {"start": 700, "stop": 400, "step": 1}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = post(h, "/evaluate", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid JSON format", errorOf(t, rec))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/evaluate", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/evaluate", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestExportCSV(t *testing.T) {
	h := handlers.NewExportHandler(processing.NewProcessor(true), handlers.FormatCSV)
	rec := post(h, "/export/csv?sweep=angular&columns=Rs,Tp", `{`+smallGrids+`}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "stack_11_layers_")

	records, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 5)
	assert.Equal(t, []string{"Angle (deg)", "Rs", "Tp"}, records[0])
	assert.Equal(t, "0", records[1][0])

	rec = post(h, "/export/csv?sweep=polar", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportXLSX(t *testing.T) {
	h := handlers.NewExportHandler(processing.NewProcessor(true), handlers.FormatXLSX)
	rec := post(h, "/export/xlsx", `{`+smallGrids+`}`)
	require.Equal(t, http.StatusOK, rec.Code)

	f, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Parameters", "Spectral", "Angular"}, f.GetSheetList())
}

func TestPlot(t *testing.T) {
	h := handlers.NewPlotHandler(processing.NewProcessor(true))
	for _, kind := range []string{"spectral", "angular", "profile"} {
		rec := post(h, "/plot/"+kind+"?width=300&height=200", `{`+smallGrids+`}`)
		require.Equal(t, http.StatusOK, rec.Code, kind)
		assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
		img, err := png.Decode(rec.Body)
		require.NoError(t, err)
		assert.Equal(t, 300, img.Bounds().Dx())
	}

	rec := post(h, "/plot/polar", `{}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = post(h, "/plot/profile", `{"stack": "1,,x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFit(t *testing.T) {
	h := handlers.NewFitHandler(processing.NewProcessor(true), true)
	rec := post(h, "/fit", `{"stack": "1.1,0.9", "targets": [{"wavelength": 550, "value": 0.3}], "polarization": "s", `+smallGrids+`}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.FitResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "OK", resp.Result.Status)
	assert.Len(t, resp.Thicknesses, 2)
	assert.NotEmpty(t, resp.Stack)

	rec = post(h, "/fit", `{"stack": "1,1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No targets provided", errorOf(t, rec))
}

func TestSession(t *testing.T) {
	cfg := config.DefaultConfig()
	h := handlers.NewSessionHandler(processing.NewSession(processing.NewProcessor(true), cfg))
	defer h.Close()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/session", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = post(h, "/session/undo", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = post(h, "/session", `{"stack": "1,2,1", `+smallGrids+`}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp models.SessionResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Len(t, resp.Thicknesses, 3)
	assert.True(t, resp.CanUndo)

	rec = post(h, "/session/undo", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, cfg.Stack, resp.Config.Stack)
	assert.True(t, resp.CanRedo)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/session", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Len(t, resp.Thicknesses, 11)

	rec = post(h, "/session", `{"stack": "1,-1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/session", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	resp = models.SessionResponse{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, cfg.Stack, resp.Config.Stack)
	assert.Len(t, resp.Thicknesses, 11)
}

func TestBatch(t *testing.T) {
	proc := processing.NewProcessor(true)
	pool := worker.New(worker.Options{Workers: 2, Processor: proc.Evaluate})
	defer pool.Shutdown()

	timing := filepath.Join(t.TempDir(), "timing.csv")
	h := handlers.NewBatchHandler(pool, timing, true)

	body := `{"batch_id": "b1", "designs": [
		{"iteration": 0, "config": {"stack": "1,2,1", ` + smallGrids + `}},
		{"iteration": 1, "config": {"stack": "x", ` + smallGrids + `}},
		{"iteration": 2, "config": {` + smallGrids + `}}
	]}`
	rec := post(h, "/evaluate/batch", body)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "b1", resp["batch_id"])
	assert.EqualValues(t, 3, resp["designs"])

	h.Wait()
	data, err := os.ReadFile(timing)
	require.NoError(t, err)
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "b1", records[1][1])
	assert.Equal(t, "3", records[1][2])
	assert.Equal(t, "66.7", records[1][8])

	rec = post(h, "/evaluate/batch", `{"designs": []}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
