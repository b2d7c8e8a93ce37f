package api

import (
	"bytes"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/ayusman/pinchviz/internal/chart"
	"github.com/ayusman/pinchviz/internal/dataset"
)

// Export size bounds in pixels.
const (
	DefaultExportWidth  = 1024
	DefaultExportHeight = 576
	minExportSize       = 200
	maxExportSize       = 4096
)

// Charted yields the dataset currently on screen, or nil.
type Charted interface {
	Dataset() *dataset.Dataset
}

// ChartHandler renders the current dataset as a PNG bar chart.
type ChartHandler struct {
	charted Charted
}

// NewChartHandler creates a ChartHandler reading from c.
func NewChartHandler(c Charted) *ChartHandler {
	return &ChartHandler{charted: c}
}

// ServeHTTP handles GET /api/chart.png?width=W&height=H.
func (h *ChartHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	width, ok := sizeParam(r, "width", DefaultExportWidth)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid width")
		return
	}
	height, ok := sizeParam(r, "height", DefaultExportHeight)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid height")
		return
	}

	ds := h.charted.Dataset()
	if ds == nil {
		writeError(w, http.StatusNotFound, "no chart is showing")
		return
	}

	var buf bytes.Buffer
	err := chart.ExportPNG(&buf, ds, width, height)
	if errors.Is(err, chart.ErrNoBars) {
		writeError(w, http.StatusNotFound, "chart has no data")
		return
	}
	if err != nil {
		log.Printf("Error exporting chart: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to render chart")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(buf.Bytes())
}

func sizeParam(r *http.Request, key string, def int) (int, bool) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < minExportSize || n > maxExportSize {
		return 0, false
	}
	return n, true
}
