package api

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/erazemk/premiki/internal/report"
)

// ReportsHandler generates transfer reports. The last report of each session
// is kept so it can be downloaded again.
type ReportsHandler struct {
	Engine *report.Engine
	Cache  *report.Cache
}

type reportRequest struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type reportResponse struct {
	*report.Result
	TotalQuantity int `json:"total_quantity"`
}

// Generate handles POST /api/reports.
func (h *ReportsHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	start, err := report.ParseTimestamp(req.Start)
	if err != nil {
		writeError(w, err, "parse start")
		return
	}
	end, err := report.ParseTimestamp(req.End)
	if err != nil {
		writeError(w, err, "parse end")
		return
	}

	result, err := h.Engine.Generate(r.Context(), start, end)
	if err != nil {
		writeError(w, err, "generate report")
		return
	}

	claims := GetClaims(r.Context())
	h.Cache.Put(claims.ID, result)

	slog.Info("report generated", "user", claims.Email, "report", result.ID, "rows", len(result.Rows))
	jsonResponse(w, http.StatusOK, reportResponse{Result: result, TotalQuantity: result.TotalQuantity()})
}

// Last handles GET /api/reports/last.
func (h *ReportsHandler) Last(w http.ResponseWriter, r *http.Request) {
	result, ok := h.Cache.Get(GetClaims(r.Context()).ID)
	if !ok {
		jsonError(w, http.StatusNotFound, "no report generated in this session")
		return
	}
	jsonResponse(w, http.StatusOK, reportResponse{Result: result, TotalQuantity: result.TotalQuantity()})
}

// LastCSV handles GET /api/reports/last.csv.
func (h *ReportsHandler) LastCSV(w http.ResponseWriter, r *http.Request) {
	result, ok := h.Cache.Get(GetClaims(r.Context()).ID)
	if !ok {
		jsonError(w, http.StatusNotFound, "no report generated in this session")
		return
	}

	var buf bytes.Buffer
	if err := report.WriteCSV(&buf, result.Rows); err != nil {
		writeError(w, err, "render report")
		return
	}

	name := fmt.Sprintf("premiki-report-%s_%s.csv",
		result.Start.Format("20060102"), result.End.Format("20060102"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Write(buf.Bytes())
}
