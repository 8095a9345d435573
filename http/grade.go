package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/programme-lv/grader/gradesrvc"
	"github.com/programme-lv/grader/httpjson"
	"github.com/programme-lv/grader/logger"
	"github.com/programme-lv/grader/outcome"
)

// gradeResponse is the wire shape of one grading verdict. The result
// table contains only the rows the learner is allowed to see.
type gradeResponse struct {
	Status           string                `json:"status"`
	ErrorMessage     string                `json:"error_message,omitempty"`
	RawFraction      float64               `json:"raw_fraction"`
	AdjustedFraction float64               `json:"adjusted_fraction"`
	FromCache        bool                  `json:"from_cache"`
	CacheKey         string                `json:"cache_key"`
	VisibleResults   []outcome.TestResult  `json:"visible_results"`
	HiddenErrors     int                   `json:"hidden_errors"`
	PrologueHtml     string                `json:"prologue_html,omitempty"`
	EpilogueHtml     string                `json:"epilogue_html,omitempty"`
	ResultTable      [][]any               `json:"result_table,omitempty"`
	ColumnFormats    []string              `json:"column_formats,omitempty"`
	GraderState      string                `json:"grader_state,omitempty"`
	SourceCodeList   []string              `json:"source_code_list,omitempty"`
}

func mapGradeResult(res *gradesrvc.GradeResult) gradeResponse {
	o := res.Outcome
	return gradeResponse{
		Status:           string(o.Status),
		ErrorMessage:     o.ErrorMessage,
		RawFraction:      res.RawFraction,
		AdjustedFraction: res.AdjustedFraction,
		FromCache:        res.FromCache,
		CacheKey:         res.CacheKey,
		VisibleResults:   o.VisibleResults(),
		HiddenErrors:     o.CountHiddenErrors(),
		PrologueHtml:     o.PrologueHtml,
		EpilogueHtml:     o.EpilogueHtml,
		ResultTable:      o.ResultTable,
		ColumnFormats:    o.ColumnFormats,
		GraderState:      o.GraderState,
		SourceCodeList:   o.SourceCodeList,
	}
}

func (httpserver *HttpServer) gradeSubmission(w http.ResponseWriter, r *http.Request) {
	httpserver.handleGrade(w, r, false)
}

func (httpserver *HttpServer) precheckSubmission(w http.ResponseWriter, r *http.Request) {
	httpserver.handleGrade(w, r, true)
}

func (httpserver *HttpServer) handleGrade(w http.ResponseWriter, r *http.Request, isPrecheck bool) {
	var req gradesrvc.GradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.WriteErrorJson(w,
			http.StatusText(http.StatusBadRequest),
			http.StatusBadRequest,
			"bad_request_body")
		return
	}
	req.IsPrecheck = isPrecheck

	ctx := logger.WithLogger(r.Context(), httpserver.logger)
	attemptID, _ := uuid.NewV7()
	ctx = logger.WithAttemptID(ctx, attemptID.String())

	res, srvcErr := httpserver.gradeSrvc.GradeSubmission(ctx, req)
	if srvcErr != nil {
		httpjson.HandleError(httpserver.logger, w, srvcErr)
		return
	}

	httpjson.WriteSuccessJson(w, mapGradeResult(res))
}

func (httpserver *HttpServer) getOutcome(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	o, srvcErr := httpserver.gradeSrvc.GetOutcome(r.Context(), key)
	if srvcErr != nil {
		httpjson.HandleError(httpserver.logger, w, srvcErr)
		return
	}
	httpjson.WriteSuccessJson(w, o)
}

func (httpserver *HttpServer) listLanguages(w http.ResponseWriter, r *http.Request) {
	langs, err := httpserver.registry.Languages(r.Context())
	if err != nil {
		httpjson.HandleError(httpserver.logger, w, err)
		return
	}
	httpjson.WriteSuccessJson(w, langs)
}
