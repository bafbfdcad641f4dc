package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/atikulmunna/syslens/internal/archive"
	"github.com/atikulmunna/syslens/internal/loader"
	"github.com/atikulmunna/syslens/internal/model"
	"github.com/atikulmunna/syslens/internal/output"
	"github.com/atikulmunna/syslens/internal/pipeline"
	"github.com/atikulmunna/syslens/internal/summary"
	"github.com/gin-gonic/gin"
)

const (
	requestIDKey  = "request_id"
	workDirKey    = "work_dir"
	warningHeader = "X-Syslens-Warning"
	recordsHeader = "X-Syslens-Records"
)

// errBadRequest marks client input that could not be parsed.
var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

// statusFor maps pipeline errors onto HTTP status codes.
func statusFor(err error) int {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errBadRequest), errors.Is(err, loader.ErrSource), errors.Is(err, archive.ErrMemberPattern):
		return http.StatusBadRequest
	case errors.Is(err, archive.ErrArchive), errors.Is(err, pipeline.ErrNoDates):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func (s *Server) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "request_id", c.GetString(requestIDKey), "error", err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

// upload reads the multipart "file" field into memory.
func upload(c *gin.Context) (loader.Source, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, err
		}
		return nil, badRequest("missing upload field \"file\": %v", err)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return loader.Stream{Filename: fh.Filename, Data: data}, nil
}

// parseConditions reads the "conditions" field, a JSON array of
// {"keyword": ..., "operator": ...}.
func parseConditions(raw string) ([]model.Condition, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var conds []model.Condition
	if err := json.Unmarshal([]byte(raw), &conds); err != nil {
		return nil, badRequest("conditions: %v", err)
	}
	for i := range conds {
		op, err := model.ParseOperator(string(conds[i].Operator))
		if err != nil {
			return nil, badRequest("conditions[%d]: %v", i, err)
		}
		conds[i].Operator = op
	}
	return conds, nil
}

func setWarnings(c *gin.Context, warnings []model.Warning) {
	for _, w := range warnings {
		c.Writer.Header().Add(warningHeader, w.String())
	}
}

// handleFilter ingests an upload, applies the time and keyword stages and
// returns the export as an attachment.
func (s *Server) handleFilter(c *gin.Context) {
	src, err := upload(c)
	if err != nil {
		s.fail(c, err)
		return
	}

	format := output.FormatCSV
	if v := c.PostForm("format"); v != "" {
		if format, err = output.ParseFormat(v); err != nil || format == output.FormatText {
			s.fail(c, badRequest("format must be csv, log or json"))
			return
		}
	}

	quoteAll := s.cfg.CSV.QuoteAll
	if v := c.PostForm("quote_all"); v != "" {
		if quoteAll, err = strconv.ParseBool(v); err != nil {
			s.fail(c, badRequest("quote_all: %v", err))
			return
		}
	}

	conds, err := parseConditions(c.PostForm("conditions"))
	if err != nil {
		s.fail(c, err)
		return
	}
	if err := archive.ValidateMember(c.PostForm("member")); err != nil {
		s.fail(c, err)
		return
	}

	p := s.pipeline(c, c.PostForm("member"))
	ing, err := p.Ingest(c.Request.Context(), []loader.Source{src})
	if err != nil {
		s.fail(c, err)
		return
	}

	in := pipeline.RangeInput{
		From:      c.PostForm("from"),
		To:        c.PostForm("to"),
		StartTime: c.PostForm("start_time"),
		EndTime:   c.PostForm("end_time"),
		Mode:      c.PostForm("mode"),
		Zone:      c.DefaultPostForm("timezone", s.cfg.Timezone),
	}
	tp, err := in.Resolve(ing.Records)
	if err != nil {
		if !errors.Is(err, pipeline.ErrNoDates) {
			err = badRequest("%v", err)
		}
		s.fail(c, err)
		return
	}

	given := in
	given.Zone = c.PostForm("timezone")
	unused := given.UnusedTimeOptions()

	res, err := p.Filter(c.Request.Context(), ing.Records, pipeline.FilterParams{Time: tp, Conditions: conds})
	if err != nil {
		s.fail(c, err)
		return
	}

	data, err := output.Export(res.Records, format, output.CSVOptions{QuoteAll: quoteAll})
	if err != nil {
		s.fail(c, err)
		return
	}

	var r *model.TimeRange
	if tp != nil {
		r = &tp.Range
	}
	warnings := append(append(ing.Warnings, unused...), res.Warnings...)
	setWarnings(c, warnings)
	c.Header(recordsHeader, strconv.Itoa(len(res.Records)))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", output.SuggestName(r, format)))
	c.Data(http.StatusOK, format.ContentType(), data)
}

type summaryResponse struct {
	Summary  summary.Stats         `json:"summary"`
	TopHosts []summary.Count       `json:"top_hosts"`
	TopApps  []summary.Count       `json:"top_apps"`
	Files    []pipeline.FileReport `json:"files"`
	Warnings []model.Warning       `json:"warnings"`
}

// handleSummary ingests an upload and reports its statistics.
func (s *Server) handleSummary(c *gin.Context) {
	src, err := upload(c)
	if err != nil {
		s.fail(c, err)
		return
	}

	if err := archive.ValidateMember(c.PostForm("member")); err != nil {
		s.fail(c, err)
		return
	}

	ing, err := s.pipeline(c, c.PostForm("member")).Ingest(c.Request.Context(), []loader.Source{src})
	if err != nil {
		s.fail(c, err)
		return
	}

	stats := summary.Summarize(ing.Records)
	warnings := ing.Warnings
	if warnings == nil {
		warnings = []model.Warning{}
	}
	c.JSON(http.StatusOK, summaryResponse{
		Summary:  stats,
		TopHosts: summary.Top(stats.Hosts, 10),
		TopApps:  summary.Top(stats.Apps, 10),
		Files:    ing.Files,
		Warnings: warnings,
	})
}
