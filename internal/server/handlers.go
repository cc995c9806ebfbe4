package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/chris-regnier/licverify/internal/batch"
	"github.com/chris-regnier/licverify/internal/metrics"
	"github.com/chris-regnier/licverify/internal/output"
)

var tracer = otel.Tracer("github.com/chris-regnier/licverify/internal/server")

const (
	xlsxContentType   = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	maxVerifyBodySize = 1 << 20
)

// Client-facing messages for /verify.
const (
	msgMissingFields = "Missing provider_name or state"
	msgInvalidJSON   = "Invalid JSON body"
)

type verifyRequest struct {
	ProviderName string `json:"provider_name"`
	State        string `json:"state"`
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "verify")
	defer span.End()

	req, err := decodeVerifyRequest(http.MaxBytesReader(w, r.Body, maxVerifyBodySize))
	if err != nil {
		span.SetStatus(codes.Error, "invalid body")
		s.sendError(w, http.StatusBadRequest, msgInvalidJSON)
		return
	}
	if req.ProviderName == "" || req.State == "" {
		span.SetStatus(codes.Error, "missing fields")
		s.sendError(w, http.StatusBadRequest, msgMissingFields)
		return
	}

	verdict := s.verifier.Verify(ctx, req.ProviderName, req.State)
	span.SetAttributes(attribute.String("licverify.outcome", verdict.Outcome.String()))
	s.sendJSON(w, http.StatusOK, verdict)
}

// decodeVerifyRequest reads exactly one JSON value from body. An empty body
// decodes to the zero request.
func decodeVerifyRequest(body io.Reader) (verifyRequest, error) {
	var req verifyRequest
	dec := json.NewDecoder(body)
	if err := dec.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return req, nil
		}
		return req, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return req, errors.New("unexpected data after JSON body")
	}
	return req, nil
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "batch")
	defer span.End()

	batchID := uuid.NewString()
	span.SetAttributes(attribute.String("licverify.batch.id", batchID))
	logger := s.logger.With("batch_id", batchID)

	reject := func(result metrics.BatchResult, err error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.metrics.ObserveBatch(ctx, result, 0)
		logger.Info("batch rejected", "result", string(result), "err", err)
		s.sendError(w, http.StatusBadRequest, clientMessage(err))
	}

	if s.cfg.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			reject(metrics.BatchUnreadable, fmt.Errorf("%w: upload exceeds %d bytes", batch.ErrUnreadable, tooLarge.Limit))
			return
		}
		reject(metrics.BatchNoFile, batch.ErrNoFile)
		return
	}
	defer file.Close()

	pairs, err := batch.ReadPairs(file)
	if err != nil {
		var missing *batch.MissingColumnsError
		if errors.As(err, &missing) {
			reject(metrics.BatchBadColumns, err)
		} else {
			reject(metrics.BatchUnreadable, err)
		}
		return
	}

	verdicts := batch.Run(ctx, s.verifier, pairs)
	if len(verdicts) == 0 {
		reject(metrics.BatchEmpty, batch.ErrNoResults)
		return
	}

	staged, err := s.spool.Stage(ctx, "licverify-batch-*.xlsx", func(w io.Writer) error {
		return output.WriteWorkbook(w, verdicts)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.metrics.ObserveBatch(ctx, metrics.BatchServerError, 0)
		logger.Error("staging batch results failed", "err", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to generate results")
		return
	}
	defer func() {
		if err := staged.Close(); err != nil {
			logger.Warn("removing staged results failed", "path", staged.Path(), "err", err)
		}
	}()

	s.metrics.ObserveBatch(ctx, metrics.BatchOK, len(verdicts))
	span.SetAttributes(attribute.Int("licverify.batch.rows", len(verdicts)))
	logger.Info("batch completed", "rows", len(verdicts), "bytes", staged.Size())

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": ResultsFilename}))
	w.Header().Set("X-Batch-Id", batchID)
	http.ServeContent(w, r, ResultsFilename, staged.ModTime(), staged.Content())
}

type healthResponse struct {
	Status  string   `json:"status"`
	Records int      `json:"records"`
	States  []string `json:"states"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	tbl := s.verifier.Table()
	states := tbl.States()
	if states == nil {
		states = []string{}
	}
	s.sendJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Records: tbl.Len(),
		States:  states,
	})
}

// clientMessage renders err for a response body, capitalising its first letter.
func clientMessage(err error) string {
	msg := err.Error()
	r, size := utf8.DecodeRuneInString(msg)
	if r == utf8.RuneError {
		return msg
	}
	return string(unicode.ToUpper(r)) + msg[size:]
}
