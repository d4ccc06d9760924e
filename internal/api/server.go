// Package api serves trained deepzero models over HTTP.
//
// Endpoints:
//   - POST /v1/generate: sample text from a recurrent language model
//   - POST /v1/similar: nearest neighbours in a word-vector matrix
//   - POST /v1/analogy: word analogies over the same matrix
//   - GET /healthz
//
// Every response carries an X-Request-Id header, also echoed as "id" in
// JSON bodies.
package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/labstack/echo/v5"

	"github.com/born-ml/deepzero/internal/dataset"
	"github.com/born-ml/deepzero/internal/generate"
	"github.com/born-ml/deepzero/internal/logger"
	"github.com/born-ml/deepzero/internal/models"
	"github.com/born-ml/deepzero/internal/tensor"
	"github.com/born-ml/deepzero/internal/tokenizer"
	"github.com/born-ml/deepzero/internal/wordvec"
)

// Limits applied to requests.
const (
	DefaultLength = 100
	MaxLength     = 1000
	DefaultTop    = 5
)

const requestIDKey = "request_id"

// Options configures a Server. Generator and WordVecs are independent: a
// nil one disables its endpoints.
type Options struct {
	Generator *models.RnnlmGen
	WordVecs  *tensor.Tensor
	Vocab     *dataset.Vocab
	Logger    logger.Logger
}

// Server holds the loaded models.
//
// Recurrent models keep state and per-call caches, so generation requests
// are serialised.
type Server struct {
	mu       sync.Mutex
	gen      *models.RnnlmGen
	wordVecs *tensor.Tensor
	vocab    *dataset.Vocab
	log      logger.Logger
}

// NewServer creates a server over opts.
func NewServer(opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = logger.Discard()
	}
	return &Server{gen: opts.Generator, wordVecs: opts.WordVecs, vocab: opts.Vocab, log: log}
}

// Register mounts the routes on e.
func (s *Server) Register(e *echo.Echo) {
	e.Use(requestID)
	e.GET("/healthz", s.handleHealth)
	e.POST("/v1/generate", s.handleGenerate)
	e.POST("/v1/similar", s.handleSimilar)
	e.POST("/v1/analogy", s.handleAnalogy)
}

func requestID(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c *echo.Context) error {
		id := c.Request().Header.Get(echo.HeaderXRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Response().Header().Set(echo.HeaderXRequestID, id)
		return next(c)
	}
}

func idOf(c *echo.Context) string {
	id, _ := c.Get(requestIDKey).(string)
	return id
}

func (s *Server) handleHealth(c *echo.Context) error {
	resp := HealthResponse{Status: "ok", Generate: s.gen != nil, Similar: s.wordVecs != nil}
	if s.gen != nil {
		resp.Model = s.gen.Model().Name()
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleGenerate(c *echo.Context) error {
	if s.gen == nil {
		return writeNotFound(c, "no language model loaded")
	}
	req, err := decodeJSON[GenerateRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	if len(req.Prefix) == 0 {
		return writeBadRequest(c, "prefix must contain at least one word")
	}
	length := req.Length
	if length == 0 {
		length = DefaultLength
	}
	if length < len(req.Prefix) || length > MaxLength {
		return writeBadRequest(c, fmt.Sprintf("length must be in [%d, %d]", len(req.Prefix), MaxLength))
	}

	prefix, err := s.vocab.Encode(req.Prefix, false)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	var skip []int
	for _, w := range req.Skip {
		if id, ok := s.vocab.ID(w); ok {
			skip = append(skip, id)
		}
	}

	ids, err := s.generate(prefix, skip, length)
	if err != nil {
		if errors.Is(err, generate.ErrSamplingExhausted) {
			return writeError(c, http.StatusUnprocessableEntity, "sampling_error", err.Error())
		}
		return writeError(c, http.StatusInternalServerError, "server_error", err.Error())
	}

	words := s.vocab.Decode(ids)
	s.log.Info("generate", "request_id", idOf(c), "prefix", len(prefix), "length", len(words))
	return c.JSON(http.StatusOK, GenerateResponse{ID: idOf(c), Words: words, Text: joinWords(words)})
}

// generate primes the model with all but the last prefix id and continues
// from the last one. The model starts from zero state on every call.
func (s *Server) generate(prefix, skip []int, length int) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen.ResetState()
	last := len(prefix) - 1
	if _, err := s.gen.Prime(prefix[:last]); err != nil {
		return nil, err
	}
	tail, err := s.gen.Generate(prefix[last], skip, length-last)
	if err != nil {
		return nil, err
	}
	return append(prefix[:last:last], tail...), nil
}

// joinWords renders words as text with every end-of-sentence marker as a
// line break.
func joinWords(words []string) string {
	var b strings.Builder
	lineStart := true
	for _, w := range words {
		if w == tokenizer.DefaultEOS {
			b.WriteByte('\n')
			lineStart = true
			continue
		}
		if !lineStart {
			b.WriteByte(' ')
		}
		b.WriteString(w)
		lineStart = false
	}
	return b.String()
}

func (s *Server) handleSimilar(c *echo.Context) error {
	if s.wordVecs == nil {
		return writeNotFound(c, "no word vectors loaded")
	}
	req, err := decodeJSON[SimilarRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	neighbors, err := wordvec.MostSimilar(req.Query, s.vocab, s.wordVecs, topOrDefault(req.Top))
	if err != nil {
		return writeNotFound(c, err.Error())
	}
	return c.JSON(http.StatusOK, NeighborsResponse{ID: idOf(c), Neighbors: neighbors})
}

func (s *Server) handleAnalogy(c *echo.Context) error {
	if s.wordVecs == nil {
		return writeNotFound(c, "no word vectors loaded")
	}
	req, err := decodeJSON[AnalogyRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	neighbors, err := wordvec.Analogy(req.A, req.B, req.C, s.vocab, s.wordVecs, topOrDefault(req.Top))
	if err != nil {
		return writeNotFound(c, err.Error())
	}
	return c.JSON(http.StatusOK, NeighborsResponse{ID: idOf(c), Neighbors: neighbors})
}

func topOrDefault(top int) int {
	if top <= 0 {
		return DefaultTop
	}
	return top
}

func decodeJSON[T any](r io.Reader) (T, error) {
	var out T
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		return out, fmt.Errorf("invalid JSON body: %w", err)
	}
	return out, nil
}
