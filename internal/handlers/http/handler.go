package http

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/Nazarious-ucu/weather-ingestion/internal/models"
	"github.com/Nazarious-ucu/weather-ingestion/internal/services/pipeline"
)

const (
	defaultTimeout = 30 * time.Second

	HeaderFailedCount     = "X-Failed-Locations-Count"
	HeaderFailedLocations = "X-Failed-Locations"
)

var errNoLocations = errors.New("at least one location is required")

type ingester interface {
	Ingest(ctx context.Context, names []string) models.IngestResult
}

type pipelineRunner interface {
	Run(ctx context.Context, names []string) (pipeline.Result, error)
	Enrich(records []models.ObservationRecord) ([]models.EnrichedRecord, error)
	EnrichPayloads(payloads []models.ObservationPayload) ([]models.EnrichedRecord, error)
}

type Handler struct {
	ingester ingester
	pipeline pipelineRunner
	timeout  time.Duration
	logger   zerolog.Logger
}

func NewHandler(i ingester, p pipelineRunner, timeout time.Duration, logger zerolog.Logger) *Handler {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Handler{
		ingester: i,
		pipeline: p,
		timeout:  timeout,
		logger:   logger.With().Str("component", "HTTPHandler").Logger(),
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ingest returns observation records for the requested locations, or enriched
// records with ?enrich=true. Locations that failed are listed in headers.
func (h *Handler) Ingest(c *gin.Context) {
	names, err := bindLocations(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	result := h.ingester.Ingest(ctx, names)
	setFailureHeaders(c, result.Failures)

	if !queryFlag(c, "enrich") {
		c.JSON(http.StatusCreated, result.Records)
		return
	}

	if len(result.Records) == 0 {
		c.JSON(http.StatusCreated, []models.EnrichedRecord{})
		return
	}

	enriched, err := h.pipeline.Enrich(result.Records)
	if err != nil {
		h.logger.Error().Ctx(ctx).Err(err).Msg("ingested records failed enrichment")
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, enriched)
}

// IngestRelay runs ingest, enrichment and relay for the requested locations.
func (h *Handler) IngestRelay(c *gin.Context) {
	names, err := bindLocations(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	result, err := h.pipeline.Run(ctx, names)
	setFailureHeaders(c, result.Failures)
	if err != nil {
		h.logger.Error().Ctx(ctx).Err(err).Msg("pipeline run failed")

		var relayErr *models.RelayError
		var validationErr *models.ValidationError
		switch {
		case errors.As(err, &relayErr):
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "status_code": relayErr.StatusCode})
		case errors.As(err, &validationErr):
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusCreated, result.Records)
}

// Enrich categorizes a batch of observation records. Any invalid record
// rejects the whole batch.
func (h *Handler) Enrich(c *gin.Context) {
	var payloads []models.ObservationPayload
	if err := c.ShouldBindJSON(&payloads); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	enriched, err := h.pipeline.EnrichPayloads(payloads)
	if err != nil {
		var validationErr *models.ValidationError
		if errors.Is(err, models.ErrEmptyBatch) || errors.As(err, &validationErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error().Err(err).Msg("enrichment failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, enriched)
}

func (h *Handler) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	if queryFlag(c, "refresh") {
		ctx = models.WithRefresh(ctx)
	}
	return ctx, cancel
}

func bindLocations(c *gin.Context) ([]string, error) {
	var body []models.LocationQuery
	if err := c.ShouldBindJSON(&body); err != nil {
		return nil, errors.New("invalid request body: " + err.Error())
	}
	if len(body) == 0 {
		return nil, errNoLocations
	}

	names := make([]string, 0, len(body))
	for i, q := range body {
		name := strings.TrimSpace(q.Country)
		if name == "" {
			return nil, errors.New("location " + strconv.Itoa(i) + ": country must not be blank")
		}
		names = append(names, name)
	}
	return names, nil
}

func setFailureHeaders(c *gin.Context, failures []models.LocationFailure) {
	if len(failures) == 0 {
		return
	}
	pairs := make([]string, 0, len(failures))
	for _, f := range failures {
		pairs = append(pairs, url.QueryEscape(f.Location)+"="+string(f.Reason))
	}
	c.Header(HeaderFailedCount, strconv.Itoa(len(failures)))
	c.Header(HeaderFailedLocations, strings.Join(pairs, ","))
}

func queryFlag(c *gin.Context, name string) bool {
	v, err := strconv.ParseBool(c.Query(name))
	return err == nil && v
}
