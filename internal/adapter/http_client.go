package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/ykarpov/billkeeper/internal/logger"
	"github.com/ykarpov/billkeeper/models"
)

// HTTPClientConfig configures the REST adapter.
type HTTPClientConfig struct {
	BaseURL    string
	Timeout    time.Duration
	DeviceID   string
	DeviceType string
	AppVersion string
}

type httpServerAdapter struct {
	client *resty.Client
	tokens TokenProvider
	logger *logger.Logger

	deviceID   string
	deviceType string
	appVersion string
}

// NewHTTPServerAdapter constructs a [ServerAdapter] speaking the REST sync
// protocol. The per-request timeout configured here is the only deadline in
// play during a sync pass.
func NewHTTPServerAdapter(cfg HTTPClientConfig, tokens TokenProvider, log *logger.Logger) ServerAdapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8080"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	cli := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout)

	return &httpServerAdapter{
		client:     cli,
		tokens:     tokens,
		logger:     log,
		deviceID:   cfg.DeviceID,
		deviceType: cfg.DeviceType,
		appVersion: cfg.AppVersion,
	}
}

func (h *httpServerAdapter) Upload(ctx context.Context, mutations []models.MutationOperation) (models.UploadResponse, error) {
	wireMutations := make([]models.WireMutation, 0, len(mutations))
	for _, op := range mutations {
		wireMutations = append(wireMutations, models.MutationToWire(op))
	}

	body := models.UploadRequest{
		Mutations:  wireMutations,
		DeviceID:   h.deviceID,
		DeviceType: h.deviceType,
		AppVersion: h.appVersion,
		Length:     len(wireMutations),
	}

	req, err := h.authedRequest(ctx)
	if err != nil {
		return models.UploadResponse{}, err
	}

	resp, err := req.
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post("/api/sync/upload")
	if err != nil {
		return models.UploadResponse{}, fmt.Errorf("%w: upload request: %w", ErrServerUnavailable, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.UploadResponse{}, err
	}

	var uploadResp models.UploadResponse
	if err = json.Unmarshal(resp.Body(), &uploadResp); err != nil {
		return models.UploadResponse{}, fmt.Errorf("decode upload response: %w", err)
	}

	return uploadResp, nil
}

func (h *httpServerAdapter) Download(ctx context.Context, since *time.Time) (models.DownloadResponse, error) {
	req, err := h.authedRequest(ctx)
	if err != nil {
		return models.DownloadResponse{}, err
	}

	if since != nil {
		req.SetQueryParam("since", strconv.FormatInt(models.TimeToMillis(*since), 10))
	}

	resp, err := req.Get("/api/sync/download")
	if err != nil {
		return models.DownloadResponse{}, fmt.Errorf("%w: download request: %w", ErrServerUnavailable, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.DownloadResponse{}, err
	}

	var downloadResp models.DownloadResponse
	if err = json.Unmarshal(resp.Body(), &downloadResp); err != nil {
		return models.DownloadResponse{}, fmt.Errorf("decode download response: %w", err)
	}

	return downloadResp, nil
}

func (h *httpServerAdapter) authedRequest(ctx context.Context) (*resty.Request, error) {
	token, err := h.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotAuthenticated, err)
	}
	if strings.TrimSpace(token) == "" {
		return nil, ErrNotAuthenticated
	}

	return h.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+token), nil
}

func mapHTTPError(resp *resty.Response) error {
	if resp.StatusCode() >= http.StatusOK && resp.StatusCode() < http.StatusMultipleChoices {
		return nil
	}

	body := strings.TrimSpace(string(resp.Body()))
	if body == "" {
		body = http.StatusText(resp.StatusCode())
	}

	switch {
	case resp.StatusCode() == http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrNotAuthenticated, body)
	case resp.StatusCode() == http.StatusBadRequest:
		return fmt.Errorf("%w: %s", ErrBadRequest, body)
	case resp.StatusCode() == http.StatusConflict:
		return fmt.Errorf("%w: %s", ErrVersionConflict, body)
	case resp.StatusCode() >= http.StatusInternalServerError:
		return fmt.Errorf("%w: http %d: %s", ErrServerUnavailable, resp.StatusCode(), body)
	default:
		return fmt.Errorf("http %d: %s", resp.StatusCode(), body)
	}
}
