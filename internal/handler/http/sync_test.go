package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ykarpov/billkeeper/internal/logger"
	"github.com/ykarpov/billkeeper/internal/service"
	"github.com/ykarpov/billkeeper/internal/store"
	"github.com/ykarpov/billkeeper/internal/utils"
	"github.com/ykarpov/billkeeper/models"
)

type mockSyncService struct {
	uploadFn   func(ctx context.Context, cmd models.SyncCommand) (models.SyncResult, error)
	downloadFn func(ctx context.Context, cmd models.SyncCommand) (models.SyncResult, error)
}

func (m *mockSyncService) Upload(ctx context.Context, cmd models.SyncCommand) (models.SyncResult, error) {
	if m.uploadFn != nil {
		return m.uploadFn(ctx, cmd)
	}
	return models.SyncResult{}, nil
}

func (m *mockSyncService) Download(ctx context.Context, cmd models.SyncCommand) (models.SyncResult, error) {
	if m.downloadFn != nil {
		return m.downloadFn(ctx, cmd)
	}
	return models.SyncResult{}, nil
}

func newHandlerWithSyncService(svc service.SyncService) *Handler {
	return &Handler{
		services: &service.Services{
			SyncService: svc,
		},
		logger: logger.Nop(),
	}
}

func withUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, utils.UserIDCtxKey, userID)
}

func TestUpload_Success(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()

	var gotCmd models.SyncCommand
	mockSvc := &mockSyncService{
		uploadFn: func(_ context.Context, cmd models.SyncCommand) (models.SyncResult, error) {
			gotCmd = cmd
			return models.SyncResult{Applied: 1}, nil
		},
	}
	h := newHandlerWithSyncService(mockSvc)

	uploadRequest := models.UploadRequest{
		Mutations: []models.WireMutation{
			models.MutationToWire(models.MutationOperation{
				ID:     "op-1",
				Action: models.ActionCreate,
				Entity: models.Entity{
					ID:        "bill-1",
					Kind:      models.KindBill,
					Name:      "Rent",
					Amount:    decimal.RequireFromString("1200.00"),
					CreatedAt: now,
					UpdatedAt: now,
				},
				EnqueuedAt: now,
			}),
		},
		DeviceID:   "device-1",
		DeviceType: "cli",
		AppVersion: "1.0.0",
		Length:     1,
	}

	body, err := json.Marshal(uploadRequest)
	if err != nil {
		t.Fatalf("failed to marshal request: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/sync/upload", bytes.NewReader(body))
	req = req.WithContext(withUserID(req.Context(), 1))

	rr := httptest.NewRecorder()
	h.upload(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	if gotCmd.UserID != 1 {
		t.Errorf("expected user id 1, got %d", gotCmd.UserID)
	}
	if gotCmd.DeviceID != "device-1" {
		t.Errorf("expected device id to be forwarded, got %q", gotCmd.DeviceID)
	}
	if len(gotCmd.Mutations) != 1 {
		t.Fatalf("expected 1 mutation, got %d", len(gotCmd.Mutations))
	}
	if !gotCmd.Mutations[0].Entity.UpdatedAt.Equal(now) {
		t.Errorf("expected timestamps to round-trip, got %v", gotCmd.Mutations[0].Entity.UpdatedAt)
	}

	var resp models.UploadResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Applied != 1 {
		t.Errorf("expected 1 applied, got %d", resp.Applied)
	}
}

func TestUpload_ConflictsInResponse(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()

	mockSvc := &mockSyncService{
		uploadFn: func(_ context.Context, cmd models.SyncCommand) (models.SyncResult, error) {
			return models.SyncResult{
				Conflicts: []models.Entity{{
					ID:        "bill-1",
					Kind:      models.KindBill,
					Name:      "Rent",
					Amount:    decimal.RequireFromString("1300.00"),
					UpdatedAt: now,
				}},
			}, nil
		},
	}
	h := newHandlerWithSyncService(mockSvc)

	body, _ := json.Marshal(models.UploadRequest{})
	req := httptest.NewRequest(http.MethodPost, "/api/sync/upload", bytes.NewReader(body))
	req = req.WithContext(withUserID(req.Context(), 1))

	rr := httptest.NewRecorder()
	h.upload(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var resp models.UploadResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Length != 1 || len(resp.Conflicts) != 1 {
		t.Fatalf("expected 1 conflict, got %d", len(resp.Conflicts))
	}
	if resp.Conflicts[0].Amount != "1300.00" {
		t.Errorf("expected server-side amount in conflict, got %s", resp.Conflicts[0].Amount)
	}
}

func TestUpload_NoUserID(t *testing.T) {
	h := newHandlerWithSyncService(&mockSyncService{})

	body, _ := json.Marshal(models.UploadRequest{})
	req := httptest.NewRequest(http.MethodPost, "/api/sync/upload", bytes.NewReader(body))

	rr := httptest.NewRecorder()
	h.upload(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestUpload_InvalidJSON(t *testing.T) {
	h := newHandlerWithSyncService(&mockSyncService{})

	req := httptest.NewRequest(http.MethodPost, "/api/sync/upload", bytes.NewReader([]byte("{not json")))
	req = req.WithContext(withUserID(req.Context(), 1))

	rr := httptest.NewRecorder()
	h.upload(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestUpload_StorageUnavailableAnswers503(t *testing.T) {
	mockSvc := &mockSyncService{
		uploadFn: func(context.Context, models.SyncCommand) (models.SyncResult, error) {
			return models.SyncResult{}, store.ErrStorageUnavailable
		},
	}
	h := newHandlerWithSyncService(mockSvc)

	body, _ := json.Marshal(models.UploadRequest{})
	req := httptest.NewRequest(http.MethodPost, "/api/sync/upload", bytes.NewReader(body))
	req = req.WithContext(withUserID(req.Context(), 1))

	rr := httptest.NewRecorder()
	h.upload(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}

func TestDownload_Success(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()

	var gotCmd models.SyncCommand
	mockSvc := &mockSyncService{
		downloadFn: func(_ context.Context, cmd models.SyncCommand) (models.SyncResult, error) {
			gotCmd = cmd
			return models.SyncResult{
				Delta: []models.Entity{{
					ID:        "budget-1",
					Kind:      models.KindBudget,
					Name:      "Groceries",
					Amount:    decimal.RequireFromString("600.00"),
					UpdatedAt: now,
				}},
				Checkpoint: now,
			}, nil
		},
	}
	h := newHandlerWithSyncService(mockSvc)

	req := httptest.NewRequest(http.MethodGet, "/api/sync/download?since=1690000000000", nil)
	req = req.WithContext(withUserID(req.Context(), 1))

	rr := httptest.NewRecorder()
	h.download(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	if gotCmd.Since == nil {
		t.Fatal("expected since to be parsed")
	}
	if got := models.TimeToMillis(*gotCmd.Since); got != 1690000000000 {
		t.Errorf("expected since 1690000000000, got %d", got)
	}

	var resp models.DownloadResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Length != 1 {
		t.Fatalf("expected 1 entity, got %d", resp.Length)
	}
	if resp.Checkpoint != models.TimeToMillis(now) {
		t.Errorf("expected checkpoint %d, got %d", models.TimeToMillis(now), resp.Checkpoint)
	}
}

func TestDownload_NoSinceMeansFullSync(t *testing.T) {
	var gotCmd models.SyncCommand
	mockSvc := &mockSyncService{
		downloadFn: func(_ context.Context, cmd models.SyncCommand) (models.SyncResult, error) {
			gotCmd = cmd
			return models.SyncResult{}, nil
		},
	}
	h := newHandlerWithSyncService(mockSvc)

	req := httptest.NewRequest(http.MethodGet, "/api/sync/download", nil)
	req = req.WithContext(withUserID(req.Context(), 1))

	rr := httptest.NewRecorder()
	h.download(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if gotCmd.Since != nil {
		t.Errorf("expected nil since for full sync, got %v", gotCmd.Since)
	}
}

func TestDownload_InvalidSince(t *testing.T) {
	h := newHandlerWithSyncService(&mockSyncService{})

	req := httptest.NewRequest(http.MethodGet, "/api/sync/download?since=yesterday", nil)
	req = req.WithContext(withUserID(req.Context(), 1))

	rr := httptest.NewRecorder()
	h.download(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}
