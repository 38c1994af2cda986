package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/ykarpov/billkeeper/internal/logger"
	"github.com/ykarpov/billkeeper/internal/utils"
	"github.com/ykarpov/billkeeper/models"
)

// upload applies a batch of client mutations in one transaction and answers
// with the number of applied operations plus the server-side values of any
// rows whose stored state was newer than the incoming mutation.
func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, found := utils.GetUserIDFromContext(ctx)
	if !found {
		log.Error().Str("func", "*Handler.upload").Msg("no user ID was given")
		http.Error(w, "no user ID was given", http.StatusBadRequest)
		return
	}

	var uploadRequest models.UploadRequest
	if err := json.NewDecoder(r.Body).Decode(&uploadRequest); err != nil {
		log.Err(err).Str("func", "*Handler.upload").Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	mutations := make([]models.MutationOperation, 0, len(uploadRequest.Mutations))
	for _, wireMutation := range uploadRequest.Mutations {
		mutation, err := wireMutation.Mutation()
		if err != nil {
			log.Err(err).Str("func", "*Handler.upload").Str("op_id", wireMutation.ID).Msg("invalid mutation payload")
			http.Error(w, "invalid mutation payload", http.StatusBadRequest)
			return
		}
		mutations = append(mutations, mutation)
	}

	result, err := h.services.SyncService.Upload(ctx, models.SyncCommand{
		UserID:     userID,
		DeviceID:   uploadRequest.DeviceID,
		DeviceType: uploadRequest.DeviceType,
		AppVersion: uploadRequest.AppVersion,
		Mutations:  mutations,
	})
	if err != nil {
		log.Err(err).Str("func", "*Handler.upload").Msg("error applying mutation batch")
		http.Error(w, "error applying mutation batch", statusFromError(err))
		return
	}

	conflicts := models.EntitiesToWire(result.Conflicts)
	response := models.UploadResponse{
		Applied:   result.Applied,
		Conflicts: conflicts,
		Length:    len(conflicts),
	}

	utils.WriteJSON(w, response, http.StatusOK)
}

// download returns every entity visible to the user modified after the
// "since" query parameter (epoch milliseconds; absent or zero requests the
// full collection), together with a fresh server checkpoint.
func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, found := utils.GetUserIDFromContext(ctx)
	if !found {
		log.Error().Str("func", "*Handler.download").Msg("no user ID was given")
		http.Error(w, "no user ID was given", http.StatusBadRequest)
		return
	}

	since, err := parseSinceParameter(r.URL.Query().Get("since"))
	if err != nil {
		log.Err(err).Str("func", "*Handler.download").Msg("invalid since parameter")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.services.SyncService.Download(ctx, models.SyncCommand{
		UserID: userID,
		Since:  since,
	})
	if err != nil {
		log.Err(err).Str("func", "*Handler.download").Msg("error reading delta")
		http.Error(w, "error reading delta", statusFromError(err))
		return
	}

	entities := models.EntitiesToWire(result.Delta)
	response := models.DownloadResponse{
		Entities:   entities,
		Checkpoint: models.TimeToMillis(result.Checkpoint),
		Length:     len(entities),
	}

	utils.WriteJSON(w, response, http.StatusOK)
}

func parseSinceParameter(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}

	millis, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || millis < 0 {
		return nil, ErrInvalidSinceParameter
	}
	if millis == 0 {
		return nil, nil
	}

	since := models.MillisToTime(millis)
	return &since, nil
}
