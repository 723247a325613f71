// Package handlers exposes the services over HTTP under /api/v1.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/dapurasri/backoffice/internal/appctx"
	"github.com/dapurasri/backoffice/internal/model"
	"github.com/dapurasri/backoffice/internal/services"
	xhttp "github.com/dapurasri/backoffice/pkg/http"
	"github.com/dapurasri/backoffice/pkg/logger"
	"github.com/google/uuid"
)

const (
	msgInvalidJSON  = "Format data tidak valid"
	msgInvalidID    = "ID tidak valid"
	msgInvalidDate  = "Tanggal tidak valid"
	msgNotFound     = "Data tidak ditemukan"
	msgBusy         = "Sistem sedang sibuk, silakan coba lagi"
	msgInternal     = "Terjadi kesalahan, silakan coba lagi"
	msgUnauthorized = "Sesi tidak valid, silakan masuk kembali"
	msgCommitted    = "Transaksi %s sudah tersimpan, jangan simpan ulang"
	msgInUse        = "Data masih dipakai transaksi dan tidak bisa dihapus"
)

type errorResponse struct {
	Error     string `json:"error"`
	Field     string `json:"field,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

type listResponse[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
}

func readJSON(ctx *xhttp.RequestCtx, dst any) error {
	return json.Unmarshal(ctx.PostBody(), dst)
}

func writeJSON(ctx *xhttp.RequestCtx, status int, v any) {
	b, _ := json.Marshal(v)
	ctx.Response.Header.Set("Content-Type", "application/json; charset=utf-8")
	ctx.Response.SetStatusCode(status)
	ctx.Response.SetBodyRaw(b)
}

func writeError(ctx *xhttp.RequestCtx, status int, msg string) {
	writeJSON(ctx, status, errorResponse{Error: msg})
}

// writeServiceError maps a service error to its status. Anything unknown is
// logged and reported as 500 without details.
func writeServiceError(ctx *xhttp.RequestCtx, err error) {
	var ve *model.ValidationError
	var ce *services.CommittedError
	switch {
	case errors.As(err, &ve):
		writeJSON(ctx, xhttp.StatusBadRequest, errorResponse{Error: ve.Message, Field: ve.Field})
	case errors.As(err, &ce):
		logger.Error("draft bookkeeping lost after commit", "transaction", ce.TransactionNo, "error", ce.Err)
		writeError(ctx, xhttp.StatusConflict, fmt.Sprintf(msgCommitted, ce.TransactionNo))
	case errors.Is(err, services.ErrNotFound):
		writeError(ctx, xhttp.StatusNotFound, msgNotFound)
	case errors.Is(err, services.ErrInUse):
		writeError(ctx, xhttp.StatusConflict, msgInUse)
	case errors.Is(err, services.ErrInvalidState):
		writeError(ctx, xhttp.StatusConflict, err.Error())
	case errors.Is(err, services.ErrRetryable):
		logger.Warn("retryable failure", "path", string(ctx.Path()), "error", err)
		writeJSON(ctx, xhttp.StatusServiceUnavailable, errorResponse{Error: msgBusy, Retryable: true})
	case errors.Is(err, appctx.ErrUnauthenticated):
		writeError(ctx, xhttp.StatusUnauthorized, msgUnauthorized)
	default:
		logger.Error("request failed", "method", string(ctx.Method()), "path", string(ctx.Path()), "error", err)
		writeError(ctx, xhttp.StatusInternalServerError, msgInternal)
	}
}

func query(ctx *xhttp.RequestCtx, key string) string {
	return string(ctx.QueryArgs().Peek(key))
}

func pathID(ctx *xhttp.RequestCtx) (uuid.UUID, bool) {
	raw, _ := ctx.UserValue("id").(string)
	id, err := uuid.Parse(raw)
	if err != nil {
		writeError(ctx, xhttp.StatusBadRequest, msgInvalidID)
		return uuid.Nil, false
	}
	return id, true
}

// queryDate returns nil when key is absent; ok is false after a 400 was written.
func queryDate(ctx *xhttp.RequestCtx, key string) (*model.Date, bool) {
	v := query(ctx, key)
	if v == "" {
		return nil, true
	}
	d, err := model.ParseDate(v)
	if err != nil {
		writeError(ctx, xhttp.StatusBadRequest, msgInvalidDate)
		return nil, false
	}
	return &d, true
}

func queryUUID(ctx *xhttp.RequestCtx, key string) (*uuid.UUID, bool) {
	v := query(ctx, key)
	if v == "" {
		return nil, true
	}
	id, err := uuid.Parse(v)
	if err != nil {
		writeError(ctx, xhttp.StatusBadRequest, msgInvalidID)
		return nil, false
	}
	return &id, true
}

func queryInt(ctx *xhttp.RequestCtx, key string) int {
	n, _ := strconv.Atoi(query(ctx, key))
	return n
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
