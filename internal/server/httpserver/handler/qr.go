package handler

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/yndnr/tsqr-go/internal/core/domain"
	"github.com/yndnr/tsqr-go/internal/core/service"
	"github.com/yndnr/tsqr-go/internal/server/config"
	"github.com/yndnr/tsqr-go/internal/telemetry/logger"
)

// ReceiptField is the multipart form field carrying the receipt image.
const ReceiptField = "receipt"

// RequireQRHeader forces QR enforcement on the gate endpoint when truthy.
const RequireQRHeader = "X-POS-Require-QR"

// multipartOverhead is the allowance for form boundaries and part headers
// on top of the image size limit.
const multipartOverhead = 64 << 10

// handleVerify handles POST /api/pos/qr/verify.
//
// Token rejections are reported in the body with 200, except replay which
// is reported with 409.
func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	data, err := h.readReceipt(w, r)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	res, err := h.verifyImage(r, data)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	resp := newVerifyResponse(res)
	if res.Verdict.Reason.IsConflict() {
		de := domain.ReasonError(res.Verdict.Reason)
		h.writeError(w, r, http.StatusConflict, de.Code, de.Message, resp)
		return
	}
	h.writeJSON(w, r, http.StatusOK, resp)
}

// handleGate handles POST /api/pos/qr/gate.
//
// When QR enforcement applies, the upload must carry a valid signed token;
// otherwise it passes through unverified.
func (h *Handler) handleGate(w http.ResponseWriter, r *http.Request) {
	data, err := h.readReceipt(w, r)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	if !h.qrRequired(r) {
		h.writeJSON(w, r, http.StatusOK, GateResponse{Required: false})
		return
	}

	res, err := h.verifyImage(r, data)
	if err != nil {
		if errors.Is(err, domain.ErrNoCode) {
			err = domain.ErrNoCode.WithDetails("QR required")
		}
		h.handleServiceError(w, r, err)
		return
	}

	v := res.Verdict
	if !v.Valid {
		de := domain.ReasonError(v.Reason)
		if de == nil {
			de = domain.ErrInternal
		}
		status := http.StatusBadRequest
		if v.Reason.IsConflict() {
			status = http.StatusConflict
		}
		h.writeError(w, r, status, de.Code, fmt.Sprintf("QR invalid: %s", v.Reason),
			GateResponse{Required: true, Reason: v.Reason, Payload: v.Payload})
		return
	}

	h.writeJSON(w, r, http.StatusOK, GateResponse{
		Required: true,
		Verified: true,
		Reason:   v.Reason,
		Payload:  v.Payload,
		Trust:    res.Trust,
	})
}

// qrRequired reports whether the gate endpoint must verify the upload.
func (h *Handler) qrRequired(r *http.Request) bool {
	if isTruthy(r.Header.Get(RequireQRHeader)) {
		return true
	}
	switch h.enforcement {
	case config.EnforcementOff:
		return false
	case config.EnforcementAuto:
		return h.gate != nil && h.gate.HasSecrets()
	default:
		return true
	}
}

func (h *Handler) verifyImage(r *http.Request, data []byte) (*service.GateResult, error) {
	if h.gate == nil {
		return nil, domain.ErrDecoderUnavailable.WithDetails("gate not configured")
	}

	start := time.Now()
	res, err := h.gate.VerifyImage(r.Context(), data)
	if h.timer != nil {
		h.timer.ObserveDecode(time.Since(start))
	}
	if err != nil {
		return nil, err
	}

	v := res.Verdict
	logger.L(r.Context()).Info("qr verified",
		"valid", v.Valid,
		"reason", v.Reason,
		"tenant_id", v.Payload.TenantID(),
		"bytes", len(data),
	)
	return res, nil
}

// readReceipt returns the uploaded image bytes. It accepts either a
// multipart form with a "receipt" file part or a raw image body.
func (h *Handler) readReceipt(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+multipartOverhead)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		if !acceptedMediaType(r.Header.Get("Content-Type")) {
			return nil, domain.ErrUnsupportedMedia
		}
		return h.readLimited(r.Body)
	}

	mr, err := r.MultipartReader()
	if err != nil {
		return nil, domain.ErrBadRequest.WithDetails("malformed multipart body").WithCause(err)
	}
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			return nil, domain.ErrBadRequest.WithDetails("no file uploaded")
		}
		if err != nil {
			if isMaxBytes(err) {
				return nil, domain.ErrImageTooLarge
			}
			return nil, domain.ErrBadRequest.WithDetails("malformed multipart body").WithCause(err)
		}
		if part.FormName() != ReceiptField {
			part.Close()
			continue
		}
		defer part.Close()

		if !acceptedMediaType(part.Header.Get("Content-Type")) {
			return nil, domain.ErrUnsupportedMedia
		}
		return h.readLimited(part)
	}
}

func (h *Handler) readLimited(src io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(src, h.maxUpload+1))
	if err != nil {
		if isMaxBytes(err) {
			return nil, domain.ErrImageTooLarge
		}
		return nil, domain.ErrBadRequest.WithDetails("failed to read upload").WithCause(err)
	}
	if int64(len(data)) > h.maxUpload {
		return nil, domain.ErrImageTooLarge
	}
	return data, nil
}

// acceptedMediaType reports whether an upload content type may carry a
// raster image: any image/* type or application/octet-stream.
func acceptedMediaType(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if mt, _, err := mime.ParseMediaType(ct); err == nil {
		ct = mt
	}
	return strings.HasPrefix(ct, "image/") || ct == "application/octet-stream"
}

func isMaxBytes(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
