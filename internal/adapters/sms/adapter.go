package sms

import (
	"context"
	"errors"
	"net"
	"reflect"
	"strings"
	"time"

	"github.com/rs/zerolog"

	common "github.com/example/notification-service/internal/adapters/common"
	"github.com/example/notification-service/internal/models"
	smsprovider "github.com/example/notification-service/internal/providers/sms"
)

const metaFrom = "from"

// Option customises adapter behaviour.
type Option func(*Adapter)

// WithRawBodyLimit overrides the maximum number of characters retained from
// the provider raw response.
func WithRawBodyLimit(limit int) Option {
	return func(a *Adapter) {
		if limit > 0 {
			a.maxRawChars = limit
		}
	}
}

// Adapter translates notification requests into SMS provider payloads and
// classifies provider failures for the retry stage.
type Adapter struct {
	logger      zerolog.Logger
	provider    smsprovider.Provider
	maxRawChars int
}

// NewAdapter constructs an SMS adapter around the injected provider.
func NewAdapter(provider smsprovider.Provider, logger zerolog.Logger, opts ...Option) (*Adapter, error) {
	if provider == nil {
		return nil, errors.New("sms adapter: provider dependency is required")
	}
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}

	a := &Adapter{
		logger:      logger,
		provider:    provider,
		maxRawChars: common.DefaultRawBodyLimit,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}

	return a, nil
}

// Send delivers the request through the provider.
func (a *Adapter) Send(ctx context.Context, req *models.NotificationRequest) (*common.ProviderResponse, error) {
	if req == nil {
		return nil, common.WrapPermanent(errors.New("sms adapter: request is nil"))
	}

	payload := a.buildPayload(req)

	rawResp, err := a.provider.Send(ctx, payload)
	if err != nil {
		resp := a.buildErrorResponse(rawResp, err)
		a.logger.Info().
			Str("message_id", req.ID).
			Str("channel", string(models.ChannelSMS)).
			Str("provider_status", resp.Status).
			Err(err).
			Msg("sms adapter send failed")
		return resp, a.wrapError(err, rawResp)
	}

	resp := a.buildSuccessResponse(rawResp)
	a.logger.Debug().
		Str("message_id", req.ID).
		Str("channel", string(models.ChannelSMS)).
		Str("provider_status", resp.Status).
		Msg("sms adapter send succeeded")
	return resp, nil
}

func (a *Adapter) buildPayload(req *models.NotificationRequest) *smsprovider.Payload {
	from, _ := req.MetaValue(metaFrom)

	meta := make(map[string]string, len(req.Meta))
	for k, v := range req.Meta {
		meta[k] = v
	}
	if req.TraceID != "" {
		meta["trace_id"] = req.TraceID
	}
	if len(meta) == 0 {
		meta = nil
	}

	return &smsprovider.Payload{
		MessageID: req.ID,
		From:      from,
		To:        req.Recipient,
		Body:      req.Message,
		Meta:      meta,
	}
}

func (a *Adapter) buildSuccessResponse(raw *smsprovider.RawResponse) *common.ProviderResponse {
	meta := make(map[string]string)
	var codePtr *int
	if raw != nil {
		if raw.ID != "" {
			meta["provider_id"] = raw.ID
		}
		if raw.Status != "" {
			meta["provider_delivery_status"] = raw.Status
		}
		if !raw.Timestamp.IsZero() {
			meta["provider_timestamp"] = raw.Timestamp.UTC().Format(time.RFC3339Nano)
		}
		codePtr = new(int)
		*codePtr = raw.Code
	}
	if len(meta) == 0 {
		meta = nil
	}

	return &common.ProviderResponse{
		Status:  "ok",
		Code:    codePtr,
		Message: "sent",
		Raw:     a.truncateRaw(raw),
		Meta:    meta,
	}
}

func (a *Adapter) buildErrorResponse(raw *smsprovider.RawResponse, err error) *common.ProviderResponse {
	meta := make(map[string]string)
	var codePtr *int
	if raw != nil {
		if raw.ID != "" {
			meta["provider_id"] = raw.ID
		}
		codePtr = new(int)
		*codePtr = raw.Code
	}
	if len(meta) == 0 {
		meta = nil
	}

	status := "unknown"
	if codePtr != nil {
		switch {
		case isPermanentHTTPCode(*codePtr):
			status = "rejected"
		case *codePtr >= 400:
			status = "deferred"
		}
	} else if isTimeout(err) {
		status = "timeout"
	}

	return &common.ProviderResponse{
		Status:  status,
		Code:    codePtr,
		Message: err.Error(),
		Raw:     a.truncateRaw(raw),
		Meta:    meta,
	}
}

func (a *Adapter) wrapError(err error, raw *smsprovider.RawResponse) error {
	if raw != nil && isPermanentHTTPCode(raw.Code) {
		return common.WrapPermanent(err)
	}
	return common.WrapTransient(err)
}

func (a *Adapter) truncateRaw(raw *smsprovider.RawResponse) string {
	if raw == nil || raw.Body == "" {
		return ""
	}
	return common.TruncateRaw(raw.Body, a.maxRawChars)
}

// 4xx responses other than 408 (timeout) and 429 (rate limit) indicate the
// request itself is unacceptable and retrying cannot help.
func isPermanentHTTPCode(code int) bool {
	if code == 408 || code == 429 {
		return false
	}
	return code >= 400 && code < 500
}

func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return strings.Contains(strings.ToLower(err.Error()), "timeout")
}

var _ common.Adapter = (*Adapter)(nil)
