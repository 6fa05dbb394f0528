package push

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/rs/zerolog"

	common "github.com/example/notification-service/internal/adapters/common"
	"github.com/example/notification-service/internal/models"
	pushprovider "github.com/example/notification-service/internal/providers/push"
)

const metaTitle = "title"

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

// Adapter translates notification requests into push provider payloads and
// classifies provider failures for the retry stage.
type Adapter struct {
	logger      zerolog.Logger
	provider    pushprovider.Provider
	maxRawChars int
}

// NewAdapter constructs a push adapter around the injected provider.
func NewAdapter(provider pushprovider.Provider, logger zerolog.Logger, opts ...Option) (*Adapter, error) {
	if provider == nil {
		return nil, errors.New("push adapter: provider dependency is required")
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

// Send delivers the request through the provider. Device tokens are opaque;
// the adapter performs no format validation beyond presence.
func (a *Adapter) Send(ctx context.Context, req *models.NotificationRequest) (*common.ProviderResponse, error) {
	if req == nil {
		return nil, common.WrapPermanent(errors.New("push adapter: request is nil"))
	}

	payload := a.buildPayload(req)

	rawResp, err := a.provider.Send(ctx, payload)
	if err != nil {
		resp := a.buildErrorResponse(rawResp, err)
		a.logger.Info().
			Str("message_id", req.ID).
			Str("channel", string(models.ChannelPush)).
			Str("provider_status", resp.Status).
			Err(err).
			Msg("push adapter send failed")
		return resp, a.wrapError(err, rawResp)
	}

	resp := a.buildSuccessResponse(rawResp)
	a.logger.Debug().
		Str("message_id", req.ID).
		Str("channel", string(models.ChannelPush)).
		Msg("push adapter send succeeded")
	return resp, nil
}

func (a *Adapter) buildPayload(req *models.NotificationRequest) *pushprovider.Payload {
	title, _ := req.MetaValue(metaTitle)

	data := make(map[string]string, len(req.Meta))
	for k, v := range req.Meta {
		data[k] = v
	}
	if req.TraceID != "" {
		data["trace_id"] = req.TraceID
	}
	if len(data) == 0 {
		data = nil
	}

	return &pushprovider.Payload{
		MessageID: req.ID,
		Token:     req.Recipient,
		Title:     title,
		Body:      req.Message,
		Data:      data,
	}
}

func (a *Adapter) buildSuccessResponse(raw *pushprovider.RawResponse) *common.ProviderResponse {
	meta := make(map[string]string)
	var codePtr *int
	if raw != nil {
		if raw.ID != "" {
			meta["provider_id"] = raw.ID
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

func (a *Adapter) buildErrorResponse(raw *pushprovider.RawResponse, err error) *common.ProviderResponse {
	var codePtr *int
	if raw != nil {
		codePtr = new(int)
		*codePtr = raw.Code
	}

	status := "unknown"
	switch {
	case codePtr != nil && isPermanentHTTPCode(*codePtr):
		status = "rejected"
	case codePtr != nil && *codePtr >= 400:
		status = "deferred"
	case isUnregistered(err):
		status = "rejected"
	}

	return &common.ProviderResponse{
		Status:  status,
		Code:    codePtr,
		Message: err.Error(),
		Raw:     a.truncateRaw(raw),
	}
}

func (a *Adapter) wrapError(err error, raw *pushprovider.RawResponse) error {
	if raw != nil && isPermanentHTTPCode(raw.Code) {
		return common.WrapPermanent(err)
	}
	if isUnregistered(err) {
		return common.WrapPermanent(err)
	}
	return common.WrapTransient(err)
}

func (a *Adapter) truncateRaw(raw *pushprovider.RawResponse) string {
	if raw == nil || raw.Body == "" {
		return ""
	}
	return common.TruncateRaw(raw.Body, a.maxRawChars)
}

func isPermanentHTTPCode(code int) bool {
	if code == 408 || code == 429 {
		return false
	}
	return code >= 400 && code < 500
}

// FCM signals dead tokens with these error strings; resending to them can
// never succeed.
func isUnregistered(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "notregistered") || strings.Contains(msg, "invalidregistration")
}

var _ common.Adapter = (*Adapter)(nil)
