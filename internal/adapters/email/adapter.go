package email

import (
	"context"
	"errors"
	"net"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	common "github.com/example/notification-service/internal/adapters/common"
	"github.com/example/notification-service/internal/models"
	emailprovider "github.com/example/notification-service/internal/providers/email"
)

var smtpErrPattern = regexp.MustCompile(`smtp\s+(\d{3})`)

// Meta keys the adapter recognises on a request.
const (
	metaSubject = "subject"
	metaFrom    = "from"
)

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

// Adapter translates notification requests into email provider payloads and
// classifies provider failures for the retry stage.
type Adapter struct {
	logger      zerolog.Logger
	provider    emailprovider.Provider
	maxRawChars int
}

// NewAdapter constructs an email adapter around the injected provider.
func NewAdapter(provider emailprovider.Provider, logger zerolog.Logger, opts ...Option) (*Adapter, error) {
	if provider == nil {
		return nil, errors.New("email adapter: provider dependency is required")
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

// Send delivers the request through the provider. Transport failures are
// wrapped with sentinel markers so the retry stage can distinguish transient
// from permanent conditions.
func (a *Adapter) Send(ctx context.Context, req *models.NotificationRequest) (*common.ProviderResponse, error) {
	if req == nil {
		return nil, common.WrapPermanent(errors.New("email adapter: request is nil"))
	}

	payload := a.buildPayload(req)

	rawResp, err := a.provider.Send(ctx, payload)
	if err != nil {
		resp := a.buildErrorResponse(rawResp, err)
		a.logger.Info().
			Str("message_id", req.ID).
			Str("channel", string(models.ChannelEmail)).
			Str("provider_status", resp.Status).
			Err(err).
			Msg("email adapter send failed")
		return resp, a.wrapError(err, rawResp)
	}

	resp := a.buildSuccessResponse(rawResp)
	a.logger.Debug().
		Str("message_id", req.ID).
		Str("channel", string(models.ChannelEmail)).
		Str("provider_status", resp.Status).
		Msg("email adapter send succeeded")
	return resp, nil
}

func (a *Adapter) buildPayload(req *models.NotificationRequest) *emailprovider.Payload {
	headers := map[string]string{
		"X-Request-ID": req.ID,
	}
	if req.TraceID != "" {
		headers["X-Trace-ID"] = req.TraceID
	}
	for key, val := range req.Meta {
		if strings.HasPrefix(key, "X-") {
			headers[key] = val
		}
	}

	subject, _ := req.MetaValue(metaSubject)
	from, _ := req.MetaValue(metaFrom)

	return &emailprovider.Payload{
		MessageID: req.ID,
		From:      from,
		To:        req.Recipient,
		Subject:   subject,
		Body:      req.Message,
		Headers:   headers,
	}
}

func (a *Adapter) buildSuccessResponse(raw *emailprovider.RawResponse) *common.ProviderResponse {
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

func (a *Adapter) buildErrorResponse(raw *emailprovider.RawResponse, err error) *common.ProviderResponse {
	meta := make(map[string]string)
	var rawCode *int
	if raw != nil {
		if raw.ID != "" {
			meta["provider_id"] = raw.ID
		}
		rawCode = new(int)
		*rawCode = raw.Code
	}

	if code, ok := extractSMTPCode(err); ok && rawCode == nil {
		rawCode = &code
	}

	if len(meta) == 0 {
		meta = nil
	}

	return &common.ProviderResponse{
		Status:  a.classifyStatus(err, rawCode),
		Code:    rawCode,
		Message: err.Error(),
		Raw:     a.truncateRaw(raw),
		Meta:    meta,
	}
}

func (a *Adapter) wrapError(err error, raw *emailprovider.RawResponse) error {
	code, ok := extractSMTPCode(err)
	if !ok && raw != nil {
		code = raw.Code
		ok = true
	}

	if ok && isPermanentCode(code) {
		return common.WrapPermanent(err)
	}
	return common.WrapTransient(err)
}

func (a *Adapter) classifyStatus(err error, code *int) string {
	if code != nil {
		switch {
		case isPermanentCode(*code):
			return "rejected"
		case *code >= 400:
			return "deferred"
		}
	}
	if isTimeout(err) {
		return "timeout"
	}
	return "unknown"
}

func (a *Adapter) truncateRaw(raw *emailprovider.RawResponse) string {
	if raw == nil || raw.Body == "" {
		return ""
	}
	return common.TruncateRaw(raw.Body, a.maxRawChars)
}

func extractSMTPCode(err error) (int, bool) {
	if err == nil {
		return 0, false
	}
	matches := smtpErrPattern.FindStringSubmatch(strings.ToLower(err.Error()))
	if len(matches) != 2 {
		return 0, false
	}
	code, convErr := strconv.Atoi(matches[1])
	if convErr != nil {
		return 0, false
	}
	return code, true
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

func isPermanentCode(code int) bool {
	switch code {
	case 530, 535, 550, 551, 553:
		return true
	default:
		return false
	}
}

var _ common.Adapter = (*Adapter)(nil)
