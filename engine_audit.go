package goBreach

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goBreach/hibp"
)

const (
	auditEventLookupBreached        = "lookup_breached"
	auditEventLookupClean           = "lookup_clean"
	auditEventLookupUnavailable     = "lookup_unavailable"
	auditEventLookupCanceled        = "lookup_canceled"
	auditEventLookupRateLimited     = "lookup_rate_limited"
	auditEventAutomaticCheckSkipped = "automatic_check_skipped"
	auditEventAvailabilityTripped   = "availability_tripped"
	auditEventAvailabilityReset     = "availability_reset"
	auditEventBulkCompleted         = "bulk_completed"
	auditEventBulkAborted           = "bulk_aborted"
)

// AuditErrorCode is the stable error value written to [AuditEvent.Error].
type AuditErrorCode string

const (
	auditErrUnavailable        AuditErrorCode = "lookup_unavailable"
	auditErrUpstreamStatus     AuditErrorCode = "upstream_status"
	auditErrCanceled           AuditErrorCode = "canceled"
	auditErrRateLimited        AuditErrorCode = "rate_limited"
	auditErrLimiterUnavailable AuditErrorCode = "rate_limiter_unavailable"
	auditErrAutomaticDisabled  AuditErrorCode = "automatic_checks_disabled"
	auditErrInternal           AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		RecordID:  recordIDFromContext(ctx),
		RunID:     runIDFromContext(ctx),
		ClientIP:  clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	var lookupErr *hibp.LookupError
	switch {
	case errors.As(err, &lookupErr) && lookupErr.StatusCode != 0:
		return auditErrUpstreamStatus
	case errors.Is(err, ErrLookupUnavailable):
		return auditErrUnavailable
	case errors.Is(err, context.Canceled):
		return auditErrCanceled
	case errors.Is(err, ErrLookupRateLimited):
		return auditErrRateLimited
	case errors.Is(err, ErrRateLimiterUnavailable):
		return auditErrLimiterUnavailable
	case errors.Is(err, ErrAutomaticChecksDisabled):
		return auditErrAutomaticDisabled
	default:
		return auditErrInternal
	}
}
