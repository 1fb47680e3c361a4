package reporter

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"race-report/metrics"
	"race-report/queues"
	"race-report/render"
	"race-report/report"

	"github.com/rs/zerolog/log"
)

// ReportBuilder builds a fresh report in the requested order.
type ReportBuilder interface {
	Build(order report.Order) (*report.Report, error)
}

// Controller turns queued report requests into published report results.
type Controller struct {
	publisher queues.Publisher
	builder   ReportBuilder
}

func NewController(p queues.Publisher, b ReportBuilder) *Controller {
	return &Controller{publisher: p, builder: b}
}

// publishFailure publishes a failure ReportResult and records metrics.
func (c *Controller) publishFailure(ctx context.Context, req *queues.ReportRequest, start time.Time, format, message string) error {
	status := queues.StatusFailure
	metrics.AsyncRequestsTotal.WithLabelValues(string(status)).Inc()
	res := &queues.ReportResult{
		EnvelopeVersion: queues.EnvelopeVersion,
		Type:            queues.ResultType,
		RequestID:       req.RequestID,
		Status:          status,
		Format:          format,
		ErrorMessage:    &message,
	}
	if err := c.publisher.PublishResult(ctx, res); err != nil {
		log.Error().Err(err).Str("requestId", req.RequestID).Msg("reporter: failed to publish failure result")
		return err
	}
	log.Warn().Str("requestId", req.RequestID).Str("error", message).Dur("duration", time.Since(start)).Msg("reporter: request failed")
	return nil
}

// Handle builds the requested report and publishes it. Bad input and build
// errors are published as failures; only a publish error is returned.
func (c *Controller) Handle(ctx context.Context, req *queues.ReportRequest) error {
	start := time.Now()
	log.Info().Str("requestId", req.RequestID).Str("order", req.Order).Str("driver", req.Driver).Msg("reporter: handling report request")

	renderer, err := render.For(req.Format)
	if err != nil {
		return c.publishFailure(ctx, req, start, req.Format, err.Error())
	}
	order, err := report.ParseOrder(req.Order)
	if err != nil {
		return c.publishFailure(ctx, req, start, renderer.Format(), err.Error())
	}

	rep, err := c.builder.Build(order)
	if err != nil {
		log.Error().Err(err).Str("requestId", req.RequestID).Msg("reporter: report build failed")
		return c.publishFailure(ctx, req, start, renderer.Format(), fmt.Sprintf("report build failed: %v", err))
	}
	if req.Driver != "" {
		rep = report.Lookup(rep, req.Driver)
	}

	var buf bytes.Buffer
	if err := render.Write(&buf, renderer, rep); err != nil {
		return c.publishFailure(ctx, req, start, renderer.Format(), err.Error())
	}
	payload := buf.String()

	status := queues.StatusSuccess
	duration := time.Since(start)
	metrics.AsyncRequestsTotal.WithLabelValues(string(status)).Inc()
	res := &queues.ReportResult{
		EnvelopeVersion: queues.EnvelopeVersion,
		Type:            queues.ResultType,
		RequestID:       req.RequestID,
		Status:          status,
		Format:          renderer.Format(),
		Payload:         &payload,
	}
	if err := c.publisher.PublishResult(ctx, res); err != nil {
		log.Error().Err(err).Str("requestId", req.RequestID).Dur("duration", duration).Msg("reporter: failed to publish result")
		return err
	}
	log.Info().Str("requestId", req.RequestID).Str("status", string(status)).Int("entries", rep.Len()).Dur("duration", duration).Msg("reporter: report published")
	return nil
}
