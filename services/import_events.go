package services

import (
	"context"
	"encoding/json"
	"time"

	aws_pkg "github.com/yashrajoria/asset-inventory-backend/pkg/aws"
	"github.com/yashrajoria/asset-inventory-backend/models"
	"go.uber.org/zap"
)

const eventImportCompleted = "asset_import_completed"

// MetricsRecorder is the subset of the CloudWatch client used for imports.
type MetricsRecorder interface {
	RecordCountValue(ctx context.Context, metricName string, value float64, dimensions map[string]string) error
	RecordLatency(ctx context.Context, metricName string, duration time.Duration, dimensions map[string]string) error
}

// ImportNotifier is told about every finished import. Failures are
// logged and never surface to the caller.
type ImportNotifier interface {
	ImportCompleted(ctx context.Context, event models.ImportCompletedEvent, latency time.Duration)
	ImportFailed(ctx context.Context, campusID string)
}

type importNotifier struct {
	snsClient   aws_pkg.SNSPublisher
	snsTopicArn string
	metrics     MetricsRecorder
	logger      *zap.Logger
}

// NewImportNotifier publishes completion events to SNS and import metrics
// to CloudWatch. Either sink may be nil.
func NewImportNotifier(
	snsClient aws_pkg.SNSPublisher,
	snsTopicArn string,
	metrics MetricsRecorder,
	logger *zap.Logger,
) ImportNotifier {
	return &importNotifier{
		snsClient:   snsClient,
		snsTopicArn: snsTopicArn,
		metrics:     metrics,
		logger:      logger,
	}
}

func (n *importNotifier) ImportCompleted(ctx context.Context, event models.ImportCompletedEvent, latency time.Duration) {
	event.EventType = eventImportCompleted
	n.recordMetrics(ctx, event, latency)
	n.publish(ctx, event)
}

// ImportFailed counts an import aborted by an infrastructure error.
func (n *importNotifier) ImportFailed(ctx context.Context, campusID string) {
	if n.metrics == nil {
		return
	}
	dims := map[string]string{"CampusID": campusID}
	if err := n.metrics.RecordCountValue(ctx, aws_pkg.MetricImportFailed, 1, dims); err != nil {
		n.logger.Warn("Failed to record import metric", zap.String("metric", aws_pkg.MetricImportFailed), zap.Error(err))
	}
}

func (n *importNotifier) recordMetrics(ctx context.Context, event models.ImportCompletedEvent, latency time.Duration) {
	if n.metrics == nil {
		return
	}
	dims := map[string]string{"CampusID": event.CampusID}

	counts := []struct {
		name  string
		value int
	}{
		{aws_pkg.MetricImportRecordsProcessed, event.Processed},
		{aws_pkg.MetricImportRecordsInserted, event.Inserted},
		{aws_pkg.MetricImportRecordsSkipped, event.Skipped},
	}
	for _, c := range counts {
		if err := n.metrics.RecordCountValue(ctx, c.name, float64(c.value), dims); err != nil {
			n.logger.Warn("Failed to record import metric", zap.String("metric", c.name), zap.Error(err))
		}
	}
	if err := n.metrics.RecordLatency(ctx, aws_pkg.MetricImportLatency, latency, dims); err != nil {
		n.logger.Warn("Failed to record import latency", zap.Error(err))
	}
}

func (n *importNotifier) publish(ctx context.Context, event models.ImportCompletedEvent) {
	if n.snsClient == nil || n.snsTopicArn == "" {
		n.logger.Debug("SNS not configured, skipping asset_import_completed event")
		return
	}

	eventBytes, err := json.Marshal(event)
	if err != nil {
		n.logger.Error("Failed to marshal asset_import_completed event", zap.Error(err))
		return
	}

	if err := n.snsClient.Publish(ctx, n.snsTopicArn, eventBytes); err != nil {
		n.logger.Error("Failed to publish asset_import_completed event", zap.Error(err))
		return
	}

	n.logger.Info("Published asset_import_completed event",
		zap.String("import_id", event.ImportID),
		zap.String("campus_id", event.CampusID),
	)
}
