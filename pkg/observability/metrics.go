package observability

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"
)

// Metrics publishes operational metrics to CloudWatch. A nil client turns
// every call into a no-op, so local development needs no AWS credentials.
type Metrics struct {
	client    *cloudwatch.Client
	namespace string
	logger    *zap.Logger
}

// NewMetrics creates a metrics publisher for the given namespace.
func NewMetrics(client *cloudwatch.Client, namespace string, logger *zap.Logger) *Metrics {
	return &Metrics{
		client:    client,
		namespace: namespace,
		logger:    logger,
	}
}

// IncrementCounter records a count metric.
func (m *Metrics) IncrementCounter(ctx context.Context, name string, value float64, dimensions map[string]string) {
	m.put(ctx, name, value, cwtypes.StandardUnitCount, dimensions)
}

// RecordDuration records a latency metric in milliseconds.
func (m *Metrics) RecordDuration(ctx context.Context, name string, d time.Duration, dimensions map[string]string) {
	m.put(ctx, name, float64(d.Milliseconds()), cwtypes.StandardUnitMilliseconds, dimensions)
}

// RecordBytes records a size metric.
func (m *Metrics) RecordBytes(ctx context.Context, name string, bytes int, dimensions map[string]string) {
	m.put(ctx, name, float64(bytes), cwtypes.StandardUnitBytes, dimensions)
}

func (m *Metrics) put(ctx context.Context, name string, value float64, unit cwtypes.StandardUnit, dimensions map[string]string) {
	if m == nil || m.client == nil {
		return
	}

	dims := make([]cwtypes.Dimension, 0, len(dimensions))
	for key, val := range dimensions {
		dims = append(dims, cwtypes.Dimension{
			Name:  aws.String(key),
			Value: aws.String(val),
		})
	}

	_, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(m.namespace),
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: aws.String(name),
				Value:      aws.Float64(value),
				Unit:       unit,
				Timestamp:  aws.Time(time.Now()),
				Dimensions: dims,
			},
		},
	})
	if err != nil && m.logger != nil {
		// Metrics are best-effort; never fail the operation being measured.
		m.logger.Warn("failed to publish metric",
			zap.String("metric", name),
			zap.Error(err))
	}
}
