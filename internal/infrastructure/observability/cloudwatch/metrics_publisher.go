package cloudwatch

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"github.com/dreschagin/motion-camera/internal/application/dto"
	"github.com/dreschagin/motion-camera/pkg/logger"
)

const (
	// CloudWatch limits
	maxMetricsPerRequest   = 1000
	maxDimensionsPerMetric = 30
	maxRetries             = 3
	initialBackoff         = 100 * time.Millisecond

	// distinct series held between flushes; samples of new series are dropped beyond it
	maxPendingSeries = 500
)

// MetricsPublisherConfig holds configuration for CloudWatch metrics publishing.
type MetricsPublisherConfig struct {
	Namespace         string            // CloudWatch namespace (e.g., "MotionCamera/Pipeline")
	Region            string            // AWS region (e.g., "us-east-1")
	Endpoint          string            // Optional endpoint override (for LocalStack)
	AccessKeyID       string            // AWS access key
	SecretAccessKey   string            // AWS secret key
	DefaultDimensions map[string]string // Dimensions added to every point, e.g. ClientId
	FlushInterval     time.Duration     // How often accumulated series are sent
}

// metricSeries accumulates the samples of one metric and dimension set between flushes.
// Status ticks are more frequent than flushes, so each flush sends one StatisticSet per series.
type metricSeries struct {
	name       string
	unit       types.StandardUnit
	dimensions []types.Dimension

	count float64
	sum   float64
	min   float64
	max   float64
	last  time.Time
}

func (s *metricSeries) add(value float64, at time.Time) {
	if s.count == 0 || value < s.min {
		s.min = value
	}
	if s.count == 0 || value > s.max {
		s.max = value
	}
	s.count++
	s.sum += value
	if at.After(s.last) {
		s.last = at
	}
}

func (s *metricSeries) merge(other *metricSeries) {
	if other.count == 0 {
		return
	}
	if s.count == 0 || other.min < s.min {
		s.min = other.min
	}
	if s.count == 0 || other.max > s.max {
		s.max = other.max
	}
	s.count += other.count
	s.sum += other.sum
	if other.last.After(s.last) {
		s.last = other.last
	}
}

// MetricsPublisher publishes device and pipeline metrics to AWS CloudWatch.
// PublishBatch only aggregates in memory; PutMetricData runs in the background loop,
// so a camera without uplink never blocks its status tick on the network.
type MetricsPublisher struct {
	client            *cloudwatch.Client
	namespace         string
	defaultDimensions map[string]string
	logger            *logger.Logger

	mu      sync.Mutex
	pending map[string]*metricSeries
	dropped int

	flushTicker *time.Ticker
	stopCh      chan struct{}
	wg          sync.WaitGroup
}

// NewMetricsPublisher creates a new CloudWatch metrics publisher.
func NewMetricsPublisher(ctx context.Context, cfg MetricsPublisherConfig, log *logger.Logger) (*MetricsPublisher, error) {
	if cfg.Namespace == "" {
		return nil, fmt.Errorf("namespace is required")
	}
	if cfg.Region == "" {
		return nil, fmt.Errorf("region is required")
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 60 * time.Second
	}

	awsCfg, err := buildAWSConfig(ctx, cfg.Region, cfg.Endpoint, cfg.AccessKeyID, cfg.SecretAccessKey)
	if err != nil {
		return nil, fmt.Errorf("failed to build AWS config: %w", err)
	}

	p := &MetricsPublisher{
		client:            cloudwatch.NewFromConfig(awsCfg),
		namespace:         cfg.Namespace,
		defaultDimensions: cfg.DefaultDimensions,
		logger:            log,
		pending:           make(map[string]*metricSeries),
		flushTicker:       time.NewTicker(cfg.FlushInterval),
		stopCh:            make(chan struct{}),
	}

	p.wg.Add(1)
	go p.flushLoop()

	return p, nil
}

// PublishBatch folds metric points into their series until the next flush.
func (p *MetricsPublisher) PublishBatch(_ context.Context, points []dto.MetricPoint) error {
	if len(points) == 0 {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pending == nil {
		p.pending = make(map[string]*metricSeries)
	}

	for _, point := range points {
		dimensions := p.dimensionsFor(point)
		key := seriesKey(point.Name, dimensions)

		s, ok := p.pending[key]
		if !ok {
			if len(p.pending) >= maxPendingSeries {
				p.dropped++
				continue
			}
			s = &metricSeries{name: point.Name, unit: mapUnit(point.Unit), dimensions: dimensions}
			p.pending[key] = s
		}

		at := point.Timestamp
		if at.IsZero() {
			at = time.Now().UTC()
		}
		s.add(point.Value, at)
	}

	return nil
}

// Flush sends every accumulated series. Series that could not be sent are kept for the next flush.
func (p *MetricsPublisher) Flush(ctx context.Context) error {
	p.mu.Lock()
	batch := make([]*metricSeries, 0, len(p.pending))
	for _, s := range p.pending {
		batch = append(batch, s)
	}
	p.pending = make(map[string]*metricSeries)
	p.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}
	sort.Slice(batch, func(i, j int) bool { return batch[i].name < batch[j].name })

	for i := 0; i < len(batch); i += maxMetricsPerRequest {
		end := min(i+maxMetricsPerRequest, len(batch))

		data := make([]types.MetricDatum, 0, end-i)
		for _, s := range batch[i:end] {
			data = append(data, s.datum())
		}

		if err := p.putWithRetry(ctx, data); err != nil {
			p.restore(batch[i:])
			return fmt.Errorf("failed to publish %d series: %w", len(batch)-i, err)
		}
	}

	return nil
}

// Close stops the background flush goroutine and flushes remaining metrics.
func (p *MetricsPublisher) Close(ctx context.Context) error {
	close(p.stopCh)
	p.flushTicker.Stop()
	p.wg.Wait()

	return p.Flush(ctx)
}

func (p *MetricsPublisher) flushLoop() {
	defer p.wg.Done()

	for {
		select {
		case <-p.flushTicker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			if err := p.Flush(ctx); err != nil {
				p.logger.Warn("CloudWatch metrics flush failed", "error", err.Error())
			}
			cancel()

			if dropped := p.takeDropped(); dropped > 0 {
				p.logger.Warn("CloudWatch metric samples dropped", "samples", dropped, "max_series", maxPendingSeries)
			}
		case <-p.stopCh:
			return
		}
	}
}

// restore returns unsent series to the pending set, merging with samples collected meanwhile.
func (p *MetricsPublisher) restore(unsent []*metricSeries) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pending == nil {
		p.pending = make(map[string]*metricSeries)
	}

	for _, s := range unsent {
		key := seriesKey(s.name, s.dimensions)
		if current, ok := p.pending[key]; ok {
			current.merge(s)
			continue
		}
		if len(p.pending) >= maxPendingSeries {
			p.dropped += int(s.count)
			continue
		}
		p.pending[key] = s
	}
}

func (p *MetricsPublisher) takeDropped() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	dropped := p.dropped
	p.dropped = 0
	return dropped
}

func (p *MetricsPublisher) putWithRetry(ctx context.Context, data []types.MetricDatum) error {
	var lastErr error
	backoff := initialBackoff

	for attempt := 0; attempt < maxRetries; attempt++ {
		_, err := p.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
			Namespace:  aws.String(p.namespace),
			MetricData: data,
		})
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt < maxRetries-1 {
			select {
			case <-time.After(backoff):
				backoff *= 2
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	return fmt.Errorf("failed after %d retries: %w", maxRetries, lastErr)
}

// dimensionsFor merges default and point dimensions, point values win.
// The result is sorted by name and capped at the CloudWatch limit.
func (p *MetricsPublisher) dimensionsFor(point dto.MetricPoint) []types.Dimension {
	merged := make(map[string]string, len(p.defaultDimensions)+len(point.Dimensions))
	for key, value := range p.defaultDimensions {
		merged[key] = value
	}
	for key, value := range point.Dimensions {
		merged[key] = value
	}

	names := make([]string, 0, len(merged))
	for key := range merged {
		names = append(names, key)
	}
	sort.Strings(names)
	if len(names) > maxDimensionsPerMetric {
		names = names[:maxDimensionsPerMetric]
	}

	dimensions := make([]types.Dimension, 0, len(names))
	for _, name := range names {
		dimensions = append(dimensions, types.Dimension{
			Name:  aws.String(name),
			Value: aws.String(merged[name]),
		})
	}
	return dimensions
}

func seriesKey(name string, dimensions []types.Dimension) string {
	var b strings.Builder
	b.WriteString(name)
	for _, d := range dimensions {
		b.WriteByte('|')
		b.WriteString(aws.ToString(d.Name))
		b.WriteByte('=')
		b.WriteString(aws.ToString(d.Value))
	}
	return b.String()
}

// datum sends a single sample as Value and several as a StatisticSet.
func (s *metricSeries) datum() types.MetricDatum {
	datum := types.MetricDatum{
		MetricName: aws.String(s.name),
		Unit:       s.unit,
		Timestamp:  aws.Time(s.last),
		Dimensions: s.dimensions,
	}

	if s.count == 1 {
		datum.Value = aws.Float64(s.sum)
		return datum
	}

	datum.StatisticValues = &types.StatisticSet{
		SampleCount: aws.Float64(s.count),
		Sum:         aws.Float64(s.sum),
		Minimum:     aws.Float64(s.min),
		Maximum:     aws.Float64(s.max),
	}
	return datum
}

// mapUnit maps the units emitted by collectors and the pipeline to CloudWatch StandardUnit.
func mapUnit(unit string) types.StandardUnit {
	switch unit {
	case "%":
		return types.StandardUnitPercent
	case "bytes":
		return types.StandardUnitBytes
	case "MB":
		return types.StandardUnitMegabytes
	case "GB":
		return types.StandardUnitGigabytes
	case "bytes/s":
		return types.StandardUnitBytesSecond
	case "KB/s":
		return types.StandardUnitKilobytesSecond
	case "MB/s":
		return types.StandardUnitMegabytesSecond
	case "ms":
		return types.StandardUnitMilliseconds
	case "s":
		return types.StandardUnitSeconds
	case "count":
		return types.StandardUnitCount
	default:
		return types.StandardUnitNone
	}
}

// buildAWSConfig creates an AWS config with credentials.
func buildAWSConfig(ctx context.Context, region, endpoint, accessKeyID, secretAccessKey string) (aws.Config, error) {
	optFns := []func(*config.LoadOptions) error{
		config.WithRegion(region),
	}

	if accessKeyID != "" && secretAccessKey != "" {
		optFns = append(optFns, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return aws.Config{}, err
	}

	// Override endpoint if specified (for LocalStack testing)
	if endpoint != "" {
		cfg.BaseEndpoint = aws.String(endpoint)
	}

	return cfg, nil
}
