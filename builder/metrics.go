package builder

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	tracer = otel.Tracer("voxnav.builder")
	meter  = otel.Meter("voxnav.builder")
)

var (
	buildLatency metric.Float64Histogram
	buildTotal   metric.Int64Counter
	nodesCreated metric.Int64Histogram
	linksCreated metric.Int64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		buildLatency, err = meter.Float64Histogram(
			"navgraph_build_duration_seconds",
			metric.WithDescription("Duration of navigation graph builds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		buildTotal, err = meter.Int64Counter(
			"navgraph_build_total",
			metric.WithDescription("Total number of navigation graph builds"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		nodesCreated, err = meter.Int64Histogram(
			"navgraph_nodes_created",
			metric.WithDescription("Number of nodes created per build, all levels"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		linksCreated, err = meter.Int64Histogram(
			"navgraph_links_created",
			metric.WithDescription("Number of sibling links created per build, all levels"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

func recordBuildMetrics(ctx context.Context, duration time.Duration, nodeCount, linkCount int, success bool) {
	if err := initMetrics(); err != nil {
		return
	}

	attrs := metric.WithAttributes(attribute.Bool("success", success))

	buildLatency.Record(ctx, duration.Seconds(), attrs)
	buildTotal.Add(ctx, 1, attrs)

	if success {
		nodesCreated.Record(ctx, int64(nodeCount))
		linksCreated.Record(ctx, int64(linkCount))
	}
}

func startBuildSpan(ctx context.Context, opts Options, worldSize [3]int32) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Builder.Build",
		trace.WithAttributes(
			attribute.Int("navgraph.levels", opts.Levels),
			attribute.Int("navgraph.agent_height", int(opts.AgentHeight)),
			attribute.Int("navgraph.world_x", int(worldSize[0])),
			attribute.Int("navgraph.world_y", int(worldSize[1])),
			attribute.Int("navgraph.world_z", int(worldSize[2])),
		),
	)
}

func startLevelSpan(ctx context.Context, level int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Builder.BuildLevel",
		trace.WithAttributes(attribute.Int("navgraph.level", level)),
	)
}

func setBuildSpanResult(span trace.Span, nodeCount, linkCount, levels int) {
	span.SetAttributes(
		attribute.Int("navgraph.node_count", nodeCount),
		attribute.Int("navgraph.link_count", linkCount),
		attribute.Int("navgraph.levels_built", levels),
	)
}
