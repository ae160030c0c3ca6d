package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 业务指标
var (
	// ProjectTransitions 项目状态流转计数
	ProjectTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cps",
		Name:      "project_transitions_total",
		Help:      "Number of committed project status transitions.",
	}, []string{"to_status"})

	// BroadcastEvents 实时事件广播计数
	BroadcastEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cps",
		Name:      "broadcast_events_total",
		Help:      "Number of realtime events published, by event type.",
	}, []string{"event"})

	// DroppedEvents 因订阅者缓冲满而丢弃的事件计数
	DroppedEvents = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "cps",
		Name:      "broadcast_events_dropped_total",
		Help:      "Number of realtime events dropped due to slow subscribers.",
	})

	// ActiveSubscribers 当前实时订阅者数量
	ActiveSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "cps",
		Name:      "realtime_subscribers",
		Help:      "Current number of realtime subscribers.",
	})

	// VersionConflicts 乐观锁冲突计数
	VersionConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "cps",
		Name:      "project_version_conflicts_total",
		Help:      "Number of optimistic lock conflicts on project transitions.",
	})
)
