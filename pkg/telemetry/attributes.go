// Copyright 2026 © The Praxis Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Semantic conventions for Praxis runtime telemetry.
const (
	// Agent attributes
	AttrAgentRunID = "praxis.agent.run_id"
	AttrAgentState = "praxis.agent.state"

	// Cycle attributes
	AttrCycleID      = "praxis.cycle.id"
	AttrCycleSuccess = "praxis.cycle.success"
	AttrCycleReward  = "praxis.cycle.reward"

	// Event attributes
	AttrEventID       = "praxis.event.id"
	AttrEventType     = "praxis.event.type"
	AttrEventPriority = "praxis.event.priority"

	// Action attributes
	AttrActionKind       = "praxis.action.kind"
	AttrActionDurationMs = "praxis.action.duration_ms"

	// Intervention attributes
	AttrInterventionType   = "praxis.intervention.type"
	AttrInterventionReason = "praxis.intervention.reason"

	// Memory attributes
	AttrMemoryCollection = "praxis.memory.collection"
	AttrMemoryStored     = "praxis.memory.stored"

	// Scheduler attributes
	AttrTaskName     = "praxis.task.name"
	AttrTaskRunCount = "praxis.task.run_count"
)

// CycleAttributes returns common attributes for cycle spans.
func CycleAttributes(cycleID uint64, actionKind string, success bool, reward float64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int64(AttrCycleID, int64(cycleID)),
		attribute.String(AttrActionKind, actionKind),
		attribute.Bool(AttrCycleSuccess, success),
		attribute.Float64(AttrCycleReward, reward),
	}
}

// EventAttributes returns attributes identifying a queued event.
func EventAttributes(id, eventType, priority string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(AttrEventType, eventType),
		attribute.String(AttrEventPriority, priority),
	}
	if id != "" {
		attrs = append(attrs, attribute.String(AttrEventID, id))
	}
	return attrs
}

// InterventionAttributes returns attributes for metacognition spans.
func InterventionAttributes(interventionType, reason string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(AttrInterventionType, interventionType),
	}
	if reason != "" {
		if len(reason) > 200 {
			reason = reason[:200] + "..."
		}
		attrs = append(attrs, attribute.String(AttrInterventionReason, reason))
	}
	return attrs
}

// TaskAttributes returns attributes for scheduler task firings.
func TaskAttributes(name string, runCount uint64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrTaskName, name),
		attribute.Int64(AttrTaskRunCount, int64(runCount)),
	}
}
