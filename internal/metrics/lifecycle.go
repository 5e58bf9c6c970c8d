package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	NameTransitions   = "record_transitions_total"
	NameNotDestroyed  = "record_not_destroyed_total"
	NameStoreRetries  = "store_retries_total"
	LabelKind         = "kind"
	LabelTransition   = "transition"
	LabelOperation    = "operation"
	TransitionDelete  = "soft_delete"
	TransitionRestore = "restore"
	TransitionPurge   = "permanent_delete"
)

var Transitions = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name:      NameTransitions,
		Help:      "Total record lifecycle transitions",
		Namespace: Namespace,
	},
	[]string{LabelKind, LabelTransition},
)

var NotDestroyed = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name:      NameNotDestroyed,
		Help:      "Total strict operations that failed to destroy their record",
		Namespace: Namespace,
	},
	[]string{LabelKind, LabelOperation},
)

var StoreRetries = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name:      NameStoreRetries,
		Help:      "Total store transactions retried after a busy or locked database",
		Namespace: Namespace,
	},
	[]string{LabelKind},
)
