package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dispatch_orders_created_total",
		Help: "Total number of orders successfully created.",
	})

	OrdersDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dispatch_orders_deleted_total",
		Help: "Total number of orders deleted.",
	})

	SchedulePlacedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dispatch_schedule_placed_total",
		Help: "Total number of accepted schedule placements, moves included.",
	})

	ScheduleRejectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dispatch_schedule_rejected_total",
		Help: "Total number of placements rejected because the slot was held by another order.",
	})

	AssignmentsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dispatch_assignments_total",
		Help: "Total number of orders assigned to a driver, bulk operations counted per order.",
	})

	ImportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_imports_total",
		Help: "Total number of accepted collection imports.",
	},
		[]string{"collection"},
	)

	OperationErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_operation_errors_total",
		Help: "Total number of errors encountered during specific operations.",
	},
		[]string{"operation"},
	)

	ScheduledOrders = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dispatch_scheduled_orders",
		Help: "Current number of orders placed on the calendar.",
	})
)
