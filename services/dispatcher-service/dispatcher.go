package main

import (
	"context"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"cybercrime-portal/pkg/catalog"
	"cybercrime-portal/pkg/events"
	"cybercrime-portal/pkg/logger"
)

var casesDispatched = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "cases_dispatched_total",
		Help: "Cases routed to an investigative unit",
	},
	[]string{"unit", "escalated"},
)

// OfficerCounter reports staffing. *directory.Store satisfies it.
type OfficerCounter interface {
	CountByRole(ctx context.Context, role catalog.UserRole) (int64, error)
}

type Dispatcher struct {
	table    *RoutingTable
	officers OfficerCounter
	log      *logger.Logger
}

func NewDispatcher(table *RoutingTable, officers OfficerCounter, log *logger.Logger) *Dispatcher {
	return &Dispatcher{table: table, officers: officers, log: log}
}

// Handle routes a case.created event. Other event types are ignored and
// reported as not dispatched.
func (d *Dispatcher) Handle(ctx context.Context, ev events.CaseEvent) (Dispatch, bool) {
	if ev.Type != events.CaseCreated {
		return Dispatch{}, false
	}

	dispatch := d.table.Route(ev)
	casesDispatched.WithLabelValues(dispatch.Unit.ID, strconv.FormatBool(dispatch.Escalate)).Inc()

	entry := d.log.WithCase(ev.CaseID).WithFields(logrus.Fields{
		"unit":       dispatch.Unit.ID,
		"department": dispatch.Unit.Department,
		"category":   ev.Category,
		"priority":   ev.Priority,
		"routing":    d.table.Version,
	})
	if !dispatch.Escalate {
		entry.Info("Case dispatched")
		return dispatch, true
	}

	entry.Warn("Case dispatched with escalation")
	if d.officers != nil {
		n, err := d.officers.CountByRole(ctx, catalog.RoleLawEnforcement)
		switch {
		case err != nil:
			d.log.WithCase(ev.CaseID).WithError(err).Error("Failed to check officer availability")
		case n == 0:
			d.log.WithCase(ev.CaseID).Error("Escalated case but no active officers are on record")
		}
	}
	return dispatch, true
}
