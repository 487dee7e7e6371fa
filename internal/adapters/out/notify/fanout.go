// Package notify combines notifiers.
package notify

import (
	"context"
	"errors"

	"fulfillment/internal/core/domain/model/job"
	"fulfillment/internal/core/ports"
)

var (
	_ ports.Notifier = Fanout(nil)
	_ ports.Notifier = Noop{}
)

// Fanout delivers every event to each notifier in order. A failing notifier
// does not stop the others; their errors are joined.
type Fanout []ports.Notifier

func (f Fanout) JobStatusChanged(ctx context.Context, changed job.StatusChanged) error {
	var errList []error
	for _, n := range f {
		if err := n.JobStatusChanged(ctx, changed); err != nil {
			errList = append(errList, err)
		}
	}
	return errors.Join(errList...)
}

func (f Fanout) JobOffered(ctx context.Context, offer ports.Offer) error {
	var errList []error
	for _, n := range f {
		if err := n.JobOffered(ctx, offer); err != nil {
			errList = append(errList, err)
		}
	}
	return errors.Join(errList...)
}

// Noop drops every event.
type Noop struct{}

func (Noop) JobStatusChanged(context.Context, job.StatusChanged) error { return nil }
func (Noop) JobOffered(context.Context, ports.Offer) error            { return nil }
