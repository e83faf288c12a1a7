// Package bulk runs actions over a selection of items: opening one retailer
// link per item, or marking the whole selection purchased in one call.
package bulk

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/GiftSync/internal/metrics"
	"github.com/Kerhoff/GiftSync/internal/models"
)

// Stagger is the delay added between consecutive link opens.
const Stagger = 300 * time.Millisecond

// Mode picks which retailer link of an item is opened.
type Mode string

const (
	ModeCheapest Mode = "cheapest"
	ModeHighend  Mode = "highend"
	ModeAmazon   Mode = "amazon"
)

// Modes lists every supported mode.
var Modes = []Mode{ModeCheapest, ModeHighend, ModeAmazon}

// ParseMode validates a user-supplied mode name.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case ModeCheapest, ModeHighend, ModeAmazon:
		return m, nil
	}
	return "", fmt.Errorf("unknown link mode %q", s)
}

// Target is a link resolved for one item.
type Target struct {
	ItemID   uuid.UUID
	ItemName string
	Link     models.RetailerLink
}

// Resolve picks at most one link per item, keeping item order. Items without
// a matching link are skipped.
func Resolve(items []models.GiftItem, mode Mode) []Target {
	var out []Target
	for _, it := range items {
		for _, l := range it.RetailerLinks {
			if matches(l, mode) {
				out = append(out, Target{ItemID: it.ID, ItemName: it.Name, Link: l.Clone()})
				break
			}
		}
	}
	return out
}

func matches(l models.RetailerLink, mode Mode) bool {
	switch mode {
	case ModeCheapest:
		return l.IsBestPrice
	case ModeHighend:
		return l.IsHighend
	case ModeAmazon:
		return strings.Contains(strings.ToLower(l.StoreName), "amazon")
	}
	return false
}

// Opener performs the external side effect for one resolved link.
type Opener interface {
	Open(ctx context.Context, target Target) error
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(ctx context.Context, target Target) error

func (f OpenerFunc) Open(ctx context.Context, target Target) error { return f(ctx, target) }

// Scheduler runs fn after d.
type Scheduler func(d time.Duration, fn func())

// AfterFunc schedules with time.AfterFunc.
func AfterFunc(d time.Duration, fn func()) { time.AfterFunc(d, fn) }

// Marker applies a batched completion change.
type Marker interface {
	BulkMarkComplete(ctx context.Context, ids []uuid.UUID, value bool) error
}

// Dispatcher runs bulk actions.
type Dispatcher struct {
	opener   Opener
	schedule Scheduler
	logger   *logrus.Logger
	metrics  *metrics.Metrics
}

// NewDispatcher creates a dispatcher. A nil scheduler means AfterFunc.
func NewDispatcher(opener Opener, schedule Scheduler, logger *logrus.Logger, m *metrics.Metrics) *Dispatcher {
	if schedule == nil {
		schedule = AfterFunc
	}
	return &Dispatcher{
		opener:   opener,
		schedule: schedule,
		logger:   logger,
		metrics:  m,
	}
}

// Open resolves links for items and schedules one open per link, the n-th
// after n*Stagger. It returns the scheduled targets without waiting for any
// open to happen. Failed opens are logged and otherwise ignored.
func (d *Dispatcher) Open(ctx context.Context, items []models.GiftItem, mode Mode) []Target {
	targets := Resolve(items, mode)
	ctx = context.WithoutCancel(ctx)

	for i, target := range targets {
		d.schedule(time.Duration(i)*Stagger, func() {
			if err := d.opener.Open(ctx, target); err != nil {
				d.logger.WithFields(logrus.Fields{
					"item_id": target.ItemID,
					"url":     target.Link.URL,
					"error":   err,
				}).Warn("Failed to open retailer link")
			}
		})
	}

	d.metrics.ObserveLinkOpens(string(mode), len(targets))
	return targets
}

// MarkPurchased sets the completion flag of every id through m. The caller
// clears the selection once it returns nil.
func (d *Dispatcher) MarkPurchased(ctx context.Context, m Marker, ids []uuid.UUID, value bool) error {
	return m.BulkMarkComplete(ctx, ids, value)
}

// LogOpener only logs links; it stands in when no client transport is attached.
type LogOpener struct {
	Logger *logrus.Logger
}

func (o LogOpener) Open(_ context.Context, target Target) error {
	o.Logger.WithFields(logrus.Fields{
		"item":  target.ItemName,
		"store": target.Link.StoreName,
		"url":   target.Link.URL,
	}).Info("Opening retailer link")
	return nil
}
