package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/open-rails/vipgate/core"
	"github.com/open-rails/vipgate/vip"
)

// Sweeper periodically reminds users whose access lapses within the next day.
// Reminders are best-effort; a user may see the same reminder twice across
// restarts.
type Sweeper struct {
	vips        *vip.Store
	notifier    core.Notifier
	paymentLink string
	log         *logrus.Logger
	cron        *cron.Cron
	now         func() time.Time
}

func NewSweeper(vips *vip.Store, notifier core.Notifier, paymentLink string, log *logrus.Logger) *Sweeper {
	return &Sweeper{vips: vips, notifier: notifier, paymentLink: paymentLink, log: log, now: time.Now}
}

// Start schedules the sweep on the given cron spec (e.g. "@daily").
func (s *Sweeper) Start(spec string) error {
	s.cron = cron.New()
	if _, err := s.cron.AddFunc(spec, s.sweep); err != nil {
		return fmt.Errorf("schedule reminder sweep: %w", err)
	}
	s.cron.Start()
	return nil
}

func (s *Sweeper) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	now := s.now()
	ents, err := s.vips.ExpiringWithin(ctx, now, 24*time.Hour)
	if err != nil {
		s.log.WithError(err).Error("reminder sweep failed")
		return
	}
	for _, e := range ents {
		text := fmt.Sprintf(
			"⏳ Your VIP access expires in %s.\n\nRenew at %s to keep watching premium videos.",
			vip.FormatRemaining(e.ExpiresAt, now.Unix()), s.paymentLink)
		if err := s.notifier.NotifyUser(ctx, e.UserID, text); err != nil {
			s.log.WithError(err).WithField("user_id", e.UserID).Warn("expiry reminder failed")
		}
	}
	if len(ents) > 0 {
		s.log.WithField("count", len(ents)).Info("expiry reminders sent")
	}
}
