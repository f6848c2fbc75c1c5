package service

import (
	"context"
	"fmt"
	"github.com/DenisKhanov/HiFiBot/internal/hifi_bot/constant"
	"github.com/DenisKhanov/HiFiBot/internal/hifi_bot/models"
	"github.com/sirupsen/logrus"
	"strings"
	"time"
)

// BookingSink appends bookings to the sheet and announces them to the staff.
type BookingSink struct {
	appender RecordAppender
	notifier Notifier
	outbox   Outbox           // Optional, nil disables retries
	now      func() time.Time // Clock for ReceivedAt
}

// NewBookingSink creates a BookingSink. outbox may be nil.
func NewBookingSink(appender RecordAppender, notifier Notifier, outbox Outbox) *BookingSink {
	return &BookingSink{
		appender: appender,
		notifier: notifier,
		outbox:   outbox,
		now:      time.Now,
	}
}

// Commit records the booking and then notifies the staff chat.
// It returns false, without notifying, when the record could not be appended.
// A failed notification is only logged: the booking is already recorded.
func (s *BookingSink) Commit(ctx context.Context, name, phone, date, comment string) bool {
	rec := models.BookingRecord{
		Name:          name,
		Phone:         phone,
		RequestedDate: date,
		Comment:       comment,
		ReceivedAt:    s.now(),
	}
	log := logrus.WithFields(logrus.Fields{"name": name, "phone": phone, "date": date})

	if err := s.appender.Append(ctx, rec); err != nil {
		log.WithError(err).Error("Failed to append booking")
		if s.outbox != nil {
			if err = s.outbox.Enqueue(rec); err != nil {
				log.WithError(err).Error("Failed to queue booking for retry")
			}
		}
		return false
	}
	log.Info("Booking saved")

	s.notify(ctx, rec)
	return true
}

// RetryPending re-appends queued bookings and notifies the staff about each delivered one.
// Records that fail again stay queued. It returns the number of delivered records.
func (s *BookingSink) RetryPending(ctx context.Context) (int, error) {
	if s.outbox == nil {
		return 0, nil
	}
	pending, err := s.outbox.Pending()
	if err != nil {
		return 0, fmt.Errorf("failed to list pending bookings: %w", err)
	}

	delivered := 0
	for _, p := range pending {
		if ctx.Err() != nil {
			return delivered, ctx.Err()
		}
		if err = s.appender.Append(ctx, p.Record); err != nil {
			logrus.WithError(err).WithField("key", p.Key).Warn("Queued booking still not appended")
			continue
		}
		if err = s.outbox.Remove(p.Key); err != nil {
			logrus.WithError(err).WithField("key", p.Key).Error("Failed to remove delivered booking")
		}
		s.notify(ctx, p.Record)
		delivered++
	}
	if delivered > 0 {
		logrus.Infof("Delivered %d queued bookings", delivered)
	}
	return delivered, nil
}

func (s *BookingSink) notify(ctx context.Context, rec models.BookingRecord) {
	if err := s.notifier.Notify(ctx, StaffNotification(rec)); err != nil {
		logrus.WithError(err).Error("Failed to notify staff about booking")
	}
}

// StaffNotification renders the Markdown message for the staff chat.
func StaffNotification(rec models.BookingRecord) string {
	return fmt.Sprintf(constant.StaffNotificationTemplate,
		markdownField(rec.Name),
		markdownField(rec.Phone),
		markdownField(rec.RequestedDate),
		markdownField(rec.Comment),
	)
}

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

func markdownField(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return constant.NotSpecified
	}
	return markdownEscaper.Replace(v)
}
