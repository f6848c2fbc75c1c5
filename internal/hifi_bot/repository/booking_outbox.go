package repository

import (
	"encoding/json"
	"fmt"
	"github.com/DenisKhanov/HiFiBot/internal/hifi_bot/models"
	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"time"
)

var outboxPrefix = []byte("booking:")

// BookingOutbox stores bookings whose sheet append failed, in a local badger database.
type BookingOutbox struct {
	db *badger.DB
}

// NewBookingOutbox opens (or creates) the outbox in dir.
// An empty dir opens an in-memory database that is lost on exit.
func NewBookingOutbox(dir string) (*BookingOutbox, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open booking outbox %s: %w", dir, err)
	}
	return &BookingOutbox{db: db}, nil
}

// Enqueue stores rec under a time-ordered unique key.
func (o *BookingOutbox) Enqueue(rec models.BookingRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal booking: %w", err)
	}
	key := outboxKey(time.Now())
	err = o.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
	if err != nil {
		return fmt.Errorf("failed to enqueue booking: %w", err)
	}
	logrus.WithField("key", string(key)).Warn("Booking queued for retry")
	return nil
}

// Pending returns queued bookings, oldest first.
func (o *BookingOutbox) Pending() ([]models.PendingBooking, error) {
	var pending []models.PendingBooking
	err := o.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(outboxPrefix); it.ValidForPrefix(outboxPrefix); it.Next() {
			item := it.Item()
			data, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			var rec models.BookingRecord
			if err = json.Unmarshal(data, &rec); err != nil {
				logrus.WithError(err).Errorf("Skipping corrupted outbox entry %s", item.Key())
				continue
			}
			pending = append(pending, models.PendingBooking{Key: string(item.KeyCopy(nil)), Record: rec})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read booking outbox: %w", err)
	}
	return pending, nil
}

// Remove deletes a delivered booking.
func (o *BookingOutbox) Remove(key string) error {
	err := o.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("failed to remove booking %s: %w", key, err)
	}
	return nil
}

// Close flushes and closes the database.
func (o *BookingOutbox) Close() error {
	return o.db.Close()
}

// outboxKey sorts by enqueue time; zero padding keeps lexical order equal to numeric order
func outboxKey(now time.Time) []byte {
	return []byte(fmt.Sprintf("%s%020d:%s", outboxPrefix, now.UnixNano(), uuid.NewString()))
}
