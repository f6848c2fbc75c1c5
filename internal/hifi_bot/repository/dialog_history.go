package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"github.com/DenisKhanov/HiFiBot/internal/hifi_bot/models"
	"github.com/sirupsen/logrus"
	"os"
	"sync"
	"time"
)

// ErrThreadNotFound is returned for a thread ID that was never opened.
var ErrThreadNotFound = errors.New("thread not found")

// DialogHistory keeps the messages of locally emulated assistant threads.
//
// It maintains a thread-safe in-memory map of dialog histories, where each entry is associated with a thread ID.
// The history can be persisted to and loaded from a file in JSON format. Copies are returned to callers
// so the stored slices are never modified from outside.
type DialogHistory struct {
	dialogs         map[string][]models.Message // In-memory map of thread ID to dialog history
	maxSize         int                         // Max messages kept per thread, 0 means unlimited
	dirty           bool                        // Changed since the last save
	mu              sync.RWMutex                // Mutex for thread-safe access
	storageFilePath string                      // Path to the file where dialog history is persisted
}

// NewDialogHistory creates a new instance of DialogHistory with the specified storage file path.
//
// Parameters:
//   - storageFilePath: The file path where the dialog history will be persisted in JSON format.
//     Empty path disables persistence.
//   - maxSize: The maximum number of messages kept per thread; older messages are dropped first.
//
// Returns:
//   - *DialogHistory: A pointer to the initialized DialogHistory instance.
func NewDialogHistory(storageFilePath string, maxSize int) *DialogHistory {
	return &DialogHistory{
		dialogs:         make(map[string][]models.Message),
		maxSize:         maxSize,
		storageFilePath: storageFilePath,
	}
}

// LoadDialogFromFile loads the dialog history from the configured storage file.
//
// If the file does not exist, it logs a message and returns nil.
//
// Returns:
//   - error: An error if reading or unmarshaling the file fails; nil if the file does not exist or the operation succeeds.
func (d *DialogHistory) LoadDialogFromFile() error {
	if d.storageFilePath == "" {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	data, err := os.ReadFile(d.storageFilePath)
	if err != nil {
		if os.IsNotExist(err) {
			logrus.Infof("File %s was not found", d.storageFilePath)
			return nil
		}
		return fmt.Errorf("failed to read dialog history from file %s: %w", d.storageFilePath, err)
	}
	if len(data) == 0 {
		return nil
	}

	dialogs := make(map[string][]models.Message)
	if err = json.Unmarshal(data, &dialogs); err != nil {
		logrus.WithError(err).Error("failed to unmarshal dialog history:")
		return fmt.Errorf("failed to unmarshal dialog history: %w", err)
	}
	d.dialogs = dialogs
	logrus.Infof("File %s successfully loaded, %d threads", d.storageFilePath, len(d.dialogs))
	return nil
}

// OpenThread registers an empty dialog under threadID.
func (d *DialogHistory) OpenThread(threadID string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.dialogs[threadID]; !exists {
		d.dialogs[threadID] = []models.Message{}
		d.dirty = true
	}
}

// SaveMsgToDialog appends a single message to the dialog of threadID.
//
// The oldest messages are dropped when the dialog grows beyond maxSize.
//
// Returns:
//   - error: ErrThreadNotFound if the thread was never opened.
func (d *DialogHistory) SaveMsgToDialog(threadID string, msg models.Message) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	history, exists := d.dialogs[threadID]
	if !exists {
		return fmt.Errorf("%w: %s", ErrThreadNotFound, threadID)
	}

	history = append(history, msg)
	if d.maxSize > 0 && len(history) > d.maxSize {
		history = append([]models.Message(nil), history[len(history)-d.maxSize:]...)
	}
	d.dialogs[threadID] = history
	d.dirty = true
	return nil
}

// GetDialogHistory retrieves a copy of the dialog history of threadID.
//
// Returns:
//   - []models.Message: A copy of the dialog history.
//   - error: ErrThreadNotFound if the thread was never opened.
func (d *DialogHistory) GetDialogHistory(threadID string) ([]models.Message, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	history, exists := d.dialogs[threadID]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrThreadNotFound, threadID)
	}

	// Возвращаем копию истории, чтобы избежать изменения оригинала
	historyCopy := make([]models.Message, len(history))
	copy(historyCopy, history)
	return historyCopy, nil
}

// SaveBatchToFile persists the entire dialog history to the configured storage file.
//
// The data is written to a temporary file first and then renamed over the target, so a crash
// during the write never leaves a truncated file. Nothing is written if no dialog changed
// since the previous save.
//
// Returns:
//   - error: An error if marshaling or writing to the file fails; nil on success.
func (d *DialogHistory) SaveBatchToFile() error {
	if d.storageFilePath == "" {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.dirty {
		return nil
	}
	startTime := time.Now()

	data, err := json.MarshalIndent(d.dialogs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal dialog history: %w", err)
	}

	tmpPath := d.storageFilePath + ".tmp"
	if err = os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write dialog history to file %s: %w", tmpPath, err)
	}
	if err = os.Rename(tmpPath, d.storageFilePath); err != nil {
		return fmt.Errorf("failed to replace dialog history file %s: %w", d.storageFilePath, err)
	}
	d.dirty = false

	logrus.Infof("Saved %d dialogs to %s in %v", len(d.dialogs), d.storageFilePath, time.Since(startTime))
	return nil
}
