//go:generate go run go.uber.org/mock/mockgen -source=history.go -destination=../mocks/mock_history_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// DefaultHistoryLimit caps the number of messages kept per room.
const DefaultHistoryLimit = 500

type IHistoryRepository interface {
	Append(message DiskMessage) error
	Replay(room string) ([]DiskMessage, error)
}

// HistoryRepository is the bounded per-room message log on BadgerDB.
// Every append commits synchronously before returning, so a replay after a
// crash sees exactly the messages whose appends were acknowledged.
type HistoryRepository struct {
	db    *badger.DB
	log   *slog.Logger
	limit int
}

func NewHistoryRepository(db *badger.DB, log *slog.Logger, limit int) HistoryRepository {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return HistoryRepository{db: db, log: log, limit: limit}
}

// DiskMessage is the storage representation of one chat message.
type DiskMessage struct {
	ID     string    `json:"id"`
	Room   string    `json:"room"`
	Author string    `json:"user"`
	Text   string    `json:"text"`
	Color  string    `json:"color"`
	At     time.Time `json:"at"`
}

// historyKey formats "msg:{room}:{timestamp_padded}:{id}" so that a forward
// prefix scan yields chronological order. The room is query-escaped: a raw
// ":" inside a room name would otherwise let one room's prefix swallow
// another's keys. 19-digit zero padding keeps nanosecond timestamps in
// lexicographical order; the message id disambiguates equal timestamps.
func historyKey(m DiskMessage) []byte {
	return []byte(fmt.Sprintf("%s%019d:%s", historyPrefix(m.Room), m.At.UnixNano(), m.ID))
}

func historyPrefix(room string) string {
	return fmt.Sprintf("msg:%s:", url.QueryEscape(room))
}

// Append persists the message and prunes the room's oldest entries beyond
// the limit, all in one synchronous transaction. The in-memory broadcast
// path never waits on anything else, so a slow disk stalls every subsequent
// event; that head-of-line blocking is an accepted trade-off here.
func (h HistoryRepository) Append(message DiskMessage) error {
	value, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	return h.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(historyKey(message), value); err != nil {
			return err
		}
		return h.prune(txn, message.Room)
	})
}

// prune deletes the oldest keys of a room until at most limit remain.
func (h HistoryRepository) prune(txn *badger.Txn, room string) error {
	prefix := []byte(historyPrefix(room))
	options := badger.DefaultIteratorOptions
	options.PrefetchValues = false
	it := txn.NewIterator(options)
	defer it.Close()

	var keys [][]byte
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	for _, key := range keys[:max(0, len(keys)-h.limit)] {
		if err := txn.Delete(key); err != nil {
			return err
		}
	}
	return nil
}

// Replay returns the room's full current log in original chronological
// order. It never mutates the store. An entry that fails to decode is
// skipped with a warning instead of poisoning the whole replay.
func (h HistoryRepository) Replay(room string) ([]DiskMessage, error) {
	var messages []DiskMessage
	err := h.db.View(func(txn *badger.Txn) error {
		prefix := []byte(historyPrefix(room))
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			err := item.Value(func(value []byte) error {
				var m DiskMessage
				if err := json.Unmarshal(value, &m); err != nil {
					h.log.Warn("Skipping unreadable history entry", "key", string(item.Key()), "error", err)
					return nil
				}
				messages = append(messages, m)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return messages, nil
}
