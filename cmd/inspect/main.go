package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/olekukonko/tablewriter"

	"chat-relay/repositories"
)

// inspect dumps the persisted room history as tables, straight from the
// store. It opens the database read-only with the lock guard bypassed, so
// it works while the relay is running.
func main() {
	path := flag.String("db", "./data/relay", "path to the relay's badger store")
	room := flag.String("room", "", "only show this room")
	flag.Parse()

	opts := badger.DefaultOptions(*path).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLoggingLevel(badger.ERROR)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open store at %s: %v", *path, err)
	}
	defer db.Close()

	byRoom, err := loadHistory(db)
	if err != nil {
		log.Fatalf("Failed to read history: %v", err)
	}
	if len(byRoom) == 0 {
		fmt.Println("No stored messages.")
		return
	}

	for name, messages := range byRoom {
		if *room != "" && name != *room {
			continue
		}
		fmt.Printf("\n#%s (%d messages)\n", name, len(messages))

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Time", "Author", "Color", "Text"})
		for _, m := range messages {
			table.Append([]string{
				m.At.Format(time.DateTime),
				m.Author,
				m.Color,
				m.Text,
			})
		}
		table.Render()
	}
}

// loadHistory scans every history key in store order, which is already
// chronological per room.
func loadHistory(db *badger.DB) (map[string][]repositories.DiskMessage, error) {
	byRoom := make(map[string][]repositories.DiskMessage)
	err := db.View(func(txn *badger.Txn) error {
		prefix := []byte("msg:")
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(value []byte) error {
				var m repositories.DiskMessage
				if err := json.Unmarshal(value, &m); err != nil {
					return nil // unreadable entry, skip
				}
				byRoom[m.Room] = append(byRoom[m.Room], m)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return byRoom, err
}
