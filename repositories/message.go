//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_archive.go -package=mocks
package repositories

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/fxamacker/cbor/v2"

	apperrors "voice-lab/errors"
)

type IMessageArchive interface {
	Store(record ArchivedMessage) error
	Get(id string) (ArchivedMessage, error)
	ByRoom(room string, cursor *string) ([]ArchivedMessage, *string, error)
}

// ArchivedMessage is the durable record of a stored message. The payload
// itself lives in the ledger unit; the archive keeps the metadata.
type ArchivedMessage struct {
	ID         string    `cbor:"id"`
	Room       string    `cbor:"room"`
	Sender     string    `cbor:"sender"`
	Sequence   int       `cbor:"sequence"`
	Slot       int       `cbor:"slot"`
	PayloadLen int       `cbor:"payload_len"`
	Codec      string    `cbor:"codec"`
	At         time.Time `cbor:"at"`
}

// MessageArchive persists message records in BadgerDB.
type MessageArchive struct {
	db    *badger.DB
	log   *slog.Logger
	limit *int
}

func NewMessageArchive(db *badger.DB, log *slog.Logger, limit *int) MessageArchive {
	return MessageArchive{db: db, log: log, limit: limit}
}

// Store persists a record under "msg:{room}:{sequence_padded}:{id}" so that:
//  1. A prefix scan per room returns records in sequence order thanks to the
//     19-digit zero padding (lexicographical order).
//  2. The id suffix disambiguates keys if a room is ever re-seeded.
//
// A secondary "msgid:{id}" key points at the primary key for direct lookup.
func (a MessageArchive) Store(record ArchivedMessage) error {
	key := primaryKey(record.Room, record.Sequence, record.ID)
	bytes, err := cbor.Marshal(record)
	if err != nil {
		return err
	}
	return a.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(key, bytes); err != nil {
			return err
		}
		return txn.Set([]byte(fmt.Sprintf("msgid:%s", record.ID)), key)
	})
}

// Get resolves a record by message id through the secondary key.
func (a MessageArchive) Get(id string) (ArchivedMessage, error) {
	var record ArchivedMessage
	err := a.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(fmt.Sprintf("msgid:%s", id)))
		if err != nil {
			return err
		}
		var primary []byte
		if err := item.Value(func(v []byte) error {
			primary = append(primary, v...)
			return nil
		}); err != nil {
			return err
		}
		item, err = txn.Get(primary)
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			return cbor.Unmarshal(v, &record)
		})
	})
	if err == badger.ErrKeyNotFound {
		return ArchivedMessage{}, fmt.Errorf("%w: message %s", apperrors.ErrNotFound, id)
	}
	return record, err
}

// ByRoom retrieves a room's records newest-first using a reverse prefix scan.
// Thanks to the padded sequence in the key, records are naturally sorted.
// It stops collecting once the configured limit is reached and hands back a
// cursor for the next page.
func (a MessageArchive) ByRoom(room string, cursor *string) ([]ArchivedMessage, *string, error) {
	var values [][]byte
	var lastKey string
	err := a.db.View(func(txn *badger.Txn) error {
		prefixStr := fmt.Sprintf("msg:%s:", room)
		prefix := []byte(prefixStr)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		var seekKey []byte
		switch cursor {
		case nil:
			// Seek past the highest possible sequence, then walk backwards.
			seekKey = append(prefix, []byte("9999999999999999999")...)
		default:
			seekKey = append(prefix, []byte(*cursor)...)
		}

		it.Seek(seekKey)
		if cursor != nil && it.ValidForPrefix(prefix) {
			it.Next()
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			if a.limit != nil && len(values) == *a.limit {
				a.log.Debug(fmt.Sprintf("Maximum of %d records reached", *a.limit))
				break
			}
			item := it.Item()
			lastKey = string(item.Key()[len(prefixStr):])
			if err := item.Value(func(v []byte) error {
				values = append(values, append([]byte(nil), v...))
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	records := make([]ArchivedMessage, 0, len(values))
	for _, b := range values {
		var record ArchivedMessage
		if err := cbor.Unmarshal(b, &record); err != nil {
			return nil, nil, err
		}
		records = append(records, record)
	}
	return records, &lastKey, nil
}

func primaryKey(room string, sequence int, id string) []byte {
	return []byte(fmt.Sprintf("msg:%s:%019d:%s", room, sequence, id))
}
