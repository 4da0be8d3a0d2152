package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/fxamacker/cbor/v2"
	"github.com/mama165/sdk-go/database"
	"github.com/olekukonko/tablewriter"
)

// archivedMessage mirrors the repository record so the inspector stays
// decoupled from the runtime packages.
type archivedMessage struct {
	ID         string `cbor:"id"`
	Room       string `cbor:"room"`
	Sender     string `cbor:"sender"`
	Sequence   int    `cbor:"sequence"`
	Slot       int    `cbor:"slot"`
	PayloadLen int    `cbor:"payload_len"`
	Codec      string `cbor:"codec"`
}

type unitMeta struct {
	Size       int `cbor:"size"`
	DataLength int `cbor:"data_length"`
}

func main() {
	dbPath := flag.String("db", database.DefaultPath, "Path to badger DB")
	// Par défaut on cherche "msg:" pour éviter de percuter les index msgid:
	prefix := flag.String("prefix", "msg:", "Prefix to scan (msg: or unit:)")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Type", "Detail"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			rawKey := string(item.Key())

			// Sécurité : on ignore explicitement les index secondaires
			// et les blobs de payload bruts
			if strings.HasPrefix(rawKey, "msgid:") || strings.HasPrefix(rawKey, "unitdata:") {
				continue
			}

			err := item.Value(func(v []byte) error {
				rowType, detail := describe(rawKey, v)
				table.Append([]string{rawKey, rowType, detail})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		log.Fatal(err)
	}

	table.Render()
}

func describe(key string, value []byte) (string, string) {
	switch {
	case strings.HasPrefix(key, "msg:"):
		var m archivedMessage
		if err := cbor.Unmarshal(value, &m); err != nil {
			return "RAW", fmt.Sprintf("unmarshal error: %v", err)
		}
		displayID := m.Sender
		if len(displayID) > 8 {
			displayID = displayID[:8]
		}
		return "MESSAGE", fmt.Sprintf("seq=%d slot=%d sender=%s bytes=%d codec=%s",
			m.Sequence, m.Slot, displayID, m.PayloadLen, m.Codec)
	case strings.HasPrefix(key, "unit:"):
		var u unitMeta
		if err := cbor.Unmarshal(value, &u); err != nil {
			return "RAW", fmt.Sprintf("unmarshal error: %v", err)
		}
		return "UNIT", fmt.Sprintf("size=%d data_length=%d", u.Size, u.DataLength)
	case strings.HasPrefix(key, "user:"):
		return "USER", fmt.Sprintf("%d bytes", len(value))
	default:
		return "RAW", fmt.Sprintf("%d bytes", len(value))
	}
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true).
		WithValueLogFileSize(10 * 1024 * 1024)

	db, err := badger.Open(opts)
	if err != nil {
		// Si corruption détectée, essaie un open en write pour truncate
		if strings.Contains(err.Error(), "Log truncate required") {
			repairOpts := badger.DefaultOptions(path).
				WithLogger(nil).WithBypassLockGuard(true)

			db, err = badger.Open(repairOpts)
			if err != nil {
				return nil, fmt.Errorf("repair failed: %w", err)
			}

			// Ferme et réouvre en read-only
			db.Close()
			return badger.Open(opts)
		}
		return nil, err
	}
	return db, nil
}
