package sink

import (
	"context"
	"log/slog"

	"voice-lab/domain/event"
	"voice-lab/repositories"
)

// ArchiveSink persists stored-message events into the badger archive.
type ArchiveSink struct {
	archive repositories.IMessageArchive
	log     *slog.Logger
}

func NewArchiveSink(archive repositories.IMessageArchive, log *slog.Logger) ArchiveSink {
	return ArchiveSink{archive: archive, log: log}
}

func (s ArchiveSink) Consume(_ context.Context, e event.DomainEvent) error {
	switch evt := e.(type) {
	case event.MessageStored:
		return s.archive.Store(toRecord(evt))
	default:
		return nil
	}
}

func toRecord(evt event.MessageStored) repositories.ArchivedMessage {
	return repositories.ArchivedMessage{
		ID:         evt.ID.String(),
		Room:       evt.Room.String(),
		Sender:     evt.Sender.String(),
		Sequence:   evt.Sequence,
		Slot:       evt.Slot,
		PayloadLen: evt.PayloadLen,
		Codec:      evt.Codec,
		At:         evt.At,
	}
}
