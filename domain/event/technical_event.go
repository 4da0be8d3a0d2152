package event

import (
	"time"

	"voice-lab/domain"
)

type Type string

const (
	ChannelCapacityType Type = "CHANNEL_CAPACITY"
	HealthSampleType    Type = "HEALTH_SAMPLE"
	GrowthStepType      Type = "GROWTH_STEP"
	SlotRejectionType   Type = "SLOT_REJECTION"
)

// Event carries technical telemetry. It is sampled and lossy by design,
// unlike DomainEvent which drives sinks.
type Event struct {
	Type      Type
	CreatedAt time.Time
	Payload   any
}

type ChannelCapacity struct {
	ChannelName string
	Capacity    int
	Length      int
}

type HealthSample struct {
	CPUPercent float64
	RSSBytes   uint64
}

type GrowthStep struct {
	Unit         domain.UnitID
	ObservedSize int
	Done         bool
}

type SlotRejection struct {
	Slot      int
	Requested int
}
