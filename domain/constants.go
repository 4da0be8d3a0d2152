package domain

// Design constants. Slot capacity and the 1 KiB header margin come from the
// storage account layout; participant and broadcast caps are hard limits of
// the room model.
const (
	SlotCapacity        = 30 * 1024
	MaxPayloadSize      = 29 * 1024
	MaxParticipants     = 10
	MaxBroadcastTargets = 10
	MaxRoomNameLength   = 32

	GrowthInitialSize = 10 * 1024
	GrowthStepSize    = 10 * 1024

	// The two growth ceilings are alternate deployment profiles.
	// A deployment picks exactly one; they are never mixed.
	GrowthMaxSizeBinary  = 1 << 20
	GrowthMaxSizeDecimal = 1000 * 1024
)
