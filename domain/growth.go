package domain

// GrowthState tracks where a storage unit stands in its growth run.
type GrowthState string

const (
	GrowthUninitialized GrowthState = "UNINITIALIZED"
	GrowthGrowing       GrowthState = "GROWING"
	GrowthComplete      GrowthState = "COMPLETE"
)

// GrowthTarget is the subject of the incremental growth controller: a single
// remote storage unit being grown from a small initial size toward a larger
// target in fixed-size steps. ObservedSize is monotonically non-decreasing
// across steps and always reflects the last actual read, never an assumption.
type GrowthTarget struct {
	Unit         UnitID
	ObservedSize int
	TargetSize   int
	StepSize     int
	InitialSize  int
	State        GrowthState
}

func NewGrowthTarget(unit UnitID, targetSize int) *GrowthTarget {
	return &GrowthTarget{
		Unit:        unit,
		TargetSize:  targetSize,
		StepSize:    GrowthStepSize,
		InitialSize: GrowthInitialSize,
		State:       GrowthUninitialized,
	}
}

// Observe records an actual size read. Smaller reads are ignored so the
// observed size never regresses.
func (t *GrowthTarget) Observe(size int) {
	if size > t.ObservedSize {
		t.ObservedSize = size
	}
}

// Done reports whether the observed size has met the target.
func (t *GrowthTarget) Done() bool {
	return t.ObservedSize >= t.TargetSize
}
