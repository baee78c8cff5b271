package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		in      string
		want    TimeOfDay
		wantErr bool
	}{
		{in: "08:00", want: 480},
		{in: "08:30:15", want: 510},
		{in: "00:00", want: 0},
		{in: "23:59", want: 1439},
		{in: "24:00", wantErr: true},
		{in: "08:60", wantErr: true},
		{in: "8am", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseTimeOfDay(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestTimeOfDayString(t *testing.T) {
	assert.Equal(t, "08:05", MustTimeOfDay("08:05").String())
	assert.Equal(t, "09:00", MustTimeOfDay("08:35").Add(25).String())
}

func TestPackTight(t *testing.T) {
	slots, overflow := Pack(MustTimeOfDay("08:00"), MustTimeOfDay("09:00"), []int{25, 20, 10})

	require.Equal(t, NoOverflow, overflow)
	require.Len(t, slots, 3)

	assert.Equal(t, "08:00", slots[0].Start.String())
	assert.Equal(t, "08:25", slots[0].End.String())
	assert.Equal(t, "08:25", slots[1].Start.String())
	assert.Equal(t, "08:45", slots[1].End.String())
	assert.Equal(t, "08:45", slots[2].Start.String())
	assert.Equal(t, "08:55", slots[2].End.String())
}

func TestPackBoundaryInclusive(t *testing.T) {
	// A slot ending exactly at the window end still fits.
	slots, overflow := Pack(MustTimeOfDay("08:00"), MustTimeOfDay("09:00"), []int{25, 25, 10})

	require.Equal(t, NoOverflow, overflow)
	require.Len(t, slots, 3)
	assert.Equal(t, "09:00", slots[2].End.String())
}

func TestPackOverflow(t *testing.T) {
	slots, overflow := Pack(MustTimeOfDay("08:00"), MustTimeOfDay("09:00"), []int{25, 20, 10, 10})

	assert.Equal(t, 3, overflow)
	require.Len(t, slots, 3)
	assert.Equal(t, "08:55", slots[2].End.String())
}

func TestPackStopsAtFirstOverflow(t *testing.T) {
	// Packing never skips ahead: a later, shorter duration is not pulled in
	// front of the one that overflowed.
	slots, overflow := Pack(MustTimeOfDay("08:00"), MustTimeOfDay("08:30"), []int{25, 20, 5})

	assert.Equal(t, 1, overflow)
	require.Len(t, slots, 1)
}

func TestPackEmpty(t *testing.T) {
	slots, overflow := Pack(MustTimeOfDay("08:00"), MustTimeOfDay("09:00"), nil)

	assert.Equal(t, NoOverflow, overflow)
	assert.Empty(t, slots)
}

func TestPackZeroWidthWindow(t *testing.T) {
	slots, overflow := Pack(MustTimeOfDay("08:00"), MustTimeOfDay("08:00"), []int{10})

	assert.Equal(t, 0, overflow)
	assert.Empty(t, slots)
}

func TestStep(t *testing.T) {
	slot, ok := Step(MustTimeOfDay("08:45"), MustTimeOfDay("09:00"), 15)
	require.True(t, ok)
	assert.Equal(t, "08:45", slot.Start.String())
	assert.Equal(t, "09:00", slot.End.String())
	assert.Equal(t, 15, slot.Minutes())

	_, ok = Step(MustTimeOfDay("08:45"), MustTimeOfDay("09:00"), 16)
	assert.False(t, ok)
}
