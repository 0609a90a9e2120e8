package alarm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memPersister records every blob written through it.
type memPersister struct {
	writes [][]byte
	err    error
}

func (m *memPersister) Write(ctx context.Context, key string, value []byte) error {
	if m.err != nil {
		return m.err
	}
	m.writes = append(m.writes, append([]byte(nil), value...))
	return nil
}

func (m *memPersister) last() []byte {
	if len(m.writes) == 0 {
		return nil
	}
	return m.writes[len(m.writes)-1]
}

func daily(hour, minute int, track Track) Record {
	return Record{Recurrence: Daily, Hour: hour, Minute: minute, Track: track}
}

// assertContiguous checks that the first Count() slots are occupied and the
// rest are empty.
func assertContiguous(t *testing.T, s *Store) {
	t.Helper()
	for i := 0; i < Capacity; i++ {
		rec := s.slots[i]
		if i < s.count {
			assert.False(t, rec.Empty(), "slot %d should be occupied", i)
		} else {
			assert.True(t, rec.Empty(), "slot %d should be empty", i)
		}
	}
}

func TestStore_AppendUntilFull(t *testing.T) {
	p := &memPersister{}
	s := NewStore(p)
	ctx := context.Background()

	for i := 0; i < Capacity; i++ {
		idx, err := s.Append(ctx, daily(7, i, 1))
		require.NoError(t, err)
		assert.Equal(t, i, idx)
	}
	before := s.Serialize()

	_, err := s.Append(ctx, daily(9, 0, 2))
	assert.ErrorIs(t, err, ErrFull)
	assert.Equal(t, Capacity, s.Count())
	assert.Equal(t, before, s.Serialize(), "store must be unchanged after a failed append")
	assert.Len(t, p.writes, Capacity)
}

func TestStore_AppendThenDeleteRestores(t *testing.T) {
	ctx := context.Background()
	s := NewStore(nil)
	_, err := s.Append(ctx, daily(6, 30, 1))
	require.NoError(t, err)
	_, err = s.Append(ctx, Record{Recurrence: Weekly, Hour: 8, Weekday: time.Friday, Track: TrackRandom})
	require.NoError(t, err)

	before := s.Serialize()
	countBefore := s.Count()

	idx, err := s.Append(ctx, daily(22, 15, 3))
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, idx))

	assert.Equal(t, countBefore, s.Count())
	assert.Equal(t, before, s.Serialize())
}

func TestStore_DeleteShiftsDown(t *testing.T) {
	ctx := context.Background()
	s := NewStore(nil)
	for _, m := range []int{0, 1, 2, 3} {
		_, err := s.Append(ctx, daily(7, m, 1))
		require.NoError(t, err)
	}

	require.NoError(t, s.Delete(ctx, 1))

	list := s.List()
	require.Len(t, list, 3)
	assert.Equal(t, 0, list[0].Minute)
	assert.Equal(t, 2, list[1].Minute)
	assert.Equal(t, 3, list[2].Minute)
	assertContiguous(t, s)
}

func TestStore_RepeatedDeleteEmpties(t *testing.T) {
	ctx := context.Background()
	s := NewStore(nil)
	for i := 0; i < 7; i++ {
		_, err := s.Append(ctx, daily(5, i, 2))
		require.NoError(t, err)
	}

	calls := 0
	for s.Count() > 0 {
		require.NoError(t, s.Delete(ctx, 0))
		calls++
		assertContiguous(t, s)
	}
	assert.Equal(t, 7, calls)
	assert.Equal(t, make([]byte, Capacity*RecordSize), s.Serialize())
}

func TestStore_DeleteOutOfRange(t *testing.T) {
	ctx := context.Background()
	s := NewStore(nil)
	_, err := s.Append(ctx, daily(7, 0, 1))
	require.NoError(t, err)

	testCases := []struct {
		name  string
		index int
	}{
		{name: "equal to count", index: 1},
		{name: "past capacity", index: Capacity},
		{name: "negative", index: -1},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := s.Delete(ctx, tc.index)
			assert.ErrorIs(t, err, ErrOutOfRange)
			assert.Equal(t, 1, s.Count())
		})
	}
}

func TestStore_PersistFailureKeepsMemory(t *testing.T) {
	ctx := context.Background()
	p := &memPersister{}
	s := NewStore(p)
	_, err := s.Append(ctx, daily(7, 0, 1))
	require.NoError(t, err)

	p.err = errors.New("flash write failed")
	_, err = s.Append(ctx, daily(8, 0, 1))
	assert.Error(t, err)
	assert.Equal(t, 1, s.Count())

	err = s.Delete(ctx, 0)
	assert.Error(t, err)
	assert.Equal(t, 1, s.Count())
}

func TestStore_Version(t *testing.T) {
	ctx := context.Background()
	p := &memPersister{}
	s := NewStore(p)
	assert.Equal(t, uint64(0), s.Version())

	_, err := s.Append(ctx, daily(7, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), s.Version())

	s.MarkFired(0, true)
	assert.Equal(t, uint64(1), s.Version())
	require.NoError(t, s.ResetFired(ctx))
	assert.Equal(t, uint64(2), s.Version())
	// Nothing left to clear: no write, no new version.
	require.NoError(t, s.ResetFired(ctx))
	assert.Equal(t, uint64(2), s.Version())

	p.err = errors.New("flash write failed")
	assert.Error(t, s.Delete(ctx, 0))
	assert.Equal(t, uint64(2), s.Version())
}

func TestStore_ResetFired(t *testing.T) {
	ctx := context.Background()
	p := &memPersister{}
	s := NewStore(p)
	records := []Record{
		daily(7, 0, 1),
		{Recurrence: Weekly, Hour: 8, Minute: 0, Weekday: time.Monday, Track: 2},
		{Recurrence: Once, Hour: 9, Minute: 0, Year: 2024, Month: time.March, Day: 3, Track: TrackRandom},
	}
	for i, rec := range records {
		_, err := s.Append(ctx, rec)
		require.NoError(t, err)
		s.MarkFired(i, true)
	}
	writes := len(p.writes)

	require.NoError(t, s.ResetFired(ctx))
	for _, rec := range s.List() {
		assert.False(t, rec.Fired)
	}
	assert.Len(t, p.writes, writes+1)

	// Nothing changed, nothing written.
	require.NoError(t, s.ResetFired(ctx))
	assert.Len(t, p.writes, writes+1)
}

func TestStore_SerializeRoundTrip(t *testing.T) {
	ctx := context.Background()
	p := &memPersister{}
	s := NewStore(p)
	records := []Record{
		daily(7, 5, 1),
		{Recurrence: Weekly, Hour: 23, Minute: 59, Weekday: time.Saturday, Track: TrackRandom},
		{Recurrence: Once, Hour: 8, Minute: 30, Year: 2017, Month: time.June, Day: 1, Track: 3},
	}
	for _, rec := range records {
		_, err := s.Append(ctx, rec)
		require.NoError(t, err)
	}
	s.MarkFired(1, true)

	blob := s.Serialize()
	require.Len(t, blob, Capacity*RecordSize)
	assert.Equal(t, p.last()[:RecordSize], blob[:RecordSize])

	loaded, err := Load(blob, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.Count())
	assert.Equal(t, blob, loaded.Serialize())
	assert.True(t, loaded.List()[1].Fired)
	assert.Equal(t, records[2], loaded.List()[2])
}

func TestLoad_FailsSoft(t *testing.T) {
	testCases := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: nil},
		{name: "not a multiple of the record size", data: make([]byte, RecordSize+3)},
		{name: "larger than capacity", data: make([]byte, (Capacity+1)*RecordSize)},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s, err := Load(tc.data, nil)
			assert.ErrorIs(t, err, ErrCorruptPersistence)
			require.NotNil(t, s)
			assert.Equal(t, 0, s.Count())
		})
	}
}

func TestLoad_ShortBlobAndGaps(t *testing.T) {
	first, _ := daily(6, 0, 1).MarshalBinary()
	third, _ := daily(6, 10, 2).MarshalBinary()
	blob := append(append(append([]byte{}, first...), make([]byte, RecordSize)...), third...)

	s, err := Load(blob, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Count())
	assert.Equal(t, 10, s.List()[1].Minute)
	assertContiguous(t, s)
}
