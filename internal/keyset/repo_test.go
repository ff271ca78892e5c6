package keyset

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/haukened/bloomset/internal/bloom"
	"github.com/haukened/bloomset/internal/common/clock"
)

// --- fakes ---

type mockStore struct{ mock.Mock }

func (s *mockStore) Has(key string) (bool, error) {
	args := s.Called(key)
	return args.Bool(0), args.Error(1)
}

func (s *mockStore) Put(key string) error { return s.Called(key).Error(0) }

func (s *mockStore) RebuildAll(keys []string, version uint64, updatedUnix int64) error {
	return s.Called(keys, version, updatedUnix).Error(0)
}

func (s *mockStore) Stats() StoreStats { return s.Called().Get(0).(StoreStats) }
func (s *mockStore) Close() error      { return nil }

type fakeCache struct {
	m          map[string]bool
	purgeCalls int
}

func newFakeCache() *fakeCache { return &fakeCache{m: make(map[string]bool)} }

func (c *fakeCache) Get(key string) (bool, bool) {
	v, ok := c.m[key]
	return v, ok
}
func (c *fakeCache) Put(key string, v bool)          { c.m[key] = v }
func (c *fakeCache) Len() int                        { return len(c.m) }
func (c *fakeCache) Purge()                          { c.purgeCalls++; c.m = make(map[string]bool) }
func (c *fakeCache) Stats() (uint64, uint64, uint64) { return 0, 0, 0 }

// setFilter is an exact Filter: no false positives unless listed in fp.
type setFilter struct {
	keys map[string]bool
	fp   map[string]bool
}

func (f *setFilter) Add(key string)                    { f.keys[key] = true }
func (f *setFilter) Contains(key string) bool          { return f.keys[key] || f.fp[key] }
func (f *setFilter) FalsePositiveProbability() float64 { return 0.5 }
func (f *setFilter) FillRatio() float64                { return float64(len(f.keys)) / 100 }
func (f *setFilter) Parameters() bloom.Parameters {
	return bloom.Parameters{BitSize: 100, SetSize: len(f.keys), NumberOfHashes: 1}
}

type fakeFactory struct {
	fp    map[string]bool
	err   error
	lastN uint64
	built *setFilter
}

func (f *fakeFactory) New(n uint64) (Filter, error) {
	f.lastN = n
	if f.err != nil {
		return nil, f.err
	}
	f.built = &setFilter{keys: make(map[string]bool), fp: f.fp}
	return f.built, nil
}

func newTestRepo(t *testing.T, st *mockStore, cache Cache, fac FilterFactory) *repository {
	t.Helper()
	r, err := NewRepository(Options{
		Store:   st,
		Cache:   cache,
		Factory: fac,
		Clock:   &clock.MockClock{CurrentTime: time.Unix(1700000000, 0)},
	})
	require.NoError(t, err)
	return r.(*repository)
}

// --- tests ---

func TestNewRepository_MissingDependencies(t *testing.T) {
	_, err := NewRepository(Options{Cache: newFakeCache(), Factory: &fakeFactory{}})
	assert.ErrorIs(t, err, ErrMissingDependency)
	_, err = NewRepository(Options{Store: &mockStore{}, Factory: &fakeFactory{}})
	assert.ErrorIs(t, err, ErrMissingDependency)
	_, err = NewRepository(Options{Store: &mockStore{}, Cache: newFakeCache()})
	assert.ErrorIs(t, err, ErrMissingDependency)
}

func TestRepository_HasWithoutFilterGoesToStore(t *testing.T) {
	st := &mockStore{}
	st.On("Has", "a").Return(true, nil).Once()
	st.On("Stats").Return(StoreStats{})
	cache := newFakeCache()
	r := newTestRepo(t, st, cache, &fakeFactory{})

	assert.Equal(t, Decision{Present: true, Source: SourceStore}, r.Has(" a "))
	assert.Equal(t, Decision{Present: true, Source: SourceCache}, r.Has("a"))

	s := r.Stats()
	assert.Zero(t, s.FilterPositives)
	assert.Zero(t, s.FalsePositives)
	st.AssertExpectations(t)
}

func TestRepository_UpdateThenPipeline(t *testing.T) {
	st := &mockStore{}
	st.On("Stats").Return(StoreStats{Version: 4})
	st.On("RebuildAll", []string{"a", "b"}, uint64(5), int64(1700000000)).Return(nil).Once()
	st.On("Has", "a").Return(true, nil).Once()
	st.On("Has", "ghost").Return(false, nil).Once()

	cache := newFakeCache()
	cache.Put("stale", true)
	fac := &fakeFactory{fp: map[string]bool{"ghost": true}}
	r := newTestRepo(t, st, cache, fac)

	require.NoError(t, r.Update([]string{"a", " b", "", "a"}))
	assert.Equal(t, uint64(2), fac.lastN)
	assert.Equal(t, 1, cache.purgeCalls)
	assert.Zero(t, cache.Len())

	// definite negative: store untouched
	assert.Equal(t, Decision{Present: false, Source: SourceFilter}, r.Has("zzz"))
	// filter pass confirmed by store, then cached
	assert.Equal(t, Decision{Present: true, Source: SourceStore}, r.Has("a"))
	assert.Equal(t, Decision{Present: true, Source: SourceCache}, r.Has("a"))
	// filter false positive rejected by store
	assert.Equal(t, Decision{Present: false, Source: SourceStore}, r.Has("ghost"))
	assert.Equal(t, Decision{Present: false, Source: SourceCache}, r.Has("ghost"))

	st.AssertExpectations(t)

	s := r.Stats()
	assert.Equal(t, uint64(1), s.FilterNegatives)
	assert.Equal(t, uint64(4), s.FilterPositives)
	// the cached rejection of ghost counts as a second false positive
	assert.Equal(t, uint64(2), s.FalsePositives)
	assert.InDelta(t, 2.0/3.0, s.ObservedFalsePositiveRate(), 1e-12)
	assert.Equal(t, 0.5, s.EstimatedFalsePositiveRate)
	assert.Equal(t, 2, s.Filter.SetSize)
}

func TestRepository_StoreErrorReportsAbsentUncached(t *testing.T) {
	st := &mockStore{}
	st.On("Has", "k").Return(false, errors.New("disk gone")).Twice()
	cache := newFakeCache()
	r := newTestRepo(t, st, cache, &fakeFactory{})

	assert.Equal(t, Decision{Present: false, Source: SourceStore}, r.Has("k"))
	assert.Equal(t, Decision{Present: false, Source: SourceStore}, r.Has("k"))
	assert.Zero(t, cache.Len())
	st.On("Stats").Return(StoreStats{})
	assert.Equal(t, uint64(2), r.Stats().StoreErrors)
	st.AssertExpectations(t)
}

func TestRepository_UpdateErrors(t *testing.T) {
	t.Run("store", func(t *testing.T) {
		st := &mockStore{}
		st.On("Stats").Return(StoreStats{})
		st.On("RebuildAll", mock.Anything, uint64(1), mock.Anything).Return(errors.New("readonly"))
		fac := &fakeFactory{}
		r := newTestRepo(t, st, newFakeCache(), fac)

		err := r.Update([]string{"a"})
		assert.ErrorContains(t, err, "readonly")
		assert.Nil(t, fac.built)
	})
	t.Run("factory", func(t *testing.T) {
		st := &mockStore{}
		st.On("Stats").Return(StoreStats{})
		st.On("RebuildAll", mock.Anything, mock.Anything, mock.Anything).Return(nil)
		r := newTestRepo(t, st, newFakeCache(), &fakeFactory{err: bloom.ErrInvalidParameters})

		err := r.Update([]string{"a"})
		assert.ErrorIs(t, err, bloom.ErrInvalidParameters)
		assert.Nil(t, r.filter)
	})
}

func TestRepository_Add(t *testing.T) {
	st := &mockStore{}
	st.On("Stats").Return(StoreStats{})
	st.On("RebuildAll", []string{"a"}, uint64(1), mock.Anything).Return(nil)
	st.On("Put", "new").Return(nil).Once()
	st.On("Put", "bad").Return(errors.New("full")).Once()

	cache := newFakeCache()
	fac := &fakeFactory{}
	r := newTestRepo(t, st, cache, fac)
	require.NoError(t, r.Update([]string{"a"}))

	cache.Put("new", false)
	require.NoError(t, r.Add(" new "))
	assert.True(t, fac.built.Contains("new"))
	assert.Equal(t, Decision{Present: true, Source: SourceCache}, r.Has("new"))

	assert.ErrorContains(t, r.Add("bad"), "full")
	assert.ErrorIs(t, r.Add("   "), ErrEmptyKey)
	st.AssertExpectations(t)
}

func TestRepository_CachedFalsePositivesAreCounted(t *testing.T) {
	st := &mockStore{}
	st.On("Stats").Return(StoreStats{})
	st.On("RebuildAll", []string{"a"}, uint64(1), mock.Anything).Return(nil)
	st.On("Has", "ghost").Return(false, nil).Once()
	r := newTestRepo(t, st, newFakeCache(), &fakeFactory{fp: map[string]bool{"ghost": true}})
	require.NoError(t, r.Update([]string{"a"}))

	for i := 0; i < 3; i++ {
		assert.False(t, r.Has("ghost").Present)
		assert.False(t, r.Has("zzz").Present)
	}

	s := r.Stats()
	assert.Equal(t, uint64(3), s.FalsePositives)
	assert.Equal(t, uint64(3), s.FilterNegatives)
	assert.InDelta(t, 0.5, s.ObservedFalsePositiveRate(), 1e-12)
	st.AssertExpectations(t)
}

func TestSource_String(t *testing.T) {
	assert.Equal(t, "filter", SourceFilter.String())
	assert.Equal(t, "cache", SourceCache.String())
	assert.Equal(t, "store", SourceStore.String())
	assert.Equal(t, "unknown", Source(99).String())
}

func TestStats_ObservedFalsePositiveRateEmpty(t *testing.T) {
	assert.Zero(t, Stats{}.ObservedFalsePositiveRate())
}

func TestDedupe(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, dedupe([]string{" a", "b", "a ", "", "  ", "c", "b"}))
	assert.Empty(t, dedupe(nil))
}
