package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/wheelchair-racer/wr_api/dto"
	"github.com/wheelchair-racer/wr_api/model"
)

func newTestParkrunService(t *testing.T) (*ParkrunService, *MockParkrunStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := new(MockParkrunStore)
	return NewParkrunService(store, &RedisService{redis: client}), store, mr
}

var rutland = model.Parkrun{
	UID:       123,
	ShortName: "rutlandwater",
	LongName:  "Rutland Water parkrun",
	Slug:      "rutland-water",
	Location:  "Sykes Lane",
	Country:   "UK",
	Latitude:  52.66,
	Longitude: -0.63,
	Scores:    model.AccessibilityScores{RacingChair: 80, Handbike: 75},
}

func TestParkrunListIsCached(t *testing.T) {
	svc, store, mr := newTestParkrunService(t)
	ctx := context.Background()
	store.On("ListParkruns", "UK", "water", (*bool)(nil)).Return([]model.Parkrun{rutland}, nil).Once()

	query := dto.ParkrunQuery{Country: "UK", Search: " Water "}
	first, err := svc.List(ctx, query)
	require.NoError(t, err)
	require.Equal(t, 1, first.Total)
	assert.Equal(t, "Rutland Water parkrun", first.Events[0].Name)

	second, err := svc.List(ctx, query)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	store.AssertNumberOfCalls(t, "ListParkruns", 1)

	key := "parkrun:list:UK|water|"
	require.True(t, mr.Exists(key))
	assert.Equal(t, 10*time.Minute, mr.TTL(key))

	// Entries expire with the TTL.
	mr.FastForward(10*time.Minute + time.Second)
	store.On("ListParkruns", "UK", "water", (*bool)(nil)).Return([]model.Parkrun{}, nil).Once()
	third, err := svc.List(ctx, query)
	require.NoError(t, err)
	assert.Equal(t, 0, third.Total)
}

func TestParkrunListKeysJuniorFilter(t *testing.T) {
	svc, store, mr := newTestParkrunService(t)
	junior := true
	store.On("ListParkruns", "", "", &junior).Return([]model.Parkrun{}, nil)

	_, err := svc.List(context.Background(), dto.ParkrunQuery{Junior: &junior})
	require.NoError(t, err)
	assert.True(t, mr.Exists("parkrun:list:||true"))
}

func TestParkrunGetAndCountries(t *testing.T) {
	svc, store, _ := newTestParkrunService(t)
	ctx := context.Background()
	event := rutland
	store.On("GetParkrunBySlug", "rutland-water").Return(&event, nil).Once()
	store.On("ListCountries").Return([]string{"Australia", "UK"}, nil).Once()

	got, err := svc.Get(ctx, " Rutland-Water ")
	require.NoError(t, err)
	assert.Equal(t, 80, got.Scores.RacingChair)

	cached, err := svc.Get(ctx, "rutland-water")
	require.NoError(t, err)
	assert.Equal(t, got.Scores, cached.Scores)
	assert.Equal(t, got.LongName, cached.LongName)

	for i := 0; i < 2; i++ {
		countries, err := svc.Countries(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"Australia", "UK"}, countries)
	}
	store.AssertExpectations(t)

	_, err = svc.Get(ctx, "  ")
	assert.Equal(t, 400, statusOf(t, err))
}

func TestParkrunImportInvalidatesCache(t *testing.T) {
	svc, store, mr := newTestParkrunService(t)
	ctx := context.Background()
	store.On("ListCountries").Return([]string{"UK"}, nil)
	store.On("UpsertParkruns", mock.Anything).Return(nil)
	require.NoError(t, mr.Set("unrelated", "keep"))

	_, err := svc.Countries(ctx)
	require.NoError(t, err)
	require.True(t, mr.Exists("parkrun:countries"))

	require.NoError(t, svc.Import(ctx, []model.Parkrun{rutland}))
	assert.False(t, mr.Exists("parkrun:countries"))
	assert.True(t, mr.Exists("unrelated"))
}

func TestParkrunFallsBackWhenCacheDown(t *testing.T) {
	svc, store, mr := newTestParkrunService(t)
	store.On("ListCountries").Return([]string{"UK"}, nil)
	mr.Close()

	countries, err := svc.Countries(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"UK"}, countries)
}

const eventsFile = `[
  {
    "uid": 123,
    "short_name": "rutlandwater",
    "long_name": "Rutland Water parkrun",
    "slug": "Rutland-Water",
    "location": "Sykes Lane",
    "coordinates": [-0.63, 52.66],
    "country": "UK",
    "is_junior": false,
    "course_page_url": "https://www.parkrun.org.uk/rutlandwater/course/",
    "postcode": "LE15 8QL",
    "language": "English",
    "descriptions": {"full": "Full text", "cleaned": "Cleaned", "summary": "Flat tarmac loop."},
    "accessibility": {
      "racing_chair": {"starting_score": 35, "final_score": 80.4},
      "handbike": {"final_score": 104},
      "crutches": {"final_score": -5}
    },
    "metadata": {"version": "2.0"}
  },
  {"uid": 0, "slug": "missing-uid"},
  {"uid": 7, "slug": ""}
]`

func TestParseEventsFile(t *testing.T) {
	events, err := ParseEventsFile(strings.NewReader(eventsFile))
	require.NoError(t, err)
	require.Len(t, events, 1)

	event := events[0]
	assert.Equal(t, int64(123), event.UID)
	assert.Equal(t, "rutland-water", event.Slug)
	assert.Equal(t, -0.63, event.Longitude)
	assert.Equal(t, 52.66, event.Latitude)
	assert.Equal(t, "Flat tarmac loop.", event.Description)
	assert.Equal(t, model.AccessibilityScores{RacingChair: 80, Handbike: 100, Crutches: 0}, event.Scores)

	_, err = ParseEventsFile(strings.NewReader("{not json"))
	assert.Error(t, err)
}

type stubLocator struct {
	ip string
}

func (s *stubLocator) Locate(ctx context.Context, ip string) (*dto.Location, error) {
	s.ip = ip
	return &dto.Location{IP: ip, Latitude: 51.41, Longitude: -0.34}, nil
}

func TestParkrunNearby(t *testing.T) {
	svc, store, _ := newTestParkrunService(t)
	bushy := model.Parkrun{UID: 1, LongName: "Bushy parkrun", Slug: "bushy", Latitude: 51.41, Longitude: -0.335}
	richmond := model.Parkrun{UID: 2, LongName: "Richmond parkrun", Slug: "richmond", Latitude: 51.44, Longitude: -0.28}
	store.On("ListParkruns", "", "", (*bool)(nil)).Return([]model.Parkrun{rutland, richmond, bushy}, nil).Once()

	locator := &stubLocator{}
	svc.geo = locator
	ctx := context.Background()

	resp, err := svc.Nearby(ctx, dto.NearbyQuery{Limit: 2}, "81.2.69.160")
	require.NoError(t, err)
	assert.Equal(t, "81.2.69.160", locator.ip)
	require.Len(t, resp.Events, 2)
	assert.Equal(t, "bushy", resp.Events[0].Slug)
	assert.Equal(t, "richmond", resp.Events[1].Slug)
	assert.Less(t, resp.Events[0].DistanceKm, 1.0)
	assert.InDelta(t, 5.3, resp.Events[1].DistanceKm, 0.2)

	// Explicit coordinates skip the lookup and reuse the cached list.
	lat, lon := 52.66, -0.63
	locator.ip = ""
	resp, err = svc.Nearby(ctx, dto.NearbyQuery{Lat: &lat, Lon: &lon}, "81.2.69.160")
	require.NoError(t, err)
	assert.Empty(t, locator.ip)
	require.Len(t, resp.Events, 3)
	assert.Equal(t, "rutland-water", resp.Events[0].Slug)
	assert.Equal(t, 0.0, resp.Events[0].DistanceKm)
	store.AssertNumberOfCalls(t, "ListParkruns", 1)
}

func TestParkrunNearbyRejectsBadCoordinates(t *testing.T) {
	svc, _, _ := newTestParkrunService(t)
	lat, lon, far := 51.0, 0.0, 91.0

	_, err := svc.Nearby(context.Background(), dto.NearbyQuery{Lat: &lat}, "")
	assert.Equal(t, 400, statusOf(t, err))

	_, err = svc.Nearby(context.Background(), dto.NearbyQuery{Lat: &far, Lon: &lon}, "")
	assert.Equal(t, 400, statusOf(t, err))

	// No locator configured and no coordinates.
	_, err = svc.Nearby(context.Background(), dto.NearbyQuery{}, "81.2.69.160")
	assert.Equal(t, 400, statusOf(t, err))
}
