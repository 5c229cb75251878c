package holiday

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alexanderramin/lotplan/internal/calendar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpecialDays(t *testing.T) {
	sd := NewSpecialDays(
		[]time.Time{calendar.Date(2024, 5, 1)},
		[]Vacation{{Name: "Vacances d'Hiver", Start: calendar.Date(2024, 2, 10), End: calendar.Date(2024, 2, 26)}},
	)

	assert.True(t, sd.IsPublicHoliday(calendar.Date(2024, 5, 1)))
	assert.False(t, sd.IsPublicHoliday(calendar.Date(2024, 5, 2)))
	assert.True(t, sd.IsSchoolVacation(calendar.Date(2024, 2, 10)), "start is inclusive")
	assert.True(t, sd.IsSchoolVacation(calendar.Date(2024, 2, 26)), "end is inclusive")
	assert.False(t, sd.IsSchoolVacation(calendar.Date(2024, 2, 27)))
	assert.True(t, sd.IsSpecial(calendar.Date(2024, 5, 1)))
	assert.False(t, SpecialDays{}.IsSpecial(calendar.Date(2024, 5, 1)))
}

func newGovServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/jours-feries/metropole/2024.json", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{"2024-01-01": "1er janvier", "2024-05-01": "1er mai", "bogus": "x"}`))
	})
	mux.HandleFunc("/records", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		refine := r.URL.Query()["refine"]
		if !assert.Len(t, refine, 2) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		assert.Equal(t, `zones:"Zone B"`, refine[0])
		assert.Equal(t, `annee_scolaire:"2023-2024"`, refine[1])
		_, _ = w.Write([]byte(`{"results": [
			{"description": "Vacances d'Hiver", "start_date": "2024-02-09T23:00:00+00:00", "end_date": "2024-02-25T23:00:00+00:00"},
			{"description": "Broken", "start_date": "", "end_date": ""}
		]}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPProvider_PublicHolidays(t *testing.T) {
	var hits atomic.Int32
	srv := newGovServer(t, &hits)
	p := NewHTTPProvider(HTTPConfig{HolidaysURL: srv.URL + "/jours-feries/metropole", VacationsURL: srv.URL + "/records"})

	days, err := p.PublicHolidays(context.Background(), 2024)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{calendar.Date(2024, 1, 1), calendar.Date(2024, 5, 1)}, days)
}

func TestHTTPProvider_SchoolVacations(t *testing.T) {
	var hits atomic.Int32
	srv := newGovServer(t, &hits)
	p := NewHTTPProvider(HTTPConfig{HolidaysURL: srv.URL, VacationsURL: srv.URL + "/records"})

	vs, err := p.SchoolVacations(context.Background(), "2023-2024")
	require.NoError(t, err)
	require.Len(t, vs, 1)
	assert.Equal(t, "Vacances d'Hiver", vs[0].Name)
	assert.Equal(t, calendar.Date(2024, 2, 9), vs[0].Start)
	assert.Equal(t, calendar.Date(2024, 2, 25), vs[0].End)
}

func TestHTTPProvider_StatusErrorRetries(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "down for maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := NewHTTPProvider(HTTPConfig{HolidaysURL: srv.URL, MaxRetries: 2})
	_, err := p.PublicHolidays(context.Background(), 2024)
	require.ErrorIs(t, err, ErrRetryExhausted)
	assert.Contains(t, err.Error(), "status 503")
	assert.Equal(t, int32(3), hits.Load())
}

func TestHTTPProvider_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	p := NewHTTPProvider(HTTPConfig{HolidaysURL: srv.URL, Timeout: 50 * time.Millisecond})
	_, err := p.PublicHolidays(context.Background(), 2024)
	require.ErrorIs(t, err, ErrTimeout)
}

func TestHTTPProvider_Unavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	p := NewHTTPProvider(HTTPConfig{HolidaysURL: addr})
	_, err := p.PublicHolidays(context.Background(), 2024)
	require.ErrorIs(t, err, ErrUnavailable)
}

type countingProvider struct {
	mu        sync.Mutex
	holidays  map[int]int
	vacations map[string]int
	failYear  int
	inner     StaticProvider
}

func (p *countingProvider) PublicHolidays(ctx context.Context, year int) ([]time.Time, error) {
	p.mu.Lock()
	p.holidays[year]++
	fail := year == p.failYear
	p.mu.Unlock()
	if fail {
		return nil, errors.New("upstream down")
	}
	return p.inner.PublicHolidays(ctx, year)
}

func (p *countingProvider) SchoolVacations(ctx context.Context, ay string) ([]Vacation, error) {
	p.mu.Lock()
	p.vacations[ay]++
	p.mu.Unlock()
	return p.inner.SchoolVacations(ctx, ay)
}

func newCountingProvider() *countingProvider {
	return &countingProvider{
		holidays:  map[int]int{},
		vacations: map[string]int{},
		inner: StaticProvider{
			Holidays: map[int][]time.Time{
				2023: {calendar.Date(2023, 12, 25)},
				2024: {calendar.Date(2024, 1, 1)},
			},
			Vacations: map[string][]Vacation{
				"2023-2024": {{Name: "Noël", Start: calendar.Date(2023, 12, 23), End: calendar.Date(2024, 1, 7)}},
			},
		},
	}
}

func TestCache_FetchesEachYearOnce(t *testing.T) {
	p := newCountingProvider()
	c := NewCache(p)
	ctx := context.Background()

	sd, err := c.SpecialDays(ctx, calendar.Date(2023, 12, 1), calendar.Date(2024, 2, 29))
	require.NoError(t, err)
	assert.True(t, sd.IsPublicHoliday(calendar.Date(2023, 12, 25)))
	assert.True(t, sd.IsPublicHoliday(calendar.Date(2024, 1, 1)))
	assert.True(t, sd.IsSchoolVacation(calendar.Date(2024, 1, 3)))

	// Overlapping range reuses the per-year results.
	_, err = c.SpecialDays(ctx, calendar.Date(2024, 1, 1), calendar.Date(2024, 3, 31))
	require.NoError(t, err)
	// Same range again is served from the range cache.
	_, err = c.SpecialDays(ctx, calendar.Date(2024, 1, 1), calendar.Date(2024, 3, 31))
	require.NoError(t, err)

	assert.Equal(t, map[int]int{2023: 1, 2024: 1}, p.holidays)
	assert.Equal(t, map[string]int{"2023-2024": 1}, p.vacations)

	c.Invalidate()
	_, err = c.SpecialDays(ctx, calendar.Date(2024, 1, 1), calendar.Date(2024, 1, 31))
	require.NoError(t, err)
	assert.Equal(t, 2, p.holidays[2024])
}

func TestCache_FailureIsRetried(t *testing.T) {
	p := newCountingProvider()
	p.failYear = 2024
	c := NewCache(p)
	ctx := context.Background()

	sd, err := c.SpecialDays(ctx, calendar.Date(2024, 1, 1), calendar.Date(2024, 1, 31))
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "upstream down"))
	assert.True(t, sd.IsSchoolVacation(calendar.Date(2024, 1, 2)), "partial data is still returned")

	p.failYear = 0
	sd, err = c.SpecialDays(ctx, calendar.Date(2024, 1, 1), calendar.Date(2024, 1, 31))
	require.NoError(t, err)
	assert.True(t, sd.IsPublicHoliday(calendar.Date(2024, 1, 1)))
	assert.Equal(t, 2, p.holidays[2024])
	assert.Equal(t, 1, p.vacations["2023-2024"])
}

func TestCache_EmptyRange(t *testing.T) {
	c := NewCache(newCountingProvider())
	sd, err := c.SpecialDays(context.Background(), calendar.Date(2024, 2, 1), calendar.Date(2024, 1, 1))
	require.NoError(t, err)
	assert.Equal(t, 0, sd.HolidayCount())
}
