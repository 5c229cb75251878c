package holiday

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/alexanderramin/lotplan/internal/calendar"
	"golang.org/x/sync/errgroup"
)

type rangeKey struct {
	from, to time.Time
}

// Cache memoises SpecialDays per requested range, and the underlying
// provider calls per year and academic year. Safe for concurrent use.
type Cache struct {
	provider Provider

	mu        sync.Mutex
	ranges    map[rangeKey]SpecialDays
	holidays  map[int][]time.Time
	vacations map[string][]Vacation
}

func NewCache(p Provider) *Cache {
	c := &Cache{provider: p}
	c.reset()
	return c
}

func (c *Cache) reset() {
	c.ranges = make(map[rangeKey]SpecialDays)
	c.holidays = make(map[int][]time.Time)
	c.vacations = make(map[string][]Vacation)
}

// Invalidate drops everything cached so far.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset()
}

// SpecialDays returns the flagged days between from and to inclusive. A
// provider failure is returned alongside whatever data did load; nothing is
// cached for the failed year, so the next call retries it.
func (c *Cache) SpecialDays(ctx context.Context, from, to time.Time) (SpecialDays, error) {
	key := rangeKey{from: calendar.Truncate(from), to: calendar.Truncate(to)}
	if key.to.Before(key.from) {
		return SpecialDays{}, nil
	}

	c.mu.Lock()
	if sd, ok := c.ranges[key]; ok {
		c.mu.Unlock()
		return sd, nil
	}
	years, academic := c.missing(key)
	c.mu.Unlock()

	holidays := make([][]time.Time, len(years))
	vacations := make([][]Vacation, len(academic))
	errs := make([]error, len(years)+len(academic))

	var g errgroup.Group
	for i, y := range years {
		g.Go(func() error {
			holidays[i], errs[i] = c.provider.PublicHolidays(ctx, y)
			return nil
		})
	}
	for i, ay := range academic {
		g.Go(func() error {
			vacations[i], errs[len(years)+i] = c.provider.SchoolVacations(ctx, ay)
			return nil
		})
	}
	_ = g.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	for i, y := range years {
		if errs[i] == nil {
			c.holidays[y] = holidays[i]
		}
	}
	for i, ay := range academic {
		if errs[len(years)+i] == nil {
			c.vacations[ay] = vacations[i]
		}
	}
	sd := c.assemble(key)
	err := errors.Join(errs...)
	if err == nil {
		c.ranges[key] = sd
	}
	return sd, err
}

// missing lists the years and academic years in key not fetched yet. Callers
// hold mu.
func (c *Cache) missing(key rangeKey) ([]int, []string) {
	var years []int
	var academic []string
	seenY := map[int]bool{}
	seenA := map[string]bool{}
	for d := key.from; !d.After(key.to); d = calendar.AddDays(d, 1) {
		y, ay := d.Year(), calendar.AcademicYear(d)
		if _, ok := c.holidays[y]; !ok && !seenY[y] {
			seenY[y] = true
			years = append(years, y)
		}
		if _, ok := c.vacations[ay]; !ok && !seenA[ay] {
			seenA[ay] = true
			academic = append(academic, ay)
		}
	}
	return years, academic
}

// assemble builds the set for key from what is cached. Callers hold mu.
func (c *Cache) assemble(key rangeKey) SpecialDays {
	var holidays []time.Time
	var vacations []Vacation
	years := map[int]bool{}
	academic := map[string]bool{}
	for d := key.from; !d.After(key.to); d = calendar.AddDays(d, 1) {
		years[d.Year()] = true
		academic[calendar.AcademicYear(d)] = true
	}
	for y := range years {
		holidays = append(holidays, c.holidays[y]...)
	}
	labels := make([]string, 0, len(academic))
	for ay := range academic {
		labels = append(labels, ay)
	}
	sort.Strings(labels)
	for _, ay := range labels {
		vacations = append(vacations, c.vacations[ay]...)
	}
	return NewSpecialDays(holidays, vacations)
}
