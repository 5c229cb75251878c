package holiday

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/alexanderramin/lotplan/internal/calendar"
)

const (
	DefaultHolidaysURL  = "https://calendrier.api.gouv.fr/jours-feries/metropole"
	DefaultVacationsURL = "https://data.education.gouv.fr/api/explore/v2.1/catalog/datasets/fr-en-calendrier-scolaire/records"
	DefaultZone         = "Zone B"
)

// HTTPConfig locates the two public data sets.
type HTTPConfig struct {
	HolidaysURL  string
	VacationsURL string
	Zone         string
	Timeout      time.Duration
	MaxRetries   int
}

func DefaultHTTPConfig() HTTPConfig {
	return HTTPConfig{
		HolidaysURL:  DefaultHolidaysURL,
		VacationsURL: DefaultVacationsURL,
		Zone:         DefaultZone,
		Timeout:      5 * time.Second,
		MaxRetries:   1,
	}
}

type httpProvider struct {
	cfg  HTTPConfig
	http *http.Client
}

// NewHTTPProvider reads French public holidays from calendrier.api.gouv.fr
// and school vacations from data.education.gouv.fr.
func NewHTTPProvider(cfg HTTPConfig) Provider {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultHTTPConfig().Timeout
	}
	if cfg.Zone == "" {
		cfg.Zone = DefaultZone
	}
	return &httpProvider{
		cfg: cfg,
		http: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 5 * time.Second,
				}).DialContext,
			},
		},
	}
}

func (p *httpProvider) PublicHolidays(ctx context.Context, year int) ([]time.Time, error) {
	// Body is {"2024-01-01": "1er janvier", ...}.
	var body map[string]string
	if err := p.get(ctx, fmt.Sprintf("%s/%d.json", p.cfg.HolidaysURL, year), &body); err != nil {
		return nil, fmt.Errorf("public holidays %d: %w", year, err)
	}
	days := make([]time.Time, 0, len(body))
	for k := range body {
		d, err := calendar.Parse(k)
		if err != nil {
			continue
		}
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days, nil
}

type vacationRecords struct {
	Results []struct {
		Description string `json:"description"`
		StartDate   string `json:"start_date"`
		EndDate     string `json:"end_date"`
	} `json:"results"`
}

func (p *httpProvider) SchoolVacations(ctx context.Context, academicYear string) ([]Vacation, error) {
	q := url.Values{}
	q.Set("limit", "20")
	q.Add("refine", fmt.Sprintf("zones:%q", p.cfg.Zone))
	q.Add("refine", fmt.Sprintf("annee_scolaire:%q", academicYear))

	var body vacationRecords
	if err := p.get(ctx, p.cfg.VacationsURL+"?"+q.Encode(), &body); err != nil {
		return nil, fmt.Errorf("school vacations %s: %w", academicYear, err)
	}
	out := make([]Vacation, 0, len(body.Results))
	for _, r := range body.Results {
		start, errS := parseAPIDate(r.StartDate)
		end, errE := parseAPIDate(r.EndDate)
		if errS != nil || errE != nil {
			continue
		}
		out = append(out, Vacation{Name: r.Description, Start: start, End: end})
	}
	return out, nil
}

// parseAPIDate accepts a bare date or an RFC 3339 timestamp and keeps the
// calendar date as written.
func parseAPIDate(s string) (time.Time, error) {
	if len(s) >= 10 {
		return calendar.Parse(s[:10])
	}
	return calendar.Parse(s)
}

func (p *httpProvider) get(ctx context.Context, target string, v any) error {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	var lastErr error
	attempts := 1 + p.cfg.MaxRetries
	for i := 0; i < attempts; i++ {
		lastErr = p.doRequest(ctx, target, v)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			break
		}
	}

	if ctx.Err() != nil {
		return ErrTimeout
	}
	if isConnectionError(lastErr) {
		return ErrUnavailable
	}
	return fmt.Errorf("%w: %v", ErrRetryExhausted, lastErr)
}

func (p *httpProvider) doRequest(ctx context.Context, target string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(data))
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func isConnectionError(err error) bool {
	var netErr *net.OpError
	return err != nil && errors.As(err, &netErr)
}
