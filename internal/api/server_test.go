package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alexanderramin/lotplan/internal/calendar"
	"github.com/alexanderramin/lotplan/internal/domain"
	"github.com/alexanderramin/lotplan/internal/metrics"
	"github.com/alexanderramin/lotplan/internal/repository"
	"github.com/alexanderramin/lotplan/internal/service"
	"github.com/alexanderramin/lotplan/internal/testutil"
	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiFixture struct {
	app   *fiber.App
	store repository.Store
	lot   *domain.Lot
	a, b  *domain.Intervention
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	ctx := context.Background()
	store := repository.NewSQLiteStore(testutil.NewTestDB(t))

	company := testutil.NewTestCompany("Plomberie Martin")
	require.NoError(t, store.Companies.Create(ctx, company))
	proj := testutil.NewTestProject("Maison Dupont")
	require.NoError(t, store.Projects.Create(ctx, proj))
	lot := testutil.NewTestLot(proj.ID, "Plomberie", testutil.WithCompany(company.ID))
	require.NoError(t, store.Lots.Create(ctx, lot))

	a := testutil.NewTestIntervention(lot.ID, "A", testutil.WithSpan("2024-01-08", "2024-01-10"))
	b := testutil.NewTestIntervention(lot.ID, "B", testutil.WithSpan("2024-01-11", "2024-01-12"))
	require.NoError(t, store.Interventions.Create(ctx, a))
	require.NoError(t, store.Interventions.Create(ctx, b))

	reg := prometheus.NewRegistry()
	sink, err := metrics.NewPromSink(reg)
	require.NoError(t, err)

	opts := []service.Option{service.WithConfirmer(service.ContextConfirmer), service.WithRecorder(sink)}
	app := New(Deps{
		Planning: service.NewPlanningService(store, opts...),
		Links:    service.NewLinkService(store.Links, store.Interventions, opts...),
		Gatherer: reg,
	})
	return &apiFixture{app: app, store: store, lot: lot, a: a, b: b}
}

func (f *apiFixture) do(t *testing.T, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := f.app.Test(req)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	return resp, data
}

func TestListInterventions(t *testing.T) {
	f := newAPIFixture(t)
	resp, body := f.do(t, http.MethodGet, "/interventions", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got []interventionJSON
	require.NoError(t, json.Unmarshal(body, &got))
	require.Len(t, got, 2)
	ids := []string{got[0].ID, got[1].ID}
	assert.ElementsMatch(t, []string{f.a.ID, f.b.ID}, ids)
}

func TestListInterventions_DoesNotRollRemindersForward(t *testing.T) {
	f := newAPIFixture(t)
	ctx := context.Background()
	memo := testutil.NewTestIntervention(f.lot.ID, "Relancer le carreleur",
		testutil.WithSpan("2024-01-02", "2024-01-03"), testutil.WithState(domain.StateReminder))
	require.NoError(t, f.store.Interventions.Create(ctx, memo))

	today := func() time.Time { return calendar.Date(2024, 1, 15) }
	app := New(Deps{Planning: service.NewPlanningService(f.store, service.WithToday(today))})
	get := func(method, path string) []interventionJSON {
		resp, err := app.Test(httptest.NewRequest(method, path, nil))
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var got []interventionJSON
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		return got
	}
	startOf := func(list []interventionJSON) string {
		for _, iv := range list {
			if iv.ID == memo.ID {
				return iv.Start
			}
		}
		return ""
	}

	assert.Equal(t, "2024-01-02", startOf(get(http.MethodGet, "/interventions")))
	stored, err := f.store.Interventions.GetByID(ctx, memo.ID)
	require.NoError(t, err)
	assert.Equal(t, calendar.Date(2024, 1, 2), stored.Start)

	assert.Equal(t, "2024-01-15", startOf(get(http.MethodPost, "/refresh")))
	assert.Equal(t, "2024-01-15", startOf(get(http.MethodGet, "/interventions")))
}

func TestMoveCascades(t *testing.T) {
	f := newAPIFixture(t)
	resp, body := f.do(t, http.MethodPost, "/links",
		`{"source_id":"`+f.a.ID+`","target_id":"`+f.b.ID+`","type":"FS"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	resp, body = f.do(t, http.MethodPost, "/interventions/"+f.a.ID+"/move",
		`{"grabbed_day":"2024-01-08","dropped_day":"2024-01-15"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var got cascadeJSON
	require.NoError(t, json.Unmarshal(body, &got))
	assert.True(t, got.Changed)
	require.Len(t, got.Updates, 2)
	assert.Equal(t, spanJSON{Start: "2024-01-15", End: "2024-01-17"}, got.Updates[0].To)
	assert.Equal(t, spanJSON{Start: "2024-01-18", End: "2024-01-19"}, got.Updates[1].To)
	assert.NotEmpty(t, got.Updates[1].LinkID)
}

func TestMove_BadRequests(t *testing.T) {
	f := newAPIFixture(t)

	resp, _ := f.do(t, http.MethodPost, "/interventions/"+f.a.ID+"/move", `{"grabbed_day":"monday"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = f.do(t, http.MethodPost, "/interventions/missing/move", `{"grabbed_day":"2024-01-08","dropped_day":"2024-01-09"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestResize(t *testing.T) {
	f := newAPIFixture(t)
	resp, body := f.do(t, http.MethodPost, "/interventions/"+f.a.ID+"/resize", `{"edge":"left","day":"2024-01-09"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	got, err := f.store.Interventions.GetByID(context.Background(), f.a.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-09", got.Start.Format("2006-01-02"))

	resp, _ = f.do(t, http.MethodPost, "/interventions/"+f.a.ID+"/resize", `{"edge":"top","day":"2024-01-09"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateLink_IdempotentAndValidated(t *testing.T) {
	f := newAPIFixture(t)
	body := `{"source_id":"` + f.a.ID + `","target_id":"` + f.b.ID + `","type":"finish-to-finish"}`

	resp, _ := f.do(t, http.MethodPost, "/links", body)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp, data := f.do(t, http.MethodPost, "/links", body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(data), `"resolved":true`)

	resp, _ = f.do(t, http.MethodPost, "/links", `{"source_id":"`+f.a.ID+`","target_id":"`+f.a.ID+`","type":"FS"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, _ = f.do(t, http.MethodPost, "/links", `{"source_id":"x","target_id":"y","type":"after"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, data = f.do(t, http.MethodGet, "/links", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var links []linkJSON
	require.NoError(t, json.Unmarshal(data, &links))
	assert.Len(t, links, 1)
}

func TestDeleteLink_NeedsConfirm(t *testing.T) {
	f := newAPIFixture(t)
	resp, data := f.do(t, http.MethodPost, "/links", `{"source_id":"`+f.a.ID+`","target_id":"`+f.b.ID+`","type":"FS"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created struct {
		Link linkJSON `json:"link"`
	}
	require.NoError(t, json.Unmarshal(data, &created))

	resp, _ = f.do(t, http.MethodDelete, "/links/"+created.Link.ID, "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = f.do(t, http.MethodDelete, "/links/"+created.Link.ID+"?confirm=true", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = f.do(t, http.MethodDelete, "/links/"+created.Link.ID+"?confirm=true", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCheckConflicts(t *testing.T) {
	f := newAPIFixture(t)
	ctx := context.Background()
	other := testutil.NewTestProject("Immeuble Gare")
	require.NoError(t, f.store.Projects.Create(ctx, other))
	otherLot := testutil.NewTestLot(other.ID, "Plomberie", testutil.WithCompany(*f.lot.CompanyID))
	require.NoError(t, f.store.Lots.Create(ctx, otherLot))

	resp, data := f.do(t, http.MethodPost, "/conflicts/check",
		`{"lot_id":"`+otherLot.ID+`","start":"2024-01-10","end":"2024-01-11","state":"planned"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))

	var got conflictsJSON
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "Plomberie Martin", got.Company)
	require.Len(t, got.Conflicts, 2)
	assert.Contains(t, got.Warning, "Save anyway?")

	resp, _ = f.do(t, http.MethodPost, "/conflicts/check", `{"lot_id":"x","start":"2024-01-10","end":"2024-01-11","state":"sleeping"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCyclesAndMetrics(t *testing.T) {
	f := newAPIFixture(t)
	f.do(t, http.MethodPost, "/links", `{"source_id":"`+f.a.ID+`","target_id":"`+f.b.ID+`","type":"FS"}`)
	f.do(t, http.MethodPost, "/links", `{"source_id":"`+f.b.ID+`","target_id":"`+f.a.ID+`","type":"SS"}`)

	resp, data := f.do(t, http.MethodGet, "/links/cycles", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got struct {
		Cycles [][]string `json:"cycles"`
	}
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got.Cycles, 1)
	assert.ElementsMatch(t, []string{f.a.ID, f.b.ID}, got.Cycles[0])

	resp, data = f.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(data), `lotplan_link_changes_total{kind="add"} 2`)
}
