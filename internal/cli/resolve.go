package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexanderramin/lotplan/internal/domain"
)

// resolveID finds the one item whose id equals input, whose name equals
// input (case-insensitive) or, failing both, whose id starts with input.
func resolveID[T any](kind, input string, items []T, id, name func(T) string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("%s ID is required", kind)
	}

	for _, it := range items {
		if id(it) == input {
			return input, nil
		}
	}

	var matches []string
	for _, it := range items {
		if strings.EqualFold(name(it), input) {
			matches = append(matches, id(it))
		}
	}
	if len(matches) == 0 {
		for _, it := range items {
			if strings.HasPrefix(id(it), strings.ToLower(input)) {
				matches = append(matches, id(it))
			}
		}
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%s not found: %q", kind, input)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%s %q is ambiguous (%d matches)", kind, input, len(matches))
	}
}

func resolveProjectID(ctx context.Context, app *App, input string) (string, error) {
	projects, err := app.Catalog.Projects(ctx)
	if err != nil {
		return "", err
	}
	return resolveID("project", input, projects,
		func(p *domain.Project) string { return p.ID },
		func(p *domain.Project) string { return p.Name })
}

func resolveLotID(ctx context.Context, app *App, input string) (string, error) {
	lots, err := app.Catalog.Lots(ctx)
	if err != nil {
		return "", err
	}
	return resolveID("lot", input, lots,
		func(l *domain.Lot) string { return l.ID },
		func(l *domain.Lot) string { return l.Name })
}

func resolveCompanyID(ctx context.Context, app *App, input string) (string, error) {
	companies, err := app.Catalog.Companies(ctx)
	if err != nil {
		return "", err
	}
	return resolveID("company", input, companies,
		func(c *domain.Company) string { return c.ID },
		func(c *domain.Company) string { return c.Name })
}

func resolveInterventionID(ctx context.Context, app *App, input string) (string, error) {
	snap, err := app.Planning.Refresh(ctx)
	if err != nil {
		return "", err
	}
	return resolveID("intervention", input, snap.Interventions,
		func(iv *domain.Intervention) string { return iv.ID },
		func(iv *domain.Intervention) string { return iv.Name })
}

func resolveLinkID(ctx context.Context, app *App, input string) (string, error) {
	links, err := app.Links.List(ctx)
	if err != nil {
		return "", err
	}
	return resolveID("link", input, links,
		func(l *domain.Link) string { return l.ID },
		func(*domain.Link) string { return "" })
}
