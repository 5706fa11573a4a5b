package auth

import (
	"context"
	"fmt"
	"os"
	"strings"

	"conversation-insights-go/internal/dataset"
	"conversation-insights-go/internal/types"
	"gopkg.in/yaml.v3"
)

// Tenant is one dashboard client and the spreadsheet holding its conversations.
type Tenant struct {
	ClientID   string `yaml:"client_id" json:"client_id"`
	ClientName string `yaml:"client_name" json:"client_name"`
	SheetID    string `yaml:"planilha_id" json:"planilha_id"`
	Token      string `yaml:"token" json:"-"`
	Active     string `yaml:"ativo" json:"-"`
	CreatedAt  string `yaml:"created_at" json:"created_at,omitempty"`
}

func (t Tenant) IsActive() bool {
	return strings.ToUpper(strings.TrimSpace(t.Active)) == "TRUE"
}

// Registry lists the known tenants.
type Registry interface {
	Tenants(ctx context.Context) ([]Tenant, error)
}

// FileRegistry reads tenants from a YAML file:
//
//	clients:
//	  - client_id: acme
//	    client_name: ACME
//	    planilha_id: 1b7C...
//	    token: secret
//	    ativo: "TRUE"
//
// A client without ativo is active.
type FileRegistry struct {
	Path string
}

func (r FileRegistry) Tenants(_ context.Context) ([]Tenant, error) {
	b, err := os.ReadFile(r.Path)
	if err != nil {
		return nil, fmt.Errorf("read tenants file: %w", err)
	}
	var doc struct {
		Clients []Tenant `yaml:"clients"`
	}
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("parse tenants file: %w", err)
	}
	for i := range doc.Clients {
		if doc.Clients[i].Active == "" {
			doc.Clients[i].Active = "TRUE"
		}
	}
	return activeOnly(doc.Clients), nil
}

// SheetRegistry reads tenants from the first worksheet of a master spreadsheet
// with columns client_id, client_name, planilha_id, token, ativo.
type SheetRegistry struct {
	Source  dataset.Source
	SheetID string
}

func (r SheetRegistry) Tenants(ctx context.Context) ([]Tenant, error) {
	raw, err := r.Source.Fetch(ctx, r.SheetID)
	if err != nil {
		return nil, fmt.Errorf("load master sheet: %w", err)
	}
	return activeOnly(TenantsFromTable(raw)), nil
}

// TenantsFromTable maps master sheet rows by header name. Rows shorter than
// the header read missing cells as blank.
func TenantsFromTable(raw types.RawTable) []Tenant {
	idx := map[string]int{}
	for i, h := range raw.Header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	cell := func(row []string, name string) string {
		i, ok := idx[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
	var out []Tenant
	for _, row := range raw.Rows {
		t := Tenant{
			ClientID:   cell(row, "client_id"),
			ClientName: cell(row, "client_name"),
			SheetID:    cell(row, "planilha_id"),
			Token:      cell(row, "token"),
			Active:     cell(row, "ativo"),
			CreatedAt:  cell(row, "created_at"),
		}
		if _, ok := idx["ativo"]; !ok {
			t.Active = "TRUE"
		}
		if t.ClientID != "" {
			out = append(out, t)
		}
	}
	return out
}

func activeOnly(ts []Tenant) []Tenant {
	out := ts[:0:0]
	for _, t := range ts {
		if t.IsActive() {
			out = append(out, t)
		}
	}
	return out
}
