package permissions

import (
	"encoding/json"
)

// Capability names one granular permission.
type Capability string

const (
	CapDashboard Capability = "dashboard"
	CapSales     Capability = "vendas"
	CapClients   Capability = "clientes"
	CapProducts  Capability = "produtos"
	CapSuppliers Capability = "fornecedores"
	CapReports   Capability = "relatorios"
)

// Capabilities lists every capability in display order.
var Capabilities = []Capability{
	CapDashboard,
	CapSales,
	CapClients,
	CapProducts,
	CapSuppliers,
	CapReports,
}

// Default policies for capabilities missing from a blob.
const (
	// DenyByDefault is used for navigation and sidebar visibility.
	DenyByDefault = false

	// AllowByDefault is used by the permission-management view, which shows
	// an unconfigured user as fully enabled.
	AllowByDefault = true
)

// Granular is the per-user capability map for non-admin users.
type Granular struct {
	Dashboard bool `json:"dashboard"`
	Sales     bool `json:"vendas"`
	Clients   bool `json:"clientes"`
	Products  bool `json:"produtos"`
	Suppliers bool `json:"fornecedores"`
	Reports   bool `json:"relatorios"`
}

// NewGranular returns a record with every capability set to def.
func NewGranular(def bool) Granular {
	return Granular{
		Dashboard: def,
		Sales:     def,
		Clients:   def,
		Products:  def,
		Suppliers: def,
		Reports:   def,
	}
}

// ParseGranular decodes a serialized capability map. Capabilities that are
// absent or not booleans take def. Input that is not a JSON object yields
// NewGranular(def).
func ParseGranular(raw string, def bool) Granular {
	out := NewGranular(def)
	if raw == "" {
		return out
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil || fields == nil {
		return out
	}

	for _, c := range Capabilities {
		v, ok := fields[string(c)]
		if !ok {
			continue
		}
		var b bool
		if err := json.Unmarshal(v, &b); err != nil || string(v) == "null" {
			continue
		}
		out.Set(c, b)
	}
	return out
}

// Get returns the value of a capability. Unknown capabilities are false.
func (g Granular) Get(c Capability) bool {
	switch c {
	case CapDashboard:
		return g.Dashboard
	case CapSales:
		return g.Sales
	case CapClients:
		return g.Clients
	case CapProducts:
		return g.Products
	case CapSuppliers:
		return g.Suppliers
	case CapReports:
		return g.Reports
	default:
		return false
	}
}

// Set updates a capability. Unknown capabilities are ignored.
func (g *Granular) Set(c Capability, v bool) {
	switch c {
	case CapDashboard:
		g.Dashboard = v
	case CapSales:
		g.Sales = v
	case CapClients:
		g.Clients = v
	case CapProducts:
		g.Products = v
	case CapSuppliers:
		g.Suppliers = v
	case CapReports:
		g.Reports = v
	}
}

// Encode serializes the record in the backend's blob format.
func (g Granular) Encode() string {
	b, _ := json.Marshal(g)
	return string(b)
}

// ParseCapability resolves a capability name; ok is false for unknown names.
func ParseCapability(name string) (Capability, bool) {
	for _, c := range Capabilities {
		if string(c) == name {
			return c, true
		}
	}
	return "", false
}
