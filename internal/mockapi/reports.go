package mockapi

import (
	"net/http"
	"sort"
	"strings"
)

const (
	reportListLimit     = 10
	reportLowStock      = 10
	recentMovementLimit = 20
)

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	from := r.URL.Query().Get("data_inicio")
	to := r.URL.Query().Get("data_fim")

	s.mu.Lock()
	defer s.mu.Unlock()

	clients := s.collections[ClientsPath].items
	employees := s.collections[EmployeesPath].items
	products := s.collections[ProductsPath].items
	suppliers := s.collections[SuppliersPath].items

	var sales []map[string]any
	for _, rec := range s.collections[SalesPath].items {
		day := saleDay(rec)
		if (from != "" && day < from) || (to != "" && day > to) {
			continue
		}
		sales = append(sales, rec)
	}
	sort.Slice(sales, func(i, j int) bool {
		di, _ := sales[i]["data_venda"].(string)
		dj, _ := sales[j]["data_venda"].(string)
		if di != dj {
			return di > dj
		}
		return number(sales[i]["id"]) > number(sales[j]["id"])
	})

	var value float64
	for _, rec := range sales {
		value += number(rec["total"])
	}

	recent := make([]map[string]any, 0, reportListLimit)
	for _, rec := range sales {
		if len(recent) == reportListLimit {
			break
		}
		recent = append(recent, map[string]any{
			"id":                rec["id"],
			"data_venda":        rec["data_venda"],
			"total":             number(rec["total"]),
			"cliente__nome":     nameOf(clients, rec["cliente"]),
			"funcionario__nome": nameOf(employees, rec["funcionario"]),
		})
	}

	lowStock := []map[string]any{}
	for _, id := range sortedIDs(products) {
		p := products[id]
		qty, ok := p["qtd_estoque"]
		if !ok || qty == nil || number(qty) >= reportLowStock {
			continue
		}
		lowStock = append(lowStock, map[string]any{
			"id":          id,
			"descricao":   p["descricao"],
			"qtd_estoque": number(qty),
			"preco":       number(p["preco"]),
		})
	}

	// Rankings ignore the date range.
	type tally struct {
		id    int64
		count float64
		value float64
	}
	byClient := map[int64]*tally{}
	byProduct := map[int64]*tally{}
	for _, rec := range s.collections[SalesPath].items {
		if cid := int64(number(rec["cliente"])); cid != 0 {
			t := byClient[cid]
			if t == nil {
				t = &tally{id: cid}
				byClient[cid] = t
			}
			t.count++
			t.value += number(rec["total"])
		}
		for _, item := range saleItems(rec["itens"]) {
			pid := int64(number(item["produto"]))
			t := byProduct[pid]
			if t == nil {
				t = &tally{id: pid}
				byProduct[pid] = t
			}
			t.count += number(item["quantidade"])
			t.value += number(item["subtotal"])
		}
	}
	ranked := func(m map[int64]*tally) []*tally {
		out := make([]*tally, 0, len(m))
		for _, t := range m {
			out = append(out, t)
		}
		sort.Slice(out, func(i, j int) bool {
			if out[i].count != out[j].count {
				return out[i].count > out[j].count
			}
			return out[i].id < out[j].id
		})
		if len(out) > reportListLimit {
			out = out[:reportListLimit]
		}
		return out
	}

	topClients := []map[string]any{}
	for _, t := range ranked(byClient) {
		topClients = append(topClients, map[string]any{
			"cliente__id":   t.id,
			"cliente__nome": nameOf(clients, t.id),
			"total_compras": t.count,
			"valor_total":   t.value,
		})
	}
	topProducts := []map[string]any{}
	for _, t := range ranked(byProduct) {
		desc := ""
		if p, ok := products[t.id]; ok {
			desc, _ = p["descricao"].(string)
		}
		topProducts = append(topProducts, map[string]any{
			"produto__id":        t.id,
			"produto__descricao": desc,
			"total_vendido":      t.count,
			"valor_total":        t.value,
		})
	}

	supplierProducts := map[int64]int{}
	for _, p := range products {
		if sid := int64(number(p["fornecedor"])); sid != 0 {
			supplierProducts[sid]++
		}
	}
	active := []map[string]any{}
	for _, id := range sortedIDs(suppliers) {
		n := supplierProducts[id]
		if n == 0 {
			continue
		}
		sup := suppliers[id]
		active = append(active, map[string]any{
			"id":             id,
			"nome":           sup["nome"],
			"telefone":       sup["telefone"],
			"email":          sup["email"],
			"total_produtos": n,
		})
	}
	sort.SliceStable(active, func(i, j int) bool {
		return active[i]["total_produtos"].(int) > active[j]["total_produtos"].(int)
	})
	if len(active) > reportListLimit {
		active = active[:reportListLimit]
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"total_vendas":              len(sales),
		"valor_total_vendas":        value,
		"total_clientes":            len(clients),
		"total_produtos":            len(products),
		"total_fornecedores":        len(suppliers),
		"vendas_recentes":           recent,
		"produtos_estoque_baixo":    lowStock,
		"clientes_mais_compradores": topClients,
		"produtos_mais_vendidos":    topProducts,
		"fornecedores_ativos":       active,
	})
}

func (s *Server) handleStockStats(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	products := s.collections[ProductsPath].items
	var value float64
	empty := 0
	for _, p := range products {
		qty, ok := p["qtd_estoque"]
		if !ok || qty == nil {
			continue
		}
		if number(qty) == 0 {
			empty++
		}
		value += number(qty) * number(p["preco"])
	}

	movements := make([]map[string]any, 0, len(s.collections[MovementsPath].items))
	for _, m := range s.collections[MovementsPath].items {
		movements = append(movements, m)
	}
	sort.Slice(movements, func(i, j int) bool {
		di, _ := movements[i]["data_movimento"].(string)
		dj, _ := movements[j]["data_movimento"].(string)
		if di != dj {
			return di > dj
		}
		return number(movements[i]["id"]) > number(movements[j]["id"])
	})
	if len(movements) > recentMovementLimit {
		movements = movements[:recentMovementLimit]
	}
	recent := make([]map[string]any, 0, len(movements))
	for _, m := range movements {
		desc := ""
		if p, ok := products[int64(number(m["produto"]))]; ok {
			desc, _ = p["descricao"].(string)
		}
		recent = append(recent, map[string]any{
			"id":                 m["id"],
			"produto__descricao": desc,
			"tipo":               m["tipo"],
			"quantidade":         number(m["quantidade"]),
			"data_movimento":     m["data_movimento"],
			"observacao":         m["observacao"],
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"total_produtos":         len(products),
		"valor_total_estoque":    value,
		"produtos_sem_estoque":   empty,
		"movimentacoes_recentes": recent,
	})
}

// saleDay returns the YYYY-MM-DD part of a sale's date.
func saleDay(rec map[string]any) string {
	d, _ := rec["data_venda"].(string)
	if len(d) > 10 {
		d = d[:10]
	}
	return d
}

func nameOf(items map[int64]map[string]any, id any) string {
	rec, ok := items[int64(number(id))]
	if !ok {
		return ""
	}
	name, _ := rec["nome"].(string)
	return strings.TrimSpace(name)
}

// saleItems accepts line items as decoded from JSON or as seeded from Go.
func saleItems(v any) []map[string]any {
	switch items := v.(type) {
	case []map[string]any:
		return items
	case []any:
		out := make([]map[string]any, 0, len(items))
		for _, it := range items {
			if m, ok := it.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	default:
		return nil
	}
}

func sortedIDs(items map[int64]map[string]any) []int64 {
	ids := make([]int64, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
