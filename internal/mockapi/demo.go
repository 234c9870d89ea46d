package mockapi

import (
	"fmt"

	"github.com/marcus-qen/erplite/internal/account"
)

// Demo credentials installed by SeedDemo.
const (
	DemoAdminEmail    = "admin@erplite.local"
	DemoAdminPassword = "admin12345"
	DemoUserEmail     = "vendas@erplite.local"
	DemoUserPassword  = "vendas12345"
)

// SeedDemo fills the server with a small data set: an administrator, a
// sales-only user, a supplier, a few clients and products (two of them low on
// stock) and a handful of sales.
func (s *Server) SeedDemo() {
	s.AddUser(account.User{
		Name:        "Administrador",
		Email:       DemoAdminEmail,
		JobTitle:    "Gerente",
		AccessLevel: "administrador",
		IsStaff:     true,
	}, DemoAdminPassword)
	seller := s.AddUser(account.User{
		Name:          "Vendedor",
		Email:         DemoUserEmail,
		JobTitle:      "Vendedor",
		AccessLevel:   "usuario",
		UIPermissions: `{"dashboard":false,"vendas":true,"clientes":true,"produtos":false,"fornecedores":false,"relatorios":false}`,
	}, DemoUserPassword)

	supplier := s.Seed(SuppliersPath, map[string]any{
		"nome": "Distribuidora Central", "cnpj": "12.345.678/0001-90", "email": "contato@central.example",
	})

	for i, name := range []string{"Ana Souza", "Bruno Lima", "Carla Dias"} {
		s.Seed(ClientsPath, map[string]any{
			"nome":     name,
			"email":    fmt.Sprintf("cliente%d@example.com", i+1),
			"telefone": fmt.Sprintf("(11) 5555-000%d", i+1),
			"cidade":   "São Paulo",
			"estado":   "SP",
		})
	}

	products := []struct {
		name  string
		price string
		stock int
	}{
		{"Café 500g", "18.90", 40},
		{"Açúcar 1kg", "5.49", 3},
		{"Filtro de papel", "7.20", 5},
		{"Leite 1L", "4.99", 60},
	}
	for _, p := range products {
		s.Seed(ProductsPath, map[string]any{
			"nome":            p.name,
			"descricao":       p.name,
			"preco":           p.price,
			"qtd_estoque":     p.stock,
			"fornecedor":      supplier,
			"fornecedor_nome": "Distribuidora Central",
		})
	}

	for day := 1; day <= 4; day++ {
		s.Seed(SalesPath, map[string]any{
			"cliente":          day%3 + 1,
			"funcionario":      seller,
			"funcionario_nome": "Vendedor",
			"data_venda":       fmt.Sprintf("2026-10-%02dT14:00:00Z", day),
			"total":            fmt.Sprintf("%d.50", 20*day),
			"status":           "CONCLUIDA",
			"itens": []map[string]any{{
				"produto":        int64(1 + day%2),
				"quantidade":     day,
				"preco_unitario": "1.00",
				"subtotal":       fmt.Sprintf("%d.00", day),
			}},
		})
	}
	s.Seed(MovementsPath, map[string]any{
		"produto": int64(1), "tipo": "ENTRADA", "quantidade": 40,
		"data_movimento": "2026-09-28T09:00:00Z", "funcionario": seller, "observacao": "Compra inicial",
	})
	s.Seed(MovementsPath, map[string]any{
		"produto": int64(2), "tipo": "SAIDA", "quantidade": 2,
		"data_movimento": "2026-10-02T16:30:00Z", "funcionario": seller,
	})
}
