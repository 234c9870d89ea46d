package erp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Page is one page of a paginated list endpoint.
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// HasNext reports whether another page follows this one.
func (p *Page[T]) HasNext() bool {
	return p != nil && p.Next != nil && *p.Next != ""
}

// Amount is a monetary or decimal value. The backend serializes decimals as
// strings on some endpoints and as numbers on others; both decode.
type Amount float64

// UnmarshalJSON implements json.Unmarshaler.
func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*a = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			*a = 0
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("invalid decimal %q: %w", s, err)
		}
		*a = Amount(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*a = Amount(f)
	return nil
}

// String formats the amount with two decimals.
func (a Amount) String() string {
	return strconv.FormatFloat(float64(a), 'f', 2, 64)
}

// Address holds the postal fields shared by clients, employees and suppliers.
type Address struct {
	CEP          string `json:"cep,omitempty"`
	Street       string `json:"endereco,omitempty"`
	Number       *int   `json:"numero,omitempty"`
	Complement   string `json:"complemento,omitempty"`
	Neighborhood string `json:"bairro,omitempty"`
	City         string `json:"cidade,omitempty"`
	State        string `json:"estado,omitempty"`
}

// Client is a customer record.
type Client struct {
	ID     int64  `json:"id,omitempty"`
	Name   string `json:"nome"`
	RG     string `json:"rg,omitempty"`
	CPF    string `json:"cpf,omitempty"`
	Email  string `json:"email,omitempty"`
	Phone  string `json:"telefone,omitempty"`
	Mobile string `json:"celular,omitempty"`
	Address
}

// Employee is a staff account as listed by the employees endpoint.
type Employee struct {
	ID            int64  `json:"id,omitempty"`
	Name          string `json:"nome"`
	Email         string `json:"email"`
	JobTitle      string `json:"cargo,omitempty"`
	AccessLevel   string `json:"nivel_acesso,omitempty"`
	UIPermissions string `json:"ui_permissoes,omitempty"`
	Phone         string `json:"telefone,omitempty"`
	Mobile        string `json:"celular,omitempty"`
	RG            string `json:"rg,omitempty"`
	CPF           string `json:"cpf,omitempty"`
	IsActive      bool   `json:"is_active,omitempty"`
	IsStaff       bool   `json:"is_staff,omitempty"`
	Address
}

// NewEmployee is the registration payload for a new staff account.
type NewEmployee struct {
	Name        string `json:"nome"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	JobTitle    string `json:"cargo,omitempty"`
	AccessLevel string `json:"nivel_acesso,omitempty"`
}

// Supplier is a vendor record.
type Supplier struct {
	ID     int64  `json:"id,omitempty"`
	Name   string `json:"nome"`
	CNPJ   string `json:"cnpj,omitempty"`
	Email  string `json:"email,omitempty"`
	Phone  string `json:"telefone,omitempty"`
	Mobile string `json:"celular,omitempty"`
	Address
}

// Product is a stock item.
type Product struct {
	ID           int64  `json:"id,omitempty"`
	Name         string `json:"nome"`
	Description  string `json:"descricao,omitempty"`
	Price        Amount `json:"preco"`
	Stock        *int   `json:"qtd_estoque"`
	SupplierID   int64  `json:"fornecedor,omitempty"`
	SupplierName string `json:"fornecedor_nome,omitempty"`
}

// StockLevel returns the stock quantity and whether the backend reported one.
func (p Product) StockLevel() (int, bool) {
	if p.Stock == nil {
		return 0, false
	}
	return *p.Stock, true
}

// Label returns the description, falling back to the name.
func (p Product) Label() string {
	if p.Description != "" {
		return p.Description
	}
	return p.Name
}

// Sale is an order with its line items.
type Sale struct {
	ID           int64      `json:"id,omitempty"`
	ClientID     int64      `json:"cliente,omitempty"`
	ClientName   string     `json:"cliente_nome,omitempty"`
	EmployeeID   int64      `json:"funcionario,omitempty"`
	EmployeeName string     `json:"funcionario_nome,omitempty"`
	Date         string     `json:"data_venda"`
	Total        Amount     `json:"total"`
	Status       string     `json:"status,omitempty"`
	Note         string     `json:"observacao,omitempty"`
	Items        []SaleItem `json:"itens,omitempty"`
}

// Time parses Date, accepting RFC 3339 timestamps and plain dates.
func (s Sale) Time() (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s.Date); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, s.Date)
}

// SaleItem is one line of a sale.
type SaleItem struct {
	ID          int64  `json:"id,omitempty"`
	SaleID      int64  `json:"venda,omitempty"`
	ProductID   int64  `json:"produto"`
	ProductName string `json:"produto_descricao,omitempty"`
	Quantity    int    `json:"quantidade"`
	UnitPrice   Amount `json:"preco_unitario"`
	Subtotal    Amount `json:"subtotal"`
}

// Movement types.
const (
	MovementIn  = "ENTRADA"
	MovementOut = "SAIDA"
)

// StockMovement records stock entering or leaving.
type StockMovement struct {
	ID           int64  `json:"id,omitempty"`
	ProductID    int64  `json:"produto"`
	ProductName  string `json:"produto_descricao,omitempty"`
	Type         string `json:"tipo"`
	Quantity     int    `json:"quantidade"`
	Date         string `json:"data_movimento,omitempty"`
	EmployeeID   int64  `json:"funcionario,omitempty"`
	EmployeeName string `json:"funcionario_nome,omitempty"`
	Note         string `json:"observacao,omitempty"`
}

// RecentActivity is a sale summary embedded in the dashboard.
type RecentActivity struct {
	ID         int64  `json:"id"`
	Date       string `json:"data_venda"`
	Total      Amount `json:"total"`
	ClientName string `json:"cliente__nome,omitempty"`
}

// DashboardStats are the headline counters of the dashboard.
type DashboardStats struct {
	MonthlySales   Amount           `json:"vendasMes"`
	NewClients     int              `json:"novosClientes"`
	TotalOrders    int              `json:"totalPedidos"`
	AverageTicket  Amount           `json:"ticketMedio"`
	SalesGrowth    float64          `json:"vendasCrescimento"`
	ClientsGrowth  float64          `json:"clientesCrescimento"`
	RecentActivity []RecentActivity `json:"atividadesRecentes,omitempty"`
}

// NotificationType classifies a notification.
type NotificationType string

const (
	NotificationInfo    NotificationType = "info"
	NotificationWarning NotificationType = "warning"
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
)

// Notification is a derived, client-side alert.
type Notification struct {
	ID          string           `json:"id"`
	Type        NotificationType `json:"type"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Time        time.Time        `json:"time"`
}

// ReportSale is a sale summary listed in the sales report.
type ReportSale struct {
	ID           int64  `json:"id"`
	Date         string `json:"data_venda"`
	Total        Amount `json:"total"`
	ClientName   string `json:"cliente__nome,omitempty"`
	EmployeeName string `json:"funcionario__nome,omitempty"`
}

// ReportProduct is a product listed for low stock in the sales report.
type ReportProduct struct {
	ID          int64  `json:"id"`
	Description string `json:"descricao"`
	Stock       int    `json:"qtd_estoque"`
	Price       Amount `json:"preco"`
}

// TopClient ranks a client by number of purchases.
type TopClient struct {
	ClientID   int64  `json:"cliente__id"`
	ClientName string `json:"cliente__nome"`
	Purchases  int    `json:"total_compras"`
	Value      Amount `json:"valor_total"`
}

// TopProduct ranks a product by quantity sold.
type TopProduct struct {
	ProductID   int64  `json:"produto__id"`
	Description string `json:"produto__descricao"`
	Sold        int    `json:"total_vendido"`
	Value       Amount `json:"valor_total"`
}

// ActiveSupplier is a supplier with at least one product.
type ActiveSupplier struct {
	ID       int64  `json:"id"`
	Name     string `json:"nome"`
	Phone    string `json:"telefone,omitempty"`
	Email    string `json:"email,omitempty"`
	Products int    `json:"total_produtos"`
}

// SalesReport is the consolidated report over an optional date range.
type SalesReport struct {
	TotalSales      int              `json:"total_vendas"`
	SalesValue      Amount           `json:"valor_total_vendas"`
	TotalClients    int              `json:"total_clientes"`
	TotalProducts   int              `json:"total_produtos"`
	TotalSuppliers  int              `json:"total_fornecedores"`
	RecentSales     []ReportSale     `json:"vendas_recentes"`
	LowStock        []ReportProduct  `json:"produtos_estoque_baixo"`
	TopClients      []TopClient      `json:"clientes_mais_compradores"`
	TopProducts     []TopProduct     `json:"produtos_mais_vendidos"`
	ActiveSuppliers []ActiveSupplier `json:"fornecedores_ativos"`
}

// MovementSummary is a stock movement listed in the stock statistics.
type MovementSummary struct {
	ID          int64  `json:"id"`
	ProductName string `json:"produto__descricao"`
	Type        string `json:"tipo"`
	Quantity    int    `json:"quantidade"`
	Date        string `json:"data_movimento"`
	Note        string `json:"observacao,omitempty"`
}

// StockStats summarizes the inventory.
type StockStats struct {
	TotalProducts   int               `json:"total_produtos"`
	StockValue      Amount            `json:"valor_total_estoque"`
	OutOfStock      int               `json:"produtos_sem_estoque"`
	RecentMovements []MovementSummary `json:"movimentacoes_recentes"`
}
