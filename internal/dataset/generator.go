package dataset

import (
	"math/rand"
	"time"
)

type Employee struct {
	EmployeeID int64
	Name       string
	Email      string
}

type Purchase struct {
	PurchaseID   int64
	PurchaseDate time.Time
	ProductName  string
	EmployeeID   int64
	Amount       int64
}

type Dataset struct {
	Employees []Employee
	Purchases []Purchase
}

var fixedEmployees = []Employee{
	{EmployeeID: 1, Name: "Richard Hendricks", Email: "richard@piedpiper.com"},
	{EmployeeID: 2, Name: "Erlich Bachman", Email: "erlich@aviato.com"},
	{EmployeeID: 3, Name: "Dinesh Chugtai", Email: "dinesh@piedpiper.com"},
	{EmployeeID: 4, Name: "Bertram Gilfoyle", Email: "gilfoyle@piedpiper.com"},
	{EmployeeID: 5, Name: "Jared Dunn", Email: "jared@piedpiper.com"},
	{EmployeeID: 6, Name: "Monica Hall", Email: "monica@raviga.com"},
	{EmployeeID: 7, Name: "Gavin Belson", Email: "gavin@hooli.com"},
}

type product struct {
	name     string
	minPrice int64
	maxPrice int64
}

var products = []product{
	{name: "iPhone", minPrice: 500, maxPrice: 1000},
	{name: "Tesla", minPrice: 50000, maxPrice: 100000},
	{name: "Humane pin", minPrice: 100, maxPrice: 1000},
}

const purchaseWindowDays = 365

// Generator produces the demo dataset. The same seed and clock always yield
// the same rows.
type Generator struct {
	rnd *rand.Rand
	now func() time.Time
}

func NewGenerator(seed int64) *Generator {
	return &Generator{
		rnd: rand.New(rand.NewSource(seed)),
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (g *Generator) Generate(purchaseCount int) Dataset {
	return Dataset{
		Employees: g.Employees(),
		Purchases: g.Purchases(purchaseCount),
	}
}

func (g *Generator) Employees() []Employee {
	return append([]Employee(nil), fixedEmployees...)
}

// Purchases returns count purchases dated within the last year, inclusive
// of today.
func (g *Generator) Purchases(count int) []Purchase {
	if count < 0 {
		count = 0
	}
	today := truncateToDate(g.now())
	purchases := make([]Purchase, 0, count)
	for i := 1; i <= count; i++ {
		item := products[g.rnd.Intn(len(products))]
		purchases = append(purchases, Purchase{
			PurchaseID:   int64(i),
			PurchaseDate: today.AddDate(0, 0, -g.rnd.Intn(purchaseWindowDays+1)),
			ProductName:  item.name,
			EmployeeID:   int64(g.rnd.Intn(len(fixedEmployees)) + 1),
			Amount:       item.minPrice + g.rnd.Int63n(item.maxPrice-item.minPrice+1),
		})
	}
	return purchases
}

func truncateToDate(value time.Time) time.Time {
	value = value.UTC()
	return time.Date(value.Year(), value.Month(), value.Day(), 0, 0, 0, 0, time.UTC)
}
