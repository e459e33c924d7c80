package dataset

import (
	"reflect"
	"testing"
	"time"
)

func TestGeneratorDeterministicForSeed(t *testing.T) {
	fixedNow := time.Date(2026, 2, 19, 7, 30, 0, 0, time.UTC)

	g1 := NewGenerator(42)
	g2 := NewGenerator(42)
	g1.now = func() time.Time { return fixedNow }
	g2.now = func() time.Time { return fixedNow }

	d1 := g1.Generate(25)
	d2 := g2.Generate(25)
	if !reflect.DeepEqual(d1, d2) {
		t.Fatalf("datasets differ for same seed")
	}
}

func TestGeneratorEmployeesAreFixed(t *testing.T) {
	employees := NewGenerator(1).Employees()
	if len(employees) != 7 {
		t.Fatalf("employees = %d, want 7", len(employees))
	}
	if employees[0].Name != "Richard Hendricks" || employees[0].Email != "richard@piedpiper.com" {
		t.Fatalf("first employee = %#v", employees[0])
	}
	employees[0].Name = "changed"
	if NewGenerator(1).Employees()[0].Name != "Richard Hendricks" {
		t.Fatal("Employees() must return a copy")
	}
}

func TestGeneratorPurchasesRespectRanges(t *testing.T) {
	fixedNow := time.Date(2026, 10, 19, 23, 59, 0, 0, time.UTC)
	g := NewGenerator(7)
	g.now = func() time.Time { return fixedNow }

	today := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	earliest := today.AddDate(0, 0, -365)
	ranges := map[string][2]int64{
		"iPhone":     {500, 1000},
		"Tesla":      {50000, 100000},
		"Humane pin": {100, 1000},
	}

	purchases := g.Purchases(500)
	if len(purchases) != 500 {
		t.Fatalf("purchases = %d, want 500", len(purchases))
	}
	for i, purchase := range purchases {
		if purchase.PurchaseID != int64(i+1) {
			t.Fatalf("purchase_id = %d, want %d", purchase.PurchaseID, i+1)
		}
		if purchase.EmployeeID < 1 || purchase.EmployeeID > 7 {
			t.Fatalf("employee_id = %d", purchase.EmployeeID)
		}
		bounds, ok := ranges[purchase.ProductName]
		if !ok {
			t.Fatalf("unexpected product %q", purchase.ProductName)
		}
		if purchase.Amount < bounds[0] || purchase.Amount > bounds[1] {
			t.Fatalf("%s amount = %d, want within %v", purchase.ProductName, purchase.Amount, bounds)
		}
		if purchase.PurchaseDate.Before(earliest) || purchase.PurchaseDate.After(today) {
			t.Fatalf("purchase_date = %s outside window", purchase.PurchaseDate)
		}
	}
}

func TestGeneratorNegativeCount(t *testing.T) {
	if got := NewGenerator(1).Purchases(-3); len(got) != 0 {
		t.Fatalf("Purchases(-3) = %d rows, want 0", len(got))
	}
}
