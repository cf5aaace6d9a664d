package domain

import (
	"encoding/json"
	"testing"
)

func TestAddGuestLine_SumsDuplicates(t *testing.T) {
	var lines []GuestLine
	lines = AddGuestLine(lines, 7, 2)
	lines = AddGuestLine(lines, 7, 2)

	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	if lines[0] != (GuestLine{ProductID: 7, Quantity: 4}) {
		t.Fatalf("unexpected line: %+v", lines[0])
	}
}

func TestAddGuestLine_KeepsOrder(t *testing.T) {
	lines := AddGuestLine(nil, 3, 1)
	lines = AddGuestLine(lines, 1, 1)
	lines = AddGuestLine(lines, 3, 1)

	if lines[0].ProductID != 3 || lines[1].ProductID != 1 {
		t.Fatalf("order not preserved: %+v", lines)
	}
}

func TestSetGuestQuantity_NonPositiveRemoves(t *testing.T) {
	for _, qty := range []int{0, -1} {
		lines := []GuestLine{{ProductID: 7, Quantity: 3}, {ProductID: 8, Quantity: 1}}
		got := SetGuestQuantity(lines, 7, qty)
		if len(got) != 1 || got[0].ProductID != 8 {
			t.Fatalf("qty %d: expected line 7 removed, got %+v", qty, got)
		}
	}
}

func TestSetGuestQuantity_DoesNotMutateInput(t *testing.T) {
	lines := []GuestLine{{ProductID: 7, Quantity: 3}}
	got := SetGuestQuantity(lines, 7, 5)
	if lines[0].Quantity != 3 {
		t.Fatalf("input mutated: %+v", lines)
	}
	if got[0].Quantity != 5 {
		t.Fatalf("expected 5, got %d", got[0].Quantity)
	}
}

func TestGuestCount(t *testing.T) {
	lines := []GuestLine{{ProductID: 1, Quantity: 2}, {ProductID: 2, Quantity: 3}}
	if n := GuestCount(lines); n != 5 {
		t.Fatalf("expected 5, got %d", n)
	}
}

func TestLineRef_RoundTrip(t *testing.T) {
	for _, ref := range []LineRef{ServerRef(12), GuestRef(7)} {
		parsed, err := ParseLineRef(ref.String())
		if err != nil {
			t.Fatalf("parse %s: %v", ref, err)
		}
		if parsed != ref {
			t.Fatalf("expected %+v, got %+v", ref, parsed)
		}
	}
}

func TestParseLineRef_Invalid(t *testing.T) {
	for _, s := range []string{"", "12", "server:", "server:x", "guest:-1", "other:3"} {
		if _, err := ParseLineRef(s); err == nil {
			t.Errorf("expected error for %q", s)
		}
	}
}

func TestLineRef_JSON(t *testing.T) {
	b, err := json.Marshal(CartLine{Ref: ServerRef(4)})
	if err != nil {
		t.Fatal(err)
	}
	var back CartLine
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatal(err)
	}
	if back.Ref != ServerRef(4) {
		t.Fatalf("unexpected ref: %+v", back.Ref)
	}
}

func TestGuestView_ExcludesUnpricedLines(t *testing.T) {
	lines := []GuestLine{{ProductID: 1, Quantity: 2}, {ProductID: 2, Quantity: 1}}
	products := map[int64]*Product{1: {ID: 1, Price: dec("20"), IsInStock: true}}

	view := GuestView(lines, products, DefaultPricing())

	if len(view.Lines) != 2 {
		t.Fatalf("expected both lines listed, got %d", len(view.Lines))
	}
	if view.Lines[1].Product != nil || view.Lines[1].Subtotal.Valid {
		t.Fatalf("unpriced line should carry no product: %+v", view.Lines[1])
	}
	if view.Count != 3 {
		t.Fatalf("expected count 3, got %d", view.Count)
	}
	if !view.Totals.Subtotal.Equal(dec("40")) || !view.Totals.Total.Equal(dec("49")) {
		t.Fatalf("unexpected totals: %+v", view.Totals)
	}
}

func TestServerView_UsesServerFigures(t *testing.T) {
	cart := &ServerCart{
		Items: []ServerLine{{ID: 9, Product: &Product{ID: 3, Price: dec("30")}, Quantity: 2, Subtotal: dec("60"), IsAvailable: true}},
		TotalItems: 2,
		Subtotal:   dec("60"),
	}
	view := ServerView(cart, DefaultPricing())
	if view.Kind != LineServer || view.Count != 2 {
		t.Fatalf("unexpected view: %+v", view)
	}
	if view.Lines[0].Ref != ServerRef(9) || view.Lines[0].ProductID != 3 {
		t.Fatalf("unexpected line: %+v", view.Lines[0])
	}
	if !view.Totals.Total.Equal(dec("66")) {
		t.Fatalf("expected total 66, got %s", view.Totals.Total)
	}
}
