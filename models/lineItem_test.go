package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestLineItemTotalAmount(t *testing.T) {
	li := LineItem{
		Qty:   decimal.RequireFromString("2.5"),
		Price: decimal.RequireFromString("1200"),
	}
	if got := li.TotalAmount(); got.Cmp(decimal.RequireFromString("3000")) != 0 {
		t.Fatalf("expected 3000, got %s", got.String())
	}

	zero := LineItem{}
	if !zero.TotalAmount().IsZero() {
		t.Fatalf("expected zero total for zero line, got %s", zero.TotalAmount().String())
	}
}

func TestLineItemMarshalJSON_IncludesDerivedTotal(t *testing.T) {
	estimateId := 7
	li := LineItem{
		ID:          1,
		EstimateId:  &estimateId,
		LineNumber:  3,
		Description: "Cat6 cable run",
		Units:       "m",
		Qty:         decimal.NewFromInt(40),
		Price:       decimal.RequireFromString("12.50"),
	}
	b, err := json.Marshal(li)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out map[string]json.RawMessage
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	total, ok := out["total_amount"]
	if !ok {
		t.Fatalf("expected total_amount in payload: %s", b)
	}
	var got decimal.Decimal
	if err := json.Unmarshal(total, &got); err != nil {
		t.Fatalf("parse total_amount %s: %v", total, err)
	}
	if got.Cmp(decimal.NewFromInt(500)) != 0 {
		t.Fatalf("expected total_amount 500, got %s", got.String())
	}
	if string(out["estimate_id"]) != "7" {
		t.Fatalf("expected estimate_id 7, got %s", out["estimate_id"])
	}
	if string(out["invoice_id"]) != "null" {
		t.Fatalf("expected invoice_id null, got %s", out["invoice_id"])
	}
}
