package domain

import "testing"

func TestLendingPosition_Lookup(t *testing.T) {
	p := &LendingPosition{
		SupplyDetails: []SupplyDetail{{MarketID: "usdt", SuppliedAmount: "100"}},
		BorrowDetails: []BorrowDetail{{MarketID: "eth", RateMode: RateStable}},
	}
	if s := p.Supply("usdt"); s == nil || s.SuppliedAmount != "100" {
		t.Errorf("Supply(usdt) = %+v", s)
	}
	if p.Supply("eth") != nil {
		t.Error("Supply(eth) should be nil")
	}
	if b := p.Borrow("eth"); b == nil || b.RateMode != RateStable {
		t.Errorf("Borrow(eth) = %+v", b)
	}
	if !p.HasDebt() {
		t.Error("HasDebt() = false")
	}
}

func TestLendingPosition_Dedupe(t *testing.T) {
	p := &LendingPosition{
		SupplyDetails: []SupplyDetail{
			{MarketID: "a", SuppliedAmount: "1"},
			{MarketID: "b", SuppliedAmount: "2"},
			{MarketID: "a", SuppliedAmount: "3"},
		},
		BorrowDetails: []BorrowDetail{
			{MarketID: "c", BorrowedAmount: "1"},
			{MarketID: "c", BorrowedAmount: "9"},
		},
	}
	p.Dedupe()
	if len(p.SupplyDetails) != 2 || p.SupplyDetails[0].SuppliedAmount != "1" {
		t.Errorf("supply after dedupe = %+v", p.SupplyDetails)
	}
	if len(p.BorrowDetails) != 1 || p.BorrowDetails[0].BorrowedAmount != "1" {
		t.Errorf("borrow after dedupe = %+v", p.BorrowDetails)
	}
}

func TestLiveSnapshot_Clone(t *testing.T) {
	orig := LiveSnapshot{
		Stats:              &LendingStats{TotalMarkets: 3, Markets: []MarketSummary{{ID: "a"}}},
		RecentTransactions: []LendingTransaction{{ID: "t1"}},
	}
	cp := orig.Clone()
	cp.Stats.TotalMarkets = 9
	cp.Stats.Markets[0].ID = "z"
	cp.RecentTransactions[0].ID = "t9"

	if orig.Stats.TotalMarkets != 3 || orig.Stats.Markets[0].ID != "a" {
		t.Errorf("stats aliased: %+v", orig.Stats)
	}
	if orig.RecentTransactions[0].ID != "t1" {
		t.Errorf("transactions aliased: %+v", orig.RecentTransactions)
	}
}
