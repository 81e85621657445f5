package service

import "testing"

func TestBidIncrement(t *testing.T) {
	cases := []struct {
		price float64
		want  float64
	}{
		{0, 1},
		{50, 1},
		{99.99, 1},
		{100, 5},
		{250, 5},
		{499.99, 5},
		{500, 10},
		{999.99, 10},
		{1000, 25},
		{5000, 25},
	}
	for _, c := range cases {
		if got := BidIncrement(c.price); got != c.want {
			t.Errorf("BidIncrement(%v) = %v, want %v", c.price, got, c.want)
		}
	}
}

func TestMinimumBid(t *testing.T) {
	cases := []struct {
		price float64
		want  float64
	}{
		{50, 51},
		{100, 105},
		{500, 510},
		{1000, 1025},
	}
	for _, c := range cases {
		if got := MinimumBid(c.price); got != c.want {
			t.Errorf("MinimumBid(%v) = %v, want %v", c.price, got, c.want)
		}
	}
}

func TestCentsFromDollars(t *testing.T) {
	cases := []struct {
		dollars float64
		want    int64
	}{
		{0, 0},
		{1, 100},
		{10.50, 1050},
		{99.99, 9999},
		// float64 0.1+0.2 style artifacts must round cleanly
		{0.1 + 0.2, 30},
		{123.455, 12346},
	}
	for _, c := range cases {
		if got := CentsFromDollars(c.dollars); got != c.want {
			t.Errorf("CentsFromDollars(%v) = %v, want %v", c.dollars, got, c.want)
		}
	}
}

func TestCoinConversionRoundTrip(t *testing.T) {
	for _, dollars := range []float64{0.01, 1, 42.42, 999.99} {
		coins := CoinsFromDollars(dollars)
		if got := DollarsFromCoins(coins); got != dollars {
			t.Errorf("round trip %v -> %d -> %v", dollars, coins, got)
		}
	}
}

func TestPlatformFeeCents(t *testing.T) {
	cases := []struct {
		amount float64
		pct    float64
		want   int64
	}{
		{100, 5, 500},
		{100, 2.5, 250},
		{33.33, 5, 167},
		{0.01, 5, 0},
	}
	for _, c := range cases {
		if got := PlatformFeeCents(c.amount, c.pct); got != c.want {
			t.Errorf("PlatformFeeCents(%v, %v) = %v, want %v", c.amount, c.pct, got, c.want)
		}
	}
}

func TestSellerNet(t *testing.T) {
	cases := []struct {
		amount float64
		pct    float64
		want   float64
	}{
		{100, 5, 95.00},
		{100, 2.5, 97.50},
		{250, 5, 237.50},
		{33.33, 5, 31.66},
	}
	for _, c := range cases {
		if got := SellerNet(c.amount, c.pct); got != c.want {
			t.Errorf("SellerNet(%v, %v) = %v, want %v", c.amount, c.pct, got, c.want)
		}
	}
}

func TestSellerNetPlusFeeCoversAmount(t *testing.T) {
	for _, amount := range []float64{1, 10.50, 100, 999.99} {
		for _, pct := range []float64{5, 2.5} {
			netCents := CentsFromDollars(SellerNet(amount, pct))
			feeCents := PlatformFeeCents(amount, pct)
			total := CentsFromDollars(amount)
			diff := netCents + feeCents - total
			if diff < -1 || diff > 1 {
				t.Errorf("amount %v pct %v: net %d + fee %d != total %d", amount, pct, netCents, feeCents, total)
			}
		}
	}
}
