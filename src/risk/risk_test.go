package risk

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestSizeForNotional(t *testing.T) {
	tests := []struct {
		name         string
		price        decimal.Decimal
		cfg          SizingConfig
		wantSize     string
		wantNotional string
		wantErr      error
	}{
		{
			name:         "btc at 87000 for 15 usdt",
			price:        d("87000"),
			cfg:          DefaultSizingConfig(),
			wantSize:     "0.0002",
			wantNotional: "17.4",
		},
		{
			name:         "half step rounds up to cap",
			price:        d("100000"),
			cfg:          DefaultSizingConfig(),
			wantSize:     "0.0002",
			wantNotional: "20",
		},
		{
			name:  "rounding to zero falls back to min size",
			price: d("1000000"),
			cfg: SizingConfig{
				TargetNotional: d("15"),
				MaxNotional:    d("200"),
				Precision:      4,
				MinSize:        d("0.0001"),
			},
			wantSize:     "0.0001",
			wantNotional: "100",
		},
		{
			name:         "cap exceeded",
			price:        d("250000"),
			cfg:          SizingConfig{TargetNotional: d("15"), MaxNotional: d("20"), Precision: 4, MinSize: d("0.0001")},
			wantSize:     "0.0001",
			wantNotional: "25",
			wantErr:      ErrNotionalTooHigh,
		},
		{
			name:    "zero price",
			price:   decimal.Zero,
			cfg:     DefaultSizingConfig(),
			wantErr: ErrInvalidPrice,
		},
		{
			name:    "zero target",
			price:   d("87000"),
			cfg:     SizingConfig{Precision: 4, MinSize: d("0.0001")},
			wantErr: ErrInvalidNotional,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := SizeForNotional(tc.price, tc.cfg)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected error %v, got %v", tc.wantErr, err)
				}
				if tc.wantSize == "" {
					return
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Size.Equal(d(tc.wantSize)) {
				t.Fatalf("size: want %s, got %s", tc.wantSize, got.Size)
			}
			if !got.Notional.Equal(d(tc.wantNotional)) {
				t.Fatalf("notional: want %s, got %s", tc.wantNotional, got.Notional)
			}
		})
	}
}

func TestCheckNotional(t *testing.T) {
	if err := CheckNotional(d("19.99"), d("20")); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	if err := CheckNotional(d("20"), d("20")); err != nil {
		t.Fatalf("equal to cap must pass, got %v", err)
	}
	if err := CheckNotional(d("1000"), decimal.Zero); err != nil {
		t.Fatalf("zero cap disables the check, got %v", err)
	}
	if err := CheckNotional(d("20.01"), d("20")); !errors.Is(err, ErrNotionalTooHigh) {
		t.Fatalf("expected ErrNotionalTooHigh, got %v", err)
	}
}
