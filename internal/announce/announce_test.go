package announce

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name   string
		symbol string
		price  float64
		want   string
	}{
		{"plain symbol", "AAPL", 189.32, "AAPL is at 189.32 dollars"},
		{"whole number padded", "TSLA", 250, "TSLA is at 250.00 dollars"},
		{"single decimal padded", "SPY", 430.5, "SPY is at 430.50 dollars"},
		{"index marker stripped", "^GSPC", 5234.18, "GSPC is at 5234.18 dollars"},
		{"rounds to two decimals", "VT", 104.999, "VT is at 105.00 dollars"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.symbol, tt.price))
		})
	}
}
