package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_Rules(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"collapses spaces", "Grace  period\tis   30 days.", "Grace period is 30 days."},
		{"collapses blank lines", "First.\n\n\n\nSecond.", "First.\n\nSecond."},
		{"blank line with spaces", "First.\n   \n\nSecond.", "First.\n\nSecond."},
		{"crlf", "a\r\nb\rc", "a\nb\nc"},
		{"rs dot", "Premium of Rs. 5,000 per year", "Premium of ₹5,000 per year"},
		{"inr", "INR 200 fee", "₹200 fee"},
		{"rupees lower", "rupees 10 only", "₹10 only"},
		{"symbol gap", "₹ 500 limit", "₹500 limit"},
		{"currency word without amount", "Payable in INR only", "Payable in INR only"},
		{"percent", "co-pay of 10 % applies", "co-pay of 10% applies"},
		{"unit glued", "within 30DAYS of", "within 30 days of"},
		{"unit singular", "after 1Year", "after 1 year"},
		{"unit not word", "2 yearly reviews", "2 yearly reviews"},
		{"ocr leading O", "limit O5 units", "limit 05 units"},
		{"ocr trailing O", "for 1O", "for 10"},
		{"ocr leading l", "l2 months", "12 months"},
		{"prose untouched", "Open Sesame lists", "Open Sesame lists"},
		{"marker kept", "--- PAGE 1 ---\nText here.", "--- PAGE 1 ---\nText here."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalize_WithoutOCR(t *testing.T) {
	n := Normalizer{}
	assert.Equal(t, "code O5", n.Normalize("code O5"))
}

func TestNormalize_FixedPoint(t *testing.T) {
	inputs := []string{
		"Rs. O5 and INR  l0",
		"Sum insured Rs 5 lakh;   co-pay 20 %\n\n\n\nWaiting 36Months",
		"=== PAGE 3 [Schedule] ===\n  • Room rent ₹ 5000/day  \n",
		"plain text with no rules applying",
		"",
		"S5S5 O O5O",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestNormalize_TokenCountPreserved(t *testing.T) {
	in := "Cover  includes   ICU charges up to 2 %  of SI"
	assert.Equal(t, "Cover includes ICU charges up to 2% of SI", Normalize(in))
}
