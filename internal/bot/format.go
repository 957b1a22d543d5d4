package bot

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/toannhu96/gia-vang-365/internal/domain"
)

const divider = "----------------------------------------\n"

// Raw-material jewelry rows are wholesale noise, not shown to users.
const rawMaterialMarker = "Giá Nguyên Liệu"

// FormatGoldPrices renders one snapshot as the HTML message sent to chats.
// Feed prices are quoted in thousands of dong, hence the *1000.
func FormatGoldPrices(gp domain.GoldPrices) string {
	var b strings.Builder

	b.WriteString("<b>🏆 Vietnamese Gold Prices</b>\n")
	fmt.Fprintf(&b, "<i>Updated: %s</i>\n\n", gp.Jewelry.DateTime.Format("15:04:05 02/01/2006"))

	b.WriteString("<b>💵 Currency</b>\n")
	b.WriteString(divider)
	for _, q := range gp.Currency.Prices {
		writeQuote(&b, q)
	}

	b.WriteString("\n<b>💍 Jewelry</b>\n")
	b.WriteString(divider)
	for _, q := range gp.Jewelry.Prices {
		if strings.Contains(q.Name, rawMaterialMarker) {
			continue
		}
		writeQuote(&b, q)
	}

	return b.String()
}

func writeQuote(b *strings.Builder, q domain.PriceQuote) {
	fmt.Fprintf(b, "<b>%s</b>\n", q.Name)
	fmt.Fprintf(b, "Buy: <code>%s</code> | Sell: <code>%s</code>\n", formatSide(q.Buy), formatSide(q.Sell))
	b.WriteString(divider)
}

// formatSide renders one price side, "---" when the feed gave no value.
func formatSide(v *float64) string {
	if v == nil || *v == 0 {
		return "---"
	}
	return formatVND(*v * 1000)
}

// formatVND formats a dong amount with vi-VN grouping: 9.205.000.
func formatVND(v float64) string {
	s := strconv.FormatInt(int64(math.Round(v)), 10)

	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}

	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
