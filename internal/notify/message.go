package notify

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// myt is Malaysia Time (Asia/Kuala_Lumpur has no DST).
var myt = time.FixedZone("MYT", 8*60*60)

// OrderNotification is the data rendered into a purchase log message.
type OrderNotification struct {
	Username      string
	Coins         int64
	PaymentMethod string
	Amount        float64 // MYR
	OrderID       string
	Time          time.Time
}

// FormatOrderMessage renders the purchase log posted to Discord.
func FormatOrderMessage(n OrderNotification) string {
	ts := n.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	lines := []string{
		"💎 **AECOIN STORE — PURCHASE LOG**",
		"────────────────────────────",
		"👤 **User**        " + n.Username,
		"🪙 **Coin**        " + groupThousands(n.Coins),
		"💳 **Payment**     " + n.PaymentMethod,
		fmt.Sprintf("💰 **Amount**      RM%.2f", n.Amount),
		"🆔 **Order ID**    " + n.OrderID,
		"⏱ **Time**        " + ts.In(myt).Format("02/01/2006 15:04") + " MYT",
	}
	return strings.Join(lines, "\n")
}

func groupThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}

	if neg {
		return "-" + b.String()
	}
	return b.String()
}
