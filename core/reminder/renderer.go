package reminder

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	overdueBanner = "🔴 PAGAMENTO EM ATRASO\n\n"
	overdueFooter = "\n\nPor favor, regularize sua mensalidade o quanto antes."
)

// Render fills the message template with the student's billing data.
// Only the first occurrence of each placeholder is substituted; repeated
// tokens are left as-is. The amount always uses two decimal places with a
// period separator and no grouping.
func Render(template, studentName string, amount decimal.Decimal, dueDay int, overdue bool) string {
	body := strings.Replace(template, TokenStudent, studentName, 1)
	body = strings.Replace(body, TokenAmount, amount.StringFixed(2), 1)
	body = strings.Replace(body, TokenDueDay, strconv.Itoa(dueDay), 1)

	if overdue {
		return overdueBanner + body + overdueFooter
	}
	return body
}
