package reminder

import (
	"testing"

	"github.com/shopspring/decimal"
)

func Test_Render(t *testing.T) {
	tests := []struct {
		name     string
		template string
		student  string
		amount   decimal.Decimal
		dueDay   int
		overdue  bool
		want     string
	}{
		{
			name:     "all placeholders",
			template: "Aluno: {aluno} Valor: {valor} Dia {vencimento}",
			student:  "Ana",
			amount:   decimal.NewFromInt(150),
			dueDay:   10,
			want:     "Aluno: Ana Valor: 150.00 Dia 10",
		},
		{
			name:     "fractional amount keeps two decimals",
			template: "R$ {valor}",
			student:  "Ana",
			amount:   decimal.NewFromFloat(99.9),
			dueDay:   5,
			want:     "R$ 99.90",
		},
		{
			name:     "large amount has no grouping separator",
			template: "R$ {valor}",
			student:  "Ana",
			amount:   decimal.NewFromFloat(1234.56),
			dueDay:   5,
			want:     "R$ 1234.56",
		},
		{
			name:     "only the first occurrence is substituted",
			template: "{aluno} e {aluno}: {valor} / {valor}",
			student:  "Bia",
			amount:   decimal.NewFromInt(80),
			dueDay:   1,
			want:     "Bia e {aluno}: 80.00 / {valor}",
		},
		{
			name:     "template without placeholders is untouched",
			template: "Lembrete de pagamento!",
			student:  "Ana",
			amount:   decimal.NewFromInt(150),
			dueDay:   10,
			want:     "Lembrete de pagamento!",
		},
		{
			name:     "overdue adds banner and footer",
			template: "Olá {aluno}, sua mensalidade de R$ {valor} venceu no dia {vencimento}.",
			student:  "Ana",
			amount:   decimal.NewFromInt(150),
			dueDay:   10,
			overdue:  true,
			want: "🔴 PAGAMENTO EM ATRASO\n\n" +
				"Olá Ana, sua mensalidade de R$ 150.00 venceu no dia 10." +
				"\n\nPor favor, regularize sua mensalidade o quanto antes.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Render(tt.template, tt.student, tt.amount, tt.dueDay, tt.overdue); got != tt.want {
				t.Errorf("Render() = %q, want %q", got, tt.want)
			}
		})
	}
}
