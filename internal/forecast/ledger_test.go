package forecast

import (
	"testing"
	"time"

	"github.com/clickoflow/clickoflow/internal/model"
)

func TestVisibilityOrRule(t *testing.T) {
	p := model.Project{
		ID:                 "v",
		ExpectedStart:      date(2025, time.March, 3),
		ExpectedCompletion: date(2025, time.May, 28),
	}
	tests := []struct {
		m    model.Month
		want bool
	}{
		{month(2025, time.February), false},
		{month(2025, time.March), true},
		{month(2025, time.April), false},
		{month(2025, time.May), true},
		{month(2025, time.June), false},
		{month(2024, time.March), false},
	}
	for _, tt := range tests {
		t.Run(tt.m.String(), func(t *testing.T) {
			if got := VisibleInMonth(p, tt.m); got != tt.want {
				t.Errorf("VisibleInMonth(%s) = %v, want %v", tt.m, got, tt.want)
			}
		})
	}

	if got := ProjectsInMonth([]model.Project{p}, month(2025, time.April)); len(got) != 0 {
		t.Errorf("ProjectsInMonth(April) = %d projects, want 0", len(got))
	}
}

func TestPaymentsDueExcludesCancelled(t *testing.T) {
	e := newTestEngine(t)
	p := scenarioA()
	p.Status = model.StatusCancelled

	got, err := e.PaymentsDueInMonth([]model.Project{p}, month(2025, time.June))
	if err != nil {
		t.Fatal(err)
	}
	assertDec(t, "paymentsDue", got, "0")
}

func TestPaymentsDueEdgeCases(t *testing.T) {
	e := newTestEngine(t)
	june := month(2025, time.June)

	noDate := scenarioA()
	noDate.ExpectedCompletion = time.Time{}

	paidUp := scenarioA()
	paidUp.Payments = append(paidUp.Payments, model.Payment{
		Amount: aed("7000"), Date: date(2025, time.June, 1), Type: model.PaymentDeposit,
	})

	tests := []struct {
		name    string
		project model.Project
		want    string
	}{
		{"no completion date", noDate, "0"},
		{"overpaid clamps at zero", paidUp, "0"},
		{"remaining balance", scenarioA(), "6000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.PaymentsDueInMonth([]model.Project{tt.project}, june)
			if err != nil {
				t.Fatal(err)
			}
			assertDec(t, "paymentsDue", got, tt.want)
		})
	}
}

func TestPaymentsDueIgnoresNonDepositPayments(t *testing.T) {
	e := newTestEngine(t)
	p := scenarioA()
	p.Payments = append(p.Payments, model.Payment{
		Amount: aed("1000"), Date: date(2025, time.June, 2), Type: model.PaymentMilestone,
	})
	got, err := e.PaymentsDueInMonth([]model.Project{p}, month(2025, time.June))
	if err != nil {
		t.Fatal(err)
	}
	assertDec(t, "paymentsDue", got, "6000")
}

func TestDepositsReceivedInMonth(t *testing.T) {
	e := newTestEngine(t)
	p := scenarioA()
	p.Payments = append(p.Payments,
		model.Payment{Amount: aed("500"), Date: date(2025, time.May, 31), Type: model.PaymentDeposit},
		model.Payment{Amount: aed("900"), Date: date(2025, time.May, 15), Type: model.PaymentFinal},
		model.Payment{Amount: aed("700"), Date: date(2025, time.June, 1), Type: model.PaymentDeposit},
	)

	may, err := e.DepositsReceivedInMonth([]model.Project{p}, month(2025, time.May))
	if err != nil {
		t.Fatal(err)
	}
	assertDec(t, "deposits(May)", may, "4500")

	june, err := e.DepositsReceivedInMonth([]model.Project{p}, month(2025, time.June))
	if err != nil {
		t.Fatal(err)
	}
	assertDec(t, "deposits(June)", june, "700")
}

func TestDepositsFallbackWithoutHistory(t *testing.T) {
	e := newTestEngine(t)
	p := scenarioA()
	p.Payments = nil

	may, err := e.DepositsReceivedInMonth([]model.Project{p}, month(2025, time.May))
	if err != nil {
		t.Fatal(err)
	}
	assertDec(t, "deposits(May)", may, "4000")

	due, err := e.PaymentsDueInMonth([]model.Project{p}, month(2025, time.June))
	if err != nil {
		t.Fatal(err)
	}
	assertDec(t, "paymentsDue(June)", due, "6000")
}

func TestPaymentHistoryIsAuthoritative(t *testing.T) {
	e := newTestEngine(t)
	p := scenarioA()
	p.DepositPaid = aed("9000")

	paid, err := e.DepositsPaid(p)
	if err != nil {
		t.Fatal(err)
	}
	assertDec(t, "depositsPaid", paid, "4000")
}

func TestDepositsInForeignCurrency(t *testing.T) {
	e := newTestEngine(t)
	p := model.Project{
		ID:                 "usd",
		TotalAmount:        model.NewMoney(dec("1000"), "USD"),
		ExpectedCompletion: date(2025, time.June, 30),
		Payments: []model.Payment{
			{Amount: model.NewMoney(dec("270"), "USD"), Date: date(2025, time.June, 10), Type: model.PaymentDeposit},
			{Amount: model.NewMoney(dec("27"), "USD").WithBase(dec("99.5")), Date: date(2025, time.June, 11), Type: model.PaymentDeposit},
		},
	}
	june := month(2025, time.June)

	deposits, err := e.DepositsReceivedInMonth([]model.Project{p}, june)
	if err != nil {
		t.Fatal(err)
	}
	// 270 USD at 0.27 plus a cached 99.5 AED.
	assertDec(t, "deposits", deposits, "1099.5")

	due, err := e.PaymentsDueInMonth([]model.Project{p}, june)
	if err != nil {
		t.Fatal(err)
	}
	if got := due.Round(2); !got.Equal(dec("2604.20")) {
		t.Errorf("paymentsDue = %s, want ~2604.20", got)
	}
}
