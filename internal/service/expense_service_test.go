package service

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"splitkar/internal/domain"
)

func TestCreateExpenseValidation(t *testing.T) {
	f := newFixture(t)
	a, b := f.user(t), f.user(t)
	stranger := f.user(t)
	f.befriend(t, a.ID, b.ID)
	g := f.group(t, a.ID, b.ID)

	singlePay := func(payer uint, amount string) []PaymentInput {
		return []PaymentInput{{PayerID: payer, Amount: dec(amount)}}
	}

	tests := []struct {
		name string
		in   CreateExpenseInput
	}{
		{
			name: "zero total",
			in: CreateExpenseInput{
				Description:    "x",
				TotalAmount:    dec("0"),
				ParticipantIDs: []uint{a.ID, b.ID},
				Payments:       singlePay(a.ID, "0"),
			},
		},
		{
			name: "no payments",
			in: CreateExpenseInput{
				Description:    "x",
				TotalAmount:    dec("10.00"),
				ParticipantIDs: []uint{a.ID, b.ID},
			},
		},
		{
			name: "payments do not cover total",
			in: CreateExpenseInput{
				Description:    "x",
				TotalAmount:    dec("10.00"),
				ParticipantIDs: []uint{a.ID, b.ID},
				Payments:       singlePay(a.ID, "8.00"),
			},
		},
		{
			name: "duplicate payer",
			in: CreateExpenseInput{
				Description:    "x",
				TotalAmount:    dec("10.00"),
				ParticipantIDs: []uint{a.ID, b.ID},
				Payments: []PaymentInput{
					{PayerID: a.ID, Amount: dec("5.00")},
					{PayerID: a.ID, Amount: dec("5.00")},
				},
			},
		},
		{
			name: "single payer outside participants",
			in: CreateExpenseInput{
				Description:    "x",
				TotalAmount:    dec("10.00"),
				ParticipantIDs: []uint{b.ID},
				Payments:       singlePay(a.ID, "10.00"),
			},
		},
		{
			name: "participant is not a friend",
			in: CreateExpenseInput{
				Description:    "x",
				TotalAmount:    dec("10.00"),
				ParticipantIDs: []uint{a.ID, stranger.ID},
				Payments:       singlePay(a.ID, "10.00"),
			},
		},
		{
			name: "participant outside group",
			in: CreateExpenseInput{
				Description:    "x",
				TotalAmount:    dec("10.00"),
				GroupID:        &g.ID,
				ParticipantIDs: []uint{a.ID, stranger.ID},
				Payments:       singlePay(a.ID, "10.00"),
			},
		},
		{
			name: "unknown category",
			in: CreateExpenseInput{
				Description:    "x",
				TotalAmount:    dec("10.00"),
				CategoryID:     ptr(uint(999)),
				ParticipantIDs: []uint{a.ID, b.ID},
				Payments:       singlePay(a.ID, "10.00"),
			},
		},
		{
			name: "percentages do not sum to 100",
			in: CreateExpenseInput{
				Description:    "x",
				TotalAmount:    dec("10.00"),
				SplitType:      domain.SplitTypePercentage,
				ParticipantIDs: []uint{a.ID, b.ID},
				Percentages: map[uint]decimal.Decimal{
					a.ID: dec("50"),
					b.ID: dec("40"),
				},
				Payments: singlePay(a.ID, "10.00"),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.expenseSvc.Create(a.ID, tt.in)
			if !domain.IsValidation(err) {
				t.Errorf("Create() error = %v, want validation error", err)
			}
		})
	}
}

func TestCreateEqualExpensePersistsRows(t *testing.T) {
	f := newFixture(t)
	a, b := f.user(t), f.user(t)
	f.befriend(t, a.ID, b.ID)

	created, err := f.expenseSvc.Create(a.ID, CreateExpenseInput{
		Description:    "dinner",
		TotalAmount:    dec("80.00"),
		ParticipantIDs: []uint{a.ID, b.ID},
		Payments:       []PaymentInput{{PayerID: a.ID, Amount: dec("80.00")}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := f.expenseSvc.GetByUUID(created.ExpenseID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Payments) != 1 || len(got.Shares) != 2 {
		t.Fatalf("got %d payments, %d shares; want 1 and 2", len(got.Payments), len(got.Shares))
	}
	for _, share := range got.Shares {
		checkAmount(t, "share", share.AmountOwed, dec("40.00"))
	}
	if !got.IsBalanced() {
		t.Errorf("expense not balanced: paid %s owed %s", got.TotalPaid(), got.TotalOwed())
	}
}

func TestCreatePercentageExpense(t *testing.T) {
	f := newFixture(t)
	a, b := f.user(t), f.user(t)
	f.befriend(t, a.ID, b.ID)

	created, err := f.expenseSvc.Create(a.ID, CreateExpenseInput{
		Description:    "rent",
		TotalAmount:    dec("200.00"),
		SplitType:      domain.SplitTypePercentage,
		ParticipantIDs: []uint{a.ID, b.ID},
		Percentages: map[uint]decimal.Decimal{
			a.ID: dec("60"),
			b.ID: dec("40"),
		},
		Payments: []PaymentInput{{PayerID: a.ID, Amount: dec("200.00")}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, _ := f.expenseSvc.GetByUUID(created.ExpenseID)
	owedBy := make(map[uint]decimal.Decimal)
	for _, share := range got.Shares {
		owedBy[share.UserID] = share.AmountOwed
	}
	checkAmount(t, "a share", owedBy[a.ID], dec("120.00"))
	checkAmount(t, "b share", owedBy[b.ID], dec("80.00"))

	bal, _ := f.balances.GetBalance(a.ID, b.ID, nil)
	checkAmount(t, "balance", bal, dec("-80.00"))
}

func TestEditTotalRescalesShares(t *testing.T) {
	f := newFixture(t)
	a, b := f.user(t), f.user(t)
	f.befriend(t, a.ID, b.ID)

	created, err := f.expenseSvc.Create(a.ID, CreateExpenseInput{
		Description:    "dinner",
		TotalAmount:    dec("100.00"),
		ParticipantIDs: []uint{a.ID, b.ID},
		Payments:       []PaymentInput{{PayerID: a.ID, Amount: dec("100.00")}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	newTotal := dec("200.00")
	_, err = f.expenseSvc.Edit(a.ID, created.ExpenseID, EditExpenseInput{TotalAmount: &newTotal})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}

	got, _ := f.expenseSvc.GetByUUID(created.ExpenseID)
	checkAmount(t, "total", got.TotalAmount, dec("200.00"))
	for _, share := range got.Shares {
		checkAmount(t, "rescaled share", share.AmountOwed, dec("100.00"))
	}
	checkAmount(t, "payment follows total", got.Payments[0].AmountPaid, dec("200.00"))

	bal, _ := f.balances.GetBalance(a.ID, b.ID, nil)
	checkAmount(t, "balance after edit", bal, dec("-100.00"))
}

func TestEditPercentageTotalUsesStoredPercentages(t *testing.T) {
	f := newFixture(t)
	a, b := f.user(t), f.user(t)
	f.befriend(t, a.ID, b.ID)

	created, err := f.expenseSvc.Create(a.ID, CreateExpenseInput{
		Description:    "rent",
		TotalAmount:    dec("100.00"),
		SplitType:      domain.SplitTypePercentage,
		ParticipantIDs: []uint{a.ID, b.ID},
		Percentages: map[uint]decimal.Decimal{
			a.ID: dec("75"),
			b.ID: dec("25"),
		},
		Payments: []PaymentInput{{PayerID: a.ID, Amount: dec("100.00")}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	newTotal := dec("400.00")
	_, err = f.expenseSvc.Edit(a.ID, created.ExpenseID, EditExpenseInput{TotalAmount: &newTotal})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}

	got, _ := f.expenseSvc.GetByUUID(created.ExpenseID)
	owedBy := make(map[uint]decimal.Decimal)
	for _, share := range got.Shares {
		owedBy[share.UserID] = share.AmountOwed
	}
	checkAmount(t, "a share", owedBy[a.ID], dec("300.00"))
	checkAmount(t, "b share", owedBy[b.ID], dec("100.00"))
}

func TestEditPayerOnMultiPayerExpenseRejected(t *testing.T) {
	f := newFixture(t)
	a, b := f.user(t), f.user(t)
	f.befriend(t, a.ID, b.ID)

	created, err := f.expenseSvc.Create(a.ID, CreateExpenseInput{
		Description:    "shared",
		TotalAmount:    dec("100.00"),
		ParticipantIDs: []uint{a.ID, b.ID},
		Payments: []PaymentInput{
			{PayerID: a.ID, Amount: dec("60.00")},
			{PayerID: b.ID, Amount: dec("40.00")},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = f.expenseSvc.Edit(a.ID, created.ExpenseID, EditExpenseInput{PayerID: &b.ID})
	if !domain.IsValidation(err) {
		t.Errorf("Edit() error = %v, want validation error", err)
	}
}

func TestEditPayerResetsPaidBack(t *testing.T) {
	f := newFixture(t)
	a, b := f.user(t), f.user(t)
	f.befriend(t, a.ID, b.ID)

	created, err := f.expenseSvc.Create(a.ID, CreateExpenseInput{
		Description:    "cab",
		TotalAmount:    dec("50.00"),
		ParticipantIDs: []uint{a.ID, b.ID},
		Payments:       []PaymentInput{{PayerID: a.ID, Amount: dec("50.00")}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = f.expenseSvc.Edit(a.ID, created.ExpenseID, EditExpenseInput{PayerID: &b.ID})
	if err != nil {
		t.Fatalf("edit payer: %v", err)
	}

	got, _ := f.expenseSvc.GetByUUID(created.ExpenseID)
	if got.Payments[0].PayerID != b.ID {
		t.Fatalf("payer = %d, want %d", got.Payments[0].PayerID, b.ID)
	}
	for _, share := range got.Shares {
		if share.UserID == b.ID {
			checkAmount(t, "new payer share paid back", share.AmountPaidBack, share.AmountOwed)
		} else {
			checkAmount(t, "other share paid back", share.AmountPaidBack, dec("0.00"))
		}
	}

	// Debt direction flipped with the payer.
	bal, _ := f.balances.GetBalance(a.ID, b.ID, nil)
	checkAmount(t, "balance after payer swap", bal, dec("25.00"))
}

func TestEditRejectsEmptyAndDeleted(t *testing.T) {
	f := newFixture(t)
	a, b := f.user(t), f.user(t)
	f.befriend(t, a.ID, b.ID)

	created, err := f.expenseSvc.Create(a.ID, CreateExpenseInput{
		Description:    "x",
		TotalAmount:    dec("10.00"),
		ParticipantIDs: []uint{a.ID, b.ID},
		Payments:       []PaymentInput{{PayerID: a.ID, Amount: dec("10.00")}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := f.expenseSvc.Edit(a.ID, created.ExpenseID, EditExpenseInput{}); !domain.IsValidation(err) {
		t.Errorf("empty edit error = %v, want validation error", err)
	}

	if err := f.expenseSvc.Delete(a.ID, created.ExpenseID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	desc := "y"
	if _, err := f.expenseSvc.Edit(a.ID, created.ExpenseID, EditExpenseInput{Description: &desc}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("edit of deleted expense error = %v, want ErrNotFound", err)
	}
}

func TestDeletePermissions(t *testing.T) {
	f := newFixture(t)
	a, b, c := f.user(t), f.user(t), f.user(t)
	g := f.group(t, a.ID, b.ID, c.ID)

	created, err := f.expenseSvc.Create(b.ID, CreateExpenseInput{
		Description:    "tickets",
		TotalAmount:    dec("30.00"),
		GroupID:        &g.ID,
		ParticipantIDs: []uint{a.ID, b.ID, c.ID},
		Payments:       []PaymentInput{{PayerID: b.ID, Amount: dec("30.00")}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// A plain member cannot delete someone else's expense.
	if err := f.expenseSvc.Delete(c.ID, created.ExpenseID); !errors.Is(err, domain.ErrPermissionDenied) {
		t.Errorf("member delete error = %v, want ErrPermissionDenied", err)
	}
	// The group creator can.
	if err := f.expenseSvc.Delete(a.ID, created.ExpenseID); err != nil {
		t.Errorf("group creator delete error = %v", err)
	}
}

func TestSoftDeleteExcludedFromQueries(t *testing.T) {
	f := newFixture(t)
	a, b := f.user(t), f.user(t)
	f.befriend(t, a.ID, b.ID)

	created, err := f.expenseSvc.Create(a.ID, CreateExpenseInput{
		Description:    "snacks",
		TotalAmount:    dec("20.00"),
		ParticipantIDs: []uint{a.ID, b.ID},
		Payments:       []PaymentInput{{PayerID: a.ID, Amount: dec("20.00")}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := f.expenseSvc.Delete(a.ID, created.ExpenseID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := f.expenseSvc.GetByUUID(created.ExpenseID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetByUUID after delete error = %v, want ErrNotFound", err)
	}
	list, err := f.expenseSvc.UserExpenses(a.ID, nil)
	if err != nil {
		t.Fatalf("user expenses: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("user expenses after delete = %d rows, want 0", len(list))
	}
	between, _ := f.expenseSvc.ExpensesBetween(a.ID, b.ID, nil)
	if len(between) != 0 {
		t.Errorf("expenses between after delete = %d rows, want 0", len(between))
	}

	bal, _ := f.balances.GetBalance(a.ID, b.ID, nil)
	checkAmount(t, "balance after delete", bal, dec("0.00"))
}

func TestDeleteTwiceReturnsNotFound(t *testing.T) {
	f := newFixture(t)
	a, b := f.user(t), f.user(t)
	f.befriend(t, a.ID, b.ID)

	created, err := f.expenseSvc.Create(a.ID, CreateExpenseInput{
		Description:    "x",
		TotalAmount:    dec("10.00"),
		ParticipantIDs: []uint{a.ID, b.ID},
		Payments:       []PaymentInput{{PayerID: a.ID, Amount: dec("10.00")}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := f.expenseSvc.Delete(a.ID, created.ExpenseID); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	if err := f.expenseSvc.Delete(a.ID, created.ExpenseID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("second delete error = %v, want ErrNotFound", err)
	}
}

func ptr[T any](v T) *T { return &v }
