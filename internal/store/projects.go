package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clickoflow/clickoflow/internal/model"
)

// SaveProject inserts or replaces p with its payments and milestones,
// assigning IDs where missing. When p has a payment history its cached
// deposit fields are recomputed from the deposit payments.
func (r *Repository) SaveProject(ctx context.Context, p model.Project) (model.Project, error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	st, err := model.ParseProjectStatus(string(p.Status))
	if err != nil {
		return p, fmt.Errorf("saving project %s: %w", p.ID, err)
	}
	p.Status = st
	for i := range p.Payments {
		if p.Payments[i].ID == "" {
			p.Payments[i].ID = uuid.New().String()
		}
		typ, err := model.ParsePaymentType(string(p.Payments[i].Type))
		if err != nil {
			return p, fmt.Errorf("saving project %s payment %s: %w", p.ID, p.Payments[i].ID, err)
		}
		p.Payments[i].Type = typ
	}
	syncDeposit(&p)

	err = r.withTx(ctx, func(q queryer) error {
		return saveProject(ctx, q, p)
	})
	if err != nil {
		return p, fmt.Errorf("saving project %s: %w", p.ID, err)
	}
	return p, nil
}

// AddPayment appends a payment to the project and refreshes its cached
// deposit fields in the same transaction.
func (r *Repository) AddPayment(ctx context.Context, owner, projectID string, pay model.Payment) (model.Project, error) {
	projects, err := r.Projects(ctx, owner)
	if err != nil {
		return model.Project{}, err
	}
	for _, p := range projects {
		if p.ID != projectID {
			continue
		}
		p.Payments = append(p.Payments, pay)
		return r.SaveProject(ctx, p)
	}
	return model.Project{}, fmt.Errorf("project %s: %w", projectID, ErrNotFound)
}

// syncDeposit keeps DepositPaid/DepositDate as a denormalized copy of the
// deposit payments: their total, and the date of the latest one.
func syncDeposit(p *model.Project) {
	if !p.HasPaymentHistory() {
		return
	}
	var (
		amount   = decimal.Zero
		inBase   = decimal.Zero
		allBase  = true
		currency string
		last     time.Time
		mixed    bool
	)
	for _, pay := range p.Payments {
		if pay.Type != model.PaymentDeposit {
			continue
		}
		if currency == "" {
			currency = pay.Amount.Currency
		} else if pay.Amount.Currency != currency {
			mixed = true
		}
		amount = amount.Add(pay.Amount.Amount)
		if pay.Amount.InBase.Valid {
			inBase = inBase.Add(pay.Amount.InBase.Decimal)
		} else {
			allBase = false
		}
		if pay.Date.After(last) {
			last = pay.Date
		}
	}
	dep := model.Money{Amount: amount, Currency: currency}
	switch {
	case mixed && !allBase:
		return
	case mixed:
		dep = model.BaseMoney(inBase)
	case allBase:
		dep.InBase = decimal.NewNullDecimal(inBase)
	}
	p.DepositPaid = dep
	p.DepositDate = last
}

func saveProject(ctx context.Context, q queryer, p model.Project) error {
	totalAmt, totalCur, totalBase := moneyArgs(p.TotalAmount)
	depAmt, depCur, depBase := moneyArgs(p.DepositPaid)

	_, err := q.exec(ctx, `INSERT INTO projects
		(id, owner, client_name, name, total_amount, total_currency, total_in_base,
		 deposit_amount, deposit_currency, deposit_in_base, deposit_date,
		 expected_start, expected_completion, status, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			owner = excluded.owner,
			client_name = excluded.client_name,
			name = excluded.name,
			total_amount = excluded.total_amount,
			total_currency = excluded.total_currency,
			total_in_base = excluded.total_in_base,
			deposit_amount = excluded.deposit_amount,
			deposit_currency = excluded.deposit_currency,
			deposit_in_base = excluded.deposit_in_base,
			deposit_date = excluded.deposit_date,
			expected_start = excluded.expected_start,
			expected_completion = excluded.expected_completion,
			status = excluded.status,
			updated_at = excluded.updated_at`,
		p.ID, p.Owner, p.ClientName, p.Name, totalAmt, totalCur, totalBase,
		depAmt, depCur, depBase, formatTime(p.DepositDate),
		formatTime(p.ExpectedStart), formatTime(p.ExpectedCompletion), string(p.Status),
		formatTime(time.Now()),
	)
	if err != nil {
		return err
	}

	if _, err := q.exec(ctx, "DELETE FROM payments WHERE project_id = ?", p.ID); err != nil {
		return err
	}
	for _, pay := range p.Payments {
		amt, cur, base := moneyArgs(pay.Amount)
		_, err := q.exec(ctx, `INSERT INTO payments
			(id, project_id, amount, currency, in_base, paid_at, type, description)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			pay.ID, p.ID, amt, cur, base, formatTime(pay.Date), string(pay.Type), pay.Description,
		)
		if err != nil {
			return err
		}
	}

	if _, err := q.exec(ctx, "DELETE FROM milestones WHERE project_id = ?", p.ID); err != nil {
		return err
	}
	for i, ms := range p.Milestones {
		amt, cur, base := moneyArgs(ms.Amount)
		_, err := q.exec(ctx, `INSERT INTO milestones
			(project_id, position, name, amount, currency, in_base, due_date, completed)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, i, ms.Name, amt, cur, base, formatTime(ms.DueDate), boolInt(ms.Completed),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// Projects returns every project of owner with payments and milestones.
func (r *Repository) Projects(ctx context.Context, owner string) ([]model.Project, error) {
	rs, err := r.db.query(ctx, `SELECT
		id, owner, client_name, name, total_amount, total_currency, total_in_base,
		deposit_amount, deposit_currency, deposit_in_base, deposit_date,
		expected_start, expected_completion, status
		FROM projects WHERE owner = ? ORDER BY expected_completion, id`, owner)
	if err != nil {
		return nil, err
	}
	defer rs.Close()

	var projects []model.Project
	idx := make(map[string]int)
	for rs.Next() {
		var (
			p                                model.Project
			totalAmt, totalCur, totalBase    string
			depAmt, depCur, depBase, depDate string
			start, completion, status        string
		)
		if err := rs.Scan(&p.ID, &p.Owner, &p.ClientName, &p.Name, &totalAmt, &totalCur, &totalBase,
			&depAmt, &depCur, &depBase, &depDate, &start, &completion, &status); err != nil {
			return nil, err
		}
		if p.TotalAmount, err = parseMoney(totalAmt, totalCur, totalBase); err != nil {
			return nil, fmt.Errorf("project %s: %w", p.ID, err)
		}
		if p.DepositPaid, err = parseMoney(depAmt, depCur, depBase); err != nil {
			return nil, fmt.Errorf("project %s: %w", p.ID, err)
		}
		if p.DepositDate, err = parseTime(depDate); err != nil {
			return nil, fmt.Errorf("project %s deposit date: %w", p.ID, err)
		}
		if p.ExpectedStart, err = parseTime(start); err != nil {
			return nil, fmt.Errorf("project %s expected start: %w", p.ID, err)
		}
		if p.ExpectedCompletion, err = parseTime(completion); err != nil {
			return nil, fmt.Errorf("project %s expected completion: %w", p.ID, err)
		}
		if p.Status, err = model.ParseProjectStatus(status); err != nil {
			return nil, fmt.Errorf("project %s: %w", p.ID, err)
		}

		idx[p.ID] = len(projects)
		projects = append(projects, p)
	}
	if err := rs.Err(); err != nil {
		return nil, err
	}
	rs.Close()

	if err := r.loadPayments(ctx, owner, projects, idx); err != nil {
		return nil, err
	}
	if err := r.loadMilestones(ctx, owner, projects, idx); err != nil {
		return nil, err
	}
	return projects, nil
}

func (r *Repository) loadPayments(ctx context.Context, owner string, projects []model.Project, idx map[string]int) error {
	rs, err := r.db.query(ctx, `SELECT
		pay.id, pay.project_id, pay.amount, pay.currency, pay.in_base, pay.paid_at, pay.type, pay.description
		FROM payments pay JOIN projects p ON p.id = pay.project_id
		WHERE p.owner = ? ORDER BY pay.paid_at, pay.id`, owner)
	if err != nil {
		return err
	}
	defer rs.Close()

	for rs.Next() {
		var (
			pay                    model.Payment
			projectID              string
			amt, cur, base, paidAt string
			typ                    string
		)
		if err := rs.Scan(&pay.ID, &projectID, &amt, &cur, &base, &paidAt, &typ, &pay.Description); err != nil {
			return err
		}
		if pay.Amount, err = parseMoney(amt, cur, base); err != nil {
			return fmt.Errorf("payment %s: %w", pay.ID, err)
		}
		if pay.Date, err = parseTime(paidAt); err != nil {
			return fmt.Errorf("payment %s: %w", pay.ID, err)
		}
		if pay.Type, err = model.ParsePaymentType(typ); err != nil {
			return fmt.Errorf("payment %s: %w", pay.ID, err)
		}
		if i, ok := idx[projectID]; ok {
			projects[i].Payments = append(projects[i].Payments, pay)
		}
	}
	return rs.Err()
}

func (r *Repository) loadMilestones(ctx context.Context, owner string, projects []model.Project, idx map[string]int) error {
	rs, err := r.db.query(ctx, `SELECT
		m.project_id, m.name, m.amount, m.currency, m.in_base, m.due_date, m.completed
		FROM milestones m JOIN projects p ON p.id = m.project_id
		WHERE p.owner = ? ORDER BY m.project_id, m.position`, owner)
	if err != nil {
		return err
	}
	defer rs.Close()

	for rs.Next() {
		var (
			ms                  model.Milestone
			projectID           string
			amt, cur, base, due string
			completed           int
		)
		if err := rs.Scan(&projectID, &ms.Name, &amt, &cur, &base, &due, &completed); err != nil {
			return err
		}
		if ms.Amount, err = parseMoney(amt, cur, base); err != nil {
			return fmt.Errorf("milestone %q: %w", ms.Name, err)
		}
		if ms.DueDate, err = parseTime(due); err != nil {
			return fmt.Errorf("milestone %q: %w", ms.Name, err)
		}
		ms.Completed = completed != 0
		if i, ok := idx[projectID]; ok {
			projects[i].Milestones = append(projects[i].Milestones, ms)
		}
	}
	return rs.Err()
}

// DeleteProject removes a project and its payments and milestones.
func (r *Repository) DeleteProject(ctx context.Context, owner, id string) error {
	return r.withTx(ctx, func(q queryer) error {
		if _, err := q.exec(ctx, "DELETE FROM payments WHERE project_id = ?", id); err != nil {
			return err
		}
		if _, err := q.exec(ctx, "DELETE FROM milestones WHERE project_id = ?", id); err != nil {
			return err
		}
		n, err := q.exec(ctx, "DELETE FROM projects WHERE owner = ? AND id = ?", owner, id)
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("project %s: %w", id, ErrNotFound)
		}
		return nil
	})
}
