package store

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/clickoflow/clickoflow/internal/model"
)

const (
	scopeSettings = "settings"
	kindOverhead  = "overhead"
	kindGeneral   = "general"
)

// SaveSettings replaces the owner-wide settings, including expense lists
// and monthly targets.
func (r *Repository) SaveSettings(ctx context.Context, s model.Settings) error {
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = time.Now()
	}
	beAmt, beCur, beBase := moneyArgs(s.BreakEvenTarget)

	err := r.withTx(ctx, func(q queryer) error {
		_, err := q.exec(ctx, `INSERT INTO settings
			(owner, base_currency, break_even_amount, break_even_currency, break_even_in_base, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (owner) DO UPDATE SET
				base_currency = excluded.base_currency,
				break_even_amount = excluded.break_even_amount,
				break_even_currency = excluded.break_even_currency,
				break_even_in_base = excluded.break_even_in_base,
				updated_at = excluded.updated_at`,
			s.Owner, s.BaseCurrency, beAmt, beCur, beBase, formatTime(s.UpdatedAt),
		)
		if err != nil {
			return err
		}

		if _, err := q.exec(ctx, "DELETE FROM monthly_targets WHERE owner = ?", s.Owner); err != nil {
			return err
		}
		for label, target := range s.MonthlyTargets {
			m, err := model.ParseMonth(label)
			if err != nil {
				return fmt.Errorf("target %q: %w", label, err)
			}
			amt, cur, base := moneyArgs(target)
			_, err = q.exec(ctx, `INSERT INTO monthly_targets (owner, month, amount, currency, in_base)
				VALUES (?, ?, ?, ?, ?)`, s.Owner, m.Key(), amt, cur, base)
			if err != nil {
				return err
			}
		}

		return replaceExpenses(ctx, q, s.Owner, scopeSettings, s.Overhead, s.GeneralExpenses)
	})
	if err != nil {
		return fmt.Errorf("saving settings for %s: %w", s.Owner, err)
	}
	return nil
}

// Settings loads the owner-wide settings. It returns ErrNotFound when the
// owner has none.
func (r *Repository) Settings(ctx context.Context, owner string) (*model.Settings, error) {
	rs, err := r.db.query(ctx, `SELECT base_currency, break_even_amount, break_even_currency,
		break_even_in_base, updated_at FROM settings WHERE owner = ?`, owner)
	if err != nil {
		return nil, err
	}
	defer rs.Close()

	if !rs.Next() {
		if err := rs.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("settings for %s: %w", owner, ErrNotFound)
	}
	s := &model.Settings{Owner: owner}
	var beAmt, beCur, beBase, updated string
	if err := rs.Scan(&s.BaseCurrency, &beAmt, &beCur, &beBase, &updated); err != nil {
		return nil, err
	}
	rs.Close()
	if s.BreakEvenTarget, err = parseMoney(beAmt, beCur, beBase); err != nil {
		return nil, fmt.Errorf("settings for %s: %w", owner, err)
	}
	if s.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, fmt.Errorf("settings for %s: %w", owner, err)
	}

	if s.MonthlyTargets, err = r.monthlyTargets(ctx, owner); err != nil {
		return nil, err
	}
	if s.Overhead, s.GeneralExpenses, err = r.expenses(ctx, owner, scopeSettings); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *Repository) monthlyTargets(ctx context.Context, owner string) (map[string]model.Money, error) {
	rs, err := r.db.query(ctx, `SELECT month, amount, currency, in_base
		FROM monthly_targets WHERE owner = ?`, owner)
	if err != nil {
		return nil, err
	}
	defer rs.Close()

	targets := make(map[string]model.Money)
	for rs.Next() {
		var key, amt, cur, base string
		if err := rs.Scan(&key, &amt, &cur, &base); err != nil {
			return nil, err
		}
		m, err := model.ParseMonth(key)
		if err != nil {
			return nil, fmt.Errorf("target month %q: %w", key, err)
		}
		if targets[m.String()], err = parseMoney(amt, cur, base); err != nil {
			return nil, fmt.Errorf("target %s: %w", m, err)
		}
	}
	return targets, rs.Err()
}

// SavePlan upserts the plan for (owner, month). An existing plan keeps its
// ID; a new one gets a fresh ID.
func (r *Repository) SavePlan(ctx context.Context, p model.MonthlyPlan) (model.MonthlyPlan, error) {
	if p.Month.IsZero() {
		return p, fmt.Errorf("saving plan: %w", model.ErrInvalidMonthFormat)
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now()
	}

	err := r.withTx(ctx, func(q queryer) error {
		rs, err := q.query(ctx, "SELECT id FROM plans WHERE owner = ? AND month = ?", p.Owner, p.Month.Key())
		if err != nil {
			return err
		}
		var existing string
		if rs.Next() {
			if err := rs.Scan(&existing); err != nil {
				rs.Close()
				return err
			}
		}
		if err := rs.Err(); err != nil {
			rs.Close()
			return err
		}
		rs.Close()

		switch {
		case existing != "":
			p.ID = existing
		case p.ID == "":
			p.ID = uuid.New().String()
		}

		tAmt, tCur, tBase := moneyArgs(p.Target)
		bAmt, bCur, bBase := moneyArgs(p.BreakEvenTarget)
		_, err = q.exec(ctx, `INSERT INTO plans
			(id, owner, month, target_amount, target_currency, target_in_base,
			 break_even_amount, break_even_currency, break_even_in_base, is_active, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				target_amount = excluded.target_amount,
				target_currency = excluded.target_currency,
				target_in_base = excluded.target_in_base,
				break_even_amount = excluded.break_even_amount,
				break_even_currency = excluded.break_even_currency,
				break_even_in_base = excluded.break_even_in_base,
				is_active = excluded.is_active,
				updated_at = excluded.updated_at`,
			p.ID, p.Owner, p.Month.Key(), tAmt, tCur, tBase, bAmt, bCur, bBase,
			boolInt(p.IsActive), formatTime(p.UpdatedAt),
		)
		if err != nil {
			return err
		}

		if _, err := q.exec(ctx, "DELETE FROM revenue_streams WHERE plan_id = ?", p.ID); err != nil {
			return err
		}
		for i, rsm := range p.RevenueStreams {
			amt, cur, base := moneyArgs(rsm.Amount)
			_, err := q.exec(ctx, `INSERT INTO revenue_streams (plan_id, position, name, amount, currency, in_base)
				VALUES (?, ?, ?, ?, ?, ?)`, p.ID, i, rsm.Name, amt, cur, base)
			if err != nil {
				return err
			}
		}
		return replaceExpenses(ctx, q, p.Owner, p.ID, p.Overhead, p.GeneralExpenses)
	})
	if err != nil {
		return p, fmt.Errorf("saving plan %s: %w", p.Month, err)
	}
	return p, nil
}

// DeactivatePlan soft-deletes the plan for (owner, month).
func (r *Repository) DeactivatePlan(ctx context.Context, owner string, m model.Month) error {
	n, err := r.db.exec(ctx, "UPDATE plans SET is_active = 0, updated_at = ? WHERE owner = ? AND month = ?",
		formatTime(time.Now()), owner, m.Key())
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("plan %s: %w", m, ErrNotFound)
	}
	return nil
}

// Plans returns the owner's plans ordered by month. Inactive plans are
// included only when all is set.
func (r *Repository) Plans(ctx context.Context, owner string, all bool) ([]model.MonthlyPlan, error) {
	query := `SELECT id, month, target_amount, target_currency, target_in_base,
		break_even_amount, break_even_currency, break_even_in_base, is_active, updated_at
		FROM plans WHERE owner = ?`
	if !all {
		query += " AND is_active = 1"
	}
	rs, err := r.db.query(ctx, query+" ORDER BY month", owner)
	if err != nil {
		return nil, err
	}
	defer rs.Close()

	var plans []model.MonthlyPlan
	for rs.Next() {
		var (
			p                 model.MonthlyPlan
			month, updated    string
			tAmt, tCur, tBase string
			bAmt, bCur, bBase string
			active            int
		)
		if err := rs.Scan(&p.ID, &month, &tAmt, &tCur, &tBase, &bAmt, &bCur, &bBase, &active, &updated); err != nil {
			return nil, err
		}
		p.Owner = owner
		if p.Month, err = model.ParseMonth(month); err != nil {
			return nil, fmt.Errorf("plan %s: %w", p.ID, err)
		}
		if p.Target, err = parseMoney(tAmt, tCur, tBase); err != nil {
			return nil, fmt.Errorf("plan %s: %w", p.ID, err)
		}
		if p.BreakEvenTarget, err = parseMoney(bAmt, bCur, bBase); err != nil {
			return nil, fmt.Errorf("plan %s: %w", p.ID, err)
		}
		p.IsActive = active != 0
		if p.UpdatedAt, err = parseTime(updated); err != nil {
			return nil, fmt.Errorf("plan %s: %w", p.ID, err)
		}
		plans = append(plans, p)
	}
	if err := rs.Err(); err != nil {
		return nil, err
	}
	rs.Close()

	for i := range plans {
		if plans[i].RevenueStreams, err = r.revenueStreams(ctx, plans[i].ID); err != nil {
			return nil, err
		}
		if plans[i].Overhead, plans[i].GeneralExpenses, err = r.expenses(ctx, owner, plans[i].ID); err != nil {
			return nil, err
		}
	}
	return plans, nil
}

func (r *Repository) revenueStreams(ctx context.Context, planID string) ([]model.RevenueStream, error) {
	rs, err := r.db.query(ctx, `SELECT name, amount, currency, in_base
		FROM revenue_streams WHERE plan_id = ? ORDER BY position`, planID)
	if err != nil {
		return nil, err
	}
	defer rs.Close()

	var out []model.RevenueStream
	for rs.Next() {
		var (
			s              model.RevenueStream
			amt, cur, base string
		)
		if err := rs.Scan(&s.Name, &amt, &cur, &base); err != nil {
			return nil, err
		}
		if s.Amount, err = parseMoney(amt, cur, base); err != nil {
			return nil, fmt.Errorf("revenue stream %q: %w", s.Name, err)
		}
		out = append(out, s)
	}
	return out, rs.Err()
}

func replaceExpenses(ctx context.Context, q queryer, owner, scope string, overhead, general []model.ExpenseRecord) error {
	if _, err := q.exec(ctx, "DELETE FROM expenses WHERE owner = ? AND scope = ?", owner, scope); err != nil {
		return err
	}
	insert := func(kind string, recs []model.ExpenseRecord) error {
		for i, e := range recs {
			id := e.ID
			if id == "" {
				id = uuid.New().String()
			}
			amt, cur, base := moneyArgs(e.Amount)
			_, err := q.exec(ctx, `INSERT INTO expenses
				(id, owner, scope, kind, position, name, amount, currency, in_base,
				 is_active, start_date, end_date, frequency, team)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				id, owner, scope, kind, i, e.Name, amt, cur, base,
				boolInt(e.IsActive), formatTime(e.StartDate), formatTime(e.EndDate),
				string(e.Frequency), string(e.Team),
			)
			if err != nil {
				return fmt.Errorf("expense %q: %w", e.Name, err)
			}
		}
		return nil
	}
	if err := insert(kindOverhead, overhead); err != nil {
		return err
	}
	return insert(kindGeneral, general)
}

func (r *Repository) expenses(ctx context.Context, owner, scope string) (overhead, general []model.ExpenseRecord, err error) {
	rs, err := r.db.query(ctx, `SELECT id, kind, position, name, amount, currency, in_base,
		is_active, start_date, end_date, frequency, team
		FROM expenses WHERE owner = ? AND scope = ?`, owner, scope)
	if err != nil {
		return nil, nil, err
	}
	defer rs.Close()

	type positioned struct {
		pos int
		rec model.ExpenseRecord
	}
	var oh, gen []positioned
	for rs.Next() {
		var (
			e                      model.ExpenseRecord
			kind                   string
			pos, active            int
			amt, cur, base         string
			start, end, freq, team string
		)
		if err := rs.Scan(&e.ID, &kind, &pos, &e.Name, &amt, &cur, &base,
			&active, &start, &end, &freq, &team); err != nil {
			return nil, nil, err
		}
		if e.Amount, err = parseMoney(amt, cur, base); err != nil {
			return nil, nil, fmt.Errorf("expense %q: %w", e.Name, err)
		}
		e.IsActive = active != 0
		if e.StartDate, err = parseTime(start); err != nil {
			return nil, nil, fmt.Errorf("expense %q start: %w", e.Name, err)
		}
		if e.EndDate, err = parseTime(end); err != nil {
			return nil, nil, fmt.Errorf("expense %q end: %w", e.Name, err)
		}
		e.Frequency = model.Frequency(freq)
		e.Team = model.Team(team)
		if kind == kindOverhead {
			oh = append(oh, positioned{pos, e})
		} else {
			gen = append(gen, positioned{pos, e})
		}
	}
	if err := rs.Err(); err != nil {
		return nil, nil, err
	}

	unwrap := func(ps []positioned) []model.ExpenseRecord {
		sort.Slice(ps, func(i, j int) bool { return ps[i].pos < ps[j].pos })
		out := make([]model.ExpenseRecord, 0, len(ps))
		for _, p := range ps {
			out = append(out, p.rec)
		}
		return out
	}
	if len(oh) > 0 {
		overhead = unwrap(oh)
	}
	if len(gen) > 0 {
		general = unwrap(gen)
	}
	return overhead, general, nil
}

// Ledger is everything the forecast needs for one owner.
type Ledger struct {
	Owner    string
	Projects []model.Project
	Settings *model.Settings
	Plans    []model.MonthlyPlan
}

// LoadLedger reads projects, settings and active plans for owner. Missing
// settings are not an error here; Settings is left nil.
func (r *Repository) LoadLedger(ctx context.Context, owner string) (*Ledger, error) {
	projects, err := r.Projects(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("loading projects: %w", err)
	}
	settings, err := r.Settings(ctx, owner)
	if err != nil && !isNotFound(err) {
		return nil, fmt.Errorf("loading settings: %w", err)
	}
	plans, err := r.Plans(ctx, owner, false)
	if err != nil {
		return nil, fmt.Errorf("loading plans: %w", err)
	}
	return &Ledger{Owner: owner, Projects: projects, Settings: settings, Plans: plans}, nil
}
