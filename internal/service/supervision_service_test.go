package service

import (
	"context"
	"testing"

	"motorplus/internal/apierror"
	"motorplus/internal/dto"
	"motorplus/internal/model"
	"motorplus/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func supervise(sup, sub *model.Mechanic, o *model.Order, notes string) dto.CreateSupervisionRequest {
	return dto.CreateSupervisionRequest{
		SupervisorID: sup.ID.String(),
		SupervisedID: sub.ID.String(),
		OrderID:      o.ID.String(),
		Notes:        notes,
	}
}

func TestScenarioC_SupervisionRules(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	o := e.fx.Order(e.fx.Client().ID, model.OrderInProgress)
	m1 := e.fx.Mechanic("Marta")
	m2 := e.fx.Mechanic("Pablo")

	_, err := e.supervisions.Create(ctx, supervise(m1, m1, o, "revision"))
	assert.ErrorIs(t, err, apierror.ErrSelfSupervision)

	sup, err := e.supervisions.Create(ctx, supervise(m1, m2, o, "  frenos ok  "))
	require.NoError(t, err)
	assert.Equal(t, "frenos ok", sup.Notes)

	_, err = e.supervisions.Create(ctx, supervise(m1, m2, o, "otra vez"))
	assert.ErrorIs(t, err, apierror.ErrDuplicateSupervision)

	_, err = e.supervisions.Create(ctx, supervise(m2, m1, o, "al reves"))
	require.NoError(t, err, "the reverse pair is a different supervision")
}

func TestCreateSupervision_Validation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	o := e.fx.Order(e.fx.Client().ID, model.OrderDraft)
	m1 := e.fx.Mechanic("Marta")
	m2 := e.fx.Mechanic("Pablo")

	_, err := e.supervisions.Create(ctx, supervise(m1, m2, o, "   "))
	assert.ErrorIs(t, err, apierror.ErrValidation)

	ghost := &model.Mechanic{ID: uuid.New()}
	_, err = e.supervisions.Create(ctx, supervise(m1, ghost, o, "x"))
	assert.ErrorIs(t, err, apierror.ErrNotFound)

	_, err = e.supervisions.Create(ctx, supervise(m1, m2, &model.Order{ID: uuid.New()}, "x"))
	assert.ErrorIs(t, err, apierror.ErrNotFound)

	req := supervise(m1, m2, o, "x")
	req.OrderID = "not-a-uuid"
	_, err = e.supervisions.Create(ctx, req)
	assert.ErrorIs(t, err, apierror.ErrValidation)
}

func TestDeleteSupervision_Idempotent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	o := e.fx.Order(e.fx.Client().ID, model.OrderDraft)
	m1 := e.fx.Mechanic("Marta")
	m2 := e.fx.Mechanic("Pablo")
	_, err := e.supervisions.Create(ctx, supervise(m1, m2, o, "x"))
	require.NoError(t, err)

	key := repository.SupervisionKey{SupervisorID: m1.ID, SupervisedID: m2.ID, OrderID: o.ID}
	require.NoError(t, e.supervisions.Delete(ctx, key))
	require.NoError(t, e.supervisions.Delete(ctx, key))

	_, err = e.supervisions.Create(ctx, supervise(m1, m2, o, "de nuevo"))
	require.NoError(t, err, "a deleted pair can be recorded again")
}

// seedSupervisions records every ordered pair of the given mechanics on o.
func seedSupervisions(t *testing.T, e *env, o *model.Order, mechanics []*model.Mechanic) int {
	t.Helper()
	n := 0
	for _, a := range mechanics {
		for _, b := range mechanics {
			if a.ID == b.ID {
				continue
			}
			_, err := e.supervisions.Create(context.Background(), supervise(a, b, o, "nota"))
			require.NoError(t, err)
			n++
		}
	}
	return n
}

func TestListByOrder_SpansBatchesInInsertionOrder(t *testing.T) {
	e := newEnv(t)
	o := e.fx.Order(e.fx.Client().ID, model.OrderInProgress)
	other := e.fx.Order(e.fx.Client().ID, model.OrderInProgress)
	mechanics := make([]*model.Mechanic, 8)
	for i := range mechanics {
		mechanics[i] = e.fx.Mechanic("M")
	}
	want := seedSupervisions(t, e, o, mechanics) // 56 rows, more than one batch
	seedSupervisions(t, e, other, mechanics[:2])

	var got []model.Supervision
	for sup, err := range e.supervisions.ListByOrder(context.Background(), o.ID) {
		require.NoError(t, err)
		got = append(got, sup)
	}
	require.Len(t, got, want)
	for i := 1; i < len(got); i++ {
		assert.Less(t, got[i-1].Seq, got[i].Seq)
		assert.Equal(t, o.ID, got[i].OrderID)
	}
}

func TestListByOrder_EarlyBreakAndRestart(t *testing.T) {
	e := newEnv(t)
	o := e.fx.Order(e.fx.Client().ID, model.OrderInProgress)
	mechanics := []*model.Mechanic{e.fx.Mechanic("A"), e.fx.Mechanic("B"), e.fx.Mechanic("C")}
	total := seedSupervisions(t, e, o, mechanics)

	seq := e.supervisions.ListByOrder(context.Background(), o.ID)
	var first []model.Supervision
	for sup, err := range seq {
		require.NoError(t, err)
		first = append(first, sup)
		if len(first) == 2 {
			break
		}
	}
	require.Len(t, first, 2)

	n := 0
	for sup, err := range seq {
		require.NoError(t, err)
		if n == 0 {
			assert.Equal(t, first[0].Seq, sup.Seq, "a second range starts over")
		}
		n++
	}
	assert.Equal(t, total, n)
}

func TestListByOrderPage(t *testing.T) {
	e := newEnv(t)
	o := e.fx.Order(e.fx.Client().ID, model.OrderInProgress)
	total := seedSupervisions(t, e, o, []*model.Mechanic{e.fx.Mechanic("A"), e.fx.Mechanic("B"), e.fx.Mechanic("C")})

	page, err := e.supervisions.ListByOrderPage(context.Background(), o.ID, dto.PageQuery{Page: 1, Size: 4})
	require.NoError(t, err)
	assert.EqualValues(t, total, page.TotalElements)
	assert.Len(t, page.Content, total-4)
}
