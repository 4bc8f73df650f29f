package apierror

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
)

func TestIs_MatchesKindThroughWrapping(t *testing.T) {
	err := errors.Wrap(E(KindInsufficientStock, "stock insuficiente para %s", "filtro"), "add part usage")

	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Equal(t, KindInsufficientStock, KindOf(err))
}

func TestIllegalStateAliasesInvalidState(t *testing.T) {
	assert.ErrorIs(t, E(KindInvalidState, "orden no completada"), ErrIllegalState)
}

func TestKindOf_Unclassified(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(fmt.Errorf("boom")))
	assert.Equal(t, KindInternal, KindOf(nil))
}

func TestStatus(t *testing.T) {
	cases := map[Kind]int{
		KindNotFound:             http.StatusNotFound,
		KindValidation:           http.StatusBadRequest,
		KindSelfSupervision:      http.StatusConflict,
		KindDuplicateSupervision: http.StatusConflict,
		KindIllegalTransition:    http.StatusConflict,
		KindInsufficientStock:    http.StatusConflict,
		KindUnauthorized:         http.StatusUnauthorized,
		KindInternal:             http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, Status(kind), kind)
	}
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "NOT_FOUND", ErrNotFound.Error())
	assert.Equal(t, "orden no encontrada", NotFound("orden no encontrada").Error())
	assert.Equal(t, KindValidation, FromError(Invalid("cantidad debe ser positiva")).Code)
}

func TestParseKind(t *testing.T) {
	k, ok := ParseKind("DUPLICATE_INVOICE")
	assert.True(t, ok)
	assert.Equal(t, KindDuplicateInvoice, k)

	_, ok = ParseKind("TEAPOT")
	assert.False(t, ok)
}
