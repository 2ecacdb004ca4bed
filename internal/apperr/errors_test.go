package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindMatching(t *testing.T) {
	err := NotFound("claim not found")
	wrapped := fmt.Errorf("load claim: %w", err)

	assert.True(t, errors.Is(wrapped, ErrNotFound))
	assert.False(t, errors.Is(wrapped, ErrForbidden))
	assert.Equal(t, KindNotFound, KindOf(wrapped))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{MissingField("policy_id required"), http.StatusBadRequest},
		{InvalidInput("bad date"), http.StatusBadRequest},
		{PreconditionFailed("wrong status"), http.StatusBadRequest},
		{Forbidden("not handler"), http.StatusForbidden},
		{NotFound("missing"), http.StatusNotFound},
		{errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, HTTPStatus(tc.err), tc.err.Error())
	}
}

func TestErrorMessage(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(KindInternal, "save claim", cause)
	assert.Equal(t, "save claim: connection reset", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "forbidden", (&Error{Kind: KindForbidden}).Error())
}
