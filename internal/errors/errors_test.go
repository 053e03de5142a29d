package errors

import (
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrap_KeepsInnerCode(t *testing.T) {
	base := InvalidInput("bad window")
	wrapped := Wrap(fmt.Errorf("outer: %w", base), "failed to analyze")

	assert.Equal(t, CodeInvalidInput, GetCode(wrapped))
	assert.Equal(t, "failed to analyze: outer: bad window", wrapped.Error())
	assert.ErrorIs(t, wrapped, base)
}

func TestWrap_PlainErrorIsInternal(t *testing.T) {
	err := Wrapf(io.ErrUnexpectedEOF, "reading %s", "events.json")
	assert.Equal(t, CodeInternalError, GetCode(err))
	assert.Nil(t, Wrap(nil, "nothing"))
}

func TestWithCode(t *testing.T) {
	err := WithCode(CodeDatabaseError, io.EOF)
	assert.Equal(t, CodeDatabaseError, GetCode(err))
	assert.Equal(t, "UNKNOWN", GetCode(io.EOF))
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{InvalidInput("x"), http.StatusBadRequest},
		{NotFound("run"), http.StatusNotFound},
		{Busy("full"), http.StatusTooManyRequests},
		{DatabaseError("query", io.EOF), http.StatusBadGateway},
		{ExternalServiceError("events", io.EOF), http.StatusBadGateway},
		{io.EOF, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, HTTPStatus(tc.err), "%v", tc.err)
	}
}
