package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOfWalksChain(t *testing.T) {
	base := NotFound("get_company", "company", "acme")
	wrapped := fmt.Errorf("tool call: %w", base)

	assert.Equal(t, KindNotFound, KindOf(wrapped))
	assert.True(t, Is(wrapped, KindNotFound))
	assert.Equal(t, "get_company: company not found: acme", base.Error())
}

func TestKindOfDefaults(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(nil))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Equal(t, KindTimeout, KindOf(fmt.Errorf("probe: %w", context.DeadlineExceeded)))
}

func TestUpstreamClassifiesDeadline(t *testing.T) {
	err := Upstream("send", context.DeadlineExceeded, "smtp dial")
	assert.Equal(t, KindTimeout, KindOf(err))

	err = Upstream("send", errors.New("refused"), "smtp dial")
	assert.Equal(t, KindUpstream, KindOf(err))
	assert.Equal(t, "send: smtp dial: refused", err.Error())
	assert.Nil(t, Wrap(KindUpstream, "x", nil, "ignored"))
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindNotFound:      http.StatusNotFound,
		KindValidation:    http.StatusBadRequest,
		KindConflict:      http.StatusConflict,
		KindConfiguration: http.StatusServiceUnavailable,
		KindTimeout:       http.StatusGatewayTimeout,
		KindUpstream:      http.StatusBadGateway,
		KindInternal:      http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, HTTPStatus(New(kind, "op", "msg")), kind)
	}
}
