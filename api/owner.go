package api

import (
	"net/http"
	"strings"

	"github.com/gmbyapa/ktopics/pkg/errors"
)

const DefaultOwnerHeader = `X-Owner-Id`

// ErrUnauthenticated is returned by an OwnerResolver when the request carries no identity.
var ErrUnauthenticated = errors.Sentinel(`unauthenticated`)

// OwnerResolver extracts the verified caller identity of a request.
type OwnerResolver interface {
	Owner(r *http.Request) (string, error)
}

// HeaderOwnerResolver trusts an identity header set by an authenticating proxy in front of the
// service.
type HeaderOwnerResolver struct {
	Header string
}

func (h HeaderOwnerResolver) Owner(r *http.Request) (string, error) {
	header := h.Header
	if header == `` {
		header = DefaultOwnerHeader
	}

	owner := strings.TrimSpace(r.Header.Get(header))
	if owner == `` {
		return ``, errors.Wrapf(ErrUnauthenticated, `header %s missing`, header)
	}

	return owner, nil
}
