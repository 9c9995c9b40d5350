// Package testutil provides httpexpect helpers for exercising twins and the
// /admin/* control plane in tests.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gavv/httpexpect/v2"
)

// NewExpect returns an httpexpect instance bound to a test server. Failed
// expectations stop the test.
func NewExpect(t *testing.T, server *httptest.Server) *httpexpect.Expect {
	return NewExpectURL(t, server.URL, server.Client())
}

// NewExpectURL returns an httpexpect instance bound to baseURL. A nil
// client means http.DefaultClient.
func NewExpectURL(t *testing.T, baseURL string, client *http.Client) *httpexpect.Expect {
	t.Helper()
	if client == nil {
		client = http.DefaultClient
	}
	return httpexpect.WithConfig(httpexpect.Config{
		TestName: t.Name(),
		BaseURL:  strings.TrimRight(baseURL, "/"),
		Client:   client,
		Reporter: httpexpect.NewRequireReporter(t),
		Printers: []httpexpect.Printer{
			httpexpect.NewCompactPrinter(t),
		},
	})
}

// Bearer formats an Authorization header value.
func Bearer(token string) string {
	return "Bearer " + token
}

// Admin drives the /admin/* control plane of a twin.
type Admin struct {
	e *httpexpect.Expect
}

// NewAdmin wraps an httpexpect instance pointed at a twin.
func NewAdmin(e *httpexpect.Expect) *Admin {
	return &Admin{e: e}
}

// Reset calls POST /admin/reset.
func (a *Admin) Reset() {
	a.e.POST("/admin/reset").Expect().Status(http.StatusOK)
}

// State calls GET /admin/state.
func (a *Admin) State() *httpexpect.Object {
	return a.e.GET("/admin/state").Expect().Status(http.StatusOK).JSON().Object()
}

// LoadState calls POST /admin/state with the given state.
func (a *Admin) LoadState(state any) {
	a.e.POST("/admin/state").WithJSON(state).Expect().Status(http.StatusOK)
}

// InjectFault calls POST /admin/fault/{endpoint}.
func (a *Admin) InjectFault(endpoint string, fault any) {
	a.e.POST("/admin/fault/" + strings.TrimPrefix(endpoint, "/")).
		WithJSON(fault).
		Expect().
		Status(http.StatusOK)
}

// RemoveFault calls DELETE /admin/fault/{endpoint}.
func (a *Admin) RemoveFault(endpoint string) *httpexpect.Response {
	return a.e.DELETE("/admin/fault/" + strings.TrimPrefix(endpoint, "/")).Expect()
}

// Requests calls GET /admin/requests.
func (a *Admin) Requests() *httpexpect.Array {
	return a.e.GET("/admin/requests").Expect().Status(http.StatusOK).JSON().Array()
}

// Health calls GET /admin/health.
func (a *Admin) Health() {
	a.e.GET("/admin/health").Expect().Status(http.StatusOK)
}
