package tools

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gusto-mcp/internal/gusto"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// stubUpstream answers every request with a fixed status and body and records
// what was sent.
type stubUpstream struct {
	mu       sync.Mutex
	requests []*http.Request
	status   int
	body     string
}

func (s *stubUpstream) client() *gusto.Client {
	return gusto.New(gusto.Config{BaseURL: "https://api.example.test/v1", AccessToken: "secret-token"}, &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			s.mu.Lock()
			s.requests = append(s.requests, r)
			s.mu.Unlock()
			return &http.Response{
				StatusCode: s.status,
				Status:     http.StatusText(s.status),
				Body:       io.NopCloser(strings.NewReader(s.body)),
				Header:     make(http.Header),
			}, nil
		}),
	})
}

func newStubDispatcher(t *testing.T, status int, body string, opts ...Option) (*Dispatcher, *stubUpstream) {
	t.Helper()
	stub := &stubUpstream{status: status, body: body}
	d, err := NewDispatcher(stub.client(), opts...)
	require.NoError(t, err)
	return d, stub
}

type recordingObserver struct {
	mu  sync.Mutex
	obs []Observation
}

func (r *recordingObserver) ObserveInvoke(o Observation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.obs = append(r.obs, o)
}

func TestDispatcherToolsMatchCatalog(t *testing.T) {
	d, _ := newStubDispatcher(t, http.StatusOK, `{}`)

	names := make([]string, 0)
	for _, tool := range d.Tools() {
		names = append(names, tool.Name)
		_, ok := d.handlers[tool.Name]
		assert.True(t, ok, "no handler for %s", tool.Name)
	}
	assert.Equal(t, []string{
		"list_employees", "get_employee", "list_payrolls", "get_payroll",
		"list_contractors", "get_company", "list_benefits",
	}, names)
	assert.Len(t, d.handlers, len(names))
}

func TestUnknownToolMakesNoCall(t *testing.T) {
	obs := &recordingObserver{}
	d, stub := newStubDispatcher(t, http.StatusOK, `{}`, WithObserver(obs))

	res := d.Invoke(context.Background(), "delete_everything", Arguments{"company_id": "C1"})

	require.True(t, res.IsError())
	assert.Contains(t, res.Message(), "delete_everything")
	assert.Equal(t, "Error: Unknown tool: delete_everything", res.Text())
	assert.Empty(t, stub.requests)
	require.Len(t, obs.obs, 1)
	assert.Equal(t, "unknown_tool", obs.obs[0].ErrorKind)
	assert.Equal(t, UnknownToolLabel, obs.obs[0].Tool)
	assert.False(t, obs.obs[0].Success)
}

func TestGetEmployee(t *testing.T) {
	d, stub := newStubDispatcher(t, http.StatusOK, `{"id":"abc-123"}`)

	res := d.Invoke(context.Background(), "get_employee", Arguments{"employee_id": "abc-123"})

	require.False(t, res.IsError(), res.Message())
	assert.JSONEq(t, `{"id":"abc-123"}`, string(res.Payload()))
	require.Len(t, stub.requests, 1)
	req := stub.requests[0]
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "/v1/employees/abc-123", req.URL.Path)
	assert.Equal(t, "Bearer secret-token", req.Header.Get("Authorization"))
}

func TestListPayrollsOmitsAbsentFilters(t *testing.T) {
	d, stub := newStubDispatcher(t, http.StatusOK, `[]`)

	res := d.Invoke(context.Background(), "list_payrolls", Arguments{
		"company_id": "C1",
		"processed":  true,
		"start_date": "2024-01-01",
	})

	require.False(t, res.IsError(), res.Message())
	require.Len(t, stub.requests, 1)
	assert.Equal(t, "/v1/companies/C1/payrolls", stub.requests[0].URL.Path)
	raw := stub.requests[0].URL.RawQuery
	assert.Contains(t, raw, "processed=true")
	assert.Contains(t, raw, "start_date=2024-01-01")
	assert.NotContains(t, raw, "end_date")
}

func TestUpstreamErrorBecomesFailure(t *testing.T) {
	obs := &recordingObserver{}
	d, _ := newStubDispatcher(t, http.StatusUnprocessableEntity, `"invalid"`, WithObserver(obs))

	res := d.Invoke(context.Background(), "get_company", Arguments{"company_id": "C1"})

	require.True(t, res.IsError())
	assert.Contains(t, res.Message(), "422")
	assert.Contains(t, res.Message(), "invalid")
	assert.True(t, strings.HasPrefix(res.Text(), "Error: "))
	require.Len(t, obs.obs, 1)
	assert.Equal(t, "upstream", obs.obs[0].ErrorKind)
}

func TestTransportErrorBecomesFailure(t *testing.T) {
	c := gusto.New(gusto.Config{AccessToken: "x"}, &http.Client{
		Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
			return nil, io.ErrUnexpectedEOF
		}),
	})
	d, err := NewDispatcher(c)
	require.NoError(t, err)

	res := d.Invoke(context.Background(), "list_benefits", Arguments{"company_id": "C1"})
	require.True(t, res.IsError())
	assert.Contains(t, res.Message(), "unexpected EOF")
}

func TestCanceledCallIsClassified(t *testing.T) {
	c := gusto.New(gusto.Config{AccessToken: "x"}, &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			return nil, r.Context().Err()
		}),
	})
	obs := &recordingObserver{}
	d, err := NewDispatcher(c, WithObserver(obs))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := d.Invoke(ctx, "get_company", Arguments{"company_id": "C1"})

	require.True(t, res.IsError())
	require.Len(t, obs.obs, 1)
	assert.Equal(t, "canceled", obs.obs[0].ErrorKind)
	assert.Equal(t, "get_company", obs.obs[0].Tool)
}

func TestGetCompanyIsRepeatable(t *testing.T) {
	d, stub := newStubDispatcher(t, http.StatusOK, `{"uuid":"C1","name":"Acme"}`)

	first := d.Invoke(context.Background(), "get_company", Arguments{"company_id": "C1"})
	second := d.Invoke(context.Background(), "get_company", Arguments{"company_id": "C1"})

	require.False(t, first.IsError())
	assert.Equal(t, first.Payload(), second.Payload())
	assert.Equal(t, first.Text(), second.Text())
	assert.Len(t, stub.requests, 2)
}

func TestExtraArgumentsIgnored(t *testing.T) {
	d, stub := newStubDispatcher(t, http.StatusOK, `[]`)

	res := d.Invoke(context.Background(), "list_employees", Arguments{
		"company_id": "C1",
		"page":       float64(2),
		"per":        "25",
		"verbose":    true,
	})

	require.False(t, res.IsError())
	assert.Equal(t, "/v1/companies/C1/employees?page=2&per=25", stub.requests[0].URL.RequestURI())
}

func TestMissingRequiredArgumentReachesUpstream(t *testing.T) {
	d, stub := newStubDispatcher(t, http.StatusNotFound, `{"errors":"not found"}`)

	res := d.Invoke(context.Background(), "get_payroll", Arguments{"payroll_id": "P1"})

	require.True(t, res.IsError())
	assert.Contains(t, res.Message(), "404")
	require.Len(t, stub.requests, 1)
	assert.Equal(t, "/v1/companies/undefined/payrolls/P1", stub.requests[0].URL.Path)
}

func TestNilArguments(t *testing.T) {
	d, stub := newStubDispatcher(t, http.StatusOK, `[]`)

	res := d.Invoke(context.Background(), "list_contractors", nil)
	require.False(t, res.IsError())
	assert.Equal(t, "/v1/companies/undefined/contractors", stub.requests[0].URL.Path)
}

type panickingUpstream struct{ Upstream }

func (panickingUpstream) GetCompany(context.Context, string) (json.RawMessage, error) {
	panic("boom")
}

func TestPanicBecomesFailure(t *testing.T) {
	d, err := NewDispatcher(panickingUpstream{})
	require.NoError(t, err)

	res := d.Invoke(context.Background(), "get_company", Arguments{"company_id": "C1"})
	require.True(t, res.IsError())
	assert.Contains(t, res.Message(), "boom")
}

func TestConcurrentInvocations(t *testing.T) {
	d, stub := newStubDispatcher(t, http.StatusOK, `{"ok":true}`)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := d.Invoke(context.Background(), "get_company", Arguments{"company_id": "C1"})
			assert.False(t, res.IsError())
		}()
	}
	wg.Wait()
	assert.Len(t, stub.requests, 16)
}

func TestCheckCatalog(t *testing.T) {
	noop := func(context.Context, Upstream, Arguments) (json.RawMessage, error) { return nil, nil }

	err := checkCatalog(Catalog(), map[string]handlerFunc{"get_company": noop})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has no handler")

	table := make(map[string]handlerFunc, len(handlers)+1)
	for k, v := range handlers {
		table[k] = v
	}
	table["run_payroll"] = noop
	err = checkCatalog(Catalog(), table)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run_payroll")

	dup := append(Catalog(), Catalog()[0])
	err = checkCatalog(dup, handlers)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestNewDispatcherRejectsNilUpstream(t *testing.T) {
	_, err := NewDispatcher(nil)
	require.Error(t, err)
}

func TestErrorKind(t *testing.T) {
	assert.Equal(t, "", ErrorKind(nil))
	assert.Equal(t, "upstream", ErrorKind(&gusto.UpstreamError{StatusCode: 500}))
	assert.Equal(t, "transport", ErrorKind(&gusto.TransportError{Err: io.EOF}))
	assert.Equal(t, "canceled", ErrorKind(context.Canceled))
	assert.Equal(t, "canceled", ErrorKind(&gusto.TransportError{Err: context.DeadlineExceeded}))
	assert.Equal(t, "internal", ErrorKind(io.EOF))
}
