// Package tools declares the Gusto tool catalog and routes invocations to the
// upstream client.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"gusto-mcp/internal/gusto"
)

// Upstream is the set of Gusto calls the tools map onto. *gusto.Client implements it.
type Upstream interface {
	ListEmployees(ctx context.Context, companyID string, p gusto.Pagination) (json.RawMessage, error)
	GetEmployee(ctx context.Context, employeeID string) (json.RawMessage, error)
	ListPayrolls(ctx context.Context, companyID string, f gusto.PayrollFilter) (json.RawMessage, error)
	GetPayroll(ctx context.Context, companyID, payrollID string) (json.RawMessage, error)
	ListContractors(ctx context.Context, companyID string, p gusto.Pagination) (json.RawMessage, error)
	GetCompany(ctx context.Context, companyID string) (json.RawMessage, error)
	ListBenefits(ctx context.Context, companyID string) (json.RawMessage, error)
}

var _ Upstream = (*gusto.Client)(nil)

// UnknownToolError is returned for a name outside the catalog.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string { return "Unknown tool: " + e.Name }

type handlerFunc func(ctx context.Context, up Upstream, args Arguments) (json.RawMessage, error)

// handlers must hold exactly one entry per catalog tool; NewDispatcher checks it.
var handlers = map[string]handlerFunc{
	"list_employees": func(ctx context.Context, up Upstream, a Arguments) (json.RawMessage, error) {
		return up.ListEmployees(ctx, a.String("company_id"), gusto.Pagination{Page: a.OptInt("page"), Per: a.OptInt("per")})
	},
	"get_employee": func(ctx context.Context, up Upstream, a Arguments) (json.RawMessage, error) {
		return up.GetEmployee(ctx, a.String("employee_id"))
	},
	"list_payrolls": func(ctx context.Context, up Upstream, a Arguments) (json.RawMessage, error) {
		return up.ListPayrolls(ctx, a.String("company_id"), gusto.PayrollFilter{
			Processed: a.OptBool("processed"),
			StartDate: a.OptString("start_date"),
			EndDate:   a.OptString("end_date"),
		})
	},
	"get_payroll": func(ctx context.Context, up Upstream, a Arguments) (json.RawMessage, error) {
		return up.GetPayroll(ctx, a.String("company_id"), a.String("payroll_id"))
	},
	"list_contractors": func(ctx context.Context, up Upstream, a Arguments) (json.RawMessage, error) {
		return up.ListContractors(ctx, a.String("company_id"), gusto.Pagination{Page: a.OptInt("page"), Per: a.OptInt("per")})
	},
	"get_company": func(ctx context.Context, up Upstream, a Arguments) (json.RawMessage, error) {
		return up.GetCompany(ctx, a.String("company_id"))
	},
	"list_benefits": func(ctx context.Context, up Upstream, a Arguments) (json.RawMessage, error) {
		return up.ListBenefits(ctx, a.String("company_id"))
	},
}

// Dispatcher routes tool invocations to the upstream client. It holds no
// mutable state and is safe for concurrent use.
type Dispatcher struct {
	up       Upstream
	tools    []ToolDescriptor
	handlers map[string]handlerFunc
	logger   *slog.Logger
	observer Observer
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithObserver reports every invocation to o.
func WithObserver(o Observer) Option {
	return func(d *Dispatcher) {
		if o != nil {
			d.observer = o
		}
	}
}

// NewDispatcher builds a dispatcher over up. It fails if the catalog and the
// handler table disagree.
func NewDispatcher(up Upstream, opts ...Option) (*Dispatcher, error) {
	if up == nil {
		return nil, errors.New("tools: upstream client is nil")
	}
	d := &Dispatcher{
		up:       up,
		tools:    Catalog(),
		handlers: handlers,
		logger:   slog.Default(),
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(d)
	}
	if err := checkCatalog(d.tools, d.handlers); err != nil {
		return nil, err
	}
	return d, nil
}

func checkCatalog(tools []ToolDescriptor, table map[string]handlerFunc) error {
	seen := make(map[string]bool, len(tools))
	for _, t := range tools {
		if seen[t.Name] {
			return fmt.Errorf("tools: duplicate tool %q in catalog", t.Name)
		}
		seen[t.Name] = true
		if _, ok := table[t.Name]; !ok {
			return fmt.Errorf("tools: catalog tool %q has no handler", t.Name)
		}
		params := make(map[string]bool, len(t.Parameters))
		for _, p := range t.Parameters {
			if params[p.Name] {
				return fmt.Errorf("tools: tool %q declares parameter %q twice", t.Name, p.Name)
			}
			params[p.Name] = true
		}
	}
	for name := range table {
		if !seen[name] {
			return fmt.Errorf("tools: handler %q is not in the catalog", name)
		}
	}
	return nil
}

// Tools returns the catalog this dispatcher serves, in order.
func (d *Dispatcher) Tools() []ToolDescriptor {
	return cloneTools(d.tools)
}

// Invoke runs the named tool. It always returns a Result; errors of any kind
// become a Failure.
func (d *Dispatcher) Invoke(ctx context.Context, name string, args Arguments) (res Result) {
	id := uuid.NewString()
	start := time.Now()
	logger := d.logger.With("tool", name, "invocation_id", id)

	var err error
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tools: %s panicked: %v", name, r)
			res = Failure(err.Error())
		}
		elapsed := time.Since(start)
		d.observer.ObserveInvoke(Observation{
			Tool:      d.observedName(name),
			Duration:  elapsed,
			Success:   err == nil,
			ErrorKind: ErrorKind(err),
		})
		if err != nil {
			logger.Warn("tool call failed", "duration", elapsed, "error_kind", ErrorKind(err), "error", err)
			return
		}
		logger.Debug("tool call succeeded", "duration", elapsed)
	}()

	handler, ok := d.handlers[name]
	if !ok {
		err = &UnknownToolError{Name: name}
		return Failure(err.Error())
	}
	if args == nil {
		args = Arguments{}
	}
	payload, err := handler(ctx, d.up, args)
	if err != nil {
		return Failure(err.Error())
	}
	return Success(payload)
}

// UnknownToolLabel stands in for names outside the catalog in observations.
const UnknownToolLabel = "unknown"

func (d *Dispatcher) observedName(name string) string {
	if _, ok := d.handlers[name]; ok {
		return name
	}
	return UnknownToolLabel
}

// ErrorKind classifies err for logs and metrics. It returns "" for nil.
func ErrorKind(err error) string {
	var (
		upErr      *gusto.UpstreamError
		tErr       *gusto.TransportError
		unknownErr *UnknownToolError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &unknownErr):
		return "unknown_tool"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.As(err, &upErr):
		return "upstream"
	case errors.As(err, &tErr):
		return "transport"
	default:
		return "internal"
	}
}
