package gusto

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
)

// Pagination carries the optional page filters shared by list endpoints.
type Pagination struct {
	Page *int
	Per  *int
}

func (p Pagination) values() url.Values {
	q := url.Values{}
	if p.Page != nil {
		q.Set("page", strconv.Itoa(*p.Page))
	}
	if p.Per != nil {
		q.Set("per", strconv.Itoa(*p.Per))
	}
	return q
}

// PayrollFilter narrows ListPayrolls. Nil fields are left out of the query.
type PayrollFilter struct {
	Processed *bool
	StartDate *string
	EndDate   *string
}

func (f PayrollFilter) values() url.Values {
	q := url.Values{}
	if f.Processed != nil {
		q.Set("processed", strconv.FormatBool(*f.Processed))
	}
	if f.StartDate != nil {
		q.Set("start_date", *f.StartDate)
	}
	if f.EndDate != nil {
		q.Set("end_date", *f.EndDate)
	}
	return q
}

// ListEmployees lists the employees of a company.
func (c *Client) ListEmployees(ctx context.Context, companyID string, p Pagination) (json.RawMessage, error) {
	return c.Get(ctx, withQuery(companyPath(companyID, "employees"), p.values()))
}

// GetEmployee fetches one employee.
func (c *Client) GetEmployee(ctx context.Context, employeeID string) (json.RawMessage, error) {
	return c.Get(ctx, "/employees/"+segment(employeeID))
}

// ListPayrolls lists a company's payrolls.
func (c *Client) ListPayrolls(ctx context.Context, companyID string, f PayrollFilter) (json.RawMessage, error) {
	return c.Get(ctx, withQuery(companyPath(companyID, "payrolls"), f.values()))
}

// GetPayroll fetches one payroll of a company.
func (c *Client) GetPayroll(ctx context.Context, companyID, payrollID string) (json.RawMessage, error) {
	return c.Get(ctx, companyPath(companyID, "payrolls", payrollID))
}

// ListContractors lists the contractors of a company.
func (c *Client) ListContractors(ctx context.Context, companyID string, p Pagination) (json.RawMessage, error) {
	return c.Get(ctx, withQuery(companyPath(companyID, "contractors"), p.values()))
}

// GetCompany fetches company details, locations and settings included.
func (c *Client) GetCompany(ctx context.Context, companyID string) (json.RawMessage, error) {
	return c.Get(ctx, companyPath(companyID))
}

// ListBenefits lists the benefits a company offers.
func (c *Client) ListBenefits(ctx context.Context, companyID string) (json.RawMessage, error) {
	return c.Get(ctx, companyPath(companyID, "company_benefits"))
}

// MissingSegment replaces an empty identifier in a request path.
const MissingSegment = "undefined"

func segment(s string) string {
	if s == "" {
		return MissingSegment
	}
	return url.PathEscape(s)
}

// companyPath builds /companies/{id}[/seg...].
func companyPath(companyID string, segments ...string) string {
	path := "/companies/" + segment(companyID)
	for _, s := range segments {
		path += "/" + segment(s)
	}
	return path
}

func withQuery(path string, q url.Values) string {
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}
