package tools

// ParamType is the JSON type a tool parameter accepts.
type ParamType string

const (
	TypeString  ParamType = "string"
	TypeNumber  ParamType = "number"
	TypeBoolean ParamType = "boolean"
)

// ParameterSpec describes one input parameter of a tool.
type ParameterSpec struct {
	Name        string    `json:"name"`
	Type        ParamType `json:"type"`
	Description string    `json:"description"`
	Required    bool      `json:"required"`
}

// ToolDescriptor describes one invocable tool.
type ToolDescriptor struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  []ParameterSpec `json:"parameters"`
}

// InputSchema renders the parameters as a JSON Schema object.
func (d ToolDescriptor) InputSchema() map[string]any {
	props := make(map[string]any, len(d.Parameters))
	required := make([]string, 0, len(d.Parameters))
	for _, p := range d.Parameters {
		props[p.Name] = map[string]any{
			"type":        string(p.Type),
			"description": p.Description,
		}
		if p.Required {
			required = append(required, p.Name)
		}
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

func companyID() ParameterSpec {
	return ParameterSpec{Name: "company_id", Type: TypeString, Description: "The company UUID", Required: true}
}

var catalog = []ToolDescriptor{
	{
		Name:        "list_employees",
		Description: "List all employees for a company in Gusto",
		Parameters: []ParameterSpec{
			companyID(),
			{Name: "page", Type: TypeNumber, Description: "Page number for pagination"},
			{Name: "per", Type: TypeNumber, Description: "Number of results per page (max 100)"},
		},
	},
	{
		Name:        "get_employee",
		Description: "Get details of a specific employee by ID",
		Parameters: []ParameterSpec{
			{Name: "employee_id", Type: TypeString, Description: "The employee UUID", Required: true},
		},
	},
	{
		Name:        "list_payrolls",
		Description: "List payrolls for a company, optionally filtered by date range and processing status",
		Parameters: []ParameterSpec{
			companyID(),
			{Name: "processed", Type: TypeBoolean, Description: "Filter by processed status"},
			{Name: "start_date", Type: TypeString, Description: "Start date filter (YYYY-MM-DD)"},
			{Name: "end_date", Type: TypeString, Description: "End date filter (YYYY-MM-DD)"},
		},
	},
	{
		Name:        "get_payroll",
		Description: "Get details of a specific payroll",
		Parameters: []ParameterSpec{
			companyID(),
			{Name: "payroll_id", Type: TypeString, Description: "The payroll ID or UUID", Required: true},
		},
	},
	{
		Name:        "list_contractors",
		Description: "List all contractors for a company",
		Parameters: []ParameterSpec{
			companyID(),
			{Name: "page", Type: TypeNumber, Description: "Page number for pagination"},
			{Name: "per", Type: TypeNumber, Description: "Number of results per page"},
		},
	},
	{
		Name:        "get_company",
		Description: "Get company details including locations and settings",
		Parameters:  []ParameterSpec{companyID()},
	},
	{
		Name:        "list_benefits",
		Description: "List all company benefits (health insurance, 401k, etc.)",
		Parameters:  []ParameterSpec{companyID()},
	},
}

// Catalog returns a copy of the tool catalog in its fixed order.
func Catalog() []ToolDescriptor {
	return cloneTools(catalog)
}

func cloneTools(tools []ToolDescriptor) []ToolDescriptor {
	out := make([]ToolDescriptor, len(tools))
	for i, d := range tools {
		d.Parameters = append([]ParameterSpec(nil), d.Parameters...)
		out[i] = d
	}
	return out
}
