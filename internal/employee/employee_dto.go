package employee

import "time"

// Commands and queries sent through the mediator.

type CreateEmployeeCommand struct {
	FirstName string
	LastName  string
	Email     string
	JobTitle  string
	HireDate  time.Time
	// HireDateUnparsable is set by the transport when the raw hire date
	// matched no accepted layout; HireDate is then zero.
	HireDateUnparsable bool
}

type UpdateEmployeeCommand struct {
	ID        int
	FirstName string
	LastName  string
	JobTitle  string
}

type DeleteEmployeeCommand struct {
	ID int
}

type GetEmployeesQuery struct {
	PageNumber int
	PageSize   int
	SearchTerm string
}

// EmployeeDto is the read projection returned by GetEmployeesQuery.
type EmployeeDto struct {
	ID       int       `json:"id"`
	FullName string    `json:"fullName"`
	Email    string    `json:"email"`
	JobTitle string    `json:"jobTitle"`
	HireDate time.Time `json:"hireDate"`
}

// HTTP payloads.

type CreateEmployeeRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	JobTitle  string `json:"jobTitle"`
	HireDate  string `json:"hireDate"`
}

type UpdateEmployeeRequest struct {
	ID        int    `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	JobTitle  string `json:"jobTitle"`
}

type CreateEmployeeResponse struct {
	ID int `json:"id"`
}

type ListFilter struct {
	SearchTerm string
}
