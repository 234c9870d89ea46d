package erp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/marcus-qen/erplite/internal/permissions"
)

// Employees is the staff endpoint. Registration goes through the public
// register endpoint rather than the collection.
type Employees struct {
	*Resource[Employee]
}

// NewEmployees binds the employees endpoint.
func NewEmployees(api Requester) *Employees {
	return &Employees{Resource: NewResource[Employee](api, EmployeesPath)}
}

// List fetches one page. Some backends answer with a bare array instead of a
// page; that is wrapped into a single page.
func (e *Employees) List(ctx context.Context, page int, search string) (*Page[Employee], error) {
	var raw json.RawMessage
	if err := e.api.Get(ctx, e.listPath(page, search), &raw); err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []Employee
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, fmt.Errorf("failed to parse employee list: %w", err)
		}
		return &Page[Employee]{Count: len(list), Results: list}, nil
	}

	out := Page[Employee]{Results: []Employee{}}
	if len(trimmed) == 0 {
		return &out, nil
	}
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return nil, fmt.Errorf("failed to parse employee page: %w", err)
	}
	return &out, nil
}

// Register creates a staff account.
func (e *Employees) Register(ctx context.Context, emp NewEmployee) (*Employee, error) {
	var out Employee
	if err := e.api.Post(ctx, RegisterPath, emp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ChangePassword replaces an employee's password.
func (e *Employees) ChangePassword(ctx context.Context, id int64, oldPassword, newPassword string) error {
	body := map[string]string{
		"old_password": oldPassword,
		"new_password": newPassword,
	}
	return e.api.Post(ctx, e.itemPath(id)+changePassword, body, nil)
}

// Permissions returns the employee's granular permissions as shown on the
// management screen, where an unset capability counts as granted.
func (e *Employees) Permissions(ctx context.Context, id int64) (permissions.Granular, error) {
	emp, err := e.Get(ctx, id)
	if err != nil {
		return permissions.Granular{}, err
	}
	return permissions.ParseGranular(emp.UIPermissions, permissions.AllowByDefault), nil
}

// SetPermissions stores g as the employee's permission blob.
func (e *Employees) SetPermissions(ctx context.Context, id int64, g permissions.Granular) (*Employee, error) {
	return e.Update(ctx, id, map[string]string{"ui_permissoes": g.Encode()})
}
