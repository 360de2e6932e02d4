package registry

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/dispatch/internal/model"
	"gitlab.ozon.dev/pupkingeorgij/dispatch/internal/store"
)

type EmployeeInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Role  string `json:"role"`
}

type Employees struct {
	mu     sync.RWMutex
	store  store.Store
	logger *zap.Logger

	employees []model.Employee

	timeNow func() time.Time
	newID   func() string
}

func NewEmployees(st store.Store, logger *zap.Logger) *Employees {
	r := &Employees{
		store:   st,
		logger:  logger,
		timeNow: time.Now,
		newID:   uuid.NewString,
	}
	r.reload()
	return r
}

func (r *Employees) reload() {
	r.mu.Lock()
	defer r.mu.Unlock()

	var employees []model.Employee
	if err := r.store.Load(store.CollectionEmployees, &employees); err != nil {
		r.logger.Error("failed to load employees", zap.Error(err))
	}
	r.employees = employees
}

func (r *Employees) Refresh(collection string) {
	if collection == store.CollectionEmployees {
		r.reload()
	}
}

func (r *Employees) Create(in EmployeeInput) (model.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	employee := model.Employee{
		ID:        r.newID(),
		Name:      in.Name,
		Email:     in.Email,
		Phone:     in.Phone,
		Role:      in.Role,
		CreatedAt: r.timeNow().UTC(),
	}

	r.employees = append(r.employees, employee)
	if err := r.persist(); err != nil {
		return model.Employee{}, err
	}
	return employee, nil
}

func (r *Employees) Update(id string, in EmployeeInput) (model.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return model.Employee{}, ErrEmployeeNotFound
	}

	employee := &r.employees[i]
	employee.Name = in.Name
	employee.Email = in.Email
	employee.Phone = in.Phone
	employee.Role = in.Role

	if err := r.persist(); err != nil {
		return model.Employee{}, err
	}
	return *employee, nil
}

// Delete removes the employee. Orders referencing the id keep their dangling
// reference; it resolves to Unknown at display time.
func (r *Employees) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return ErrEmployeeNotFound
	}

	r.employees = append(r.employees[:i], r.employees[i+1:]...)
	return r.persist()
}

func (r *Employees) Get(id string) (model.Employee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.indexOf(id)
	if i < 0 {
		return model.Employee{}, ErrEmployeeNotFound
	}
	return r.employees[i], nil
}

func (r *Employees) List() []model.Employee {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Employee, len(r.employees))
	copy(out, r.employees)
	return out
}

func (r *Employees) Drivers() []model.Employee {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var drivers []model.Employee
	for _, e := range r.employees {
		if e.IsDriver() {
			drivers = append(drivers, e)
		}
	}
	return drivers
}

// NameOf resolves an employee reference for display. Empty ids resolve to
// the empty string, dangling ids to UnknownName.
func (r *Employees) NameOf(id string) string {
	if id == "" {
		return ""
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if i := r.indexOf(id); i >= 0 {
		return r.employees[i].Name
	}
	return model.UnknownName
}

func (r *Employees) Replace(employees []model.Employee) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.employees = make([]model.Employee, len(employees))
	copy(r.employees, employees)
	return r.persist()
}

func (r *Employees) indexOf(id string) int {
	for i := range r.employees {
		if r.employees[i].ID == id {
			return i
		}
	}
	return -1
}

func (r *Employees) persist() error {
	if err := r.store.Save(store.CollectionEmployees, r.employees); err != nil {
		return fmt.Errorf("failed to save employees: %w", err)
	}
	return nil
}
