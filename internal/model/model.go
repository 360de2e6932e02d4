package model

import "time"

type OrderStatus string

const (
	OrderStatusActive   OrderStatus = "active"
	OrderStatusFinished OrderStatus = "finished"
)

func ValidOrderStatus(s OrderStatus) bool {
	return s == OrderStatusActive || s == OrderStatusFinished
}

// Order is a transport job. DriverID and EmployeeID are weak references into
// the employee collection: they may dangle after an employee is deleted and
// are resolved to UnknownName for display.
type Order struct {
	ID                   string      `json:"id"`
	Customer             string      `json:"customer"`
	CargoDescription     string      `json:"cargo_description"`
	Price                float64     `json:"price"`
	PickupTime           time.Time   `json:"pickup_time"`
	PickupAddress        string      `json:"pickup_address"`
	DeliverBeforeTime    time.Time   `json:"deliver_before_time"`
	DeliverBeforeAddress string      `json:"deliver_before_address"`
	EquipmentType        string      `json:"equipment_type"`
	DriverID             string      `json:"driver_id,omitempty"`
	EmployeeID           string      `json:"employee_id,omitempty"`
	Status               OrderStatus `json:"status"`
	CreatedAt            time.Time   `json:"created_at"`
	UpdatedAt            time.Time   `json:"updated_at"`
}

// RoleDriver marks an employee as assignable to orders. There is no separate
// driver entity.
const RoleDriver = "Driver"

// UnknownName is the display value for a dangling employee reference.
const UnknownName = "Unknown"

type Employee struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Role      string    `json:"role,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (e Employee) IsDriver() bool {
	return e.Role == RoleDriver
}

type EquipmentStatus string

const (
	EquipmentStatusAvailable   EquipmentStatus = "available"
	EquipmentStatusInUse       EquipmentStatus = "in-use"
	EquipmentStatusMaintenance EquipmentStatus = "maintenance"
	EquipmentStatusRetired     EquipmentStatus = "retired"
)

func ValidEquipmentStatus(s EquipmentStatus) bool {
	switch s {
	case EquipmentStatusAvailable, EquipmentStatusInUse, EquipmentStatusMaintenance, EquipmentStatusRetired:
		return true
	}
	return false
}

type Equipment struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Type         string          `json:"type"`
	LicensePlate string          `json:"license_plate,omitempty"`
	Status       EquipmentStatus `json:"status"`
	Notes        string          `json:"notes,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// ScheduledOrder binds an order to exactly one calendar cell. Date carries no
// time component ("2006-01-02"); Slot is a half-hour label ("HH:MM").
type ScheduledOrder struct {
	OrderID string `json:"order_id"`
	Date    string `json:"date"`
	Slot    string `json:"slot"`
}

type HistoryEntry struct {
	OrderID   string    `json:"order_id"`
	Status    string    `json:"status"`
	ChangedAt time.Time `json:"changed_at"`
}
