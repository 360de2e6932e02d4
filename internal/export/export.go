package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"gitlab.ozon.dev/pupkingeorgij/dispatch/internal/model"
)

var ErrNotArray = errors.New("payload must be a JSON array")

// WriteJSON serializes a collection pretty-printed, the same shape the file
// store writes, so an export re-imports byte-compatibly.
func WriteJSON(w io.Writer, data interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// readArray enforces the array-shape check before any record is accepted:
// a rejected import must leave the current collection untouched.
func readArray(r io.Reader) ([]byte, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}

	trimmed := strings.TrimSpace(string(raw))
	if !strings.HasPrefix(trimmed, "[") {
		return nil, ErrNotArray
	}
	return raw, nil
}

func ImportOrders(r io.Reader) ([]model.Order, error) {
	raw, err := readArray(r)
	if err != nil {
		return nil, err
	}
	var orders []model.Order
	if err := json.Unmarshal(raw, &orders); err != nil {
		return nil, fmt.Errorf("invalid orders payload: %w", err)
	}
	return orders, nil
}

func ImportEmployees(r io.Reader) ([]model.Employee, error) {
	raw, err := readArray(r)
	if err != nil {
		return nil, err
	}
	var employees []model.Employee
	if err := json.Unmarshal(raw, &employees); err != nil {
		return nil, fmt.Errorf("invalid employees payload: %w", err)
	}
	return employees, nil
}

func ImportEquipment(r io.Reader) ([]model.Equipment, error) {
	raw, err := readArray(r)
	if err != nil {
		return nil, err
	}
	var equipment []model.Equipment
	if err := json.Unmarshal(raw, &equipment); err != nil {
		return nil, fmt.Errorf("invalid equipment payload: %w", err)
	}
	return equipment, nil
}

// csvColumns is the fixed export column order.
var csvColumns = []string{
	"Order ID", "Customer", "Cargo", "Price",
	"Pickup Time", "Pickup Address", "Deliver Before Time", "Deliver Before Address",
	"Equipment Type", "Driver", "Employee", "Status",
}

// OrdersCSV writes one row per order in the given order. Every field is
// double-quoted, which is why this does not go through encoding/csv: that
// writer only quotes fields that need it.
func OrdersCSV(w io.Writer, orders []model.Order, resolve func(id string) string) error {
	if err := writeRow(w, csvColumns); err != nil {
		return err
	}

	for _, o := range orders {
		row := []string{
			o.ID,
			o.Customer,
			o.CargoDescription,
			strconv.FormatFloat(o.Price, 'f', 2, 64),
			formatTime(o.PickupTime),
			o.PickupAddress,
			formatTime(o.DeliverBeforeTime),
			o.DeliverBeforeAddress,
			o.EquipmentType,
			resolve(o.DriverID),
			resolve(o.EmployeeID),
			string(o.Status),
		}
		if err := writeRow(w, row); err != nil {
			return err
		}
	}
	return nil
}

// CSVFilename names the download after the export date.
func CSVFilename(now time.Time) string {
	return "orders_" + now.Format("2006-01-02") + ".csv"
}

func writeRow(w io.Writer, fields []string) error {
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
	}
	_, err := io.WriteString(w, strings.Join(quoted, ",")+"\n")
	return err
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
