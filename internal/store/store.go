package store

// Collection keys understood by the store. Each key maps to one serialized
// record list.
const (
	CollectionOrders    = "orders"
	CollectionEmployees = "employees"
	CollectionEquipment = "equipment"
	CollectionSchedule  = "schedule"
	CollectionHistory   = "order_history"
)

// Event signals that a collection changed, either through this process or
// externally (another process writing the same data directory).
type Event struct {
	Collection string
}

// Store is a key-value mapping from collection name to a serialized record
// list. Load tolerates missing or corrupt data: dest is left at the default
// the caller supplied, the failure is logged and nil is returned.
type Store interface {
	Load(collection string, dest interface{}) error
	Save(collection string, data interface{}) error
	Subscribe() <-chan Event
	Close() error
}
