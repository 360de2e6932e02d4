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

type EquipmentInput struct {
	Name         string                `json:"name"`
	Type         string                `json:"type"`
	LicensePlate string                `json:"license_plate"`
	Status       model.EquipmentStatus `json:"status"`
	Notes        string                `json:"notes"`
}

type Equipment struct {
	mu     sync.RWMutex
	store  store.Store
	logger *zap.Logger

	equipment []model.Equipment

	timeNow func() time.Time
	newID   func() string
}

func NewEquipment(st store.Store, logger *zap.Logger) *Equipment {
	r := &Equipment{
		store:   st,
		logger:  logger,
		timeNow: time.Now,
		newID:   uuid.NewString,
	}
	r.reload()
	return r
}

func (r *Equipment) reload() {
	r.mu.Lock()
	defer r.mu.Unlock()

	var equipment []model.Equipment
	if err := r.store.Load(store.CollectionEquipment, &equipment); err != nil {
		r.logger.Error("failed to load equipment", zap.Error(err))
	}
	r.equipment = equipment
}

func (r *Equipment) Refresh(collection string) {
	if collection == store.CollectionEquipment {
		r.reload()
	}
}

func (r *Equipment) Create(in EquipmentInput) (model.Equipment, error) {
	status := in.Status
	if status == "" {
		status = model.EquipmentStatusAvailable
	}
	if !model.ValidEquipmentStatus(status) {
		return model.Equipment{}, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	item := model.Equipment{
		ID:           r.newID(),
		Name:         in.Name,
		Type:         in.Type,
		LicensePlate: in.LicensePlate,
		Status:       status,
		Notes:        in.Notes,
		CreatedAt:    r.timeNow().UTC(),
	}

	r.equipment = append(r.equipment, item)
	if err := r.persist(); err != nil {
		return model.Equipment{}, err
	}
	return item, nil
}

func (r *Equipment) Update(id string, in EquipmentInput) (model.Equipment, error) {
	if in.Status != "" && !model.ValidEquipmentStatus(in.Status) {
		return model.Equipment{}, fmt.Errorf("%w: %q", ErrInvalidStatus, in.Status)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return model.Equipment{}, ErrEquipmentNotFound
	}

	item := &r.equipment[i]
	item.Name = in.Name
	item.Type = in.Type
	item.LicensePlate = in.LicensePlate
	if in.Status != "" {
		item.Status = in.Status
	}
	item.Notes = in.Notes

	if err := r.persist(); err != nil {
		return model.Equipment{}, err
	}
	return *item, nil
}

func (r *Equipment) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return ErrEquipmentNotFound
	}

	r.equipment = append(r.equipment[:i], r.equipment[i+1:]...)
	return r.persist()
}

func (r *Equipment) Get(id string) (model.Equipment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.indexOf(id)
	if i < 0 {
		return model.Equipment{}, ErrEquipmentNotFound
	}
	return r.equipment[i], nil
}

func (r *Equipment) List() []model.Equipment {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Equipment, len(r.equipment))
	copy(out, r.equipment)
	return out
}

func (r *Equipment) Replace(equipment []model.Equipment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.equipment = make([]model.Equipment, len(equipment))
	copy(r.equipment, equipment)
	return r.persist()
}

func (r *Equipment) indexOf(id string) int {
	for i := range r.equipment {
		if r.equipment[i].ID == id {
			return i
		}
	}
	return -1
}

func (r *Equipment) persist() error {
	if err := r.store.Save(store.CollectionEquipment, r.equipment); err != nil {
		return fmt.Errorf("failed to save equipment: %w", err)
	}
	return nil
}
