package datastore

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/caseflow/caseflow/pkg/engine"
	"github.com/caseflow/caseflow/pkg/telemetry"
	"github.com/google/uuid"
)

// ItemType describes how an item's string value should be interpreted.
type ItemType string

const (
	// ItemTypeString is plain text.
	ItemTypeString ItemType = "string"

	// ItemTypeNumber is a numeric value carried as text.
	ItemTypeNumber ItemType = "number"

	// ItemTypeBoolean is "true" or "false" carried as text.
	ItemTypeBoolean ItemType = "boolean"

	// ItemTypeJSON is an embedded JSON document carried as text.
	ItemTypeJSON ItemType = "json"
)

// Validate checks if the item type is valid.
func (t ItemType) Validate() error {
	switch t {
	case ItemTypeString, ItemTypeNumber, ItemTypeBoolean, ItemTypeJSON:
		return nil
	default:
		return fmt.Errorf("invalid item type: %s", t)
	}
}

// Item is one named piece of test data. Values are always carried as
// strings; Type is an interpretation hint for consumers.
type Item struct {
	// ID is the item identifier.
	ID string `json:"id" yaml:"id"`

	// Name is the item name, unique within its dataset. It is the item
	// part of a ${dataset.item} reference.
	Name string `json:"name" yaml:"name"`

	// Value is the item value.
	Value string `json:"value" yaml:"value"`

	// Type is the value interpretation hint. Defaults to string.
	Type ItemType `json:"type,omitempty" yaml:"type,omitempty"`

	// Description describes the item.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Dataset is a named collection of items.
type Dataset struct {
	// ID is the dataset identifier.
	ID string `json:"id" yaml:"id"`

	// Name is the dataset name, unique across the store. It is the
	// dataset part of a ${dataset.item} reference.
	Name string `json:"name" yaml:"name"`

	// Description describes the dataset.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Items are the dataset's items.
	Items []Item `json:"items" yaml:"items"`

	// CreatedAt is when the dataset was created.
	CreatedAt time.Time `json:"created_at,omitzero" yaml:"created_at,omitempty"`

	// UpdatedAt is when the dataset was last modified.
	UpdatedAt time.Time `json:"updated_at,omitzero" yaml:"updated_at,omitempty"`
}

// clone returns a deep copy so callers never alias store-owned state.
func (d *Dataset) clone() Dataset {
	out := *d
	out.Items = make([]Item, len(d.Items))
	copy(out.Items, d.Items)
	return out
}

// item returns a pointer to the named item, or nil.
func (d *Dataset) item(name string) *Item {
	for i := range d.Items {
		if d.Items[i].Name == name {
			return &d.Items[i]
		}
	}
	return nil
}

// Store is the in-memory dataset store. It implements engine.DataSource
// and is safe for concurrent use.
type Store struct {
	// mu protects the store state.
	mu sync.RWMutex

	// datasets maps dataset ID to dataset.
	datasets map[string]*Dataset

	// byName maps dataset name to dataset ID.
	byName map[string]string

	logger  *telemetry.Logger
	metrics *telemetry.Metrics
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger injects the logger used for store events.
func WithLogger(logger *telemetry.Logger) StoreOption {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics injects the metrics collector.
func WithMetrics(metrics *telemetry.Metrics) StoreOption {
	return func(s *Store) {
		s.metrics = metrics
	}
}

// NewStore creates an empty dataset store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		datasets: make(map[string]*Dataset),
		byName:   make(map[string]string),
		logger:   telemetry.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateDataset creates a new empty dataset and returns a copy of it.
func (s *Store) CreateDataset(name, description string) (Dataset, error) {
	if name == "" {
		return Dataset{}, engine.NewResolutionError("dataset name is empty", nil).
			WithCode(engine.ErrCodeValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byName[name]; exists {
		return Dataset{}, engine.NewResolutionError("dataset already exists", nil).
			WithCode(engine.ErrCodeValidation).
			WithReference(name)
	}

	now := time.Now()
	ds := &Dataset{
		ID:          uuid.New().String(),
		Name:        name,
		Description: description,
		Items:       []Item{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.datasets[ds.ID] = ds
	s.byName[name] = ds.ID

	s.logger.Debugf("dataset %s created", name)
	return ds.clone(), nil
}

// GetDataset returns a copy of the dataset with the given ID.
func (s *Store) GetDataset(id string) (Dataset, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ds, exists := s.datasets[id]
	if !exists {
		return Dataset{}, false
	}
	return ds.clone(), true
}

// GetDatasetByName returns a copy of the dataset with the given name.
func (s *Store) GetDatasetByName(name string) (Dataset, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, exists := s.byName[name]
	if !exists {
		return Dataset{}, false
	}
	return s.datasets[id].clone(), true
}

// ListDatasets returns copies of all datasets sorted by name.
func (s *Store) ListDatasets() []Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Dataset, 0, len(s.datasets))
	for _, ds := range s.datasets {
		out = append(out, ds.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// DeleteDataset removes the dataset with the given ID. It returns false
// when no such dataset exists.
func (s *Store) DeleteDataset(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	ds, exists := s.datasets[id]
	if !exists {
		return false
	}
	delete(s.byName, ds.Name)
	delete(s.datasets, id)
	s.logger.Debugf("dataset %s deleted", ds.Name)
	return true
}

// AddItem adds an item to a dataset. Item names are unique within their
// dataset; an empty Type defaults to string.
func (s *Store) AddItem(datasetID string, item Item) error {
	if item.Name == "" {
		return engine.NewResolutionError("item name is empty", nil).
			WithCode(engine.ErrCodeValidation)
	}
	if item.Type == "" {
		item.Type = ItemTypeString
	}
	if err := item.Type.Validate(); err != nil {
		return engine.NewResolutionError("invalid item type", err).
			WithCode(engine.ErrCodeValidation)
	}
	if item.ID == "" {
		item.ID = uuid.New().String()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ds, exists := s.datasets[datasetID]
	if !exists {
		return engine.NewResolutionError("dataset not found", nil).
			WithCode(engine.ErrCodeUnknownDataset).
			WithReference(datasetID)
	}
	if ds.item(item.Name) != nil {
		return engine.NewResolutionError("item already exists", nil).
			WithCode(engine.ErrCodeValidation).
			WithReference(ds.Name + "." + item.Name)
	}

	ds.Items = append(ds.Items, item)
	ds.UpdatedAt = time.Now()
	return nil
}

// UpsertItem adds an item or replaces the value, type and description of
// an existing item with the same name.
func (s *Store) UpsertItem(datasetID string, item Item) error {
	if item.Name == "" {
		return engine.NewResolutionError("item name is empty", nil).
			WithCode(engine.ErrCodeValidation)
	}
	if item.Type == "" {
		item.Type = ItemTypeString
	}
	if err := item.Type.Validate(); err != nil {
		return engine.NewResolutionError("invalid item type", err).
			WithCode(engine.ErrCodeValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ds, exists := s.datasets[datasetID]
	if !exists {
		return engine.NewResolutionError("dataset not found", nil).
			WithCode(engine.ErrCodeUnknownDataset).
			WithReference(datasetID)
	}

	if existing := ds.item(item.Name); existing != nil {
		existing.Value = item.Value
		existing.Type = item.Type
		existing.Description = item.Description
	} else {
		if item.ID == "" {
			item.ID = uuid.New().String()
		}
		ds.Items = append(ds.Items, item)
	}
	ds.UpdatedAt = time.Now()
	return nil
}

// GetItemByName returns a copy of the named item from a dataset.
func (s *Store) GetItemByName(datasetID, itemName string) (Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ds, exists := s.datasets[datasetID]
	if !exists {
		return Item{}, engine.NewResolutionError("dataset not found", nil).
			WithCode(engine.ErrCodeUnknownDataset).
			WithReference(datasetID)
	}
	item := ds.item(itemName)
	if item == nil {
		return Item{}, engine.NewResolutionError("item not found", nil).
			WithCode(engine.ErrCodeUnknownItem).
			WithReference(ds.Name + "." + itemName)
	}
	return *item, nil
}

// RemoveItemByName removes the named item from a dataset. It returns
// false when the dataset or the item does not exist.
func (s *Store) RemoveItemByName(datasetID, itemName string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	ds, exists := s.datasets[datasetID]
	if !exists {
		return false
	}
	for i := range ds.Items {
		if ds.Items[i].Name == itemName {
			ds.Items = append(ds.Items[:i], ds.Items[i+1:]...)
			ds.UpdatedAt = time.Now()
			return true
		}
	}
	return false
}

// Count returns the number of datasets.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.datasets)
}
