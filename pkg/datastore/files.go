package datastore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// datasetFile is the on-disk shape of a dataset. IDs and timestamps are
// store-assigned and never round-trip through files.
type datasetFile struct {
	Name        string     `json:"name" yaml:"name"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Items       []itemFile `json:"items" yaml:"items"`
}

type itemFile struct {
	Name        string      `json:"name" yaml:"name"`
	Value       scalarValue `json:"value" yaml:"value"`
	Type        ItemType    `json:"type,omitempty" yaml:"type,omitempty"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty"`
}

// scalarValue accepts a raw string, number or boolean and carries it as
// text, so data files can write `value: 42` without quoting.
type scalarValue string

func (v *scalarValue) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = scalarValue(s)
		return nil
	}
	// Numbers and booleans keep their literal text.
	*v = scalarValue(strings.TrimSpace(string(data)))
	return nil
}

func (v *scalarValue) UnmarshalYAML(node *yaml.Node) error {
	*v = scalarValue(node.Value)
	return nil
}

// inferType maps a raw scalar to an item type when none is declared.
func (f itemFile) inferType() ItemType {
	if f.Type != "" {
		return f.Type
	}
	return ItemTypeString
}

// ImportFile loads datasets from a JSON or YAML file into the store.
// A dataset whose name already exists is merged: its items are upserted
// by name. Returns the names of the imported datasets.
func (s *Store) ImportFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading dataset file: %w", err)
	}

	var files []datasetFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		// Accept both a single dataset object and a list.
		if err := json.Unmarshal(data, &files); err != nil {
			var single datasetFile
			if err := json.Unmarshal(data, &single); err != nil {
				return nil, fmt.Errorf("parsing JSON dataset file %s: %w", path, err)
			}
			files = []datasetFile{single}
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &files); err != nil {
			var single datasetFile
			if err := yaml.Unmarshal(data, &single); err != nil {
				return nil, fmt.Errorf("parsing YAML dataset file %s: %w", path, err)
			}
			files = []datasetFile{single}
		}
	default:
		return nil, fmt.Errorf("unsupported dataset file extension: %s", path)
	}

	var names []string
	for _, f := range files {
		if f.Name == "" {
			return names, fmt.Errorf("dataset in %s has no name", path)
		}
		if err := s.importDataset(f); err != nil {
			return names, err
		}
		names = append(names, f.Name)
	}

	s.logger.Infof("imported %d datasets from %s", len(names), path)
	return names, nil
}

// importDataset merges one parsed dataset into the store.
func (s *Store) importDataset(f datasetFile) error {
	ds, exists := s.GetDatasetByName(f.Name)
	if !exists {
		created, err := s.CreateDataset(f.Name, f.Description)
		if err != nil {
			return err
		}
		ds = created
	}

	for _, item := range f.Items {
		err := s.UpsertItem(ds.ID, Item{
			Name:        item.Name,
			Value:       string(item.Value),
			Type:        item.inferType(),
			Description: item.Description,
		})
		if err != nil {
			return fmt.Errorf("importing item %s.%s: %w", f.Name, item.Name, err)
		}
	}
	return nil
}

// ImportDir imports every JSON and YAML file in a directory,
// non-recursively. Files that fail to parse are skipped with a warning so
// one bad file cannot block the rest.
func (s *Store) ImportDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading dataset directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !isDatasetFile(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if _, err := s.ImportFile(path); err != nil {
			s.logger.WithError(err).Warnf("skipping dataset file %s", path)
		}
	}
	return nil
}

// ExportFile writes a dataset to a JSON or YAML file, chosen by
// extension.
func (s *Store) ExportFile(datasetID, path string) error {
	ds, exists := s.GetDataset(datasetID)
	if !exists {
		return fmt.Errorf("dataset %s not found", datasetID)
	}

	f := datasetFile{
		Name:        ds.Name,
		Description: ds.Description,
		Items:       make([]itemFile, 0, len(ds.Items)),
	}
	for _, item := range ds.Items {
		f.Items = append(f.Items, itemFile{
			Name:        item.Name,
			Value:       scalarValue(item.Value),
			Type:        item.Type,
			Description: item.Description,
		})
	}

	var data []byte
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err = json.MarshalIndent(f, "", "  ")
	case ".yaml", ".yml":
		data, err = yaml.Marshal(f)
	default:
		return fmt.Errorf("unsupported dataset file extension: %s", path)
	}
	if err != nil {
		return fmt.Errorf("encoding dataset %s: %w", ds.Name, err)
	}

	return os.WriteFile(path, data, 0644)
}

func isDatasetFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
