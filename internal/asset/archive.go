package asset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"assetdb/internal/domain"
)

// Archive format: one JSON document per asset file.
//
//	{"type":"Asset.Entity","fields":[
//	  {"name":"artFile","flags":["fileRef"],"id":"0x..."},
//	  {"name":"shaders","flags":["fileRefCollection"],"ids":["0x...","0x..."]},
//	  {"name":"children","elements":[{...}]},
//	  {"name":"notes","flags":["discard"],"value":"..."}]}

type archiveField struct {
	Name     string            `json:"name"`
	Flags    []string          `json:"flags,omitempty"`
	ID       *domain.TUID      `json:"id,omitempty"`
	IDs      []domain.TUID     `json:"ids,omitempty"`
	Elements []*archiveElement `json:"elements,omitempty"`
	Value    string            `json:"value,omitempty"`
	Values   []string          `json:"values,omitempty"`
}

type archiveElement struct {
	Type   string          `json:"type"`
	Fields []*archiveField `json:"fields,omitempty"`
}

var flagNames = map[string]FieldFlag{
	"discard":           FlagDiscard,
	"fileRef":           FlagFileRef,
	"fileRefCollection": FlagFileRefCollection,
}

// FromFile reads an asset archive from disk.
func FromFile(path string) (*Element, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading asset archive: %w", err)
	}
	var raw archiveElement
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing asset archive %s: %w", path, err)
	}
	if raw.Type == "" {
		return nil, fmt.Errorf("asset archive %s has no type", path)
	}
	return fromArchive(&raw), nil
}

// ToFile writes an asset archive, creating parent directories as needed.
func ToFile(path string, e *Element) error {
	data, err := json.MarshalIndent(toArchive(e), "", "  ")
	if err != nil {
		return fmt.Errorf("encoding asset archive: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating asset directory: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("writing asset archive: %w", err)
	}
	return nil
}

func fromArchive(raw *archiveElement) *Element {
	e := &Element{Type: raw.Type}
	for _, rf := range raw.Fields {
		f := &Field{
			Name:   rf.Name,
			IDs:    rf.IDs,
			Value:  rf.Value,
			Values: rf.Values,
		}
		if rf.ID != nil {
			f.ID = *rf.ID
		}
		for _, name := range rf.Flags {
			f.Flags |= flagNames[name]
		}
		for _, child := range rf.Elements {
			f.Elements = append(f.Elements, fromArchive(child))
		}
		e.Fields = append(e.Fields, f)
	}
	return e
}

func toArchive(e *Element) *archiveElement {
	raw := &archiveElement{Type: e.Type}
	for _, f := range e.Fields {
		rf := &archiveField{
			Name:   f.Name,
			IDs:    f.IDs,
			Value:  f.Value,
			Values: f.Values,
		}
		if f.ID != domain.TUIDNull {
			id := f.ID
			rf.ID = &id
		}
		for name, flag := range flagNames {
			if f.Flags&flag != 0 {
				rf.Flags = append(rf.Flags, name)
			}
		}
		for _, child := range f.Elements {
			rf.Elements = append(rf.Elements, toArchive(child))
		}
		raw.Fields = append(raw.Fields, rf)
	}
	return raw
}

// Loader resolves managed-root-relative paths and loads archives for the
// tracker. It implements the asset-loading side of the reflection
// collaborator.
type Loader struct {
	Root string
}

// LoadAsset loads the archive stored at the given path below the managed
// root.
func (l *Loader) LoadAsset(relPath string) (*Element, error) {
	return FromFile(filepath.Join(l.Root, filepath.FromSlash(relPath)))
}
