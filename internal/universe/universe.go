// Package universe holds the sector -> tickers catalog the dashboard filters
// by. The built-in catalog covers ten sectors of large-cap US names; an
// optional YAML file replaces it entirely.
package universe

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Sector struct {
	Name    string   `yaml:"name"`
	Tickers []string `yaml:"tickers"`
}

// Universe is an ordered sector catalog. Order is user-visible: the first
// sector is the dashboard default.
type Universe struct {
	sectors []Sector
	byName  map[string][]string
}

type universeFile struct {
	Sectors []Sector `yaml:"sectors"`
}

func New(sectors []Sector) (*Universe, error) {
	if len(sectors) == 0 {
		return nil, fmt.Errorf("universe has no sectors")
	}

	byName := make(map[string][]string, len(sectors))
	for _, s := range sectors {
		if s.Name == "" {
			return nil, fmt.Errorf("universe sector with empty name")
		}
		if _, ok := byName[s.Name]; ok {
			return nil, fmt.Errorf("duplicate sector %q", s.Name)
		}
		if len(s.Tickers) == 0 {
			return nil, fmt.Errorf("sector %q has no tickers", s.Name)
		}
		for _, t := range s.Tickers {
			if t == "" {
				return nil, fmt.Errorf("sector %q has an empty ticker", s.Name)
			}
		}
		byName[s.Name] = s.Tickers
	}

	return &Universe{sectors: sectors, byName: byName}, nil
}

// Default returns the built-in catalog.
func Default() *Universe {
	u, err := New(builtinSectors)
	if err != nil {
		panic(err) // built-in catalog is static
	}
	return u
}

// LoadFile reads a catalog from a YAML file ({sectors: [{name, tickers}]}).
func LoadFile(path string) (*Universe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read universe file: %w", err)
	}

	var f universeFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse universe yaml: %w", err)
	}

	return New(f.Sectors)
}

// Sectors returns sector names in catalog order.
func (u *Universe) Sectors() []string {
	names := make([]string, 0, len(u.sectors))
	for _, s := range u.sectors {
		names = append(names, s.Name)
	}
	return names
}

// DefaultSector is the sector preselected in the dashboard.
func (u *Universe) DefaultSector() string {
	return u.sectors[0].Name
}

// Tickers returns the sector's tickers in catalog order, or false for an
// unknown sector.
func (u *Universe) Tickers(sector string) ([]string, bool) {
	tickers, ok := u.byName[sector]
	if !ok {
		return nil, false
	}
	out := make([]string, len(tickers))
	copy(out, tickers)
	return out, true
}

func (u *Universe) HasSector(sector string) bool {
	_, ok := u.byName[sector]
	return ok
}

func (u *Universe) Contains(sector, ticker string) bool {
	for _, t := range u.byName[sector] {
		if t == ticker {
			return true
		}
	}
	return false
}

// AllTickers flattens the catalog in order, dropping duplicates (a ticker
// can appear in one sector only as far as the dataset is concerned).
func (u *Universe) AllTickers() []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range u.sectors {
		for _, t := range s.Tickers {
			if seen[t] {
				continue
			}
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}
