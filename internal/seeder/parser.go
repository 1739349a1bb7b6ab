package seeder

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alexivanou/foodmap-api/internal/config"
	"github.com/alexivanou/foodmap-api/internal/model"
	"gopkg.in/yaml.v3"
)

// seedFile is the on-disk layout of the restaurant catalog
type seedFile struct {
	Restaurants []seedRestaurant `yaml:"restaurants"`
}

type seedRestaurant struct {
	ID      string   `yaml:"id"`
	Name    string   `yaml:"name"`
	Address string   `yaml:"address"`
	Cuisine string   `yaml:"cuisine"`
	Images  []string `yaml:"images"`
	// Location is [lng, lat]; omitted for restaurants without a map position
	Location []float64       `yaml:"location"`
	Menu     []model.MenuItem `yaml:"menu"`
}

// Parser reads restaurant seed data
type Parser struct {
	dataFile  string
	batchSize int
}

// NewParser creates a new parser instance with config
func NewParser(seederCfg config.SeederConfig) *Parser {
	return &Parser{
		dataFile:  seederCfg.DataFile,
		batchSize: seederCfg.BatchSize,
	}
}

// ParseRestaurants reads the configured data file. A .zip archive is
// accepted and its first .yaml/.yml entry is used.
func (p *Parser) ParseRestaurants() ([]model.Restaurant, error) {
	if strings.HasSuffix(p.dataFile, ".zip") {
		return p.parseFromZip(p.dataFile)
	}

	file, err := os.Open(p.dataFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", p.dataFile, err)
	}
	defer file.Close()

	return Parse(file)
}

func (p *Parser) parseFromZip(zipPath string) ([]model.Restaurant, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open zip: %w", err)
	}
	defer r.Close()

	for _, f := range r.File {
		if strings.HasSuffix(f.Name, ".yaml") || strings.HasSuffix(f.Name, ".yml") {
			rc, err := f.Open()
			if err != nil {
				return nil, fmt.Errorf("failed to open file in zip: %w", err)
			}
			defer rc.Close()
			return Parse(rc)
		}
	}

	return nil, errors.New("no yaml file found in zip")
}

// Process parses the data file and hands restaurants to callback in
// batches of the configured size.
func (p *Parser) Process(callback func(batch []model.Restaurant) error) (int, error) {
	restaurants, err := p.ParseRestaurants()
	if err != nil {
		return 0, err
	}

	batchSize := p.batchSize
	if batchSize <= 0 {
		batchSize = 100
	}

	for start := 0; start < len(restaurants); start += batchSize {
		end := min(start+batchSize, len(restaurants))
		if err := callback(restaurants[start:end]); err != nil {
			return start, fmt.Errorf("batch callback error: %w", err)
		}
	}
	return len(restaurants), nil
}

// Parse decodes and validates a restaurant catalog
func Parse(r io.Reader) ([]model.Restaurant, error) {
	var file seedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to decode seed file: %w", err)
	}

	restaurants := make([]model.Restaurant, 0, len(file.Restaurants))
	for i, sr := range file.Restaurants {
		rest, err := sr.toModel()
		if err != nil {
			return nil, fmt.Errorf("restaurant #%d (%q): %w", i+1, sr.Name, err)
		}
		restaurants = append(restaurants, rest)
	}
	return restaurants, nil
}

func (sr seedRestaurant) toModel() (model.Restaurant, error) {
	switch {
	case strings.TrimSpace(sr.Name) == "":
		return model.Restaurant{}, errors.New("name is required")
	case strings.TrimSpace(sr.Address) == "":
		return model.Restaurant{}, errors.New("address is required")
	case strings.TrimSpace(sr.Cuisine) == "":
		return model.Restaurant{}, errors.New("cuisine is required")
	}

	rest := model.Restaurant{
		ID:      sr.ID,
		Name:    sr.Name,
		Address: sr.Address,
		Cuisine: sr.Cuisine,
		Images:  model.StringList(sr.Images),
		Menu:    sr.Menu,
	}

	if sr.Location != nil {
		point := &model.GeoPoint{Type: "Point", Coordinates: sr.Location}
		if err := point.Validate(); err != nil {
			return model.Restaurant{}, err
		}
		rest.Location = point
	}

	for _, item := range sr.Menu {
		if err := item.Validate(); err != nil {
			return model.Restaurant{}, err
		}
	}
	return rest, nil
}
