// Package reasons stores the discount reason presets offered at checkout.
package reasons

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ginjaninja78/gacha-pos/internal/logger"
	"github.com/ginjaninja78/gacha-pos/pkg/utils"
)

// Store is a JSON array of reason strings.
type Store struct {
	path string
	log  logger.Logger
}

// NewStore returns a store backed by path.
func NewStore(path string, log logger.Logger) *Store {
	if log == nil {
		log = logger.Nop()
	}
	return &Store{path: path, log: log}
}

// List returns the presets in insertion order. A missing file is empty.
func (s *Store) List() ([]string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read reasons: %w", err)
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to parse reasons: %w", err)
	}
	return list, nil
}

// Add appends a preset. Blank and duplicate reasons are ignored and reported
// as false.
func (s *Store) Add(reason string) (bool, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return false, nil
	}
	list, err := s.List()
	if err != nil {
		return false, err
	}
	for _, r := range list {
		if r == reason {
			return false, nil
		}
	}
	if err := s.save(append(list, reason)); err != nil {
		return false, err
	}
	s.log.Info("Added discount reason %q", reason)
	return true, nil
}

// Remove deletes a preset, reporting whether it existed.
func (s *Store) Remove(reason string) (bool, error) {
	list, err := s.List()
	if err != nil {
		return false, err
	}
	for i, r := range list {
		if r == reason {
			if err := s.save(append(list[:i], list[i+1:]...)); err != nil {
				return false, err
			}
			s.log.Info("Removed discount reason %q", reason)
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) save(list []string) error {
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode reasons: %w", err)
	}
	if err := utils.WriteFileAtomic(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to save reasons: %w", err)
	}
	return nil
}
