package vocab

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Vocabulary is a named keyword set, usually one per SQL dialect.
type Vocabulary struct {
	Name        string
	Description string
	Keywords    Set
}

var (
	vocabMu      sync.RWMutex
	vocabularies = make(map[string]*Vocabulary)
)

// UnknownVocabularyError is returned when a vocabulary name is not registered.
type UnknownVocabularyError struct {
	Name      string
	Available []string
}

func (e *UnknownVocabularyError) Error() string {
	return fmt.Sprintf("unknown dialect %q (available: %s)", e.Name, strings.Join(e.Available, ", "))
}

// Register adds v to the registry, replacing any vocabulary with the same name.
func Register(v *Vocabulary) {
	vocabMu.Lock()
	defer vocabMu.Unlock()
	vocabularies[strings.ToLower(v.Name)] = v
}

// Get returns a vocabulary by case-insensitive name.
func Get(name string) (*Vocabulary, bool) {
	vocabMu.RLock()
	defer vocabMu.RUnlock()
	v, ok := vocabularies[strings.ToLower(name)]
	return v, ok
}

// Lookup returns a vocabulary by name or an UnknownVocabularyError.
func Lookup(name string) (*Vocabulary, error) {
	if v, ok := Get(name); ok {
		return v, nil
	}
	return nil, &UnknownVocabularyError{Name: name, Available: List()}
}

// List returns all registered vocabulary names (sorted).
func List() []string {
	vocabMu.RLock()
	defer vocabMu.RUnlock()
	names := make([]string, 0, len(vocabularies))
	for name := range vocabularies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
