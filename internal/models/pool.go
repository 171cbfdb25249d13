package models

// PoolID identifies an external text pool ("theme")
type PoolID string

// Pool is an externally stored list of texts plus the wildcards it contributes
type Pool struct {
	ID          PoolID     `yaml:"id"`
	Name        string     `yaml:"name,omitempty"`
	Description string     `yaml:"description,omitempty"`
	Text        []string   `yaml:"text"`
	Wildcards   []Wildcard `yaml:"wildcards,omitempty"`

	FilePath string `yaml:"-"`
}

// EmptyPool is what a pool degrades to when it cannot be fetched
func EmptyPool(id PoolID) *Pool {
	return &Pool{ID: id, Text: []string{}, Wildcards: []Wildcard{}}
}
