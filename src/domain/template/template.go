package template

import "time"

const (
	DefaultName     = "hello_world"
	DefaultLanguage = "en_US"
)

type Template struct {
	ID          int
	Name        string
	Language    string
	Category    string
	Parameters  int
	PreviewText string
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
