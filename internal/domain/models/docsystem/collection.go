package docsystem

import (
	"time"
)

type Collection struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Metadata  Metadata  `json:"metadata" db:"metadata"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// CollectionWithNodes is a collection plus its node rows (snapshots omitted).
type CollectionWithNodes struct {
	Collection
	Nodes []Node `json:"nodes"`
}
