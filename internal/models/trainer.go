package models

// Trainer is a directory entry for someone who can own availability.
type Trainer struct {
	ID          string   `db:"id" json:"id"`
	DisplayName string   `db:"display_name" json:"display_name"`
	Skills      []string `db:"-" json:"skills"`
	Active      bool     `db:"active" json:"active"`
}

// QualifiedOwner is the minimal projection returned by the trainer directory.
type QualifiedOwner struct {
	ID          string `db:"id" json:"id"`
	DisplayName string `db:"display_name" json:"display_name"`
}
