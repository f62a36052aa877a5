package models

// Student is a resident of the complex. Only id and name matter to the board.
type Student struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}
