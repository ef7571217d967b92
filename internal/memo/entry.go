package memo

// Entry is a single stored command.
// All fields are immutable once the store has assigned them.
type Entry struct {
	// ID is assigned by the store on insert and never reused
	ID int64 `json:"id"`

	// Cmd is the literal command text
	Cmd string `json:"cmd"`

	// CreatedAt is the Unix timestamp of the insert
	CreatedAt int64 `json:"created_at"`
}

// Item is an entry as seen in a listing, addressed by its relative index.
// Index 1 is the most recent entry of the full log, regardless of any filter.
type Item struct {
	Index     int    `json:"index"`
	ID        int64  `json:"id"`
	Cmd       string `json:"cmd"`
	CreatedAt int64  `json:"created_at"`
}

// ToItem pairs the entry with its relative index.
func (e Entry) ToItem(index int) Item {
	return Item{
		Index:     index,
		ID:        e.ID,
		Cmd:       e.Cmd,
		CreatedAt: e.CreatedAt,
	}
}
