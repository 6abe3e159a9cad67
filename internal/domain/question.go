package domain

// Question is a catalog entry the due-card selector can introduce as a new card.
type Question struct {
	ID      string `json:"id" db:"id"`
	Subject string `json:"subject" db:"subject"`
}
