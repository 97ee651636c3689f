package user

import "time"

type User struct {
	ID        int       `db:"id"`
	Login     string    `db:"login"`
	CreatedAt time.Time `db:"created_at"`
}
