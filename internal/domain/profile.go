package domain

import "time"

const (
	MinAge         = 18
	MaxAge         = 99
	MaxPhotos      = 5
	MaxProfileTags = 10
)

type Profile struct {
	UserID      string    `json:"user_id" db:"user_id"`
	Name        string    `json:"name" db:"name"`
	Age         int       `json:"age" db:"age"`
	Bio         *string   `json:"bio" db:"bio"`
	Photos      []string  `json:"photos" db:"photos"`
	Hobbies     []string  `json:"hobbies" db:"hobbies"`
	Habits      []string  `json:"habits" db:"habits"`
	Personality []string  `json:"personality" db:"personality"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// MainPhoto returns the first photo, which the app shows on cards.
func (p *Profile) MainPhoto() *string {
	if len(p.Photos) == 0 {
		return nil
	}
	main := p.Photos[0]
	return &main
}

func (p *Profile) HasPhoto(url string) bool {
	for _, photo := range p.Photos {
		if photo == url {
			return true
		}
	}
	return false
}

func (p *Profile) RemovePhoto(url string) bool {
	for i, photo := range p.Photos {
		if photo == url {
			p.Photos = append(p.Photos[:i:i], p.Photos[i+1:]...)
			return true
		}
	}
	return false
}

// PublicProfile is what other users see next to a ride or match.
type PublicProfile struct {
	UserID    string  `json:"user_id"`
	Name      string  `json:"name"`
	Age       int     `json:"age"`
	MainPhoto *string `json:"main_photo,omitempty"`
}

func (p *Profile) Public() *PublicProfile {
	return &PublicProfile{
		UserID:    p.UserID,
		Name:      p.Name,
		Age:       p.Age,
		MainPhoto: p.MainPhoto(),
	}
}
