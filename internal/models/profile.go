// server/internal/models/profile.go
package models

import "time"

// Profile matches the document in the "profiles" collection.
type Profile struct {
	ID           string    `bson:"_id" json:"id"`
	Email        string    `bson:"email" json:"email"`
	PasswordHash string    `bson:"passwordHash" json:"-"`
	FullName     string    `bson:"fullName" json:"fullName"`
	Phone        string    `bson:"phone" json:"phone"`
	Location     string    `bson:"location" json:"location"`
	Role         Role      `bson:"role" json:"role"`
	Verified     bool      `bson:"verified" json:"verified"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt" json:"updatedAt"`
}

// PublicProfile là phần thông tin được phép hiển thị cho phía bên kia.
type PublicProfile struct {
	ID       string `bson:"_id" json:"id"`
	FullName string `bson:"fullName" json:"fullName"`
	Phone    string `bson:"phone" json:"phone"`
	Location string `bson:"location,omitempty" json:"location,omitempty"`
	Verified bool   `bson:"verified" json:"verified"`
}

// Public strips private fields from the profile.
func (p Profile) Public() PublicProfile {
	return PublicProfile{
		ID:       p.ID,
		FullName: p.FullName,
		Phone:    p.Phone,
		Location: p.Location,
		Verified: p.Verified,
	}
}
