package client

import (
	"time"

	"pdfmark/internal/domain"
)

type User struct {
	ID        int64       `json:"id"`
	Username  string      `json:"username"`
	Name      string      `json:"name,omitempty"`
	Email     string      `json:"email,omitempty"`
	Role      domain.Role `json:"role"`
	CreatedAt time.Time   `json:"created_at"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role,omitempty"`
}

type File struct {
	ID               int64      `json:"id"`
	OwnerID          int64      `json:"owner_id"`
	DisplayName      string     `json:"display_name"`
	OriginalLocation string     `json:"original_location"`
	EditedLocation   *string    `json:"edited_location,omitempty"`
	Edited           bool       `json:"edited"`
	EditorID         *int64     `json:"editor_id,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	LastEditedAt     *time.Time `json:"last_edited_at,omitempty"`
}

type Annotation struct {
	Page     int     `json:"page"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width,omitempty"`
	Height   float64 `json:"height,omitempty"`
	Text     string  `json:"text"`
	FontSize float64 `json:"font_size,omitempty"`
}

type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type EditRequest struct {
	Annotations []Annotation `json:"annotations"`
	Viewport    Viewport     `json:"viewport"`
}

type Dashboard struct {
	Message     string      `json:"message"`
	Role        domain.Role `json:"role"`
	TotalFiles  int64       `json:"total_files"`
	EditedFiles int64       `json:"edited_files"`
}

type tokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
