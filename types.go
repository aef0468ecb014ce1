package unireservas

import (
	"encoding/json"
	"strconv"
)

// ============================================================================
// Properties
// ============================================================================

type PropertyType string

const (
	TypeKitnet      PropertyType = "kitnet"
	TypeQuarto      PropertyType = "quarto"
	TypeApartamento PropertyType = "apartamento"
)

// Property is a rentable unit. Capacity is at least 1 and Price is never
// negative.
type Property struct {
	ID          string       `json:"id"`
	OwnerID     string       `json:"owner_id,omitempty"`
	Title       string       `json:"title"`
	Type        PropertyType `json:"type"`
	Price       float64      `json:"price"`
	Location    string       `json:"location"`
	University  string       `json:"university"`
	Distance    string       `json:"distance"`
	Images      []string     `json:"images,omitempty"`
	Amenities   []string     `json:"amenities"`
	Capacity    int          `json:"capacity"`
	Description string       `json:"description,omitempty"`
	Rating      float64      `json:"rating"`
	IsFavorited bool         `json:"is_favorited"`
	CreatedAt   string       `json:"created_at,omitempty"`
	UpdatedAt   string       `json:"updated_at,omitempty"`
	IsActive    *bool        `json:"is_active,omitempty"`
}

// Cover returns the first image URL, or "".
func (p Property) Cover() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// HasAmenity reports whether tag is among the property's amenities.
func (p Property) HasAmenity(tag string) bool {
	for _, a := range p.Amenities {
		if a == tag {
			return true
		}
	}
	return false
}

// PropertyCreate is the payload for publishing a listing. Images start empty
// and are attached later through UploadImages.
type PropertyCreate struct {
	Title       string       `json:"title"`
	Type        PropertyType `json:"type"`
	Price       float64      `json:"price"`
	Location    string       `json:"location"`
	University  string       `json:"university"`
	Distance    string       `json:"distance"`
	Amenities   []string     `json:"amenities"`
	Capacity    int          `json:"capacity"`
	Description string       `json:"description"`
	Images      []string     `json:"images"`
}

// PropertyUpdate is a partial update; nil fields are left unchanged.
type PropertyUpdate struct {
	Title       *string       `json:"title,omitempty"`
	Type        *PropertyType `json:"type,omitempty"`
	Price       *float64      `json:"price,omitempty"`
	Location    *string       `json:"location,omitempty"`
	University  *string       `json:"university,omitempty"`
	Distance    *string       `json:"distance,omitempty"`
	Amenities   []string      `json:"amenities,omitempty"`
	Capacity    *int          `json:"capacity,omitempty"`
	Description *string       `json:"description,omitempty"`
}

// PropertyPage is one page of a property listing.
type PropertyPage struct {
	Properties []Property `json:"properties"`
	Total      int        `json:"total"`
	Page       int        `json:"page"`
	PerPage    int        `json:"per_page"`
	TotalPages int        `json:"total_pages"`
}

// UnmarshalJSON accepts both the paged object and a bare array of
// properties.
func (p *PropertyPage) UnmarshalJSON(data []byte) error {
	var list []Property
	if err := json.Unmarshal(data, &list); err == nil {
		*p = PropertyPage{Properties: list, Total: len(list), Page: 1, TotalPages: 1}
		return nil
	}
	type plain PropertyPage
	var pp plain
	if err := json.Unmarshal(data, &pp); err != nil {
		return err
	}
	*p = PropertyPage(pp)
	return nil
}

// UploadFile is one file attached to a multipart upload.
type UploadFile struct {
	Name string
	Data []byte
}

type ImageUploadResult struct {
	ImageURLs []string  `json:"image_urls"`
	Property  *Property `json:"property,omitempty"`
}

// ============================================================================
// Chat
// ============================================================================

type ChatStatus string

const (
	ChatActive ChatStatus = "active"
	ChatClosed ChatStatus = "closed"
)

type SenderType string

const (
	SenderStudent    SenderType = "student"
	SenderAdvertiser SenderType = "advertiser"
)

// Chat is a conversation about one property between one student and one
// advertiser.
type Chat struct {
	ID             string     `json:"id"`
	PropertyID     string     `json:"property_id"`
	StudentID      string     `json:"student_id"`
	AdvertiserID   string     `json:"advertiser_id"`
	Status         ChatStatus `json:"status"`
	CreatedAt      string     `json:"created_at"`
	UpdatedAt      string     `json:"updated_at"`
	PropertyTitle  string     `json:"property_title,omitempty"`
	PropertyImages []string   `json:"property_images,omitempty"`
	PropertyPrice  float64    `json:"property_price,omitempty"`
	StudentName    string     `json:"student_name,omitempty"`
	AdvertiserName string     `json:"advertiser_name,omitempty"`
	LastMessage    string     `json:"last_message,omitempty"`
	LastMessageAt  string     `json:"last_message_at,omitempty"`
	UnreadCount    int        `json:"unread_count"`
}

// Counterpart returns the display name of the other participant as seen by
// viewer.
func (c Chat) Counterpart(viewer SenderType) string {
	if viewer == SenderAdvertiser {
		return c.StudentName
	}
	return c.AdvertiserName
}

// ChatMessage is immutable once created.
type ChatMessage struct {
	ID         string     `json:"id"`
	ChatID     string     `json:"chat_id"`
	SenderID   string     `json:"sender_id"`
	SenderName string     `json:"sender_name,omitempty"`
	SenderType SenderType `json:"sender_type"`
	Content    string     `json:"content"`
	CreatedAt  string     `json:"created_at"`
	IsRead     bool       `json:"is_read"`
}

type ChatCreate struct {
	PropertyID     string `json:"property_id"`
	InitialMessage string `json:"initial_message"`
}

type MessageCreate struct {
	ChatID  string `json:"chat_id"`
	Content string `json:"content"`
}

type ChatList struct {
	Chats []Chat `json:"chats"`
	Total int    `json:"total"`
}

type ChatMessagesPage struct {
	ChatID   string        `json:"chat_id"`
	Messages []ChatMessage `json:"messages"`
	Total    int           `json:"total"`
}

// ============================================================================
// Reservations
// ============================================================================

type ReservationStatus string

const (
	StatusPending   ReservationStatus = "pending"
	StatusConfirmed ReservationStatus = "confirmed"
	StatusCancelled ReservationStatus = "cancelled"
	StatusRejected  ReservationStatus = "rejected"
)

// DateLayout is the wire format of reservation dates.
const DateLayout = "2006-01-02"

type Reservation struct {
	ID           string            `json:"id"`
	PropertyID   string            `json:"property_id"`
	StudentID    string            `json:"student_id"`
	AdvertiserID string            `json:"advertiser_id"`
	StartDate    string            `json:"start_date"`
	EndDate      string            `json:"end_date"`
	Guests       int               `json:"guests"`
	Message      string            `json:"message,omitempty"`
	TotalPrice   float64           `json:"total_price"`
	Status       ReservationStatus `json:"status"`
	CreatedAt    string            `json:"created_at"`
	UpdatedAt    string            `json:"updated_at"`

	PropertyTitle    string   `json:"property_title,omitempty"`
	PropertyType     string   `json:"property_type,omitempty"`
	PropertyLocation string   `json:"property_location,omitempty"`
	PropertyImages   []string `json:"property_images,omitempty"`
	StudentName      string   `json:"student_name,omitempty"`
	StudentEmail     string   `json:"student_email,omitempty"`
	AdvertiserName   string   `json:"advertiser_name,omitempty"`
	AdvertiserEmail  string   `json:"advertiser_email,omitempty"`
}

type ReservationCreate struct {
	PropertyID string  `json:"property_id"`
	StartDate  string  `json:"start_date"`
	EndDate    string  `json:"end_date"`
	Guests     int     `json:"guests"`
	Message    string  `json:"message,omitempty"`
	TotalPrice float64 `json:"total_price"`
}

type ReservationUpdate struct {
	StartDate *string `json:"start_date,omitempty"`
	EndDate   *string `json:"end_date,omitempty"`
	Guests    *int    `json:"guests,omitempty"`
	Message   *string `json:"message,omitempty"`
}

// ============================================================================
// Rental interest
// ============================================================================

type InterestStatus string

const (
	InterestPending  InterestStatus = "pending"
	InterestAccepted InterestStatus = "accepted"
	InterestRejected InterestStatus = "rejected"
)

type Interest struct {
	ID           string          `json:"id"`
	PropertyID   string          `json:"property_id"`
	StudentID    string          `json:"student_id"`
	AdvertiserID string          `json:"advertiser_id"`
	Message      string          `json:"message,omitempty"`
	Status       InterestStatus  `json:"status"`
	CreatedAt    string          `json:"created_at"`
	UpdatedAt    string          `json:"updated_at"`
	Property     json.RawMessage `json:"property,omitempty"`
	Student      json.RawMessage `json:"student,omitempty"`
}

// ============================================================================
// Auth
// ============================================================================

type UserType string

const (
	UserStudent    UserType = "student"
	UserAdvertiser UserType = "advertiser"
)

// AuthUser is the account record returned by the auth endpoints and cached
// in the local session.
type AuthUser struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Email        string   `json:"email"`
	UserType     UserType `json:"userType"`
	FirebaseUID  string   `json:"firebase_uid,omitempty"`
	ProfileImage string   `json:"profileImage,omitempty"`
	Phone        string   `json:"phone,omitempty"`
	University   string   `json:"university,omitempty"`
	CompanyName  string   `json:"companyName,omitempty"`
	Verified     bool     `json:"verified,omitempty"`
}

type RegisterRequest struct {
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Password    string   `json:"-"`
	UserType    UserType `json:"userType"`
	University  string   `json:"university,omitempty"`
	CompanyName string   `json:"companyName,omitempty"`
	FirebaseUID string   `json:"firebase_uid,omitempty"`
}

// numericID parses id as an integer for the "mais-recente" ordering. ok is
// false for ids that are not integers.
func numericID(id string) (int64, bool) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
