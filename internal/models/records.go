package models

import "time"

// Category names a record kind sharing the snapshot/subscribe/reconcile
// pattern. Every table is typed from day one; there is no escape-hatch shape.
type Category string

const (
	CategoryMessage      Category = "message"
	CategoryTruthOrDare  Category = "truth_or_dare"
	CategoryGalleryPhoto Category = "gallery_photo"
	CategorySnapMoment   Category = "snap_moment"
	CategoryDiaryEntry   Category = "diary_entry"
	CategoryCoupleTodo   Category = "couple_todo"
	CategoryNotification Category = "notification"
)

// Visibility controls whether the non-author partner may see a record.
type Visibility string

const (
	VisibilityBoth   Visibility = "both"
	VisibilityOnlyMe Visibility = "only_me"
)

// Record is the common surface the change-stream hub and the view reconciler
// need from every category. Categories without a visibility flag (chat, todo,
// rounds) report VisibilityBoth.
type Record interface {
	RecordID() string
	RecordCoupleID() string
	RecordAuthor() string
	RecordVisibility() Visibility
	RecordCreatedAt() time.Time
}

// Message is one chat message.
type Message struct {
	ID             string    `json:"id"`
	CoupleID       string    `json:"couple_id"`
	SenderNickname string    `json:"sender_nickname"`
	Text           string    `json:"text"`
	CreatedAt      time.Time `json:"created_at"`
}

func (m *Message) RecordID() string             { return m.ID }
func (m *Message) RecordCoupleID() string       { return m.CoupleID }
func (m *Message) RecordAuthor() string         { return m.SenderNickname }
func (m *Message) RecordVisibility() Visibility { return VisibilityBoth }
func (m *Message) RecordCreatedAt() time.Time   { return m.CreatedAt }

// RoundType distinguishes truth questions from dares.
type RoundType string

const (
	RoundTruth RoundType = "truth"
	RoundDare  RoundType = "dare"
)

// Round is one truth-or-dare round. Answer fields are filled exactly once by
// the partner who did not ask.
type Round struct {
	ID         string    `json:"id"`
	CoupleID   string    `json:"couple_id"`
	Type       RoundType `json:"type"`
	Question   string    `json:"question"`
	IsCustom   bool      `json:"is_custom"`
	AskedBy    string    `json:"asked_by"`
	Answer     *string   `json:"answer,omitempty"`
	AnsweredBy *string   `json:"answered_by,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func (r *Round) RecordID() string             { return r.ID }
func (r *Round) RecordCoupleID() string       { return r.CoupleID }
func (r *Round) RecordAuthor() string         { return r.AskedBy }
func (r *Round) RecordVisibility() Visibility { return VisibilityBoth }
func (r *Round) RecordCreatedAt() time.Time   { return r.CreatedAt }

// Media is a gallery photo or snap moment; the two tables share a shape apart
// from the optional caption.
type Media struct {
	ID         string     `json:"id"`
	CoupleID   string     `json:"couple_id"`
	FileURL    string     `json:"file_url"`
	Caption    *string    `json:"caption,omitempty"`
	UploadedBy string     `json:"uploaded_by"`
	Visibility Visibility `json:"visibility"`
	CreatedAt  time.Time  `json:"created_at"`
}

func (m *Media) RecordID() string             { return m.ID }
func (m *Media) RecordCoupleID() string       { return m.CoupleID }
func (m *Media) RecordAuthor() string         { return m.UploadedBy }
func (m *Media) RecordVisibility() Visibility { return m.Visibility }
func (m *Media) RecordCreatedAt() time.Time   { return m.CreatedAt }

// DiaryEntry is one diary memory.
type DiaryEntry struct {
	ID         string     `json:"id"`
	CoupleID   string     `json:"couple_id"`
	Title      string     `json:"title"`
	Content    string     `json:"content"`
	Visibility Visibility `json:"visibility"`
	WrittenBy  string     `json:"written_by"`
	CreatedAt  time.Time  `json:"created_at"`
}

func (d *DiaryEntry) RecordID() string             { return d.ID }
func (d *DiaryEntry) RecordCoupleID() string       { return d.CoupleID }
func (d *DiaryEntry) RecordAuthor() string         { return d.WrittenBy }
func (d *DiaryEntry) RecordVisibility() Visibility { return d.Visibility }
func (d *DiaryEntry) RecordCreatedAt() time.Time   { return d.CreatedAt }

// TodoStatus is the lifecycle of a place on the couple's to-do list.
type TodoStatus string

const (
	TodoPending   TodoStatus = "pending"
	TodoVisited   TodoStatus = "visited"
	TodoCancelled TodoStatus = "cancelled"
)

// Todo is one place the couple wants to visit.
type Todo struct {
	ID        string     `json:"id"`
	CoupleID  string     `json:"couple_id"`
	Place     string     `json:"place"`
	Status    TodoStatus `json:"status"`
	AddedBy   string     `json:"added_by"`
	CreatedAt time.Time  `json:"created_at"`
}

func (t *Todo) RecordID() string             { return t.ID }
func (t *Todo) RecordCoupleID() string       { return t.CoupleID }
func (t *Todo) RecordAuthor() string         { return t.AddedBy }
func (t *Todo) RecordVisibility() Visibility { return VisibilityBoth }
func (t *Todo) RecordCreatedAt() time.Time   { return t.CreatedAt }

// Notification is a derived event targeted at one partner. It is stored
// couple-scoped; clients filter by recipient nickname.
type Notification struct {
	ID                string    `json:"id"`
	CoupleID          string    `json:"couple_id"`
	SenderNickname    string    `json:"sender_nickname"`
	RecipientNickname string    `json:"recipient_nickname"`
	Type              string    `json:"type"` // "chat" | "gallery" | "snap"
	Message           string    `json:"message"`
	IsRead            bool      `json:"is_read"`
	CreatedAt         time.Time `json:"created_at"`
}

func (n *Notification) RecordID() string             { return n.ID }
func (n *Notification) RecordCoupleID() string       { return n.CoupleID }
func (n *Notification) RecordAuthor() string         { return n.SenderNickname }
func (n *Notification) RecordVisibility() Visibility { return VisibilityBoth }
func (n *Notification) RecordCreatedAt() time.Time   { return n.CreatedAt }

// PremiumPlan is a counseling plan tier.
type PremiumPlan string

const (
	PlanVoice PremiumPlan = "voice"
	PlanVideo PremiumPlan = "video"
)

// PremiumStatus is the review state of a counseling request. Approval is a
// manual operation outside this service.
type PremiumStatus string

const (
	PremiumPending  PremiumStatus = "pending"
	PremiumApproved PremiumStatus = "approved"
	PremiumRejected PremiumStatus = "rejected"
)

// PremiumRequest is a counseling purchase awaiting manual payment review.
type PremiumRequest struct {
	ID            string        `json:"id"`
	CoupleID      string        `json:"couple_id"`
	RequestedBy   string        `json:"requested_by"`
	Plan          PremiumPlan   `json:"plan"`
	Amount        int           `json:"amount"`
	ScreenshotURL *string       `json:"screenshot_url,omitempty"`
	Status        PremiumStatus `json:"status"`
	CreatedAt     time.Time     `json:"created_at"`
}
