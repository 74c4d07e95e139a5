// Package domain defines the persistence models for users, vaulted
// credentials, generation requests, questions, favorites, and the activity
// log. These types are mapped with GORM and form the core data layer of the
// interview-question generation backend.
//
// Ownership model: every row is owned by exactly one user, either directly
// (user_id column) or transitively (Question → GenerationRequest → User).
// Repositories enforce this by scoping every query to the owner, so a missing
// row and a foreign row are indistinguishable to callers.
package domain

import (
	"time"

	"gorm.io/datatypes"
)

// User is the local record for an externally authenticated identity. It is
// created on first authenticated request and owns every other entity.
//
// Fields:
//   - ID: stable UUID primary key (char(36)), matching the identity
//     provider's subject claim.
//   - Email: unique contact address from the identity provider.
//   - DisplayName: profile name, defaulted from the email local part.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
//
// Deleting a user cascades to all owned rows (credentials, generation
// requests, favorites, activity log).
type User struct {
	ID          string    `json:"id"           gorm:"type:char(36);primaryKey"`
	Email       string    `json:"email"        gorm:"type:varchar(255);not null;uniqueIndex:ux_users_email"`
	DisplayName string    `json:"display_name" gorm:"type:varchar(120);not null"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Credential is a vaulted third-party API key. Only the ciphertext is ever
// persisted; the plaintext exists in memory for the duration of a generation
// call and the masked form is what callers see.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - UserID: owning user; indexed for listing.
//   - Label: user-chosen display name for the key.
//   - Ciphertext: AES-GCM ciphertext of the API key, base64-encoded. Never
//     serialized to JSON.
//   - UsageCount: number of successful generations performed with this key.
//     Incremented atomically in SQL, never read-modify-write.
//   - LastUsedAt: time of the most recent successful use, nil until then.
type Credential struct {
	ID         string     `json:"id"           gorm:"type:char(36);primaryKey"`
	UserID     string     `json:"user_id"      gorm:"type:char(36);not null;index:idx_user_credentials"`
	Label      string     `json:"label"        gorm:"type:varchar(120);not null"`
	Ciphertext string     `json:"-"            gorm:"type:text;not null"`
	UsageCount int64      `json:"usage_count"  gorm:"not null;default:0"`
	LastUsedAt *time.Time `json:"last_used_at"`
	CreatedAt  time.Time  `json:"created_at"`

	// User is the owning account. Credentials are removed when the owner is.
	User User `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Credential.
func (Credential) TableName() string { return "credentials" }

// GenerationRequest tracks one pass of the generation pipeline from
// submission to its terminal state. Status starts at pending and moves
// exactly once to completed or failed; see GenerationStatus.
//
// Fields:
//   - CredentialID: the vaulted key used for the external call. The
//     association is RESTRICT on delete: a credential referenced here cannot
//     be removed, which keeps the audit trail intact.
//   - JobDescription: caller-supplied input text.
//   - RoleLevel / ExtractedSkills: structured output inferred by the engine,
//     populated only on completion. ExtractedSkills is an opaque JSON
//     document.
//   - ErrorDetail: sanitized failure summary, populated only on failure.
type GenerationRequest struct {
	ID              string           `json:"id"               gorm:"type:char(36);primaryKey"`
	UserID          string           `json:"user_id"          gorm:"type:char(36);not null;index:idx_user_generations"`
	CredentialID    string           `json:"credential_id"    gorm:"type:char(36);not null;index"`
	JobDescription  string           `json:"job_description"  gorm:"type:text;not null"`
	RoleLevel       string           `json:"role_level"       gorm:"type:varchar(64)"`
	ExtractedSkills datatypes.JSON   `json:"extracted_skills" gorm:"type:json"`
	Status          GenerationStatus `json:"status"           gorm:"type:varchar(16);not null;default:'pending';check:status IN ('pending','completed','failed')"`
	ErrorDetail     *string          `json:"error_detail,omitempty" gorm:"type:text"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`

	User User `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`

	// Credential must outlive the requests that used it.
	Credential Credential `json:"-" gorm:"foreignKey:CredentialID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

// TableName returns the database table name for GenerationRequest.
func (GenerationRequest) TableName() string { return "generation_requests" }

// Question is one generated interview question. Questions exist only as a
// batch attached to a completed request and are immutable afterwards, except
// for the answer backfill.
//
// Fields:
//   - GenerationID: parent request; ownership is resolved through it.
//   - Code: the engine-assigned question code (e.g. "Q3"), kept for display
//     ordering and cross-references inside a result set.
//   - SectionTitle / Skill: denormalized from the engine's section grouping.
//   - ExpectedSignals: opaque JSON list of things a strong answer covers.
//   - GeneratedAnswer: model answer, nil until backfilled on demand.
type Question struct {
	ID              string         `json:"id"               gorm:"type:char(36);primaryKey"`
	GenerationID    string         `json:"generation_id"    gorm:"type:char(36);not null;index:idx_generation_questions"`
	Code            string         `json:"code"             gorm:"type:varchar(32)"`
	SectionTitle    string         `json:"section_title"    gorm:"type:varchar(255)"`
	Skill           string         `json:"skill"            gorm:"type:varchar(120)"`
	QuestionType    string         `json:"question_type"    gorm:"type:varchar(64)"`
	Difficulty      string         `json:"difficulty"       gorm:"type:varchar(32)"`
	QuestionText    string         `json:"question_text"    gorm:"type:text;not null"`
	ExpectedSignals datatypes.JSON `json:"expected_signals" gorm:"type:json"`
	GeneratedAnswer *string        `json:"generated_answer,omitempty" gorm:"type:text"`
	CreatedAt       time.Time      `json:"created_at"`

	// Generation is the parent request. Questions are cascade-deleted with it.
	Generation GenerationRequest `json:"-" gorm:"foreignKey:GenerationID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Question.
func (Question) TableName() string { return "questions" }

// Favorite bookmarks a question for a user. The (user_id, question_id) pair
// is unique; inserting a duplicate is treated as a no-op by the repository.
type Favorite struct {
	ID         string    `json:"id"          gorm:"type:char(36);primaryKey"`
	UserID     string    `json:"user_id"     gorm:"type:char(36);not null;uniqueIndex:ux_favorites_user_question,priority:1"`
	QuestionID string    `json:"question_id" gorm:"type:char(36);not null;uniqueIndex:ux_favorites_user_question,priority:2"`
	CreatedAt  time.Time `json:"created_at"`

	User User `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`

	// Question is the bookmarked question. Favorites disappear with it.
	Question Question `json:"-" gorm:"foreignKey:QuestionID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Favorite.
func (Favorite) TableName() string { return "favorites" }

// ActivityLog is one append-only audit entry. Rows are inserted by every
// mutating operation and never updated or deleted; the repository exposes no
// write path other than insert. There is deliberately no UpdatedAt column.
type ActivityLog struct {
	ID         string         `json:"id"          gorm:"type:char(36);primaryKey"`
	UserID     string         `json:"user_id"     gorm:"type:char(36);not null;index:idx_user_activity"`
	Action     string         `json:"action"      gorm:"type:varchar(64);not null"`
	EntityType *string        `json:"entity_type,omitempty" gorm:"type:varchar(64)"`
	EntityID   *string        `json:"entity_id,omitempty"   gorm:"type:char(36)"`
	Metadata   datatypes.JSON `json:"metadata"    gorm:"type:json"`
	CreatedAt  time.Time      `json:"created_at"`

	User User `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for ActivityLog.
func (ActivityLog) TableName() string { return "activity_logs" }
