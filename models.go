package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the account model. An account carries either password
// credentials (password_hash + email) or an OAuth identity
// (oauth_provider + oauth_id), never both and never neither; see
// Credentials and ValidateCredentials.
type User struct {
	bun.BaseModel  `bun:"table:users,alias:usr"`
	ID             uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	FullName       string     `bun:"full_name,notnull" json:"full_name,omitempty"`
	Username       string     `bun:"username,notnull,unique" json:"username,omitempty"`
	Email          string     `bun:"email,nullzero" json:"email,omitempty"`
	PasswordHash   string     `bun:"password_hash,nullzero" json:"-"`
	OAuthProvider  string     `bun:"oauth_provider,nullzero" json:"oauth_provider,omitempty"`
	OAuthID        string     `bun:"oauth_id,nullzero" json:"oauth_id,omitempty"`
	IsVerified     bool       `bun:"is_verified" json:"is_verified"`
	BlogCount      int        `bun:"blog_count" json:"blog_count"`
	LoginAttempts  int        `bun:"login_attempts" json:"login_attempts,omitempty"`
	LoginAttemptAt *time.Time `bun:"login_attempt_at,nullzero" json:"login_attempt_at,omitempty"`
	LoggedInAt     *time.Time `bun:"loggedin_at,nullzero" json:"loggedin_at,omitempty"`
	CreatedAt      *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// DisplayName is the name we address the user by in notifications.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}

// BlogIDLength is the length of the public blog identifier.
const BlogIDLength = 11

// Blog is the blog post model. Read/like counters are mutated by the
// content service; this package only owns the schema and the blog-count
// side effect on the author.
type Blog struct {
	bun.BaseModel `bun:"table:blogs,alias:blg"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	BlogID        string     `bun:"blog_id,notnull,unique" json:"blog_id,omitempty"`
	Title         string     `bun:"title,notnull" json:"title,omitempty"`
	AuthorID      uuid.UUID  `bun:"author_id,notnull,type:uuid" json:"author_id,omitempty"`
	ReadTime      int        `bun:"read_time,notnull" json:"read_time,omitempty"`
	Reads         int        `bun:"reads" json:"reads"`
	Likes         int        `bun:"likes" json:"likes"`
	Tags          []string   `bun:"tags" json:"tags,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}
