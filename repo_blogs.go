package auth

import (
	"context"
	"crypto/rand"
	"database/sql"

	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const blogIDAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// NewBlogID generates the short public identifier used in blog URLs.
// Bytes at or above the largest multiple of the alphabet size are
// rejected so every character is equally likely.
func NewBlogID() (string, error) {
	const limit = byte(248) // 4 * len(blogIDAlphabet)

	out := make([]byte, 0, BlogIDLength)
	buf := make([]byte, BlogIDLength)

	for len(out) < BlogIDLength {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}

		for _, b := range buf {
			if b >= limit {
				continue
			}

			out = append(out, blogIDAlphabet[int(b)%len(blogIDAlphabet)])
			if len(out) == BlogIDLength {
				break
			}
		}
	}

	return string(out), nil
}

type Blogs interface {
	repository.Repository[*Blog]

	GetByBlogID(ctx context.Context, blogID string) (*Blog, error)
	GetByBlogIDTx(ctx context.Context, tx bun.IDB, blogID string) (*Blog, error)
	Create(ctx context.Context, record *Blog, criteria ...repository.InsertCriteria) (*Blog, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Blog, criteria ...repository.InsertCriteria) (*Blog, error)
}

type blogs struct {
	repository.Repository[*Blog]
	db *bun.DB
}

var (
	_ Blogs                        = (*blogs)(nil)
	_ repository.Repository[*Blog] = (*blogs)(nil)
)

func NewBlogsRepository(db *bun.DB) Blogs {
	repo := repository.NewRepository[*Blog](db, repository.ModelHandlers[*Blog]{
		NewRecord: func() *Blog { return &Blog{} },
		GetID: func(b *Blog) uuid.UUID {
			if b == nil {
				return uuid.Nil
			}
			return b.ID
		},
		SetID: func(b *Blog, id uuid.UUID) {
			if b != nil {
				b.ID = id
			}
		},
		GetIdentifier: func() string {
			return "blog_id"
		},
	})

	return &blogs{
		Repository: repo,
		db:         db,
	}
}

func (a *blogs) GetByBlogID(ctx context.Context, blogID string) (*Blog, error) {
	return a.GetByBlogIDTx(ctx, a.db, blogID)
}

func (a *blogs) GetByBlogIDTx(ctx context.Context, tx bun.IDB, blogID string) (*Blog, error) {
	record := &Blog{}

	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.blog_id = ?", blogID).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"blog_id": blogID,
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *blogs) Create(ctx context.Context, record *Blog, criteria ...repository.InsertCriteria) (*Blog, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *blogs) CreateTx(ctx context.Context, tx bun.IDB, record *Blog, criteria ...repository.InsertCriteria) (*Blog, error) {
	if err := prepareBlogDefaults(record); err != nil {
		return nil, err
	}
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

func prepareBlogDefaults(record *Blog) error {
	if record == nil {
		return nil
	}

	if record.BlogID == "" {
		blogID, err := NewBlogID()
		if err != nil {
			return err
		}
		record.BlogID = blogID
	}

	if record.ID == uuid.Nil {
		if id, err := hashid.NewUUID(record.BlogID); err == nil {
			record.ID = id
		} else {
			record.ID = uuid.New()
		}
	}

	return nil
}

// PublishBlog stores a new blog and bumps the author's denormalized
// blog counter in the same transaction.
func PublishBlog(ctx context.Context, repo RepositoryManager, blog *Blog) (*Blog, error) {
	var created *Blog

	err := repo.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		record, err := repo.Blogs().CreateTx(ctx, tx, blog)
		if err != nil {
			return err
		}

		if _, err := repo.Users().IncrementBlogCountTx(ctx, tx, record.AuthorID); err != nil {
			return err
		}

		created = record
		return nil
	})

	if err != nil {
		return nil, err
	}

	return created, nil
}
