package service

import (
	"context"

	"github.com/noah-isme/playschool-admin/internal/models"
)

// DocumentGateway is the remote document store: live per-collection
// subscriptions plus create/patch/delete keyed by opaque identifiers.
// Every onChange call carries the full current contents of the collection.
// The returned cancel function must be safe to call more than once.
type DocumentGateway interface {
	Subscribe(ctx context.Context, collection string, onChange func([]models.Document), onError func(error)) (func(), error)
	Create(ctx context.Context, collection string, fields models.Fields) (string, error)
	Patch(ctx context.Context, collection, id string, fields models.Fields) error
	Delete(ctx context.Context, collection, id string) error
}

// IdentityGateway signs principals in and out and reports session changes.
// OnSessionChange invokes the callback with the current session right away.
type IdentityGateway interface {
	OnSessionChange(cb func(*models.Session)) func()
	SignIn(ctx context.Context, email, password string) (*models.Session, error)
	SignUp(ctx context.Context, email, password string) (*models.Session, error)
	SignOut(ctx context.Context) error
}
