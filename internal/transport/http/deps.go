package http

import (
	"github.com/classsync/internal/application/auth"
	"github.com/classsync/internal/application/schedulesync"
	"github.com/classsync/internal/infrastructure/smtp"
	"github.com/classsync/internal/infrastructure/sns"
	"github.com/classsync/internal/pkg/token"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	// Codes is the pending login code store (memory or DynamoDB).
	Codes   auth.CodeStore
	Catalog CatalogSource
	Mailer  smtp.Mailer
	// Tokens mints session tokens at login and validates them at the edge.
	// Both paths must use this one instance.
	Tokens    *token.Codec
	ClassSync schedulesync.Remote
	// Publisher is optional.
	Publisher sns.Publisher
}
