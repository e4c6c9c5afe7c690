package mtproto

import (
	"context"
	"errors"
	"strconv"

	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/tg"
	authDomain "github.com/reshetovitsme/telegram-keyword-monitor/internal/modules/auth/domain"
	"github.com/samber/oops"
)

// Self returns the logged-in account. An invalid session surfaces as an
// unauthorized platform error.
func (c *Client) Self(ctx context.Context) (*authDomain.Account, error) {
	u, err := c.client.Self(ctx)
	if err != nil {
		return nil, classify(err)
	}
	return c.account(u), nil
}

// SendCode requests a login code and returns its hash.
func (c *Client) SendCode(ctx context.Context, phone string) (string, error) {
	sent, err := c.client.Auth().SendCode(ctx, phone, auth.SendCodeOptions{})
	if err != nil {
		return "", classify(err)
	}

	code, ok := sent.(*tg.AuthSentCode)
	if !ok {
		return "", oops.In("mtproto").Errorf("unexpected sent code response %T", sent)
	}
	c.logger.Debug("Login code sent", "type", code.Type.TypeName())
	return code.PhoneCodeHash, nil
}

// SignIn submits the login code.
func (c *Client) SignIn(ctx context.Context, phone, codeHash, code string) (*authDomain.Account, error) {
	a, err := c.client.Auth().SignIn(ctx, phone, code, codeHash)
	if err != nil {
		var signUp *auth.SignUpRequired
		if errors.As(err, &signUp) {
			return nil, authDomain.NewPlatformError(authDomain.ErrorKindUnauthorized, oops.Errorf("phone number is not registered"))
		}
		return nil, classify(err)
	}
	return c.authorization(a)
}

// CheckPassword answers the two-factor challenge.
func (c *Client) CheckPassword(ctx context.Context, password string) (*authDomain.Account, error) {
	a, err := c.client.Auth().Password(ctx, password)
	if err != nil {
		return nil, classify(err)
	}
	return c.authorization(a)
}

// MigrateTo is a no-op: the client reconnects to the datacenter named in a
// *_MIGRATE error by itself and retries the call.
func (c *Client) MigrateTo(_ context.Context, dc int) error {
	c.logger.Debug("Datacenter migration handled by the client", "dc", dc)
	return nil
}

// ExportSession returns the current session blob.
func (c *Client) ExportSession(ctx context.Context) ([]byte, error) {
	data, err := c.storage.LoadSession(ctx)
	if err != nil {
		return nil, oops.In("mtproto").Wrapf(err, "failed to export session")
	}
	return data, nil
}

func (c *Client) authorization(a *tg.AuthAuthorization) (*authDomain.Account, error) {
	u, ok := a.User.(*tg.User)
	if !ok {
		return nil, oops.In("mtproto").Errorf("authorization returned %T", a.User)
	}
	return c.account(u), nil
}

func (c *Client) account(u *tg.User) *authDomain.Account {
	c.selfID.Store(u.ID)
	c.peers.rememberEntities(tg.Entities{Users: map[int64]*tg.User{u.ID: u}})
	return &authDomain.Account{
		ID:        strconv.FormatInt(u.ID, 10),
		Username:  u.Username,
		FirstName: u.FirstName,
		Phone:     u.Phone,
	}
}
