package mtproto

import (
	"errors"
	"strings"

	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/tgerr"
	authDomain "github.com/reshetovitsme/telegram-keyword-monitor/internal/modules/auth/domain"
	"github.com/samber/lo"
)

var (
	invalidCodeTypes = []string{"PHONE_CODE_INVALID", "PHONE_CODE_EMPTY", "PASSWORD_HASH_INVALID"}
	expiredCodeTypes = []string{"PHONE_CODE_EXPIRED"}
)

// classify maps RPC failures onto the platform error kinds the login flow
// understands. Anything else is returned unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}

	if wait, ok := tgerr.AsFloodWait(err); ok {
		return authDomain.FloodWait(wait, err)
	}
	if errors.Is(err, auth.ErrPasswordAuthNeeded) {
		return authDomain.NewPlatformError(authDomain.ErrorKindPasswordNeeded, err)
	}
	if errors.Is(err, auth.ErrPasswordInvalid) {
		return authDomain.NewPlatformError(authDomain.ErrorKindCodeInvalid, err)
	}

	rpcErr, ok := tgerr.As(err)
	if !ok {
		return err
	}
	switch {
	case strings.HasSuffix(rpcErr.Type, "_MIGRATE"):
		return authDomain.Migrate(rpcErr.Argument, err)
	case lo.Contains(invalidCodeTypes, rpcErr.Type):
		return authDomain.NewPlatformError(authDomain.ErrorKindCodeInvalid, err)
	case lo.Contains(expiredCodeTypes, rpcErr.Type):
		return authDomain.NewPlatformError(authDomain.ErrorKindCodeExpired, err)
	case rpcErr.Type == "SESSION_PASSWORD_NEEDED":
		return authDomain.NewPlatformError(authDomain.ErrorKindPasswordNeeded, err)
	case rpcErr.Code == 401:
		return authDomain.NewPlatformError(authDomain.ErrorKindUnauthorized, err)
	default:
		return err
	}
}
