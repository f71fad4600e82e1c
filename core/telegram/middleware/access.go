package middleware

import tele "gopkg.in/telebot.v4"

// AdminOptions defines how admin-only checks should behave.
type AdminOptions struct {
	AdminID  int64
	OnReject tele.HandlerFunc
}

// WithAdminCheck wraps a command handler enforcing admin-only execution when required.
func WithAdminCheck(opts AdminOptions, adminOnly bool, handler tele.HandlerFunc) tele.HandlerFunc {
	if !adminOnly || opts.AdminID == 0 {
		return handler
	}
	return func(c tele.Context) error {
		if c.Sender() == nil || c.Sender().ID != opts.AdminID {
			if opts.OnReject != nil {
				return opts.OnReject(c)
			}
			return nil
		}
		return handler(c)
	}
}
