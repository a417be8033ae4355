package util

const (
	DateFormat = "2006-01-02"
	TimeFormat = "2006-01-02 15:04:05"
)

// 用户可见的提示信息
const (
	MsgActivated         = "Your account has been activated."
	MsgActivatedEarlier  = "Your account was activated earlier."
	MsgActivationFailed  = "An error occurred while activating your account. Please try again later."
	MsgSignupMailSent    = "An activation link has been sent to your email."
	MsgReactivationSent  = "A link to reactivate your account has been sent to the email you registered with."
	MsgPasswordResetSent = "If an account with that email exists, a password reset link has been sent."
	MsgPasswordChanged   = "Your password has been changed."
	MsgDeactivating      = "Your account will be deactivated shortly."
	MsgLoggedOut         = "You have been logged out."
)
