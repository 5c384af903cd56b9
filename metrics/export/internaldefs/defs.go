package internaldefs

import (
	goAccount "github.com/MrEthical07/goAccount"
)

// CounterDef binds an engine counter to its exported name.
type CounterDef struct {
	ID   goAccount.MetricID
	Name string
	Help string
}

// HistogramDef binds an engine histogram to its exported name.
type HistogramDef struct {
	ID   goAccount.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in rendering order.
var CounterDefs = []CounterDef{
	{ID: goAccount.MetricRegisterSuccess, Name: "goaccount_register_success_total", Help: "Successful registrations."},
	{ID: goAccount.MetricRegisterDuplicate, Name: "goaccount_register_duplicate_total", Help: "Registrations rejected for a taken email."},
	{ID: goAccount.MetricRegisterFailure, Name: "goaccount_register_failure_total", Help: "Registrations that failed for any other reason."},
	{ID: goAccount.MetricAdminSeeded, Name: "goaccount_admin_seeded_total", Help: "Admin accounts created by bootstrap tooling."},
	{ID: goAccount.MetricOTPVerifySuccess, Name: "goaccount_otp_verify_success_total", Help: "Successful email verifications."},
	{ID: goAccount.MetricOTPVerifyFailure, Name: "goaccount_otp_verify_failure_total", Help: "Failed email verifications."},
	{ID: goAccount.MetricOTPResendSuccess, Name: "goaccount_otp_resend_success_total", Help: "Verification codes re-issued."},
	{ID: goAccount.MetricOTPResendFailure, Name: "goaccount_otp_resend_failure_total", Help: "Rejected verification code re-issues."},
	{ID: goAccount.MetricLoginSuccess, Name: "goaccount_login_success_total", Help: "Successful login attempts."},
	{ID: goAccount.MetricLoginFailure, Name: "goaccount_login_failure_total", Help: "Failed login attempts."},
	{ID: goAccount.MetricPasswordUpgraded, Name: "goaccount_password_upgraded_total", Help: "Password hashes re-hashed on login."},
	{ID: goAccount.MetricRefreshSuccess, Name: "goaccount_refresh_success_total", Help: "Successful token refreshes."},
	{ID: goAccount.MetricRefreshFailure, Name: "goaccount_refresh_failure_total", Help: "Failed token refreshes."},
	{ID: goAccount.MetricTokenRejected, Name: "goaccount_token_rejected_total", Help: "Access tokens that failed verification."},
	{ID: goAccount.MetricPasswordChangeSuccess, Name: "goaccount_password_change_success_total", Help: "Successful password changes."},
	{ID: goAccount.MetricPasswordChangeFailure, Name: "goaccount_password_change_failure_total", Help: "Failed password changes."},
	{ID: goAccount.MetricPasswordResetRequest, Name: "goaccount_password_reset_request_total", Help: "Password reset requests."},
	{ID: goAccount.MetricPasswordResetSuccess, Name: "goaccount_password_reset_success_total", Help: "Successful password resets."},
	{ID: goAccount.MetricPasswordResetFailure, Name: "goaccount_password_reset_failure_total", Help: "Failed password resets."},
	{ID: goAccount.MetricProfileUpdate, Name: "goaccount_profile_update_total", Help: "Profile updates."},
	{ID: goAccount.MetricMailFailure, Name: "goaccount_mail_failure_total", Help: "Mails the delivery collaborator failed to send."},
}

var HistogramDefs = []HistogramDef{
	{ID: goAccount.MetricValidateLatency, Name: "goaccount_validate_latency_seconds", Help: "Access token verification latency."},
}

// HistogramBounds are the upper bounds, in seconds, of the engine buckets.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix names each bucket for exporters that cannot use labels.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets copies raw into a fixed array, padding with zeros.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
