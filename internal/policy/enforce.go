package policy

import (
	"errors"
	"fmt"
)

// ErrPolicyDenied is returned by every enforcement check below, wrapped
// with the specific reason the caller violated policy.
var ErrPolicyDenied = errors.New("policy denied")

// denyf wraps ErrPolicyDenied with a formatted reason.
func denyf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrPolicyDenied, fmt.Sprintf(format, args...))
}

// RequireOwnership fails with ErrPolicyDenied if the policy requires
// ownership verification and verified is false.
func RequireOwnership(p *Policy, verified bool) error {
	if p.Ownership.Required && !verified {
		return denyf("ownership verification required")
	}
	return nil
}

// CheckEgress fails with ErrPolicyDenied if destination is not in the
// policy's allowed egress destinations.
func CheckEgress(p *Policy, destination string) error {
	for _, d := range p.Egress.AllowedDestinations {
		if d == destination {
			return nil
		}
	}
	return denyf("egress destination %q not in allowed list %v", destination, p.Egress.AllowedDestinations)
}

// CheckAppendOnly fails with ErrPolicyDenied if the policy has enabled
// append-only mode and the caller is attempting a mutation (update/delete)
// rather than an append. The corpus store itself has no mutation path, so
// this exists for completeness and for tools that inspect policy directly.
func CheckAppendOnly(p *Policy, isMutation bool) error {
	if isMutation && p.AppendOnly {
		return denyf("append_only policy forbids in-place mutation")
	}
	return nil
}

// ShouldFilterPII reports whether export bundles should have PII patterns
// redacted, per policy.
func ShouldFilterPII(p *Policy) bool {
	return p.PII.FilterOnExport
}
