package guard

import "errors"

var ErrInvalidPattern = errors.New("invalid path pattern")

type Access string

const (
	AccessProtected Access = "protected"
	AccessPublic    Access = "public"
)

// Rule binds a path pattern to the access it grants. Rules are evaluated in
// order and the first match decides.
type Rule struct {
	Pattern string `mapstructure:"pattern"`
	Access  Access `mapstructure:"access"`
}

// Decision is the outcome of evaluating a request path against a Policy.
type Decision struct {
	Allow   bool
	Reason  string
	Pattern string
}

const ReasonAuthenticationRequired = "authentication required"

func DefaultRules() []Rule {
	return []Rule{
		{Pattern: "/dashboard/:path*", Access: AccessProtected},
	}
}
