package common

import (
	"os"
	"strings"
)

// A host rule that is applied when using a certain host.
type HostRule struct {
	// The host that needs to match in order to use this rule.
	MatchHost string `json:"matchHost" yaml:"matchHost"`
	// A token to authenticate with the host.
	Token string `json:"token" yaml:"token"`
}

// Expands the token with environment variables.
func (hr *HostRule) TokenExpanded() string {
	return os.ExpandEnv(hr.Token)
}

// Gets the first host rule that matches the given host.
func GetHostRuleForHost(hostRules []*HostRule, host string) *HostRule {
	for _, hostRule := range hostRules {
		if hostRule != nil && hostRule.MatchHost != "" && strings.Contains(host, hostRule.MatchHost) {
			return hostRule
		}
	}
	return nil
}
