package policy

import (
	"strings"

	clierr "github.com/ggonzalez94/awaken-cli/internal/errors"
	"github.com/samber/lo"
)

// CheckCommandAllowed enforces --enable-commands. An allowlist entry matches
// the exact command path or any command below it ("liquidity" allows
// "liquidity add").
func CheckCommandAllowed(allowlist []string, commandPath string) error {
	if len(allowlist) == 0 {
		return nil
	}
	normPath := normalize(commandPath)
	allowed := lo.ContainsBy(allowlist, func(entry string) bool {
		norm := normalize(entry)
		if norm == "" {
			return false
		}
		return norm == normPath || strings.HasPrefix(normPath, norm+" ")
	})
	if allowed {
		return nil
	}
	return clierr.New(clierr.CodeBlocked, "command blocked by --enable-commands policy")
}

func normalize(v string) string {
	parts := strings.Fields(strings.ToLower(strings.TrimSpace(v)))
	return strings.Join(parts, " ")
}
