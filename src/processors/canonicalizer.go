package processors

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/username/fleetledger/src/config"
	"github.com/username/fleetledger/src/models"
)

// Canonicalizer folds the free-text identifiers seen across card and invoice
// exports (plates, card holder names, card numbers) onto one canonical
// vehicle key. The rules are best-effort heuristics and the output is
// advisory: a reviewer sees the raw identifier next to the canonical one.
type Canonicalizer struct {
	aliases   map[string]string
	blacklist []string
	heur      config.Heuristics
	tokenRun  *regexp.Regexp
}

func NewCanonicalizer(cfg *config.DomainConfig) *Canonicalizer {
	aliases := make(map[string]string, len(cfg.Aliases))
	for raw, canonical := range cfg.Aliases {
		aliases[cleanIdentifier(raw)] = canonical
	}
	blacklist := make([]string, len(cfg.IdentifierBlacklist))
	for i, b := range cfg.IdentifierBlacklist {
		blacklist[i] = strings.ToUpper(b)
	}
	return &Canonicalizer{
		aliases:   aliases,
		blacklist: blacklist,
		heur:      cfg.Heuristics,
		tokenRun: regexp.MustCompile(fmt.Sprintf("[A-Z0-9]{%d,%d}",
			cfg.Heuristics.TokenRunMinLen, cfg.Heuristics.TokenRunMaxLen)),
	}
}

func cleanIdentifier(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	return strings.NewReplacer(" ", "", "\t", "", "-", "", "'", "", "\"", "", "`", "").Replace(s)
}

// Canonicalize resolves the raw identifier to a canonical vehicle key or the
// no-identifier sentinel. An alias match wins over every later rule.
func (c *Canonicalizer) Canonicalize(raw string) string {
	cleaned := cleanIdentifier(raw)
	if cleaned == "" {
		return models.UnknownVehicle
	}

	if canonical, ok := c.aliases[cleaned]; ok {
		return canonical
	}

	// A leading "(" marks a manually curated identifier; it bypasses every
	// heuristic and comes back as entered, whitespace trimmed.
	if trimmed := strings.TrimSpace(raw); strings.HasPrefix(trimmed, "(") {
		return trimmed
	}

	if c.blacklisted(cleaned) {
		return models.UnknownVehicle
	}

	if c.heur.CountryPrefix != "" &&
		strings.HasPrefix(cleaned, c.heur.CountryPrefix) &&
		len(cleaned) > c.heur.PrefixStripOver {
		cleaned = cleaned[len(c.heur.CountryPrefix):]
	}

	if token := c.tokenRun.FindString(cleaned); token != "" {
		if c.blacklisted(token) {
			return models.UnknownVehicle
		}
		return token
	}

	if strings.ContainsAny(cleaned, "0123456789") {
		return cleaned
	}
	return models.UnknownVehicle
}

func (c *Canonicalizer) blacklisted(token string) bool {
	for _, b := range c.blacklist {
		if strings.Contains(token, b) {
			return true
		}
	}
	return false
}
