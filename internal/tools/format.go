package tools

import (
	"fmt"
	"strings"

	"github.com/openkcm/agreement-gateway/internal/navigator"
)

const snippetLimit = 200

// SearchResult is the connector-facing search result shape.
type SearchResult struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Text  string `json:"text"`
	URL   string `json:"url"`
}

// FetchResult is the connector-facing document envelope.
type FetchResult struct {
	ID       string         `json:"id"`
	Title    string         `json:"title"`
	Text     string         `json:"text"`
	URL      string         `json:"url"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

func partyNames(agreement navigator.Agreement) []string {
	names := make([]string, 0, len(agreement.Parties))
	for _, party := range agreement.Parties {
		if party.Name != "" {
			names = append(names, party.Name)
		}
	}

	return names
}

// FormatAgreement renders one agreement as a human readable text block.
func FormatAgreement(agreement navigator.Agreement) string {
	var b strings.Builder

	title := agreement.Title
	if title == "" {
		title = "(untitled)"
	}
	fmt.Fprintf(&b, "%s\n", title)
	fmt.Fprintf(&b, "  ID: %s\n", agreement.ID)

	if agreement.Type != "" || agreement.Category != "" || agreement.Status != "" {
		fmt.Fprintf(&b, "  Type: %s  Category: %s  Status: %s\n",
			orDash(agreement.Type), orDash(agreement.Category), orDash(agreement.Status))
	}
	if agreement.FileName != "" {
		fmt.Fprintf(&b, "  File: %s\n", agreement.FileName)
	}
	if names := partyNames(agreement); len(names) > 0 {
		fmt.Fprintf(&b, "  Parties: %s\n", strings.Join(names, ", "))
	}
	if p := agreement.Provisions; p != nil {
		if p.EffectiveDate != "" || p.ExpirationDate != "" {
			fmt.Fprintf(&b, "  Effective: %s  Expires: %s\n",
				orDash(p.EffectiveDate), orDash(p.ExpirationDate))
		}
		if p.TotalAgreementValue != 0 {
			fmt.Fprintf(&b, "  Total value: %.2f\n", p.TotalAgreementValue)
		}
	}
	if agreement.Summary != "" {
		fmt.Fprintf(&b, "  Summary: %s\n", agreement.Summary)
	}

	return b.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}

	return s
}

// Snippet truncates text for search results.
func Snippet(s string) string {
	runes := []rune(s)
	if len(runes) <= snippetLimit {
		return s
	}

	return string(runes[:snippetLimit])
}

func searchText(agreement navigator.Agreement) string {
	fields := []string{
		agreement.Title,
		agreement.Summary,
		agreement.Type,
		agreement.Category,
		agreement.FileName,
	}
	fields = append(fields, partyNames(agreement)...)

	return strings.ToLower(strings.Join(fields, " "))
}

// MatchAgreement reports whether any whitespace-split query term occurs in
// the agreement's searchable text. Matching is OR over terms,
// case-insensitive substring.
func MatchAgreement(agreement navigator.Agreement, query string) bool {
	haystack := searchText(agreement)
	for _, term := range strings.Fields(strings.ToLower(query)) {
		if strings.Contains(haystack, term) {
			return true
		}
	}

	return false
}

// AgreementURL synthesizes a non-authoritative placeholder link for
// connector envelopes.
func AgreementURL(accountID, agreementID string) string {
	return fmt.Sprintf("https://app.docusign.com/accounts/%s/agreements/%s", accountID, agreementID)
}

// SnippetForAgreement builds the search result text for one agreement.
func SnippetForAgreement(agreement navigator.Agreement) string {
	if agreement.Summary != "" {
		return Snippet(agreement.Summary)
	}

	return Snippet(FormatAgreement(agreement))
}
