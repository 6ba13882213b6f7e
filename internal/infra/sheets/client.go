package sheets

import (
	"context"
	"regexp"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

var spreadsheetURLPattern = regexp.MustCompile(`/d/([a-zA-Z0-9-_]+)`)

// NewService builds a Sheets API client from an OAuth access token.
func NewService(ctx context.Context, accessToken string) (*gsheets.Service, error) {
	source := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	return gsheets.NewService(ctx, option.WithTokenSource(source))
}

// SpreadsheetID extracts the document id from a share/edit URL. Plain ids
// pass through unchanged so configs can hold either form.
func SpreadsheetID(ref string) string {
	if m := spreadsheetURLPattern.FindStringSubmatch(ref); m != nil {
		return m[1]
	}
	return ref
}

// columnLetter converts a zero-based column index to its A1 letter(s).
func columnLetter(index int) string {
	letters := ""
	for index >= 0 {
		letters = string(rune('A'+index%26)) + letters
		index = index/26 - 1
	}
	return letters
}
