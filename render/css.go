package render

import (
	"errors"
	"io"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// tokens which never need whitespace around them
func tight(tt css.TokenType) bool {
	switch tt {
	case css.ColonToken, css.SemicolonToken, css.CommaToken, css.LeftBraceToken, css.RightBraceToken:
		return true
	}
	return false
}

// compactCSS drops comments and collapses whitespace in style text.
func compactCSS(text string) (string, error) {
	l := css.NewLexer(parse.NewInput(strings.NewReader(text)))

	var (
		b     strings.Builder
		last  css.TokenType
		space bool
	)
	for {
		tt, data := l.Next()
		switch tt {
		case css.ErrorToken:
			if err := l.Err(); err != nil && !errors.Is(err, io.EOF) {
				return "", err
			}
			return b.String(), nil
		case css.CommentToken:
			continue
		case css.WhitespaceToken:
			space = b.Len() > 0
			continue
		}
		if space && !tight(tt) && !tight(last) {
			b.WriteByte(' ')
		}
		space = false
		b.Write(data)
		last = tt
	}
}
