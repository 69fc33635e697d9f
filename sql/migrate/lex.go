// Copyright 2024-present The pgalign Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package migrate

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Stmt represents a scanned statement text along with its
// position in the input and associated comments group.
type Stmt struct {
	Pos      int      // statement position
	Text     string   // statement text
	Comments []string // associated comments
}

// Stmts extracts the SQL statements from the given input. Statements are
// separated by semicolons that reside outside strings, comments, dollar
// quoting and parentheses.
func Stmts(input string) ([]*Stmt, error) {
	var stmts []*Stmt
	l := &lex{input: input}
	for {
		s, err := l.stmt()
		if err == io.EOF {
			return stmts, nil
		}
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
}

type lex struct {
	input    string
	pos      int      // current position
	total    int      // total bytes scanned so far
	width    int      // size of latest rune
	depth    int      // depth of parentheses
	comments []string // collected comments
}

const eos = -1

func (l *lex) stmt() (*Stmt, error) {
	var text string
	l.skipSpaces()
Scan:
	for {
		switch r := l.next(); {
		case r == eos:
			if l.depth > 0 {
				return nil, errors.New("unclosed parentheses")
			}
			if l.pos > 0 {
				text = l.input
				break Scan
			}
			return nil, io.EOF
		case r == '(':
			l.depth++
		case r == ')':
			if l.depth == 0 {
				return nil, fmt.Errorf("unexpected ')' at position %d", l.total)
			}
			l.depth--
		case r == '\'', r == '"':
			if err := l.skipQuote(r); err != nil {
				return nil, err
			}
		case r == '$':
			if err := l.skipDollarQuote(); err != nil {
				return nil, err
			}
		case r == ';' && l.depth == 0:
			text = l.input[:l.pos]
			break Scan
		case r == '-' && l.peek() == '-':
			l.next()
			l.comment("--", "\n")
		case r == '/' && l.peek() == '*':
			l.next()
			l.comment("/*", "*/")
		}
	}
	return l.emit(text), nil
}

func (l *lex) next() rune {
	if l.pos >= len(l.input) {
		return eos
	}
	r, w := utf8.DecodeRuneInString(l.input[l.pos:])
	l.width = w
	l.addPos(w)
	return r
}

// peek returns the next rune without consuming it.
func (l *lex) peek() rune {
	if l.pos >= len(l.input) {
		return eos
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.pos:])
	return r
}

func (l *lex) addPos(p int) {
	l.pos += p
	l.total += p
}

// skipQuote scans until the closing quote. A doubled quote character
// escapes itself, following PostgreSQL quoting rules.
func (l *lex) skipQuote(quote rune) error {
	for {
		switch r := l.next(); {
		case r == eos:
			return fmt.Errorf("unclosed quote %q", quote)
		case r == quote:
			if l.pos < len(l.input) && rune(l.input[l.pos]) == quote {
				l.next()
				continue
			}
			return nil
		}
	}
}

// skipDollarQuote scans a $tag$ ... $tag$ quoted body. A '$' that does
// not open a dollar quote is left as a regular character.
func (l *lex) skipDollarQuote() error {
	start := l.pos - l.width
	i := strings.IndexByte(l.input[l.pos:], '$')
	if i == -1 {
		return nil
	}
	tag := l.input[start : l.pos+i+1]
	for _, r := range tag[1 : len(tag)-1] {
		if !unicode.IsLetter(r) && r != '_' {
			return nil
		}
	}
	l.addPos(i + 1)
	j := strings.Index(l.input[l.pos:], tag)
	if j == -1 {
		return fmt.Errorf("unclosed dollar quote %q", tag)
	}
	l.addPos(j + len(tag))
	return nil
}

func (l *lex) comment(left, right string) {
	i := strings.Index(l.input[l.pos:], right)
	// An unterminated line comment ends the input.
	if i == -1 {
		l.addPos(len(l.input) - l.pos)
		return
	}
	// If the comment resides inside a statement, collect it.
	if l.pos != len(left) {
		l.addPos(i + len(right))
		return
	}
	l.addPos(i + len(right))
	// If no statement characters were scanned, the comment is
	// skipped and stored in the comments group.
	l.comments = append(l.comments, strings.TrimSpace(l.input[:l.pos]))
	l.input = l.input[l.pos:]
	l.pos = 0
	l.skipSpaces()
}

func (l *lex) skipSpaces() {
	n := len(l.input)
	l.input = strings.TrimLeftFunc(l.input, unicode.IsSpace)
	l.total += n - len(l.input)
}

func (l *lex) emit(text string) *Stmt {
	s := &Stmt{Pos: l.total - len(text), Text: strings.TrimSpace(text), Comments: l.comments}
	l.input = l.input[l.pos:]
	l.pos = 0
	l.comments = nil
	return s
}
