// Copyright 2026 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package base

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/juju/errors"
)

// ValidateFieldName validates field name. Field name cannot be empty and contain [:] or the separator.
func ValidateFieldName(text, sep string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("field name cannot be empty")
	} else if strings.Contains(text, ":") {
		return fmt.Errorf("field name cannot contain `:`")
	} else if sep != "" && strings.Contains(text, sep) {
		return fmt.Errorf("field name cannot contain `%s`", sep)
	}
	return nil
}

// Escape text for delimited files.
func Escape(text, sep string) string {
	// check if need escape
	if !strings.Contains(text, sep) &&
		!strings.Contains(text, "\"") &&
		!strings.Contains(text, "\n") &&
		!strings.Contains(text, "\r") {
		return text
	}
	// start to encode
	builder := strings.Builder{}
	builder.WriteRune('"')
	for _, c := range text {
		if c == '"' {
			builder.WriteString("\"\"")
		} else {
			builder.WriteRune(c)
		}
	}
	builder.WriteRune('"')
	return builder.String()
}

// ReadLines parse fields of each line for delimited file. The handler receives the number of the
// first physical line of the record, so that errors can point at the source line. A quote left open
// at the end of input is an error.
func ReadLines(sc *bufio.Scanner, sep string, handler func(int, []string) bool) error {
	lineCount := 0               // line number of current position
	startLine := 0               // line number where current record starts
	fields := make([]string, 0)  // fields for current line
	builder := strings.Builder{} // string builder for current field
	quoted := false              // whether current position in quote
	sepRunes := []rune(sep)
	for sc.Scan() {
		// read line
		line := []rune(strings.TrimSuffix(sc.Text(), "\r"))
		// start of line
		if quoted {
			builder.WriteString("\r\n")
		} else {
			startLine = lineCount
		}
		// parse line
		for i := 0; i < len(line); i++ {
			if !quoted && hasPrefix(line[i:], sepRunes) {
				// end of field
				fields = append(fields, builder.String())
				builder.Reset()
				i += len(sepRunes) - 1
			} else if line[i] == '"' {
				if quoted {
					if i+1 >= len(line) || line[i+1] != '"' {
						// end of quoted
						quoted = false
					} else {
						i++
						builder.WriteRune('"')
					}
				} else {
					// start of quoted
					quoted = true
				}
			} else {
				builder.WriteRune(line[i])
			}
		}
		// end of line
		if !quoted {
			fields = append(fields, builder.String())
			builder.Reset()
			if !handler(startLine, fields) {
				return nil
			}
			fields = []string{}
		}
		// increase line count
		lineCount++
	}
	if err := sc.Err(); err != nil {
		return errors.Trace(err)
	}
	if quoted {
		return errors.NotValidf("unterminated quote starting at line %d", startLine+1)
	}
	return nil
}

func hasPrefix(line, prefix []rune) bool {
	if len(prefix) == 0 || len(line) < len(prefix) {
		return false
	}
	for i := range prefix {
		if line[i] != prefix[i] {
			return false
		}
	}
	return true
}
