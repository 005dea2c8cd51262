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
	"strings"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
)

func TestValidateFieldName(t *testing.T) {
	assert.NotNil(t, ValidateFieldName("", ","))
	assert.NotNil(t, ValidateFieldName("user_id:token", ","))
	assert.NotNil(t, ValidateFieldName("a,b", ","))
	assert.Nil(t, ValidateFieldName("user_id", ","))
	assert.Nil(t, ValidateFieldName("a,b", "\t"))
}

func TestEscape(t *testing.T) {
	assert.Equal(t, "123", Escape("123", ","))
	assert.Equal(t, "\"\"\"123\"\"\"", Escape("\"123\"", ","))
	assert.Equal(t, "\"1,2,3\"", Escape("1,2,3", ","))
	assert.Equal(t, "1,2,3", Escape("1,2,3", "\t"))
	assert.Equal(t, "\"1\t2\"", Escape("1\t2", "\t"))
	assert.Equal(t, "\"\"\",\"\"\"", Escape("\",\"", ","))
	assert.Equal(t, "\"1\r\n2\r\n3\"", Escape("1\r\n2\r\n3", ","))
}

func splitLines(t *testing.T, text string, sep string) ([][]string, []int) {
	sc := bufio.NewScanner(strings.NewReader(text))
	lines := make([][]string, 0)
	numbers := make([]int, 0)
	err := ReadLines(sc, sep, func(i int, i2 []string) bool {
		lines = append(lines, i2)
		numbers = append(numbers, i)
		return i2[0] != "STOP"
	})
	assert.NoError(t, err)
	return lines, numbers
}

func TestReadLines(t *testing.T) {
	lines, _ := splitLines(t, "1,2,3\r\n4,5,6\r\n", ",")
	assert.Equal(t, [][]string{{"1", "2", "3"}, {"4", "5", "6"}}, lines)
	lines, _ = splitLines(t, "\"1,2\",\"3,4\",\"5,6\"\r\n\"2,3\",\"4,6\",\"6,9\"", ",")
	assert.Equal(t, [][]string{{"1,2", "3,4", "5,6"}, {"2,3", "4,6", "6,9"}}, lines)
	lines, _ = splitLines(t, "\"\"\"1,2\"\",\"\"3,4\"\",\"\"5,6\"\"\"\r\n\"\"\"2,3\"\",\"\"4,6\"\",\"\"6,9\"\"\"", ",")
	assert.Equal(t, [][]string{{"\"1,2\",\"3,4\",\"5,6\""}, {"\"2,3\",\"4,6\",\"6,9\""}}, lines)
	lines, numbers := splitLines(t, "\"1\r\n2\",\"3\r\n4\",\"5\r\n6\"\r\n\"2\r\n3\",\"4\r\n6\",\"6\r\n9\"", ",")
	assert.Equal(t, [][]string{{"1\r\n2", "3\r\n4", "5\r\n6"}, {"2\r\n3", "4\r\n6", "6\r\n9"}}, lines)
	assert.Equal(t, []int{0, 4}, numbers)
	lines, _ = splitLines(t, "1,2,3\r\n4,5,6\r\nSTOP\r\n7,8,9", ",")
	assert.Equal(t, [][]string{{"1", "2", "3"}, {"4", "5", "6"}, {"STOP"}}, lines)
	lines, _ = splitLines(t, "a::b::c\nd::e::f", "::")
	assert.Equal(t, [][]string{{"a", "b", "c"}, {"d", "e", "f"}}, lines)
	lines, _ = splitLines(t, "a\t\tc\n", "\t")
	assert.Equal(t, [][]string{{"a", "", "c"}}, lines)
}

func TestReadLinesUnterminatedQuote(t *testing.T) {
	sc := bufio.NewScanner(strings.NewReader("1,a\n2,\"b\n3,c\n4,d\n"))
	var lines [][]string
	err := ReadLines(sc, ",", func(_ int, fields []string) bool {
		lines = append(lines, fields)
		return true
	})
	assert.True(t, errors.IsNotValid(err))
	assert.ErrorContains(t, err, "line 2")
	assert.Equal(t, [][]string{{"1", "a"}}, lines)
}
