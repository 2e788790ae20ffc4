/*
Copyright 2025 The Kubernetes Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package markdown sanitizes Markdown text that will be embedded in
// comments CLOWarden posts back to pull requests, so content the
// organization's own config files control can't smuggle in fenced
// blocks or escape the surrounding comment structure.
package markdown

import "regexp"

var (
	backtickBlock = regexp.MustCompile("(?m)^```[^\n]*\n(?:.*\n)*?^```[ \t]*$\n?")
	tildeBlock    = regexp.MustCompile("(?m)^~~~[^\n]*\n(?:.*\n)*?^~~~[ \t]*$\n?")
)

// DropCodeBlock removes every well-formed fenced code block (``` or ~~~,
// with or without a language hint) from text. A fence that is never
// closed, or whose closing line carries trailing text, is left untouched
// since it isn't a block at all as far as a Markdown renderer is
// concerned.
func DropCodeBlock(text string) string {
	text = backtickBlock.ReplaceAllString(text, "")
	text = tildeBlock.ReplaceAllString(text, "")
	return text
}
